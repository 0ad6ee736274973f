package schedule

import (
	"context"
	"time"

	"github.com/demoplan/demoplan/engine/core"
)

// Repository persists committed assignments.
type Repository interface {
	// Create creates a new schedule
	Create(ctx context.Context, schedule *Schedule) error
	// GetByID retrieves a schedule by its ID
	GetByID(ctx context.Context, id core.ID) (*Schedule, error)
	// GetByEventRef retrieves the schedule assigned to an event, or a
	// not-found error
	GetByEventRef(ctx context.Context, refNum int) (*Schedule, error)
	// ListBetween retrieves schedules whose datetime falls in [from, to)
	ListBetween(ctx context.Context, from, to time.Time) ([]*Schedule, error)
	// ListByEmployeeBetween retrieves one employee's schedules in [from, to)
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]*Schedule, error)
	// ListBySyncStatus retrieves schedules in the given sync state
	ListBySyncStatus(ctx context.Context, status SyncStatus, limit int) ([]*Schedule, error)
	// Update updates the assignment fields of an existing schedule
	Update(ctx context.Context, schedule *Schedule) error
	// Delete removes a schedule
	Delete(ctx context.Context, id core.ID) error
	// MarkSyncPending resets a schedule to the pending sync state
	MarkSyncPending(ctx context.Context, id core.ID) error
	// MarkSynced records a successful push and the upstream identity
	MarkSynced(ctx context.Context, id core.ID, upstreamRef string, at time.Time) error
	// MarkSyncFailed records a push failure with its details
	MarkSyncFailed(ctx context.Context, id core.ID, details string) error
	// CountBySyncStatus returns the number of schedules per sync state
	CountBySyncStatus(ctx context.Context) (map[SyncStatus]int, error)
}
