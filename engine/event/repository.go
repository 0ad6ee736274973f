package event

import (
	"context"
	"time"
)

// Repository persists events.
type Repository interface {
	// Upsert inserts or updates an event by its project reference number
	Upsert(ctx context.Context, event *Event) error
	// GetByRefNum retrieves an event by its project reference number
	GetByRefNum(ctx context.Context, refNum int) (*Event, error)
	// GetByExternalID retrieves an event by its upstream id
	GetByExternalID(ctx context.Context, externalID string) (*Event, error)
	// NextRefNum allocates a local project reference number for an event
	// created from a pull
	NextRefNum(ctx context.Context) (int, error)
	// ListByRefNums retrieves the events for the given reference numbers
	ListByRefNums(ctx context.Context, refNums []int) ([]*Event, error)
	// List retrieves events with pagination, ordered by start datetime
	List(ctx context.Context, limit, offset int) ([]*Event, error)
	// ListUnscheduledBetween retrieves unscheduled events whose start
	// datetime falls in [from, to)
	ListUnscheduledBetween(ctx context.Context, from, to time.Time) ([]*Event, error)
	// FindCoreByNumber retrieves the Core event carrying the given 6-digit
	// event number, or a not-found error
	FindCoreByNumber(ctx context.Context, number string) (*Event, error)
	// SetScheduled flips the scheduled flag and condition of an event
	SetScheduled(ctx context.Context, refNum int, scheduled bool, condition Condition) error
}
