package scheduler

import (
	"context"
	"time"

	"github.com/demoplan/demoplan/engine/core"
)

// RunRepository persists scheduler run records.
type RunRepository interface {
	// Create creates a run record; creation fails with a conflict error
	// when another run is already in the running state
	Create(ctx context.Context, run *RunHistory) error
	// AcquireRunLock takes the transaction-scoped scheduler lock, failing
	// with a conflict error when another run holds it
	AcquireRunLock(ctx context.Context) error
	// GetByID retrieves a run by its ID
	GetByID(ctx context.Context, id core.ID) (*RunHistory, error)
	// List retrieves runs newest first
	List(ctx context.Context, limit, offset int) ([]*RunHistory, error)
	// Finish records the terminal state, counters and end time of a run
	Finish(ctx context.Context, run *RunHistory) error
}

// ProposalRepository persists proposed assignments.
type ProposalRepository interface {
	// CreateBatch creates all proposals of a run
	CreateBatch(ctx context.Context, proposals []*PendingSchedule) error
	// GetByID retrieves a proposal by its ID
	GetByID(ctx context.Context, id core.ID) (*PendingSchedule, error)
	// ListByRun retrieves all proposals of a run ordered by creation
	ListByRun(ctx context.Context, runID core.ID) ([]*PendingSchedule, error)
	// UpdateAssignment rewrites the employee and datetime of a proposal and
	// marks it edited
	UpdateAssignment(ctx context.Context, id core.ID, employeeID string, datetime time.Time) error
	// UpdateStatus moves a proposal to a new status, recording a failure
	// reason when one applies
	UpdateStatus(ctx context.Context, id core.ID, status ProposalStatus, reason string) error
	// UpdateStatusByRun moves every proposal of a run in the given statuses
	// to a new status
	UpdateStatusByRun(ctx context.Context, runID core.ID, from []ProposalStatus, to ProposalStatus) error
}
