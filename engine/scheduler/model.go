package scheduler

import (
	"time"

	"github.com/demoplan/demoplan/engine/core"
)

// ProposalStatus is the review lifecycle of a proposed assignment. A
// proposal never becomes a committed schedule directly; approval creates the
// schedule and moves the proposal to api_submitted once the push is
// enqueued.
type ProposalStatus string

const (
	StatusProposed     ProposalStatus = "proposed"
	StatusEdited       ProposalStatus = "edited"
	StatusApproved     ProposalStatus = "approved"
	StatusRejected     ProposalStatus = "rejected"
	StatusAPISubmitted ProposalStatus = "api_submitted"
	StatusAPIFailed    ProposalStatus = "api_failed"
)

// Reviewable reports whether the proposal still awaits a decision.
func (s ProposalStatus) Reviewable() bool {
	return s == StatusProposed || s == StatusEdited
}

// PendingSchedule is one proposed assignment produced by a scheduler run,
// awaiting human review. EmployeeID and ScheduleDatetime are nil when the
// run could not place the event; DisplacedScheduleID is set when the
// proposal bumps an existing schedule.
type PendingSchedule struct {
	ID                  core.ID        `db:"id"`
	RunID               core.ID        `db:"run_id"`
	EventRefNum         int            `db:"event_ref_num"`
	EmployeeID          *string        `db:"employee_id"`
	ScheduleDatetime    *time.Time     `db:"schedule_datetime"`
	Status              ProposalStatus `db:"status"`
	IsSwap              bool           `db:"is_swap"`
	SwapReason          string         `db:"swap_reason"`
	DisplacedScheduleID *core.ID       `db:"displaced_schedule_id"`
	FailureReason       string         `db:"failure_reason"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

// Placed reports whether the proposal carries a concrete assignment.
func (p *PendingSchedule) Placed() bool {
	return p.EmployeeID != nil && p.ScheduleDatetime != nil
}

// RunType records what triggered a scheduler run.
type RunType string

const (
	RunTypeManual   RunType = "manual"
	RunTypePeriodic RunType = "periodic"
)

// RunState is the lifecycle of a scheduler run. At most one run is running
// at a time.
type RunState string

const (
	RunStateRunning RunState = "running"
	RunStateSuccess RunState = "success"
	RunStateFailed  RunState = "failed"
)

// RunHistory is the durable record of one scheduler run. For a successful
// run Scheduled + RequiringSwaps + Failed = TotalProcessed.
type RunHistory struct {
	ID             core.ID    `db:"id"`
	StartedAt      time.Time  `db:"started_at"`
	EndedAt        *time.Time `db:"ended_at"`
	RunType        RunType    `db:"run_type"`
	State          RunState   `db:"state"`
	TotalProcessed int        `db:"total_processed"`
	Scheduled      int        `db:"scheduled"`
	RequiringSwaps int        `db:"requiring_swaps"`
	Failed         int        `db:"failed"`
	ErrorMessage   string     `db:"error_message"`
}
