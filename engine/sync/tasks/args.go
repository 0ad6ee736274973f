package tasks

import (
	"time"

	"github.com/demoplan/demoplan/engine/core"
)

// QueueSync is the River queue all sync tasks run on.
const QueueSync = "sync"

// PushNewArgs pushes a freshly approved schedule upstream. The worker reads
// the current Schedule row at execution; the id is the only durable fact.
type PushNewArgs struct {
	ScheduleID core.ID `json:"schedule_id"`
}

func (PushNewArgs) Kind() string { return "push_new" }

// PushUpdateArgs pushes an override after a reschedule, trade, or employee
// change. NewEmployeeID and NewDatetime are hints for operators reading the
// queue; the worker trusts the current row, not them.
type PushUpdateArgs struct {
	ScheduleID    core.ID    `json:"schedule_id"`
	NewEmployeeID *string    `json:"new_employee_id,omitempty"`
	NewDatetime   *time.Time `json:"new_datetime,omitempty"`
}

func (PushUpdateArgs) Kind() string { return "push_update" }

// PushDeleteArgs removes an upstream assignment whose local schedule is
// already gone; the upstream ref is the argument of record. ScheduleID only
// identifies the deleted row in logs.
type PushDeleteArgs struct {
	ScheduleID  core.ID `json:"schedule_id"`
	UpstreamRef string  `json:"upstream_ref"`
}

func (PushDeleteArgs) Kind() string { return "push_delete" }

// PullEventsArgs runs one reconciliation pull. No retry; the next periodic
// tick is the retry.
type PullEventsArgs struct{}

func (PullEventsArgs) Kind() string { return "pull_events" }
