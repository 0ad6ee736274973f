package schedule

import (
	"time"

	"github.com/demoplan/demoplan/engine/core"
)

// SyncStatus tracks how far a committed assignment has travelled toward the
// upstream system of record.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Valid checks if the status is a known value.
func (s SyncStatus) Valid() bool {
	return s == SyncPending || s == SyncSynced || s == SyncFailed
}

// Schedule is a committed assignment of one employee to one event at a
// concrete local datetime. At most one Schedule exists per event.
//
// UpstreamRef records the identity the upstream returned for the pushed
// assignment; a retried push checks it before creating anything so retries
// never duplicate upstream records.
type Schedule struct {
	ID               core.ID    `db:"id"`
	EventRefNum      int        `db:"event_ref_num"`
	EmployeeID       string     `db:"employee_id"`
	ScheduleDatetime time.Time  `db:"schedule_datetime"`
	SyncStatus       SyncStatus `db:"sync_status"`
	UpstreamRef      string     `db:"upstream_ref"`
	LastSynced       *time.Time `db:"last_synced"`
	APIErrorDetails  string     `db:"api_error_details"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// End returns the end of the occupied interval given the event duration.
func (s *Schedule) End(estimatedMinutes int) time.Time {
	return s.ScheduleDatetime.Add(time.Duration(estimatedMinutes) * time.Minute)
}
