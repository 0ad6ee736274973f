package uc

import (
	"context"
	"time"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler"
)

// Status is the sync admin view: schedule counts per sync state and the
// last completed pull.
type Status struct {
	Schedules  map[schedule.SyncStatus]int
	LastPullAt *time.Time
}

type SyncStatus struct {
	store scheduler.Store
}

func NewSyncStatus(store scheduler.Store) *SyncStatus {
	return &SyncStatus{store: store}
}

func (uc *SyncStatus) Execute(ctx context.Context) (*Status, error) {
	repos := uc.store.Repos()
	counts, err := repos.Schedules.CountBySyncStatus(ctx)
	if err != nil {
		return nil, err
	}
	status := &Status{Schedules: counts}
	pulls, err := repos.Audit.List(ctx, &audit.Filter{Action: "sync.pull"}, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(pulls) > 0 {
		at := pulls[0].CreatedAt
		status.LastPullAt = &at
	}
	return status, nil
}
