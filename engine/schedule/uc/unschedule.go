package uc

import (
	"context"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler"
)

// -----------------------------------------------------------------------------
// Unschedule
// -----------------------------------------------------------------------------

// Unschedule removes a committed assignment and returns its event to the
// unstaffed pool. When the assignment already reached the upstream, a delete
// push rides the transaction; the upstream ref travels in the task because
// the local row is gone by the time the worker runs.
type Unschedule struct {
	store      scheduler.Store
	queue      TaskEnqueuer
	scheduleID core.ID
	actor      string
}

func NewUnschedule(store scheduler.Store, queue TaskEnqueuer, scheduleID core.ID, actor string) *Unschedule {
	return &Unschedule{store: store, queue: queue, scheduleID: scheduleID, actor: actor}
}

func (uc *Unschedule) Execute(ctx context.Context) error {
	sched, err := uc.store.Repos().Schedules.GetByID(ctx, uc.scheduleID)
	if err != nil {
		return err
	}
	return uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		if err := r.Schedules.Delete(ctx, sched.ID); err != nil {
			return err
		}
		if err := r.Events.SetScheduled(ctx, sched.EventRefNum, false, event.ConditionUnstaffed); err != nil {
			return err
		}
		if err := r.Audit.Append(ctx, audit.New(
			uc.actor, "schedule.delete", "schedule", sched.ID.String(), sched, nil,
		)); err != nil {
			return err
		}
		if sched.UpstreamRef == "" {
			return nil
		}
		return uc.queue.PushDeleteTx(ctx, r.Tx, sched.ID, sched.UpstreamRef)
	})
}

// -----------------------------------------------------------------------------
// RetrySync
// -----------------------------------------------------------------------------

// RetrySync requeues the push for a schedule whose sync exhausted its
// retries. Rows still pending or already synced are not retryable.
type RetrySync struct {
	store      scheduler.Store
	queue      TaskEnqueuer
	scheduleID core.ID
	actor      string
}

func NewRetrySync(store scheduler.Store, queue TaskEnqueuer, scheduleID core.ID, actor string) *RetrySync {
	return &RetrySync{store: store, queue: queue, scheduleID: scheduleID, actor: actor}
}

func (uc *RetrySync) Execute(ctx context.Context) (*schedule.Schedule, error) {
	sched, err := uc.store.Repos().Schedules.GetByID(ctx, uc.scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.SyncStatus != schedule.SyncFailed {
		return nil, core.NewError(core.KindConflict, "schedule %s is %s, only failed syncs can be retried", sched.ID, sched.SyncStatus)
	}
	before := *sched
	err = uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		if err := r.Schedules.MarkSyncPending(ctx, sched.ID); err != nil {
			return err
		}
		after, err := r.Schedules.GetByID(ctx, sched.ID)
		if err != nil {
			return err
		}
		sched = after
		if err := r.Audit.Append(ctx, audit.New(
			uc.actor, "schedule.retry_sync", "schedule", sched.ID.String(), &before, after,
		)); err != nil {
			return err
		}
		// A row that never reached the upstream retries as a fresh push;
		// one that did retries as an update of the existing assignment.
		if sched.UpstreamRef == "" {
			return uc.queue.PushNewTx(ctx, r.Tx, sched.ID)
		}
		return uc.queue.PushUpdateTx(ctx, r.Tx, sched.ID, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}
