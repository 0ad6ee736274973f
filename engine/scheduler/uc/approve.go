package uc

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/pkg/logger"
)

// TaskEnqueuer inserts upstream sync jobs inside the approval transaction,
// so jobs become visible to workers only when the local state commits.
type TaskEnqueuer interface {
	// PushNewTx enqueues an upstream create for a schedule
	PushNewTx(ctx context.Context, tx pgx.Tx, scheduleID core.ID) error
	// PushDeleteTx enqueues an upstream delete for a displaced schedule
	PushDeleteTx(ctx context.Context, tx pgx.Tx, scheduleID core.ID, upstreamRef string) error
}

// -----------------------------------------------------------------------------
// ApproveRun
// -----------------------------------------------------------------------------

// ApprovalResult summarizes what an approval did.
type ApprovalResult struct {
	Approved    int
	APIFailed   int
	Skipped     int
	ScheduleIDs []core.ID
}

type ApproveRun struct {
	store scheduler.Store
	queue TaskEnqueuer
	runID core.ID
	actor string
}

func NewApproveRun(store scheduler.Store, queue TaskEnqueuer, runID core.ID, actor string) *ApproveRun {
	return &ApproveRun{store: store, queue: queue, runID: runID, actor: actor}
}

// Execute commits every reviewable proposal of the run: swaps first remove
// the displaced schedule, then each placement becomes a pending Schedule
// with an upstream create enqueued in the same transaction. Placements
// missing a required upstream identity become api_failed instead.
func (uc *ApproveRun) Execute(ctx context.Context) (*ApprovalResult, error) {
	log := logger.FromContext(ctx)
	run, err := uc.store.Repos().Runs.GetByID(ctx, uc.runID)
	if err != nil {
		return nil, err
	}
	if run.State != scheduler.RunStateSuccess {
		return nil, core.NewError(core.KindConflict, "run %s is %s and cannot be approved", run.ID, run.State)
	}

	result := &ApprovalResult{}
	err = uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		proposals, err := r.Proposals.ListByRun(ctx, uc.runID)
		if err != nil {
			return err
		}
		reviewable := 0
		for _, prop := range proposals {
			if !prop.Status.Reviewable() {
				continue
			}
			reviewable++
			if !prop.Placed() {
				// Unplaced failure records carry no assignment to commit.
				result.Skipped++
				continue
			}
			if err := uc.approveOne(ctx, r, prop, result); err != nil {
				return err
			}
		}
		if reviewable == 0 {
			return core.NewError(core.KindConflict, "run %s has no reviewable proposals", uc.runID)
		}
		return r.Audit.Append(ctx, audit.New(
			uc.actor, "scheduler.run.approve", "scheduler_run", uc.runID.String(), nil, result,
		))
	})
	if err != nil {
		return nil, err
	}
	log.Info("Scheduler run approved",
		"run_id", uc.runID,
		"approved", result.Approved,
		"api_failed", result.APIFailed,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (uc *ApproveRun) approveOne(
	ctx context.Context,
	r *scheduler.Repos,
	prop *scheduler.PendingSchedule,
	result *ApprovalResult,
) error {
	ev, err := r.Events.GetByRefNum(ctx, prop.EventRefNum)
	if err != nil {
		return err
	}
	emp, err := r.Roster.GetByID(ctx, *prop.EmployeeID)
	if err != nil {
		return err
	}
	if reason := pushPrecheck(ev, emp); reason != "" {
		result.APIFailed++
		return r.Proposals.UpdateStatus(ctx, prop.ID, scheduler.StatusAPIFailed, reason)
	}
	if prop.IsSwap && prop.DisplacedScheduleID != nil {
		if err := uc.unscheduleDisplaced(ctx, r, *prop.DisplacedScheduleID); err != nil {
			return err
		}
	}
	sched := &schedule.Schedule{
		ID:               core.MustNewID(),
		EventRefNum:      prop.EventRefNum,
		EmployeeID:       emp.ID,
		ScheduleDatetime: *prop.ScheduleDatetime,
		SyncStatus:       schedule.SyncPending,
	}
	if err := r.Schedules.Create(ctx, sched); err != nil {
		return err
	}
	if err := r.Events.SetScheduled(ctx, prop.EventRefNum, true, event.ConditionScheduled); err != nil {
		return err
	}
	if err := r.Proposals.UpdateStatus(ctx, prop.ID, scheduler.StatusAPISubmitted, ""); err != nil {
		return err
	}
	if err := uc.queue.PushNewTx(ctx, r.Tx, sched.ID); err != nil {
		return err
	}
	result.Approved++
	result.ScheduleIDs = append(result.ScheduleIDs, sched.ID)
	return nil
}

// unscheduleDisplaced removes the schedule a swap displaces and flips its
// event back to unstaffed. A delete is pushed upstream only when the
// schedule ever made it there.
func (uc *ApproveRun) unscheduleDisplaced(ctx context.Context, r *scheduler.Repos, id core.ID) error {
	displaced, err := r.Schedules.GetByID(ctx, id)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			// Already gone; the swap still commits.
			return nil
		}
		return err
	}
	if err := r.Schedules.Delete(ctx, displaced.ID); err != nil {
		return err
	}
	if err := r.Events.SetScheduled(ctx, displaced.EventRefNum, false, event.ConditionUnstaffed); err != nil {
		return err
	}
	if displaced.UpstreamRef != "" {
		return uc.queue.PushDeleteTx(ctx, r.Tx, displaced.ID, displaced.UpstreamRef)
	}
	return nil
}

// pushPrecheck reports why a placement cannot be pushed upstream, or ""
// when all required identities are present.
func pushPrecheck(ev *event.Event, emp *roster.Employee) string {
	switch {
	case emp.ExternalID == "":
		return "Missing external_id for employee"
	case ev.ExternalID == "":
		return "Missing external_id for event"
	case ev.LocationMVID == "":
		return "Missing location_mvid for event"
	}
	return ""
}

// -----------------------------------------------------------------------------
// RejectRun
// -----------------------------------------------------------------------------

type RejectRun struct {
	store scheduler.Store
	runID core.ID
	actor string
}

func NewRejectRun(store scheduler.Store, runID core.ID, actor string) *RejectRun {
	return &RejectRun{store: store, runID: runID, actor: actor}
}

// Execute marks every still-reviewable proposal rejected. Events and
// schedules are untouched.
func (uc *RejectRun) Execute(ctx context.Context) error {
	run, err := uc.store.Repos().Runs.GetByID(ctx, uc.runID)
	if err != nil {
		return err
	}
	if run.State != scheduler.RunStateSuccess {
		return core.NewError(core.KindConflict, "run %s is %s and cannot be rejected", run.ID, run.State)
	}
	return uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		reviewable := []scheduler.ProposalStatus{scheduler.StatusProposed, scheduler.StatusEdited}
		if err := r.Proposals.UpdateStatusByRun(ctx, uc.runID, reviewable, scheduler.StatusRejected); err != nil {
			return err
		}
		return r.Audit.Append(ctx, audit.New(
			uc.actor, "scheduler.run.reject", "scheduler_run", uc.runID.String(), nil, nil,
		))
	})
}
