package uc

import (
	"context"
	"time"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/pkg/config"
)

// CreateScheduleInput is a manual assignment outside a scheduler run.
type CreateScheduleInput struct {
	EventRefNum int
	EmployeeID  string
	Datetime    time.Time
	Actor       string
}

// CreateSchedule commits a manual assignment and enqueues its upstream push.
// Unlike approval there is no identity pre-check here: a row with missing
// upstream ids simply fails its push and surfaces as sync_status=failed.
type CreateSchedule struct {
	store scheduler.Store
	queue TaskEnqueuer
	cfg   *config.SchedulerConfig
	loc   *time.Location
	input *CreateScheduleInput
}

func NewCreateSchedule(
	store scheduler.Store,
	queue TaskEnqueuer,
	cfg *config.SchedulerConfig,
	loc *time.Location,
	input *CreateScheduleInput,
) *CreateSchedule {
	return &CreateSchedule{store: store, queue: queue, cfg: cfg, loc: loc, input: input}
}

func (uc *CreateSchedule) Execute(ctx context.Context) (*schedule.Schedule, error) {
	repos := uc.store.Repos()
	ev, err := repos.Events.GetByRefNum(ctx, uc.input.EventRefNum)
	if err != nil {
		return nil, err
	}
	switch _, err := repos.Schedules.GetByEventRef(ctx, ev.ProjectRefNum); {
	case err == nil:
		return nil, core.NewError(core.KindConflict, "event %d already has a schedule", ev.ProjectRefNum)
	case !isNotFound(err):
		return nil, err
	}
	emp, err := repos.Roster.GetByID(ctx, uc.input.EmployeeID)
	if err != nil {
		return nil, err
	}
	start := uc.input.Datetime.In(uc.loc)
	if err := validateAssignment(ctx, repos, uc.cfg, uc.loc, ev, emp, start); err != nil {
		return nil, err
	}

	sched := &schedule.Schedule{
		ID:               core.MustNewID(),
		EventRefNum:      ev.ProjectRefNum,
		EmployeeID:       emp.ID,
		ScheduleDatetime: start,
		SyncStatus:       schedule.SyncPending,
	}
	err = uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		if err := r.Schedules.Create(ctx, sched); err != nil {
			return err
		}
		if err := r.Events.SetScheduled(ctx, ev.ProjectRefNum, true, event.ConditionScheduled); err != nil {
			return err
		}
		if err := r.Audit.Append(ctx, audit.New(
			uc.input.Actor, "schedule.create", "schedule", sched.ID.String(), nil, sched,
		)); err != nil {
			return err
		}
		return uc.queue.PushNewTx(ctx, r.Tx, sched.ID)
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}
