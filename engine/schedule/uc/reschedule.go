package uc

import (
	"context"
	"time"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/pkg/config"
)

// -----------------------------------------------------------------------------
// Reschedule
// -----------------------------------------------------------------------------

// Reschedule moves a committed assignment to a new datetime. The row goes
// back to sync_status=pending and an update push rides the transaction.
type Reschedule struct {
	store      scheduler.Store
	queue      TaskEnqueuer
	cfg        *config.SchedulerConfig
	loc        *time.Location
	scheduleID core.ID
	datetime   time.Time
	actor      string
}

func NewReschedule(
	store scheduler.Store,
	queue TaskEnqueuer,
	cfg *config.SchedulerConfig,
	loc *time.Location,
	scheduleID core.ID,
	datetime time.Time,
	actor string,
) *Reschedule {
	return &Reschedule{
		store: store, queue: queue, cfg: cfg, loc: loc,
		scheduleID: scheduleID, datetime: datetime, actor: actor,
	}
}

func (uc *Reschedule) Execute(ctx context.Context) (*schedule.Schedule, error) {
	repos := uc.store.Repos()
	sched, err := repos.Schedules.GetByID(ctx, uc.scheduleID)
	if err != nil {
		return nil, err
	}
	ev, err := repos.Events.GetByRefNum(ctx, sched.EventRefNum)
	if err != nil {
		return nil, err
	}
	emp, err := repos.Roster.GetByID(ctx, sched.EmployeeID)
	if err != nil {
		return nil, err
	}
	start := uc.datetime.In(uc.loc)
	if err := validateAssignment(ctx, repos, uc.cfg, uc.loc, ev, emp, start, sched.ID); err != nil {
		return nil, err
	}

	before := *sched
	err = uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		sched.ScheduleDatetime = start
		sched.SyncStatus = schedule.SyncPending
		sched.APIErrorDetails = ""
		if err := r.Schedules.Update(ctx, sched); err != nil {
			return err
		}
		after, err := r.Schedules.GetByID(ctx, sched.ID)
		if err != nil {
			return err
		}
		sched = after
		if err := r.Audit.Append(ctx, audit.New(
			uc.actor, "schedule.reschedule", "schedule", sched.ID.String(), &before, after,
		)); err != nil {
			return err
		}
		return uc.queue.PushUpdateTx(ctx, r.Tx, sched.ID, nil, &start)
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// -----------------------------------------------------------------------------
// ChangeEmployee
// -----------------------------------------------------------------------------

// ChangeEmployee reassigns a committed schedule to a different employee at
// its current datetime.
type ChangeEmployee struct {
	store      scheduler.Store
	queue      TaskEnqueuer
	cfg        *config.SchedulerConfig
	loc        *time.Location
	scheduleID core.ID
	employeeID string
	actor      string
}

func NewChangeEmployee(
	store scheduler.Store,
	queue TaskEnqueuer,
	cfg *config.SchedulerConfig,
	loc *time.Location,
	scheduleID core.ID,
	employeeID string,
	actor string,
) *ChangeEmployee {
	return &ChangeEmployee{
		store: store, queue: queue, cfg: cfg, loc: loc,
		scheduleID: scheduleID, employeeID: employeeID, actor: actor,
	}
}

func (uc *ChangeEmployee) Execute(ctx context.Context) (*schedule.Schedule, error) {
	repos := uc.store.Repos()
	sched, err := repos.Schedules.GetByID(ctx, uc.scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.EmployeeID == uc.employeeID {
		return nil, core.NewError(core.KindValidation, "schedule %s already belongs to employee %s", sched.ID, uc.employeeID)
	}
	ev, err := repos.Events.GetByRefNum(ctx, sched.EventRefNum)
	if err != nil {
		return nil, err
	}
	emp, err := repos.Roster.GetByID(ctx, uc.employeeID)
	if err != nil {
		return nil, err
	}
	start := sched.ScheduleDatetime.In(uc.loc)
	if err := validateAssignment(ctx, repos, uc.cfg, uc.loc, ev, emp, start, sched.ID); err != nil {
		return nil, err
	}

	before := *sched
	err = uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		sched.EmployeeID = emp.ID
		sched.SyncStatus = schedule.SyncPending
		sched.APIErrorDetails = ""
		if err := r.Schedules.Update(ctx, sched); err != nil {
			return err
		}
		after, err := r.Schedules.GetByID(ctx, sched.ID)
		if err != nil {
			return err
		}
		sched = after
		if err := r.Audit.Append(ctx, audit.New(
			uc.actor, "schedule.change_employee", "schedule", sched.ID.String(), &before, after,
		)); err != nil {
			return err
		}
		return uc.queue.PushUpdateTx(ctx, r.Tx, sched.ID, &emp.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}
