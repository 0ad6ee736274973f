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

// TradeResult returns both rows after the swap.
type TradeResult struct {
	First  *schedule.Schedule
	Second *schedule.Schedule
}

// tradePair snapshots both sides for one audit entry.
type tradePair struct {
	First  *schedule.Schedule `json:"first"`
	Second *schedule.Schedule `json:"second"`
}

// Trade swaps the employees of two committed schedules. Both pairings are
// revalidated with both rows excluded from the conflict facts, since the
// swap replaces them together.
type Trade struct {
	store    scheduler.Store
	queue    TaskEnqueuer
	cfg      *config.SchedulerConfig
	loc      *time.Location
	firstID  core.ID
	secondID core.ID
	actor    string
}

func NewTrade(
	store scheduler.Store,
	queue TaskEnqueuer,
	cfg *config.SchedulerConfig,
	loc *time.Location,
	firstID, secondID core.ID,
	actor string,
) *Trade {
	return &Trade{
		store: store, queue: queue, cfg: cfg, loc: loc,
		firstID: firstID, secondID: secondID, actor: actor,
	}
}

func (uc *Trade) Execute(ctx context.Context) (*TradeResult, error) {
	if uc.firstID == uc.secondID {
		return nil, core.NewError(core.KindValidation, "a trade needs two different schedules")
	}
	repos := uc.store.Repos()
	first, err := repos.Schedules.GetByID(ctx, uc.firstID)
	if err != nil {
		return nil, err
	}
	second, err := repos.Schedules.GetByID(ctx, uc.secondID)
	if err != nil {
		return nil, err
	}
	if first.EmployeeID == second.EmployeeID {
		return nil, core.NewError(core.KindValidation, "schedules %s and %s share an employee", first.ID, second.ID)
	}
	firstEvent, err := repos.Events.GetByRefNum(ctx, first.EventRefNum)
	if err != nil {
		return nil, err
	}
	secondEvent, err := repos.Events.GetByRefNum(ctx, second.EventRefNum)
	if err != nil {
		return nil, err
	}
	firstEmployee, err := repos.Roster.GetByID(ctx, first.EmployeeID)
	if err != nil {
		return nil, err
	}
	secondEmployee, err := repos.Roster.GetByID(ctx, second.EmployeeID)
	if err != nil {
		return nil, err
	}

	firstStart := first.ScheduleDatetime.In(uc.loc)
	secondStart := second.ScheduleDatetime.In(uc.loc)
	if err := validateAssignment(ctx, repos, uc.cfg, uc.loc, firstEvent, secondEmployee, firstStart, first.ID, second.ID); err != nil {
		return nil, err
	}
	if err := validateAssignment(ctx, repos, uc.cfg, uc.loc, secondEvent, firstEmployee, secondStart, first.ID, second.ID); err != nil {
		return nil, err
	}

	before := tradePair{First: first, Second: second}
	err = uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		for _, side := range []struct {
			sched      *schedule.Schedule
			employeeID string
		}{
			{first, secondEmployee.ID},
			{second, firstEmployee.ID},
		} {
			cp := *side.sched
			cp.EmployeeID = side.employeeID
			cp.SyncStatus = schedule.SyncPending
			cp.APIErrorDetails = ""
			if err := r.Schedules.Update(ctx, &cp); err != nil {
				return err
			}
		}
		var err error
		if first, err = r.Schedules.GetByID(ctx, uc.firstID); err != nil {
			return err
		}
		if second, err = r.Schedules.GetByID(ctx, uc.secondID); err != nil {
			return err
		}
		if err := r.Audit.Append(ctx, audit.New(
			uc.actor, "schedule.trade", "schedule", first.ID.String(),
			&before, &tradePair{First: first, Second: second},
		)); err != nil {
			return err
		}
		if err := uc.queue.PushUpdateTx(ctx, r.Tx, first.ID, &secondEmployee.ID, nil); err != nil {
			return err
		}
		return uc.queue.PushUpdateTx(ctx, r.Tx, second.ID, &firstEmployee.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	return &TradeResult{First: first, Second: second}, nil
}
