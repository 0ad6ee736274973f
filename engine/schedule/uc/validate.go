package uc

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/engine/scheduler/constraint"
	"github.com/demoplan/demoplan/pkg/config"
)

// TaskEnqueuer is the slice of the task queue the schedule mutations
// consume. Enqueues ride the mutation's transaction so a rollback never
// leaves an orphan upstream write.
type TaskEnqueuer interface {
	PushNewTx(ctx context.Context, tx pgx.Tx, scheduleID core.ID) error
	PushUpdateTx(ctx context.Context, tx pgx.Tx, scheduleID core.ID, newEmployeeID *string, newDatetime *time.Time) error
	PushDeleteTx(ctx context.Context, tx pgx.Tx, scheduleID core.ID, upstreamRef string) error
}

// committedFacts is a one-employee, one-date Facts view over committed
// schedules. Mutations exclude the rows they are about to rewrite; a trade
// excludes both sides.
type committedFacts struct {
	employeeID  string
	date        core.Date
	calendar    *roster.Calendar
	assignments []constraint.Assignment
}

func loadCommittedFacts(
	ctx context.Context,
	repos *scheduler.Repos,
	employeeID string,
	date core.Date,
	loc *time.Location,
	exclude ...core.ID,
) (*committedFacts, error) {
	calendars, err := repos.Roster.Calendars(ctx, date, date)
	if err != nil {
		return nil, err
	}
	schedules, err := repos.Schedules.ListByEmployeeBetween(ctx, employeeID, date.In(loc), date.AddDays(1).In(loc))
	if err != nil {
		return nil, err
	}
	excluded := make(map[core.ID]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	refs := make([]int, 0, len(schedules))
	for _, s := range schedules {
		refs = append(refs, s.EventRefNum)
	}
	events, err := repos.Events.ListByRefNums(ctx, refs)
	if err != nil {
		return nil, err
	}
	byRef := make(map[int]*event.Event, len(events))
	for _, ev := range events {
		byRef[ev.ProjectRefNum] = ev
	}
	facts := &committedFacts{
		employeeID: employeeID,
		date:       date,
		calendar:   calendars[employeeID],
	}
	for _, s := range schedules {
		if excluded[s.ID] {
			continue
		}
		ev, ok := byRef[s.EventRefNum]
		if !ok {
			continue
		}
		facts.assignments = append(facts.assignments, constraint.Assignment{
			EventRefNum: ev.ProjectRefNum,
			EventType:   ev.EventType,
			Start:       s.ScheduleDatetime.In(loc),
			Minutes:     ev.EstimatedMinutes,
		})
	}
	return facts, nil
}

func (f *committedFacts) Calendar(employeeID string) *roster.Calendar {
	if employeeID != f.employeeID {
		return nil
	}
	return f.calendar
}

func (f *committedFacts) Assignments(employeeID string, date core.Date) []constraint.Assignment {
	if employeeID != f.employeeID || date != f.date {
		return nil
	}
	return f.assignments
}

func (f *committedFacts) CoreCount(employeeID string, date core.Date) int {
	n := 0
	for _, a := range f.Assignments(employeeID, date) {
		if a.EventType == event.TypeCore {
			n++
		}
	}
	return n
}

// validateAssignment revalidates one (event, employee, start) triple against
// committed schedules, ignoring the rows listed in exclude.
func validateAssignment(
	ctx context.Context,
	repos *scheduler.Repos,
	cfg *config.SchedulerConfig,
	loc *time.Location,
	ev *event.Event,
	emp *roster.Employee,
	start time.Time,
	exclude ...core.ID,
) error {
	if !emp.IsActive {
		return core.NewError(core.KindValidation, "employee %s is inactive", emp.ID)
	}
	facts, err := loadCommittedFacts(ctx, repos, emp.ID, core.DateOf(start), loc, exclude...)
	if err != nil {
		return err
	}
	validator := constraint.NewValidator(constraint.Config{
		CorePerDayCap:   cfg.CorePerDayCap,
		OtherNoonExempt: cfg.OtherNoonExempt,
	})
	in := &constraint.Input{Event: ev, Employee: emp, Start: start}
	if viols := validator.HardViolations(in, facts); len(viols) > 0 {
		msgs := make([]string, 0, len(viols))
		for _, v := range viols {
			msgs = append(msgs, v.Message)
		}
		return core.NewError(core.KindValidation, "assignment rejected: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func isNotFound(err error) bool {
	return core.KindOf(err) == core.KindNotFound
}
