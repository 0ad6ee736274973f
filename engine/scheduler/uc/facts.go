package uc

import (
	"context"
	"time"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/engine/scheduler/constraint"
)

// committedFacts is a one-employee, one-date Facts view over committed
// schedules, for revalidating an edit outside a run.
type committedFacts struct {
	employeeID  string
	date        core.Date
	calendar    *roster.Calendar
	assignments []constraint.Assignment
}

// loadCommittedFacts preloads the calendar and same-day committed
// assignments for one candidate. A swap proposal's displaced schedule is
// excluded: approving it removes that assignment.
func loadCommittedFacts(
	ctx context.Context,
	repos *scheduler.Repos,
	employeeID string,
	date core.Date,
	loc *time.Location,
	displacedID *core.ID,
) (*committedFacts, error) {
	calendars, err := repos.Roster.Calendars(ctx, date, date)
	if err != nil {
		return nil, err
	}
	schedules, err := repos.Schedules.ListByEmployeeBetween(ctx, employeeID, date.In(loc), date.AddDays(1).In(loc))
	if err != nil {
		return nil, err
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
		if displacedID != nil && s.ID == *displacedID {
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
