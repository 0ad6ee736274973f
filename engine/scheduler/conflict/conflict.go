package conflict

import (
	"fmt"
	"sort"
	"time"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler/constraint"
)

// minBumpableUrgency guards imminent events: anything due within two days
// stays where it is.
const minBumpableUrgency = 2

// ScheduledItem pairs a committed schedule with its event.
type ScheduledItem struct {
	Schedule *schedule.Schedule
	Event    *event.Event
}

// Board views the committed assignment state a resolver ranks for bumping.
type Board interface {
	// ScheduledOn returns the committed items for a date, restricted to one
	// employee when employeeID is non-empty
	ScheduledOn(date core.Date, employeeID string) []ScheduledItem
}

// Candidate is a bumpable schedule with its urgency.
type Candidate struct {
	Item    ScheduledItem
	Urgency int
}

// SwapProposal displaces one committed schedule in favor of a more urgent
// incoming event at the same slot.
type SwapProposal struct {
	Incoming  *event.Event
	Employee  *roster.Employee
	Start     time.Time
	Displaced ScheduledItem
	Reason    string
}

// Resolver ranks committed schedules by how safely they can be displaced.
// Urgency is days until due relative to the run reference date; lower is
// more urgent, and only a strictly less urgent schedule may be bumped.
type Resolver struct {
	validator *constraint.Validator
	facts     constraint.Facts
	board     Board
	loc       *time.Location
	reference core.Date
}

func NewResolver(
	validator *constraint.Validator,
	facts constraint.Facts,
	board Board,
	loc *time.Location,
	reference core.Date,
) *Resolver {
	return &Resolver{validator: validator, facts: facts, board: board, loc: loc, reference: reference}
}

// Urgency returns days until the event is due, relative to the reference
// date.
func (r *Resolver) Urgency(ev *event.Event) int {
	return r.reference.DaysUntil(ev.DueDate(r.loc))
}

// Bumpable returns the displaceable schedules for a date (optionally one
// employee's), least urgent first. Supervisor events and events due within
// two days are never bumpable.
func (r *Resolver) Bumpable(date core.Date, employeeID string) []Candidate {
	items := r.board.ScheduledOn(date, employeeID)
	out := make([]Candidate, 0, len(items))
	for _, item := range items {
		if item.Event.EventType == event.TypeSupervisor {
			continue
		}
		urg := r.Urgency(item.Event)
		if urg < minBumpableUrgency {
			continue
		}
		out = append(out, Candidate{Item: item, Urgency: urg})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Urgency != out[j].Urgency {
			return out[i].Urgency > out[j].Urgency
		}
		return out[i].Item.Event.ProjectRefNum < out[j].Item.Event.ProjectRefNum
	})
	return out
}

// Resolve picks the most-bumpable schedule of the employee on the date
// whose urgency strictly exceeds the incoming event's, and whose slot the
// incoming event can actually take. Nil when no safe swap exists.
func (r *Resolver) Resolve(incoming *event.Event, date core.Date, emp *roster.Employee) *SwapProposal {
	incomingUrgency := r.Urgency(incoming)
	for _, c := range r.Bumpable(date, emp.ID) {
		if c.Urgency <= incomingUrgency {
			// Sorted least urgent first; nothing further qualifies.
			break
		}
		start := c.Item.Schedule.ScheduleDatetime.In(r.loc)
		in := &constraint.Input{Event: incoming, Employee: emp, Start: start}
		facts := withoutAssignment(r.facts, emp.ID, c.Item.Event.ProjectRefNum)
		if len(r.validator.HardViolations(in, facts)) > 0 {
			continue
		}
		return &SwapProposal{
			Incoming:  incoming,
			Employee:  emp,
			Start:     start,
			Displaced: c.Item,
			Reason: fmt.Sprintf(
				"bumps event %d %q (due %s) assigned to %s at %s; incoming event %d is due %s",
				c.Item.Event.ProjectRefNum, c.Item.Event.ProjectName, c.Item.Event.DueDate(r.loc),
				emp.Name, core.ClockOf(start),
				incoming.ProjectRefNum, incoming.DueDate(r.loc),
			),
		}
	}
	return nil
}

// AlternativeDates enumerates the dates in the event's window, other than
// exclude, on which (ev, emp, defaultClock) has no hard violations.
func (r *Resolver) AlternativeDates(
	ev *event.Event,
	emp *roster.Employee,
	defaultClock core.Clock,
	exclude core.Date,
) []core.Date {
	var out []core.Date
	for d := ev.StartDate(r.loc); !d.After(ev.DueDate(r.loc)); d = d.AddDays(1) {
		if d == exclude {
			continue
		}
		in := &constraint.Input{Event: ev, Employee: emp, Start: d.At(defaultClock, r.loc)}
		if len(r.validator.HardViolations(in, r.facts)) == 0 {
			out = append(out, d)
		}
	}
	return out
}

// withoutAssignment hides one assignment from the facts so a swap
// feasibility check does not see the schedule it is about to displace.
type withoutFacts struct {
	constraint.Facts
	employeeID string
	refNum     int
}

func withoutAssignment(f constraint.Facts, employeeID string, refNum int) constraint.Facts {
	return &withoutFacts{Facts: f, employeeID: employeeID, refNum: refNum}
}

func (w *withoutFacts) Assignments(employeeID string, date core.Date) []constraint.Assignment {
	all := w.Facts.Assignments(employeeID, date)
	if employeeID != w.employeeID {
		return all
	}
	out := make([]constraint.Assignment, 0, len(all))
	for _, a := range all {
		if a.EventRefNum == w.refNum {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (w *withoutFacts) CoreCount(employeeID string, date core.Date) int {
	n := 0
	for _, a := range w.Assignments(employeeID, date) {
		if a.EventType == event.TypeCore {
			n++
		}
	}
	return n
}
