package scheduler

import (
	"time"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler/conflict"
	"github.com/demoplan/demoplan/engine/scheduler/constraint"
)

type empDateKey struct {
	employeeID string
	date       core.Date
}

type typeDateKey struct {
	eventType event.Type
	date      core.Date
}

type slotKey struct {
	date    core.Date
	minutes int
}

// placedCore locates a Core assignment for supervisor pairing.
type placedCore struct {
	eventRef   int
	date       core.Date
	employeeID string
}

// runBoard is the run-scoped cache of committed schedules overlaid with the
// proposals accepted so far in this run. It serves the validator as Facts
// and the conflict resolver as Board, and never outlives the run.
type runBoard struct {
	loc       *time.Location
	calendars map[string]*roster.Calendar

	committed     map[empDateKey][]constraint.Assignment
	items         []conflict.ScheduledItem
	overlay       map[empDateKey][]constraint.Assignment
	hidden        map[int]bool
	typeDateRefs  map[typeDateKey][]int
	overlayCounts map[typeDateKey]int
	slotsTaken    map[slotKey]bool
	coresByNumber map[string][]placedCore
}

func newRunBoard(
	loc *time.Location,
	calendars map[string]*roster.Calendar,
	committed []*schedule.Schedule,
	eventsByRef map[int]*event.Event,
) *runBoard {
	b := &runBoard{
		loc:           loc,
		calendars:     calendars,
		committed:     make(map[empDateKey][]constraint.Assignment),
		overlay:       make(map[empDateKey][]constraint.Assignment),
		hidden:        make(map[int]bool),
		typeDateRefs:  make(map[typeDateKey][]int),
		overlayCounts: make(map[typeDateKey]int),
		slotsTaken:    make(map[slotKey]bool),
		coresByNumber: make(map[string][]placedCore),
	}
	for _, s := range committed {
		ev, ok := eventsByRef[s.EventRefNum]
		if !ok {
			continue
		}
		start := s.ScheduleDatetime.In(loc)
		date := core.DateOf(start)
		key := empDateKey{s.EmployeeID, date}
		b.committed[key] = append(b.committed[key], constraint.Assignment{
			EventRefNum: ev.ProjectRefNum,
			EventType:   ev.EventType,
			Start:       start,
			Minutes:     ev.EstimatedMinutes,
		})
		b.items = append(b.items, conflict.ScheduledItem{Schedule: s, Event: ev})
		b.typeDateRefs[typeDateKey{ev.EventType, date}] = append(b.typeDateRefs[typeDateKey{ev.EventType, date}], ev.ProjectRefNum)
		if ev.EventType == event.TypeCore {
			b.slotsTaken[slotKey{date, core.ClockOf(start).Minutes()}] = true
			if ev.EventNumber != "" {
				b.coresByNumber[ev.EventNumber] = append(b.coresByNumber[ev.EventNumber], placedCore{
					eventRef:   ev.ProjectRefNum,
					date:       date,
					employeeID: s.EmployeeID,
				})
			}
		}
	}
	return b
}

// Calendar implements constraint.Facts.
func (b *runBoard) Calendar(employeeID string) *roster.Calendar {
	return b.calendars[employeeID]
}

// Assignments implements constraint.Facts: committed assignments minus
// displaced ones, plus this run's accepted proposals.
func (b *runBoard) Assignments(employeeID string, date core.Date) []constraint.Assignment {
	key := empDateKey{employeeID, date}
	var out []constraint.Assignment
	for _, a := range b.committed[key] {
		if b.hidden[a.EventRefNum] {
			continue
		}
		out = append(out, a)
	}
	return append(out, b.overlay[key]...)
}

// CoreCount implements constraint.Facts.
func (b *runBoard) CoreCount(employeeID string, date core.Date) int {
	n := 0
	for _, a := range b.Assignments(employeeID, date) {
		if a.EventType == event.TypeCore {
			n++
		}
	}
	return n
}

// ScheduledOn implements conflict.Board over committed schedules only;
// proposals are never bump candidates.
func (b *runBoard) ScheduledOn(date core.Date, employeeID string) []conflict.ScheduledItem {
	var out []conflict.ScheduledItem
	for _, item := range b.items {
		if b.hidden[item.Event.ProjectRefNum] {
			continue
		}
		if core.DateOf(item.Schedule.ScheduleDatetime.In(b.loc)) != date {
			continue
		}
		if employeeID != "" && item.Schedule.EmployeeID != employeeID {
			continue
		}
		out = append(out, item)
	}
	return out
}

// accept folds a placed proposal into the overlay so later candidates see
// it. For swaps the displaced schedule disappears from every view.
func (b *runBoard) accept(ev *event.Event, employeeID string, start time.Time, displacedRef int) {
	date := core.DateOf(start)
	key := empDateKey{employeeID, date}
	b.overlay[key] = append(b.overlay[key], constraint.Assignment{
		EventRefNum: ev.ProjectRefNum,
		EventType:   ev.EventType,
		Start:       start,
		Minutes:     ev.EstimatedMinutes,
	})
	b.overlayCounts[typeDateKey{ev.EventType, date}]++
	if ev.EventType == event.TypeCore {
		b.slotsTaken[slotKey{date, core.ClockOf(start).Minutes()}] = true
		if ev.EventNumber != "" {
			b.coresByNumber[ev.EventNumber] = append(b.coresByNumber[ev.EventNumber], placedCore{
				eventRef:   ev.ProjectRefNum,
				date:       date,
				employeeID: employeeID,
			})
		}
	}
	if displacedRef != 0 {
		b.hidden[displacedRef] = true
	}
}

// typeCountOn counts live assignments of a type on a date, proposals
// included.
func (b *runBoard) typeCountOn(typ event.Type, date core.Date) int {
	n := b.overlayCounts[typeDateKey{typ, date}]
	for _, ref := range b.typeDateRefs[typeDateKey{typ, date}] {
		if !b.hidden[ref] {
			n++
		}
	}
	return n
}

// slotTaken reports whether a Core assignment occupies the slot on a date.
func (b *runBoard) slotTaken(date core.Date, clock core.Clock) bool {
	return b.slotsTaken[slotKey{date, clock.Minutes()}]
}

// coreFor finds the live Core assignment carrying an event number.
func (b *runBoard) coreFor(number string) (placedCore, bool) {
	for _, pc := range b.coresByNumber[number] {
		if !b.hidden[pc.eventRef] {
			return pc, true
		}
	}
	return placedCore{}, false
}
