package scheduler

import (
	"fmt"
	"time"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/scheduler/conflict"
	"github.com/demoplan/demoplan/engine/scheduler/constraint"
)

// runPass carries the run-scoped state the three phases share. Everything
// here dies with the run.
type runPass struct {
	engine    *Engine
	run       *RunHistory
	from      core.Date
	board     *runBoard
	validator *constraint.Validator
	resolver  *conflict.Resolver
	snapshot  *rotation.Snapshot
	employees []*roster.Employee
	byID      map[string]*roster.Employee
	clubSup   *roster.Employee
	result    *runResult
	// counters holds the per-date Core slot cursor.
	counters map[core.Date]int
}

func (p *runPass) findClubSupervisor() {
	for _, e := range p.employees {
		if e.JobTitle.IsClubSupervisor() {
			if p.clubSup == nil || e.ID < p.clubSup.ID {
				p.clubSup = e
			}
		}
	}
}

// phaseRotation places Juicer, Digital and Freeosk events on their
// designated rotation employee, falling back to any role-eligible employee
// and finally the Club Supervisor.
func (p *runPass) phaseRotation(events []*event.Event) {
	for _, ev := range events {
		p.emit(p.placeRotation(ev))
	}
}

// phaseCore places Core events through the per-date rotating slot list,
// resorting to bump proposals when every candidate is blocked.
func (p *runPass) phaseCore(events []*event.Event) {
	for _, ev := range events {
		p.emit(p.placeCore(ev))
	}
}

// phasePairing places Supervisor events on their paired Core's date and
// Other events on the Club Supervisor at noon.
func (p *runPass) phasePairing(events []*event.Event) {
	for _, ev := range events {
		switch ev.EventType {
		case event.TypeSupervisor:
			p.emit(p.placeSupervisor(ev))
		default:
			p.emit(p.placeOther(ev))
		}
	}
}

func (p *runPass) emit(prop *PendingSchedule) {
	p.result.total++
	p.result.proposals = append(p.result.proposals, prop)
	switch {
	case prop.FailureReason != "":
		p.result.failed++
	case prop.IsSwap:
		p.result.swaps++
	default:
		p.result.scheduled++
	}
}

func (p *runPass) placed(ev *event.Event, employeeID string, start time.Time) *PendingSchedule {
	emp := employeeID
	at := start
	p.board.accept(ev, employeeID, start, 0)
	return &PendingSchedule{
		ID:               core.MustNewID(),
		RunID:            p.run.ID,
		EventRefNum:      ev.ProjectRefNum,
		EmployeeID:       &emp,
		ScheduleDatetime: &at,
		Status:           StatusProposed,
	}
}

func (p *runPass) swapped(ev *event.Event, swap *conflict.SwapProposal) *PendingSchedule {
	emp := swap.Employee.ID
	at := swap.Start
	displaced := swap.Displaced.Schedule.ID
	p.board.accept(ev, swap.Employee.ID, swap.Start, swap.Displaced.Event.ProjectRefNum)
	return &PendingSchedule{
		ID:                  core.MustNewID(),
		RunID:               p.run.ID,
		EventRefNum:         ev.ProjectRefNum,
		EmployeeID:          &emp,
		ScheduleDatetime:    &at,
		Status:              StatusProposed,
		IsSwap:              true,
		SwapReason:          swap.Reason,
		DisplacedScheduleID: &displaced,
	}
}

func (p *runPass) failed(ev *event.Event, reason string) *PendingSchedule {
	return &PendingSchedule{
		ID:            core.MustNewID(),
		RunID:         p.run.ID,
		EventRefNum:   ev.ProjectRefNum,
		Status:        StatusProposed,
		FailureReason: reason,
	}
}

// targetDate picks the earliest schedulable date not yet holding an event
// of the same type. Rotation capacity is one per type per day.
func (p *runPass) targetDate(ev *event.Event) (core.Date, bool) {
	start := ev.StartDate(p.engine.loc)
	if start.Before(p.from) {
		start = p.from
	}
	due := ev.DueDate(p.engine.loc)
	for d := start; !d.After(due); d = d.AddDays(1) {
		if p.board.typeCountOn(ev.EventType, d) > 0 {
			continue
		}
		return d, true
	}
	return core.Date{}, false
}

func (p *runPass) designatedFor(ev *event.Event, date core.Date) *roster.Employee {
	var id string
	switch ev.EventType {
	case event.TypeJuicer:
		id = p.snapshot.RotationFor(date, rotation.TypePrimaryJuicer)
	case event.TypeDigitalTeardown:
		id = p.snapshot.SecondaryLeadFor(date)
	default:
		id = p.snapshot.RotationFor(date, rotation.TypePrimaryLead)
	}
	if id == "" {
		return nil
	}
	return p.byID[id]
}

func (p *runPass) placeRotation(ev *event.Event) *PendingSchedule {
	clock := p.engine.typeTimes[ev.EventType]
	date, ok := p.targetDate(ev)
	if !ok {
		return p.failed(ev, fmt.Sprintf("no open date for a %s event before its due date %s",
			ev.EventType, ev.DueDate(p.engine.loc)))
	}
	start := date.At(clock, p.engine.loc)

	designated := p.designatedFor(ev, date)
	var blocked *constraint.Violation
	if designated != nil {
		in := &constraint.Input{Event: ev, Employee: designated, Start: start}
		viols := p.validator.HardViolations(in, p.board)
		if len(viols) == 0 {
			return p.placed(ev, designated.ID, start)
		}
		blocked = &viols[0]
	}

	// Fallback order comes out of the candidate ranking: role-eligible
	// employees first, the Club Supervisor last.
	for _, cand := range p.validator.CandidatesFor(ev, start, p.employees, "", p.board) {
		if designated != nil && cand.ID == designated.ID {
			continue
		}
		return p.placed(ev, cand.ID, start)
	}

	if blocked != nil {
		return p.failed(ev, blocked.Message)
	}
	return p.failed(ev, fmt.Sprintf("no rotation designated for %s on %s and no eligible fallback", ev.EventType, date))
}

func (p *runPass) placeCore(ev *event.Event) *PendingSchedule {
	date, ok := p.coreTargetDate(ev)
	if !ok {
		return p.failed(ev, fmt.Sprintf("no schedulable date before the due date %s", ev.DueDate(p.engine.loc)))
	}
	slots := p.engine.slots
	primaryID := p.snapshot.RotationFor(date, rotation.TypePrimaryLead)

	// The opening slot belongs to the Primary Lead alone.
	if primary := p.byID[primaryID]; primary != nil && !p.board.slotTaken(date, slots[0]) {
		start := date.At(slots[0], p.engine.loc)
		in := &constraint.Input{Event: ev, Employee: primary, Start: start}
		if len(p.validator.HardViolations(in, p.board)) == 0 {
			if p.counters[date] == 0 {
				p.counters[date] = 1
			}
			return p.placed(ev, primary.ID, start)
		}
	}

	idx := p.counters[date]
	if idx%len(slots) == 0 {
		idx++
	}
	slot := slots[idx%len(slots)]
	start := date.At(slot, p.engine.loc)
	if cands := p.validator.CandidatesFor(ev, start, p.employees, primaryID, p.board); len(cands) > 0 {
		p.counters[date] = idx + 1
		return p.placed(ev, cands[0].ID, start)
	}

	for _, emp := range constraint.OrderEmployees(p.employees, primaryID) {
		if swap := p.resolver.Resolve(ev, date, emp); swap != nil {
			return p.swapped(ev, swap)
		}
	}

	return p.failed(ev, p.dominantViolation(ev, start))
}

// coreTargetDate picks the earliest schedulable date for a Core event.
func (p *runPass) coreTargetDate(ev *event.Event) (core.Date, bool) {
	start := ev.StartDate(p.engine.loc)
	if start.Before(p.from) {
		start = p.from
	}
	if start.After(ev.DueDate(p.engine.loc)) {
		return core.Date{}, false
	}
	return start, true
}

// dominantViolation summarizes why nobody could take the event at the
// attempted slot: the most common first hard violation across candidates.
func (p *runPass) dominantViolation(ev *event.Event, start time.Time) string {
	counts := make(map[constraint.Code]int)
	samples := make(map[constraint.Code]string)
	total := 0
	for _, emp := range p.employees {
		in := &constraint.Input{Event: ev, Employee: emp, Start: start}
		viols := p.validator.HardViolations(in, p.board)
		if len(viols) == 0 {
			continue
		}
		counts[viols[0].Code]++
		if _, ok := samples[viols[0].Code]; !ok {
			samples[viols[0].Code] = viols[0].Message
		}
		total++
	}
	if total == 0 {
		return "no eligible employee"
	}
	var dominant constraint.Code
	for _, code := range []constraint.Code{
		constraint.CodeTimeOff,
		constraint.CodeAvailability,
		constraint.CodeRole,
		constraint.CodeCoreCap,
		constraint.CodeConflict,
		constraint.CodeDueDate,
	} {
		if dominant == "" || counts[code] > counts[dominant] {
			if counts[code] > 0 {
				dominant = code
			}
		}
	}
	return fmt.Sprintf("%s (%d of %d candidates blocked)", samples[dominant], counts[dominant], total)
}

func (p *runPass) placeSupervisor(ev *event.Event) *PendingSchedule {
	number := ev.EventNumber
	if number == "" {
		if n, ok := event.NumberFromName(ev.ProjectName); ok {
			number = n
		}
	}
	if number == "" {
		return p.failed(ev, "no matching Core event")
	}
	pc, ok := p.board.coreFor(number)
	if !ok {
		return p.failed(ev, "no matching Core event")
	}
	start := pc.date.At(p.engine.typeTimes[event.TypeSupervisor], p.engine.loc)
	if cs := p.clubSup; cs != nil {
		in := &constraint.Input{Event: ev, Employee: cs, Start: start}
		if len(p.validator.HardViolations(in, p.board)) == 0 {
			return p.placed(ev, cs.ID, start)
		}
	}
	if lead := p.byID[pc.employeeID]; lead != nil {
		in := &constraint.Input{Event: ev, Employee: lead, Start: start}
		if len(p.validator.HardViolations(in, p.board)) == 0 {
			return p.placed(ev, lead.ID, start)
		}
	}
	return p.failed(ev, "supervisor slot unavailable")
}

func (p *runPass) placeOther(ev *event.Event) *PendingSchedule {
	cs := p.clubSup
	if cs == nil {
		return p.failed(ev, "no Club Supervisor on the roster")
	}
	clock := p.engine.typeTimes[event.TypeOther]
	start := ev.StartDate(p.engine.loc)
	if start.Before(p.from) {
		start = p.from
	}
	due := ev.DueDate(p.engine.loc)
	var blocked *constraint.Violation
	for d := start; !d.After(due); d = d.AddDays(1) {
		in := &constraint.Input{Event: ev, Employee: cs, Start: d.At(clock, p.engine.loc)}
		viols := p.validator.HardViolations(in, p.board)
		if len(viols) == 0 {
			return p.placed(ev, cs.ID, d.At(clock, p.engine.loc))
		}
		if blocked == nil {
			blocked = &viols[0]
		}
	}
	if blocked != nil {
		return p.failed(ev, blocked.Message)
	}
	return p.failed(ev, "no schedulable date before the due date")
}
