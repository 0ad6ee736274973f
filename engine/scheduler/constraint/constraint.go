package constraint

import (
	"fmt"
	"time"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
)

// Code identifies one constraint in the fixed taxonomy.
type Code string

const (
	CodeTimeOff              Code = "time_off"
	CodeAvailability         Code = "availability"
	CodeRole                 Code = "role"
	CodeCoreCap              Code = "core_cap"
	CodeConflict             Code = "conflict"
	CodeDueDate              Code = "due_date"
	CodeSupervisorPreference Code = "supervisor_preference"
)

// Severity splits the taxonomy: hard violations prohibit an assignment,
// soft ones only reduce its desirability.
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Violation is one failed constraint check.
type Violation struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Input is one candidate assignment: may Employee take Event at Start. Start
// must already be in the scheduling location.
type Input struct {
	Event    *event.Event
	Employee *roster.Employee
	Start    time.Time
}

// Date returns the calendar date of the candidate start.
func (in *Input) Date() core.Date {
	return core.DateOf(in.Start)
}

// Assignment is an occupied interval seen by the conflict and core-cap
// checks. It abstracts over committed schedules and same-run proposals.
type Assignment struct {
	EventRefNum int
	EventType   event.Type
	Start       time.Time
	Minutes     int
}

// End returns the end of the occupied interval.
func (a Assignment) End() time.Time {
	return a.Start.Add(time.Duration(a.Minutes) * time.Minute)
}

// Facts answers occupancy questions for candidate checks. Implementations
// back it with the store or with a run-scoped overlay of proposals on top of
// committed schedules.
type Facts interface {
	// Calendar returns the availability calendar for an employee; nil when
	// the employee has no availability data at all
	Calendar(employeeID string) *roster.Calendar
	// Assignments returns the occupied intervals of an employee on a date
	Assignments(employeeID string, date core.Date) []Assignment
	// CoreCount returns how many Core assignments an employee holds on a
	// date
	CoreCount(employeeID string, date core.Date) int
}

// Config tunes the validator. OtherNoonExempt switches the documented
// exception that lets the Club Supervisor stack Other and Supervisor events
// at noon without tripping the conflict rule.
type Config struct {
	CorePerDayCap   int
	OtherNoonExempt bool
}

// Validator applies the fixed constraint taxonomy. The rule set is closed;
// each rule is a pure function from (Input, Facts) to an optional violation.
type Validator struct {
	cfg   Config
	rules []rule
}

type rule struct {
	code     Code
	severity Severity
	check    func(v *Validator, in *Input, f Facts) *Violation
}

func NewValidator(cfg Config) *Validator {
	if cfg.CorePerDayCap <= 0 {
		cfg.CorePerDayCap = 1
	}
	v := &Validator{cfg: cfg}
	v.rules = []rule{
		{CodeTimeOff, SeverityHard, (*Validator).checkTimeOff},
		{CodeAvailability, SeverityHard, (*Validator).checkAvailability},
		{CodeRole, SeverityHard, (*Validator).checkRole},
		{CodeCoreCap, SeverityHard, (*Validator).checkCoreCap},
		{CodeConflict, SeverityHard, (*Validator).checkConflict},
		{CodeDueDate, SeverityHard, (*Validator).checkDueDate},
		{CodeSupervisorPreference, SeveritySoft, (*Validator).checkSupervisorPreference},
	}
	return v
}

// Validate runs every rule and returns all violations.
func (v *Validator) Validate(in *Input, f Facts) []Violation {
	var out []Violation
	for _, r := range v.rules {
		if viol := r.check(v, in, f); viol != nil {
			out = append(out, *viol)
		}
	}
	return out
}

// HardViolations runs every hard rule and returns the failures.
func (v *Validator) HardViolations(in *Input, f Facts) []Violation {
	var out []Violation
	for _, r := range v.rules {
		if r.severity != SeverityHard {
			continue
		}
		if viol := r.check(v, in, f); viol != nil {
			out = append(out, *viol)
		}
	}
	return out
}

// FirstHard returns the first hard violation, or nil.
func FirstHard(violations []Violation) *Violation {
	for i := range violations {
		if violations[i].Severity == SeverityHard {
			return &violations[i]
		}
	}
	return nil
}

func (v *Validator) checkTimeOff(in *Input, f Facts) *Violation {
	cal := f.Calendar(in.Employee.ID)
	if cal == nil || !cal.OnTimeOff(in.Date()) {
		return nil
	}
	return &Violation{
		Code:     CodeTimeOff,
		Severity: SeverityHard,
		Message:  fmt.Sprintf("%s is on time off on %s", in.Employee.Name, in.Date()),
	}
}

func (v *Validator) checkAvailability(in *Input, f Facts) *Violation {
	viol := &Violation{
		Code:     CodeAvailability,
		Severity: SeverityHard,
		Message:  fmt.Sprintf("%s is not available at %s on %s", in.Employee.Name, core.ClockOf(in.Start), in.Date()),
	}
	cal := f.Calendar(in.Employee.ID)
	if cal == nil {
		return viol
	}
	window, ok := cal.WindowFor(in.Date())
	if !ok || !window.Contains(core.ClockOf(in.Start)) {
		return viol
	}
	return nil
}

func (v *Validator) checkRole(in *Input, _ Facts) *Violation {
	typ := in.Event.EventType
	if typ.RequiresJuicer() && !in.Employee.JobTitle.CanWorkJuicer() {
		return &Violation{
			Code:     CodeRole,
			Severity: SeverityHard,
			Message:  fmt.Sprintf("%s events require a Juicer Barista; %s is a %s", typ, in.Employee.Name, in.Employee.JobTitle),
		}
	}
	if typ.RequiresLeadCapable() && !in.Employee.JobTitle.IsLeadCapable() {
		return &Violation{
			Code:     CodeRole,
			Severity: SeverityHard,
			Message:  fmt.Sprintf("%s events require a Lead Event Specialist or the Club Supervisor; %s is a %s", typ, in.Employee.Name, in.Employee.JobTitle),
		}
	}
	return nil
}

func (v *Validator) checkCoreCap(in *Input, f Facts) *Violation {
	if in.Event.EventType != event.TypeCore {
		return nil
	}
	if f.CoreCount(in.Employee.ID, in.Date()) < v.cfg.CorePerDayCap {
		return nil
	}
	return &Violation{
		Code:     CodeCoreCap,
		Severity: SeverityHard,
		Message:  fmt.Sprintf("%s already has a Core event on %s", in.Employee.Name, in.Date()),
	}
}

var noon = core.Clock{Hour: 12}

// noonExempt reports whether an interval is covered by the Club Supervisor
// noon exception: Other and Supervisor events at exactly noon never count as
// conflicts on the Club Supervisor.
func (v *Validator) noonExempt(in *Input, typ event.Type, start time.Time) bool {
	if !v.cfg.OtherNoonExempt {
		return false
	}
	if !in.Employee.JobTitle.IsClubSupervisor() {
		return false
	}
	if typ != event.TypeOther && typ != event.TypeSupervisor {
		return false
	}
	return core.ClockOf(start) == noon
}

func (v *Validator) checkConflict(in *Input, f Facts) *Violation {
	if v.noonExempt(in, in.Event.EventType, in.Start) {
		return nil
	}
	end := in.Start.Add(time.Duration(in.Event.EstimatedMinutes) * time.Minute)
	for _, a := range f.Assignments(in.Employee.ID, in.Date()) {
		if a.EventRefNum == in.Event.ProjectRefNum {
			continue
		}
		if v.noonExempt(in, a.EventType, a.Start) {
			continue
		}
		if a.Start.Before(end) && in.Start.Before(a.End()) {
			return &Violation{
				Code:     CodeConflict,
				Severity: SeverityHard,
				Message: fmt.Sprintf("%s already has event %d at %s on %s",
					in.Employee.Name, a.EventRefNum, core.ClockOf(a.Start), in.Date()),
			}
		}
	}
	return nil
}

func (v *Validator) checkDueDate(in *Input, _ Facts) *Violation {
	due := in.Event.DueDate(in.Start.Location())
	if !in.Date().After(due) {
		return nil
	}
	return &Violation{
		Code:     CodeDueDate,
		Severity: SeverityHard,
		Message:  fmt.Sprintf("%s is past the due date %s of event %d", in.Date(), due, in.Event.ProjectRefNum),
	}
}

func (v *Validator) checkSupervisorPreference(in *Input, _ Facts) *Violation {
	if in.Event.EventType != event.TypeCore || !in.Employee.JobTitle.IsClubSupervisor() {
		return nil
	}
	return &Violation{
		Code:     CodeSupervisorPreference,
		Severity: SeveritySoft,
		Message:  "prefer a non-supervisor for Core events",
	}
}
