package roster

import (
	"time"

	"github.com/demoplan/demoplan/engine/core"
)

// JobTitle is the role an employee holds. Capability checks derive from the
// title; there is no separate permission table.
type JobTitle string

const (
	JobTitleEventSpecialist     JobTitle = "Event Specialist"
	JobTitleLeadEventSpecialist JobTitle = "Lead Event Specialist"
	JobTitleClubSupervisor      JobTitle = "Club Supervisor"
	JobTitleJuicerBarista       JobTitle = "Juicer Barista"
)

// Valid checks if the title is a known value.
func (j JobTitle) Valid() bool {
	switch j {
	case JobTitleEventSpecialist, JobTitleLeadEventSpecialist, JobTitleClubSupervisor, JobTitleJuicerBarista:
		return true
	}
	return false
}

func (j JobTitle) IsLead() bool {
	return j == JobTitleLeadEventSpecialist
}

func (j JobTitle) IsClubSupervisor() bool {
	return j == JobTitleClubSupervisor
}

// CanWorkJuicer reports whether the title may take Juicer events.
func (j JobTitle) CanWorkJuicer() bool {
	return j == JobTitleJuicerBarista
}

// IsLeadCapable reports whether the title may take Supervisor, Digital and
// Freeosk events.
func (j JobTitle) IsLeadCapable() bool {
	return j == JobTitleLeadEventSpecialist || j == JobTitleClubSupervisor
}

// Employee is a roster member. ID is the local natural key (e.g. "US815021");
// ExternalID is the upstream rep identity and stays empty until the pull sync
// has seen the employee. An assignment cannot be pushed upstream while
// ExternalID is empty.
type Employee struct {
	ID         string    `db:"id"`
	ExternalID string    `db:"external_id"`
	Name       string    `db:"name"`
	JobTitle   JobTitle  `db:"job_title"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Window is an inclusive wall-clock availability window.
type Window struct {
	Start core.Clock `db:"window_start"`
	End   core.Clock `db:"window_end"`
}

// Contains reports whether c falls inside the window, boundaries included.
func (w Window) Contains(c core.Clock) bool {
	return w.Start.Minutes() <= c.Minutes() && c.Minutes() <= w.End.Minutes()
}

// WeeklyAvailability is one weekday entry of an employee's recurring pattern.
// Weekday runs Monday = 0 through Sunday = 6.
type WeeklyAvailability struct {
	EmployeeID string     `db:"employee_id"`
	Weekday    int        `db:"weekday"`
	Available  bool       `db:"is_available"`
	Start      core.Clock `db:"window_start"`
	End        core.Clock `db:"window_end"`
}

// AvailabilityOverride replaces the weekly pattern for a single date.
type AvailabilityOverride struct {
	EmployeeID string     `db:"employee_id"`
	Date       core.Date  `db:"date"`
	Available  bool       `db:"is_available"`
	Start      core.Clock `db:"window_start"`
	End        core.Clock `db:"window_end"`
}

// TimeOff is an inclusive date interval during which the employee cannot be
// scheduled at any time.
type TimeOff struct {
	ID         core.ID   `db:"id"`
	EmployeeID string    `db:"employee_id"`
	StartDate  core.Date `db:"start_date"`
	EndDate    core.Date `db:"end_date"`
	Reason     string    `db:"reason"`
}

// Covers reports whether d falls inside the interval.
func (t TimeOff) Covers(d core.Date) bool {
	return !d.Before(t.StartDate) && !d.After(t.EndDate)
}

// Calendar is one employee's resolved availability data. It is loaded once
// per scheduler run and queried as pure lookups.
type Calendar struct {
	Weekly    map[int]WeeklyAvailability
	Overrides map[core.Date]AvailabilityOverride
	TimeOff   []TimeOff
}

// WindowFor resolves the effective window for a date: the date override wins
// when present, otherwise the weekly pattern for the weekday. A missing
// pattern means unavailable.
func (c *Calendar) WindowFor(d core.Date) (Window, bool) {
	if o, ok := c.Overrides[d]; ok {
		if !o.Available {
			return Window{}, false
		}
		return Window{Start: o.Start, End: o.End}, true
	}
	w, ok := c.Weekly[d.Weekday()]
	if !ok || !w.Available {
		return Window{}, false
	}
	return Window{Start: w.Start, End: w.End}, true
}

// OnTimeOff reports whether d falls inside any time-off interval.
func (c *Calendar) OnTimeOff(d core.Date) bool {
	for _, t := range c.TimeOff {
		if t.Covers(d) {
			return true
		}
	}
	return false
}
