package event

import (
	"regexp"
	"strings"
	"time"

	"github.com/demoplan/demoplan/engine/core"
)

// Type classifies an event. The scheduler orders its window by type priority
// and picks default start times per type.
type Type string

const (
	TypeCore            Type = "Core"
	TypeSupervisor      Type = "Supervisor"
	TypeJuicer          Type = "Juicer"
	TypeDigitalSetup    Type = "Digital Setup"
	TypeDigitalRefresh  Type = "Digital Refresh"
	TypeDigitalTeardown Type = "Digital Teardown"
	TypeDigitals        Type = "Digitals"
	TypeFreeosk         Type = "Freeosk"
	TypeOther           Type = "Other"
)

// Valid checks if the type is a known value.
func (t Type) Valid() bool {
	switch t {
	case TypeCore, TypeSupervisor, TypeJuicer, TypeDigitalSetup, TypeDigitalRefresh,
		TypeDigitalTeardown, TypeDigitals, TypeFreeosk, TypeOther:
		return true
	}
	return false
}

// Priority returns the scheduling order of the type; lower schedules first.
func (t Type) Priority() int {
	switch t {
	case TypeJuicer:
		return 1
	case TypeDigitalSetup:
		return 2
	case TypeDigitalRefresh:
		return 3
	case TypeFreeosk:
		return 4
	case TypeDigitalTeardown:
		return 5
	case TypeCore:
		return 6
	case TypeSupervisor:
		return 7
	case TypeDigitals:
		return 8
	default:
		return 9
	}
}

// RequiresJuicer reports whether only a Juicer Barista may take the event.
func (t Type) RequiresJuicer() bool {
	return t == TypeJuicer
}

// RequiresLeadCapable reports whether the event needs a Lead Event
// Specialist or the Club Supervisor.
func (t Type) RequiresLeadCapable() bool {
	switch t {
	case TypeSupervisor, TypeDigitalSetup, TypeDigitalRefresh, TypeDigitalTeardown, TypeDigitals, TypeFreeosk:
		return true
	}
	return false
}

// IsRotation reports whether the event is placed by the rotation phase
// rather than the Core slot cycle.
func (t Type) IsRotation() bool {
	switch t {
	case TypeJuicer, TypeDigitalSetup, TypeDigitalRefresh, TypeDigitalTeardown, TypeDigitals, TypeFreeosk:
		return true
	}
	return false
}

var typeKeywords = []struct {
	keyword string
	typ     Type
}{
	{"JUICER", TypeJuicer},
	{"DIGITAL SETUP", TypeDigitalSetup},
	{"DIGITAL REFRESH", TypeDigitalRefresh},
	{"DIGITAL TEARDOWN", TypeDigitalTeardown},
	{"TEARDOWN", TypeDigitalTeardown},
	{"FREEOSK", TypeFreeosk},
	{"SUPERVISOR", TypeSupervisor},
	{"SUPV", TypeSupervisor},
	{"DIGITAL", TypeDigitals},
}

// DetectType derives the event type from a project name. Specific keywords
// win over general ones; names with no keyword are Core, the dominant type.
func DetectType(projectName string) Type {
	upper := strings.ToUpper(projectName)
	for _, k := range typeKeywords {
		if strings.Contains(upper, k.keyword) {
			return k.typ
		}
	}
	return TypeCore
}

// Condition mirrors the upstream staffing state of an event.
type Condition string

const (
	ConditionUnstaffed Condition = "Unstaffed"
	ConditionScheduled Condition = "Scheduled"
	ConditionSubmitted Condition = "Submitted"
	ConditionReissued  Condition = "Reissued"
)

var eventNumberRe = regexp.MustCompile(`\d{6}`)

// NumberFromName extracts the first contiguous 6-digit run from a project
// name. Supervisor events link to their parent Core event through this
// number.
func NumberFromName(projectName string) (string, bool) {
	m := eventNumberRe.FindString(projectName)
	return m, m != ""
}

// DefaultEstimatedMinutes applies when the upstream feed omits a duration.
const DefaultEstimatedMinutes = 60

// Event is a unit of retail work schedulable on any date between its start
// and due dates. ProjectRefNum is the local primary key; ExternalID and
// LocationMVID are upstream identities required before a push.
type Event struct {
	ProjectRefNum    int       `db:"project_ref_num"`
	ExternalID       string    `db:"external_id"`
	LocationMVID     string    `db:"location_mvid"`
	ProjectName      string    `db:"project_name"`
	EventType        Type      `db:"event_type"`
	EventNumber      string    `db:"event_number"`
	StartDatetime    time.Time `db:"start_datetime"`
	DueDatetime      time.Time `db:"due_datetime"`
	EstimatedMinutes int       `db:"estimated_minutes"`
	IsScheduled      bool      `db:"is_scheduled"`
	Condition        Condition `db:"condition"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Normalize fills the derived fields before a write: the type from the name
// when unset, the 6-digit event number, and the default duration.
func (e *Event) Normalize() {
	if e.EventType == "" || !e.EventType.Valid() {
		e.EventType = DetectType(e.ProjectName)
	}
	if n, ok := NumberFromName(e.ProjectName); ok {
		e.EventNumber = n
	}
	if e.EstimatedMinutes <= 0 {
		e.EstimatedMinutes = DefaultEstimatedMinutes
	}
	if e.Condition == "" {
		e.Condition = ConditionUnstaffed
	}
}

// StartDate returns the first schedulable date in loc.
func (e *Event) StartDate(loc *time.Location) core.Date {
	return core.DateOf(e.StartDatetime.In(loc))
}

// DueDate returns the last schedulable date in loc.
func (e *Event) DueDate(loc *time.Location) core.Date {
	return core.DateOf(e.DueDatetime.In(loc))
}

// SchedulableOn reports whether d falls inside the event's date window.
func (e *Event) SchedulableOn(d core.Date, loc *time.Location) bool {
	return !d.Before(e.StartDate(loc)) && !d.After(e.DueDate(loc))
}
