package rotation

import (
	"time"

	"github.com/demoplan/demoplan/engine/core"
)

// Type names a rotation role. Each type designates one default employee per
// weekday.
type Type string

const (
	TypePrimaryJuicer Type = "primary_juicer"
	TypePrimaryLead   Type = "primary_lead"
)

// Types lists all rotation types in a stable order.
func Types() []Type {
	return []Type{TypePrimaryJuicer, TypePrimaryLead}
}

// Valid checks if the rotation type is a known value.
func (t Type) Valid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Weekly designates the default employee for one rotation type on one
// weekday (Monday = 0 through Sunday = 6). All seven weekdays are valid
// rotation slots.
type Weekly struct {
	RotationType Type      `db:"rotation_type"`
	Weekday      int       `db:"weekday"`
	EmployeeID   string    `db:"employee_id"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Exception overrides the weekly designation for a single date.
type Exception struct {
	ID           core.ID   `db:"id"`
	RotationType Type      `db:"rotation_type"`
	Date         core.Date `db:"date"`
	EmployeeID   string    `db:"employee_id"`
	Reason       string    `db:"reason"`
	CreatedAt    time.Time `db:"created_at"`
}
