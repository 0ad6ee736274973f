package roster

import (
	"context"

	"github.com/demoplan/demoplan/engine/core"
)

// Repository persists employees and their availability data.
type Repository interface {
	// Upsert inserts or updates an employee by its natural ID
	Upsert(ctx context.Context, employee *Employee) error
	// GetByID retrieves an employee by its local ID
	GetByID(ctx context.Context, id string) (*Employee, error)
	// GetByExternalID retrieves an employee by its upstream id
	GetByExternalID(ctx context.Context, externalID string) (*Employee, error)
	// List retrieves all employees ordered by ID
	List(ctx context.Context) ([]*Employee, error)
	// ListActive retrieves active employees ordered by ID
	ListActive(ctx context.Context) ([]*Employee, error)
	// SetWeeklyAvailability replaces the weekday entry for an employee
	SetWeeklyAvailability(ctx context.Context, entry *WeeklyAvailability) error
	// SetAvailabilityOverride replaces the date override for an employee
	SetAvailabilityOverride(ctx context.Context, override *AvailabilityOverride) error
	// AddTimeOff records a time-off interval
	AddTimeOff(ctx context.Context, timeOff *TimeOff) error
	// DeleteTimeOff removes a time-off interval
	DeleteTimeOff(ctx context.Context, id core.ID) error
	// Calendars loads the resolved availability data for every employee,
	// restricted to overrides and time-off touching [from, to]
	Calendars(ctx context.Context, from, to core.Date) (map[string]*Calendar, error)
}
