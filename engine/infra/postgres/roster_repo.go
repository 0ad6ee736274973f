package postgres

import (
	"context"
	"fmt"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const employeeColumnsSQL = "id, external_id, name, job_title, is_active, created_at, updated_at"

const weeklyAvailabilityColumnsSQL = "employee_id, weekday, is_available, window_start, window_end"

const availabilityOverrideColumnsSQL = "employee_id, date, is_available, window_start, window_end"

const timeOffColumnsSQL = "id, employee_id, start_date, end_date, reason"

// RosterRepo implements roster.Repository backed by a pgx-compatible pool.
type RosterRepo struct {
	db DB
}

func NewRosterRepo(db DB) *RosterRepo {
	return &RosterRepo{db: db}
}

func (r *RosterRepo) Upsert(ctx context.Context, employee *roster.Employee) error {
	query := `
        INSERT INTO employees (id, external_id, name, job_title, is_active)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET
            external_id = $2,
            name = $3,
            job_title = $4,
            is_active = $5,
            updated_at = now()
    `
	args := []any{employee.ID, employee.ExternalID, employee.Name, employee.JobTitle, employee.IsActive}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting employee: %w", err)
	}
	return nil
}

func (r *RosterRepo) GetByID(ctx context.Context, id string) (*roster.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE id = $1", employeeColumnsSQL)
	var employee roster.Employee
	if err := pgxscan.Get(ctx, r.db, &employee, query, id); err != nil {
		return nil, notFound(err, "employee %s not found", id)
	}
	return &employee, nil
}

func (r *RosterRepo) GetByExternalID(ctx context.Context, externalID string) (*roster.Employee, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM employees WHERE external_id = $1 AND external_id <> ''",
		employeeColumnsSQL,
	)
	var employee roster.Employee
	if err := pgxscan.Get(ctx, r.db, &employee, query, externalID); err != nil {
		return nil, notFound(err, "employee with external id %s not found", externalID)
	}
	return &employee, nil
}

func (r *RosterRepo) List(ctx context.Context) ([]*roster.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees ORDER BY id", employeeColumnsSQL)
	var employees []*roster.Employee
	if err := pgxscan.Select(ctx, r.db, &employees, query); err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	return employees, nil
}

func (r *RosterRepo) ListActive(ctx context.Context) ([]*roster.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE is_active ORDER BY id", employeeColumnsSQL)
	var employees []*roster.Employee
	if err := pgxscan.Select(ctx, r.db, &employees, query); err != nil {
		return nil, fmt.Errorf("listing active employees: %w", err)
	}
	return employees, nil
}

func (r *RosterRepo) SetWeeklyAvailability(ctx context.Context, entry *roster.WeeklyAvailability) error {
	query := `
        INSERT INTO employee_weekly_availability (employee_id, weekday, is_available, window_start, window_end)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (employee_id, weekday) DO UPDATE SET
            is_available = $3,
            window_start = $4,
            window_end = $5
    `
	args := []any{entry.EmployeeID, entry.Weekday, entry.Available, entry.Start, entry.End}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("setting weekly availability: %w", err)
	}
	return nil
}

func (r *RosterRepo) SetAvailabilityOverride(ctx context.Context, override *roster.AvailabilityOverride) error {
	query := `
        INSERT INTO employee_availability_overrides (employee_id, date, is_available, window_start, window_end)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (employee_id, date) DO UPDATE SET
            is_available = $3,
            window_start = $4,
            window_end = $5
    `
	args := []any{override.EmployeeID, override.Date, override.Available, override.Start, override.End}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("setting availability override: %w", err)
	}
	return nil
}

func (r *RosterRepo) AddTimeOff(ctx context.Context, timeOff *roster.TimeOff) error {
	query := `
        INSERT INTO employee_time_off (id, employee_id, start_date, end_date, reason)
        VALUES ($1, $2, $3, $4, $5)
    `
	args := []any{timeOff.ID, timeOff.EmployeeID, timeOff.StartDate, timeOff.EndDate, timeOff.Reason}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("adding time off: %w", err)
	}
	return nil
}

func (r *RosterRepo) DeleteTimeOff(ctx context.Context, id core.ID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM employee_time_off WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting time off: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "time off %s not found", id)
	}
	return nil
}

// Calendars loads availability for every employee in four queries rather
// than N+1 per-employee lookups. Overrides and time-off rows outside the
// window cannot affect it, so they are filtered out at the database.
func (r *RosterRepo) Calendars(ctx context.Context, from, to core.Date) (map[string]*roster.Calendar, error) {
	var ids []string
	if err := pgxscan.Select(ctx, r.db, &ids, "SELECT id FROM employees ORDER BY id"); err != nil {
		return nil, fmt.Errorf("listing employee ids: %w", err)
	}
	calendars := make(map[string]*roster.Calendar, len(ids))
	for _, id := range ids {
		calendars[id] = &roster.Calendar{
			Weekly:    make(map[int]roster.WeeklyAvailability),
			Overrides: make(map[core.Date]roster.AvailabilityOverride),
		}
	}

	weeklyQuery := fmt.Sprintf("SELECT %s FROM employee_weekly_availability", weeklyAvailabilityColumnsSQL)
	var weekly []*roster.WeeklyAvailability
	if err := pgxscan.Select(ctx, r.db, &weekly, weeklyQuery); err != nil {
		return nil, fmt.Errorf("loading weekly availability: %w", err)
	}
	for _, w := range weekly {
		if cal, ok := calendars[w.EmployeeID]; ok {
			cal.Weekly[w.Weekday] = *w
		}
	}

	overrideQuery := fmt.Sprintf(
		"SELECT %s FROM employee_availability_overrides WHERE date >= $1 AND date <= $2",
		availabilityOverrideColumnsSQL,
	)
	var overrides []*roster.AvailabilityOverride
	if err := pgxscan.Select(ctx, r.db, &overrides, overrideQuery, from, to); err != nil {
		return nil, fmt.Errorf("loading availability overrides: %w", err)
	}
	for _, o := range overrides {
		if cal, ok := calendars[o.EmployeeID]; ok {
			cal.Overrides[o.Date] = *o
		}
	}

	timeOffQuery := fmt.Sprintf(
		"SELECT %s FROM employee_time_off WHERE start_date <= $1 AND end_date >= $2",
		timeOffColumnsSQL,
	)
	var timeOff []*roster.TimeOff
	if err := pgxscan.Select(ctx, r.db, &timeOff, timeOffQuery, to, from); err != nil {
		return nil, fmt.Errorf("loading time off: %w", err)
	}
	for _, t := range timeOff {
		if cal, ok := calendars[t.EmployeeID]; ok {
			cal.TimeOff = append(cal.TimeOff, *t)
		}
	}
	return calendars, nil
}
