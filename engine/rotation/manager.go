package rotation

import (
	"context"
	"fmt"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/roster"
)

// Manager answers "who is the designated employee for this role on this
// date". Lookups are exception-first: a date exception wins over the weekly
// pattern, and a missing entry means nobody is designated.
type Manager struct {
	repo       Repository
	rosterRepo roster.Repository
}

func NewManager(repo Repository, rosterRepo roster.Repository) *Manager {
	return &Manager{repo: repo, rosterRepo: rosterRepo}
}

// RotationFor resolves the designated employee for a rotation type on a
// date. An empty result means no designation.
func (m *Manager) RotationFor(ctx context.Context, date core.Date, rotationType Type) (string, error) {
	if !rotationType.Valid() {
		return "", core.NewError(core.KindValidation, "unknown rotation type %q", rotationType)
	}
	ex, err := m.repo.GetException(ctx, rotationType, date)
	if err == nil {
		return ex.EmployeeID, nil
	}
	if core.KindOf(err) != core.KindNotFound {
		return "", fmt.Errorf("looking up rotation exception: %w", err)
	}
	entry, err := m.repo.GetWeekly(ctx, rotationType, date.Weekday())
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return "", nil
		}
		return "", fmt.Errorf("looking up weekly rotation: %w", err)
	}
	return entry.EmployeeID, nil
}

// SecondaryLeadFor picks an active Lead Event Specialist other than the
// Primary Lead for the date, lowest employee ID first. Empty when no such
// lead exists.
func (m *Manager) SecondaryLeadFor(ctx context.Context, date core.Date) (string, error) {
	primary, err := m.RotationFor(ctx, date, TypePrimaryLead)
	if err != nil {
		return "", err
	}
	employees, err := m.rosterRepo.ListActive(ctx)
	if err != nil {
		return "", fmt.Errorf("listing active employees: %w", err)
	}
	for _, e := range employees {
		if e.JobTitle.IsLead() && e.ID != primary {
			return e.ID, nil
		}
	}
	return "", nil
}

// SetWeekly validates and stores one weekly designation.
func (m *Manager) SetWeekly(ctx context.Context, rotationType Type, weekday int, employeeID string) error {
	if problem := m.validateEntry(ctx, rotationType, weekday, employeeID); problem != "" {
		return core.NewError(core.KindValidation, "%s", problem)
	}
	return m.repo.SetWeekly(ctx, &Weekly{RotationType: rotationType, Weekday: weekday, EmployeeID: employeeID})
}

// BulkResult reports the outcome of a bulk weekly replacement. When Problems
// is non-empty nothing was written.
type BulkResult struct {
	Applied  int      `json:"applied"`
	Problems []string `json:"problems,omitempty"`
}

// SetAllWeekly atomically replaces the weekly table. Entries with an empty
// employee clear their slot. Validation problems abort the whole write.
func (m *Manager) SetAllWeekly(ctx context.Context, entries []*Weekly) (*BulkResult, error) {
	result := &BulkResult{}
	keep := make([]*Weekly, 0, len(entries))
	for i, entry := range entries {
		if entry.EmployeeID == "" {
			continue
		}
		if problem := m.validateEntry(ctx, entry.RotationType, entry.Weekday, entry.EmployeeID); problem != "" {
			result.Problems = append(result.Problems, fmt.Sprintf("entry %d: %s", i, problem))
			continue
		}
		keep = append(keep, entry)
	}
	if len(result.Problems) > 0 {
		return result, core.NewError(core.KindValidation, "bulk rotation update rejected: %d invalid entries", len(result.Problems))
	}
	if err := m.repo.ReplaceWeekly(ctx, keep); err != nil {
		return nil, fmt.Errorf("replacing weekly rotations: %w", err)
	}
	result.Applied = len(keep)
	return result, nil
}

// AddException validates and stores a single-date override.
func (m *Manager) AddException(ctx context.Context, rotationType Type, date core.Date, employeeID, reason string) (*Exception, error) {
	if date.IsZero() {
		return nil, core.NewError(core.KindValidation, "exception date is required")
	}
	if problem := m.validateEntry(ctx, rotationType, 0, employeeID); problem != "" {
		return nil, core.NewError(core.KindValidation, "%s", problem)
	}
	ex := &Exception{
		ID:           core.MustNewID(),
		RotationType: rotationType,
		Date:         date,
		EmployeeID:   employeeID,
		Reason:       reason,
	}
	if err := m.repo.AddException(ctx, ex); err != nil {
		return nil, fmt.Errorf("adding rotation exception: %w", err)
	}
	return ex, nil
}

// DeleteException removes a single-date override.
func (m *Manager) DeleteException(ctx context.Context, id core.ID) error {
	return m.repo.DeleteException(ctx, id)
}

func (m *Manager) validateEntry(ctx context.Context, rotationType Type, weekday int, employeeID string) string {
	if !rotationType.Valid() {
		return fmt.Sprintf("unknown rotation type %q", rotationType)
	}
	if weekday < 0 || weekday > 6 {
		return fmt.Sprintf("weekday %d out of range", weekday)
	}
	if employeeID == "" {
		return "employee is required"
	}
	if _, err := m.rosterRepo.GetByID(ctx, employeeID); err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return fmt.Sprintf("unknown employee %q", employeeID)
		}
		return fmt.Sprintf("checking employee %q: %v", employeeID, err)
	}
	return ""
}
