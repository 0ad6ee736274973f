package rotation

import (
	"context"
	"fmt"

	"github.com/demoplan/demoplan/engine/core"
)

type weeklyKey struct {
	rotationType Type
	weekday      int
}

type exceptionKey struct {
	rotationType Type
	date         core.Date
}

// Snapshot is an immutable in-memory view of the rotation tables for a date
// range. The scheduler builds one per run so repeated lookups never touch
// the store mid-run.
type Snapshot struct {
	weekly     map[weeklyKey]string
	exceptions map[exceptionKey]string
	leadIDs    []string
}

// NewSnapshot builds a snapshot from already-loaded rotation data. leadIDs
// must hold active Lead Event Specialists sorted by ID.
func NewSnapshot(weekly []*Weekly, exceptions []*Exception, leadIDs []string) *Snapshot {
	snap := &Snapshot{
		weekly:     make(map[weeklyKey]string, len(weekly)),
		exceptions: make(map[exceptionKey]string, len(exceptions)),
		leadIDs:    leadIDs,
	}
	for _, w := range weekly {
		snap.weekly[weeklyKey{w.RotationType, w.Weekday}] = w.EmployeeID
	}
	for _, ex := range exceptions {
		snap.exceptions[exceptionKey{ex.RotationType, ex.Date}] = ex.EmployeeID
	}
	return snap
}

// Snapshot loads the rotation state covering [from, to].
func (m *Manager) Snapshot(ctx context.Context, from, to core.Date) (*Snapshot, error) {
	weeklyEntries, err := m.repo.ListWeekly(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading weekly rotations: %w", err)
	}
	exceptions, err := m.repo.ListExceptionsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading rotation exceptions: %w", err)
	}
	employees, err := m.rosterRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active employees: %w", err)
	}
	var leadIDs []string
	for _, e := range employees {
		if e.JobTitle.IsLead() {
			leadIDs = append(leadIDs, e.ID)
		}
	}
	return NewSnapshot(weeklyEntries, exceptions, leadIDs), nil
}

// RotationFor resolves the designated employee, exception first. Empty means
// no designation.
func (s *Snapshot) RotationFor(date core.Date, rotationType Type) string {
	if id, ok := s.exceptions[exceptionKey{rotationType, date}]; ok {
		return id
	}
	return s.weekly[weeklyKey{rotationType, date.Weekday()}]
}

// SecondaryLeadFor picks the lowest-ID active Lead other than the Primary
// Lead for the date. Empty when no such lead exists.
func (s *Snapshot) SecondaryLeadFor(date core.Date) string {
	primary := s.RotationFor(date, TypePrimaryLead)
	for _, id := range s.leadIDs {
		if id != primary {
			return id
		}
	}
	return ""
}
