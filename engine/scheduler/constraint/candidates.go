package constraint

import (
	"sort"
	"time"

	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
)

// titleRank orders candidates by job title: Leads first, the Club
// Supervisor last so the soft preference against placing them on Core work
// falls out of the ordering.
func titleRank(j roster.JobTitle) int {
	switch {
	case j.IsLead():
		return 0
	case j == roster.JobTitleEventSpecialist:
		return 1
	case j == roster.JobTitleJuicerBarista:
		return 2
	case j.IsClubSupervisor():
		return 3
	default:
		return 4
	}
}

// OrderEmployees returns the active employees sorted by title rank then ID,
// with primaryLead elevated to the front when present. It encodes the
// canonical candidate order without any feasibility filtering.
func OrderEmployees(employees []*roster.Employee, primaryLead string) []*roster.Employee {
	out := make([]*roster.Employee, 0, len(employees))
	for _, e := range employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := titleRank(out[i].JobTitle), titleRank(out[j].JobTitle)
		if ri != rj {
			return ri < rj
		}
		return out[i].ID < out[j].ID
	})
	if primaryLead != "" {
		for i, e := range out {
			if e.ID == primaryLead {
				lead := out[i]
				copy(out[1:i+1], out[:i])
				out[0] = lead
				break
			}
		}
	}
	return out
}

// CandidatesFor returns the active employees with no hard violations for
// (ev, start), ordered by title rank then ID. For Core events the Primary
// Lead for the date moves to the front when feasible.
func (v *Validator) CandidatesFor(
	ev *event.Event,
	start time.Time,
	employees []*roster.Employee,
	primaryLead string,
	f Facts,
) []*roster.Employee {
	elevate := ""
	if ev.EventType == event.TypeCore {
		elevate = primaryLead
	}
	ordered := OrderEmployees(employees, elevate)
	out := make([]*roster.Employee, 0, len(ordered))
	for _, e := range ordered {
		in := &Input{Event: ev, Employee: e, Start: start}
		if len(v.HardViolations(in, f)) > 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}
