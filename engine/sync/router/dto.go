package syncrouter

import (
	"time"

	"github.com/demoplan/demoplan/engine/sync/uc"
)

// StatusDTO summarizes sync state: schedule counts per sync status and the
// last completed pull.
type StatusDTO struct {
	Schedules  map[string]int `json:"schedules"`
	LastPullAt *time.Time     `json:"last_pull_at,omitempty"`
}

func toStatusDTO(s *uc.Status) StatusDTO {
	counts := make(map[string]int, len(s.Schedules))
	for status, n := range s.Schedules {
		counts[string(status)] = n
	}
	return StatusDTO{Schedules: counts, LastPullAt: s.LastPullAt}
}
