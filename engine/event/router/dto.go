package eventrouter

import (
	"time"

	"github.com/demoplan/demoplan/engine/event"
)

type EventDTO struct {
	ProjectRefNum    int       `json:"project_ref_num"`
	ExternalID       string    `json:"external_id,omitempty"`
	LocationMVID     string    `json:"location_mvid,omitempty"`
	ProjectName      string    `json:"project_name"`
	EventType        string    `json:"event_type"`
	EventNumber      string    `json:"event_number,omitempty"`
	StartDatetime    time.Time `json:"start_datetime"`
	DueDatetime      time.Time `json:"due_datetime"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	IsScheduled      bool      `json:"is_scheduled"`
	Condition        string    `json:"condition"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toEventDTO(ev *event.Event) EventDTO {
	return EventDTO{
		ProjectRefNum:    ev.ProjectRefNum,
		ExternalID:       ev.ExternalID,
		LocationMVID:     ev.LocationMVID,
		ProjectName:      ev.ProjectName,
		EventType:        string(ev.EventType),
		EventNumber:      ev.EventNumber,
		StartDatetime:    ev.StartDatetime,
		DueDatetime:      ev.DueDatetime,
		EstimatedMinutes: ev.EstimatedMinutes,
		IsScheduled:      ev.IsScheduled,
		Condition:        string(ev.Condition),
		CreatedAt:        ev.CreatedAt,
		UpdatedAt:        ev.UpdatedAt,
	}
}

func toEventDTOs(events []*event.Event) []EventDTO {
	out := make([]EventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventDTO(ev))
	}
	return out
}
