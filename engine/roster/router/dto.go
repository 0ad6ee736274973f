package rosterrouter

import (
	"time"

	"github.com/demoplan/demoplan/engine/roster"
)

type EmployeeDTO struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id,omitempty"`
	Name       string    `json:"name"`
	JobTitle   string    `json:"job_title"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toEmployeeDTO(e *roster.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:         e.ID,
		ExternalID: e.ExternalID,
		Name:       e.Name,
		JobTitle:   string(e.JobTitle),
		IsActive:   e.IsActive,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func toEmployeeDTOs(employees []*roster.Employee) []EmployeeDTO {
	out := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeDTO(e))
	}
	return out
}
