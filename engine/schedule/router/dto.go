package schedulerouter

import (
	"time"

	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/schedule/uc"
)

// ScheduleDTO is the JSON shape of a committed assignment.
type ScheduleDTO struct {
	ID               string     `json:"id"`
	EventRefNum      int        `json:"event_ref_num"`
	EmployeeID       string     `json:"employee_id"`
	ScheduleDatetime time.Time  `json:"schedule_datetime"`
	SyncStatus       string     `json:"sync_status"`
	UpstreamRef      string     `json:"upstream_ref,omitempty"`
	LastSynced       *time.Time `json:"last_synced,omitempty"`
	APIErrorDetails  string     `json:"api_error_details,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toScheduleDTO(s *schedule.Schedule) ScheduleDTO {
	return ScheduleDTO{
		ID:               s.ID.String(),
		EventRefNum:      s.EventRefNum,
		EmployeeID:       s.EmployeeID,
		ScheduleDatetime: s.ScheduleDatetime,
		SyncStatus:       string(s.SyncStatus),
		UpstreamRef:      s.UpstreamRef,
		LastSynced:       s.LastSynced,
		APIErrorDetails:  s.APIErrorDetails,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// TradeResultDTO returns both sides of a swap.
type TradeResultDTO struct {
	First  ScheduleDTO `json:"first"`
	Second ScheduleDTO `json:"second"`
}

func toTradeResultDTO(r *uc.TradeResult) TradeResultDTO {
	return TradeResultDTO{First: toScheduleDTO(r.First), Second: toScheduleDTO(r.Second)}
}

// CreateScheduleRequest commits a manual assignment.
type CreateScheduleRequest struct {
	EventRefNum      int       `json:"event_ref_num"      binding:"required"`
	EmployeeID       string    `json:"employee_id"        binding:"required"`
	ScheduleDatetime time.Time `json:"schedule_datetime"  binding:"required"`
}

// RescheduleRequest moves an assignment to a new datetime.
type RescheduleRequest struct {
	ScheduleDatetime time.Time `json:"schedule_datetime" binding:"required"`
}

// TradeRequest swaps the employees of two schedules.
type TradeRequest struct {
	FirstScheduleID  string `json:"first_schedule_id"  binding:"required"`
	SecondScheduleID string `json:"second_schedule_id" binding:"required"`
}

// ChangeEmployeeRequest reassigns a schedule to another employee.
type ChangeEmployeeRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
}
