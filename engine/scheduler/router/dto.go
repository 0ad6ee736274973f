package schedulerrouter

import (
	"time"

	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/engine/scheduler/uc"
)

// RunDTO mirrors scheduler.RunHistory for transport.
type RunDTO struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	RunType        string     `json:"run_type"`
	State          string     `json:"state"`
	TotalProcessed int        `json:"total_processed"`
	Scheduled      int        `json:"scheduled"`
	RequiringSwaps int        `json:"requiring_swaps"`
	Failed         int        `json:"failed"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

func toRunDTO(run *scheduler.RunHistory) RunDTO {
	return RunDTO{
		ID:             run.ID.String(),
		StartedAt:      run.StartedAt,
		EndedAt:        run.EndedAt,
		RunType:        string(run.RunType),
		State:          string(run.State),
		TotalProcessed: run.TotalProcessed,
		Scheduled:      run.Scheduled,
		RequiringSwaps: run.RequiringSwaps,
		Failed:         run.Failed,
		ErrorMessage:   run.ErrorMessage,
	}
}

func toRunDTOs(runs []*scheduler.RunHistory) []RunDTO {
	out := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunDTO(run))
	}
	return out
}

// ProposalDTO mirrors scheduler.PendingSchedule for transport.
type ProposalDTO struct {
	ID                  string     `json:"id"`
	RunID               string     `json:"run_id"`
	EventRefNum         int        `json:"event_ref_num"`
	EmployeeID          *string    `json:"employee_id,omitempty"`
	ScheduleDatetime    *time.Time `json:"schedule_datetime,omitempty"`
	Status              string     `json:"status"`
	IsSwap              bool       `json:"is_swap"`
	SwapReason          string     `json:"swap_reason,omitempty"`
	DisplacedScheduleID *string    `json:"displaced_schedule_id,omitempty"`
	FailureReason       string     `json:"failure_reason,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func toProposalDTO(p *scheduler.PendingSchedule) ProposalDTO {
	dto := ProposalDTO{
		ID:               p.ID.String(),
		RunID:            p.RunID.String(),
		EventRefNum:      p.EventRefNum,
		EmployeeID:       p.EmployeeID,
		ScheduleDatetime: p.ScheduleDatetime,
		Status:           string(p.Status),
		IsSwap:           p.IsSwap,
		SwapReason:       p.SwapReason,
		FailureReason:    p.FailureReason,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.DisplacedScheduleID != nil {
		s := p.DisplacedScheduleID.String()
		dto.DisplacedScheduleID = &s
	}
	return dto
}

func toProposalDTOs(proposals []*scheduler.PendingSchedule) []ProposalDTO {
	out := make([]ProposalDTO, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, toProposalDTO(p))
	}
	return out
}

// DayPreviewDTO is one day of the review preview in start order.
type DayPreviewDTO struct {
	Date  string        `json:"date"`
	Items []ProposalDTO `json:"items"`
}

// ProposalGroupsDTO is the categorized review view of a run.
type ProposalGroupsDTO struct {
	NewlyScheduled []ProposalDTO   `json:"newly_scheduled"`
	Swaps          []ProposalDTO   `json:"swaps"`
	Failed         []ProposalDTO   `json:"failed"`
	DailyPreview   []DayPreviewDTO `json:"daily_preview"`
}

func toProposalGroupsDTO(groups *uc.ProposalGroups) ProposalGroupsDTO {
	dto := ProposalGroupsDTO{
		NewlyScheduled: toProposalDTOs(groups.NewlyScheduled),
		Swaps:          toProposalDTOs(groups.Swaps),
		Failed:         toProposalDTOs(groups.Failed),
		DailyPreview:   make([]DayPreviewDTO, 0, len(groups.DailyPreview)),
	}
	for _, day := range groups.DailyPreview {
		dto.DailyPreview = append(dto.DailyPreview, DayPreviewDTO{
			Date:  day.Date.String(),
			Items: toProposalDTOs(day.Items),
		})
	}
	return dto
}

// RunDetailDTO is a run with its proposals attached.
type RunDetailDTO struct {
	RunDTO
	Proposals ProposalGroupsDTO `json:"proposals"`
}

// ApprovalResultDTO reports what approval committed.
type ApprovalResultDTO struct {
	Approved    int      `json:"approved"`
	APIFailed   int      `json:"api_failed"`
	Skipped     int      `json:"skipped"`
	ScheduleIDs []string `json:"schedule_ids"`
}

func toApprovalResultDTO(result *uc.ApprovalResult) ApprovalResultDTO {
	dto := ApprovalResultDTO{
		Approved:    result.Approved,
		APIFailed:   result.APIFailed,
		Skipped:     result.Skipped,
		ScheduleIDs: make([]string, 0, len(result.ScheduleIDs)),
	}
	for _, id := range result.ScheduleIDs {
		dto.ScheduleIDs = append(dto.ScheduleIDs, id.String())
	}
	return dto
}

// EditProposalRequest carries a manual adjustment to one proposal. Omitted
// fields keep their current value.
type EditProposalRequest struct {
	EmployeeID       *string    `json:"employee_id"`
	ScheduleDatetime *time.Time `json:"schedule_datetime"`
}
