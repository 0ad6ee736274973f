package rotationrouter

import (
	"time"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/rotation/uc"
)

// WeeklyDTO is one slot of the weekly rotation grid (Monday = 0).
type WeeklyDTO struct {
	RotationType string `json:"rotation_type"`
	Weekday      int    `json:"weekday"`
	EmployeeID   string `json:"employee_id"`
}

type ExceptionDTO struct {
	ID           string    `json:"id"`
	RotationType string    `json:"rotation_type"`
	Date         core.Date `json:"date"`
	EmployeeID   string    `json:"employee_id"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type BoardDTO struct {
	Weekly     []WeeklyDTO    `json:"weekly"`
	Exceptions []ExceptionDTO `json:"exceptions"`
}

func toExceptionDTO(ex *rotation.Exception) ExceptionDTO {
	return ExceptionDTO{
		ID:           ex.ID.String(),
		RotationType: string(ex.RotationType),
		Date:         ex.Date,
		EmployeeID:   ex.EmployeeID,
		Reason:       ex.Reason,
		CreatedAt:    ex.CreatedAt,
	}
}

func toBoardDTO(board *uc.Board) BoardDTO {
	out := BoardDTO{
		Weekly:     make([]WeeklyDTO, 0, len(board.Weekly)),
		Exceptions: make([]ExceptionDTO, 0, len(board.Exceptions)),
	}
	for _, w := range board.Weekly {
		out.Weekly = append(out.Weekly, WeeklyDTO{
			RotationType: string(w.RotationType),
			Weekday:      w.Weekday,
			EmployeeID:   w.EmployeeID,
		})
	}
	for _, ex := range board.Exceptions {
		out.Exceptions = append(out.Exceptions, toExceptionDTO(ex))
	}
	return out
}

// WeeklyEntryRequest carries one slot of a bulk replacement. Weekday is a
// pointer so Monday (0) survives the required check.
type WeeklyEntryRequest struct {
	RotationType string `json:"rotation_type" binding:"required"`
	Weekday      *int   `json:"weekday"       binding:"required"`
	EmployeeID   string `json:"employee_id"`
}

type ReplaceWeeklyRequest struct {
	Entries []WeeklyEntryRequest `json:"entries" binding:"required"`
}

type AddExceptionRequest struct {
	RotationType string    `json:"rotation_type" binding:"required"`
	Date         core.Date `json:"date"          binding:"required"`
	EmployeeID   string    `json:"employee_id"   binding:"required"`
	Reason       string    `json:"reason"`
}
