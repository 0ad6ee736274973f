package rotationrouter

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/infra/server/router"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/rotation/uc"
)

// listRotations returns the rotation board
//
//	@Summary		List rotations
//	@Description	Retrieve the weekly rotation grid plus date exceptions in range (default: today through the planning window)
//	@Tags			rotations
//	@Produce		json
//	@Param			from	query		string	false	"Range start (2006-01-02)"
//	@Param			to		query		string	false	"Range end (2006-01-02)"
//	@Success		200		{object}	router.Response{data=BoardDTO}			"Rotations retrieved"
//	@Failure		400		{object}	router.Response{error=router.ErrorInfo}	"Invalid date range"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/rotations [get]
func listRotations(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	from := core.DateOf(time.Now().In(state.Loc))
	if raw := c.Query("from"); raw != "" {
		parsed, err := core.ParseDate(raw)
		if err != nil {
			reqErr := router.NewRequestError(http.StatusBadRequest, "invalid from date", err)
			router.RespondWithError(c, reqErr.StatusCode, reqErr)
			return
		}
		from = parsed
	}
	to := from.AddDays(state.Config.Scheduler.WindowDays)
	if raw := c.Query("to"); raw != "" {
		parsed, err := core.ParseDate(raw)
		if err != nil {
			reqErr := router.NewRequestError(http.StatusBadRequest, "invalid to date", err)
			router.RespondWithError(c, reqErr.StatusCode, reqErr)
			return
		}
		to = parsed
	}
	board, err := uc.NewListRotations(state.Store, from, to).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "rotations retrieved", toBoardDTO(board))
}

// replaceWeekly swaps the whole weekly grid
//
//	@Summary		Replace weekly rotations
//	@Description	Replace the full weekly rotation table in one atomic write; any invalid entry rejects the lot
//	@Tags			rotations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ReplaceWeeklyRequest	true	"Full weekly table"
//	@Success		200		{object}	router.Response{data=rotation.BulkResult}	"Weekly rotations replaced"
//	@Failure		400		{object}	router.Response{error=router.ErrorInfo}		"Invalid entries"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}		"Internal server error"
//	@Router			/rotations [put]
func replaceWeekly(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req ReplaceWeeklyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqErr := router.NewRequestError(http.StatusBadRequest, "invalid request body", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	entries := make([]*rotation.Weekly, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, &rotation.Weekly{
			RotationType: rotation.Type(entry.RotationType),
			Weekday:      *entry.Weekday,
			EmployeeID:   entry.EmployeeID,
		})
	}
	result, err := uc.NewReplaceWeekly(state.Store, entries, router.Actor(c)).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "weekly rotations replaced", result)
}

// addException overrides one rotation date
//
//	@Summary		Add a rotation exception
//	@Description	Override the designated employee for one rotation type on a single date
//	@Tags			rotations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AddExceptionRequest	true	"Exception to record"
//	@Success		201		{object}	router.Response{data=ExceptionDTO}		"Exception added"
//	@Failure		400		{object}	router.Response{error=router.ErrorInfo}	"Invalid request"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/rotations/exceptions [post]
func addException(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req AddExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqErr := router.NewRequestError(http.StatusBadRequest, "invalid request body", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	ex, err := uc.NewAddException(state.Store, uc.AddExceptionInput{
		RotationType: rotation.Type(req.RotationType),
		Date:         req.Date,
		EmployeeID:   req.EmployeeID,
		Reason:       req.Reason,
		Actor:        router.Actor(c),
	}).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondCreated(c, "rotation exception added", toExceptionDTO(ex))
}

// deleteException removes a dated override
//
//	@Summary		Delete a rotation exception
//	@Description	Remove a single-date override so the weekly grid applies again
//	@Tags			rotations
//	@Produce		json
//	@Param			exception_id	path		string	true	"Exception ID"
//	@Success		200				{object}	router.Response{}						"Exception deleted"
//	@Failure		400				{object}	router.Response{error=router.ErrorInfo}	"Invalid exception ID"
//	@Failure		404				{object}	router.Response{error=router.ErrorInfo}	"Exception not found"
//	@Failure		500				{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/rotations/exceptions/{exception_id} [delete]
func deleteException(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, ok := router.GetPathID(c, "exception_id")
	if !ok {
		return
	}
	if err := uc.NewDeleteException(state.Store, id, router.Actor(c)).Execute(c.Request.Context()); err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "rotation exception deleted", nil)
}
