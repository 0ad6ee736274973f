package schedulerouter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/infra/server/appstate"
	"github.com/demoplan/demoplan/engine/infra/server/router"
	"github.com/demoplan/demoplan/engine/schedule/uc"
)

// requireQueue resolves app state and rejects requests when the process
// runs without a sync queue; every schedule mutation enqueues a push.
func requireQueue(c *gin.Context) (*appstate.State, bool) {
	state := router.GetAppState(c)
	if state == nil {
		return nil, false
	}
	if state.Queue == nil {
		reqErr := router.NewRequestError(http.StatusServiceUnavailable, "sync queue unavailable", nil)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return nil, false
	}
	return state, true
}

// createSchedule commits a manual assignment
//
//	@Summary		Create a schedule
//	@Description	Commit a manual assignment of an employee to an event and enqueue its upstream push
//	@Tags			schedules
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateScheduleRequest	true	"Assignment"
//	@Success		201		{object}	router.Response{data=ScheduleDTO}		"Schedule created"
//	@Failure		400		{object}	router.Response{error=router.ErrorInfo}	"Constraint violation"
//	@Failure		404		{object}	router.Response{error=router.ErrorInfo}	"Event or employee not found"
//	@Failure		409		{object}	router.Response{error=router.ErrorInfo}	"Event already scheduled"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/schedules [post]
func createSchedule(c *gin.Context) {
	state, ok := requireQueue(c)
	if !ok {
		return
	}
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqErr := router.NewRequestError(http.StatusBadRequest, "invalid request body", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	sched, err := uc.NewCreateSchedule(state.Store, state.Queue, &state.Config.Scheduler, state.Loc, &uc.CreateScheduleInput{
		EventRefNum: req.EventRefNum,
		EmployeeID:  req.EmployeeID,
		Datetime:    req.ScheduleDatetime,
		Actor:       router.Actor(c),
	}).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondCreated(c, "schedule created", toScheduleDTO(sched))
}

// reschedule moves an assignment
//
//	@Summary		Reschedule an assignment
//	@Description	Move a committed assignment to a new datetime and enqueue an update push
//	@Tags			schedules
//	@Accept			json
//	@Produce		json
//	@Param			schedule_id	path		string				true	"Schedule ID"
//	@Param			request		body		RescheduleRequest	true	"New datetime"
//	@Success		200			{object}	router.Response{data=ScheduleDTO}		"Schedule moved"
//	@Failure		400			{object}	router.Response{error=router.ErrorInfo}	"Constraint violation"
//	@Failure		404			{object}	router.Response{error=router.ErrorInfo}	"Schedule not found"
//	@Failure		500			{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/schedules/{schedule_id}/reschedule [post]
func reschedule(c *gin.Context) {
	state, ok := requireQueue(c)
	if !ok {
		return
	}
	scheduleID, ok := router.GetPathID(c, "schedule_id")
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqErr := router.NewRequestError(http.StatusBadRequest, "invalid request body", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	sched, err := uc.NewReschedule(
		state.Store, state.Queue, &state.Config.Scheduler, state.Loc,
		scheduleID, req.ScheduleDatetime, router.Actor(c),
	).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "schedule moved", toScheduleDTO(sched))
}

// tradeSchedules swaps two assignments' employees
//
//	@Summary		Trade two schedules
//	@Description	Swap the employees of two committed assignments and enqueue update pushes for both
//	@Tags			schedules
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TradeRequest	true	"Schedule pair"
//	@Success		200		{object}	router.Response{data=TradeResultDTO}	"Schedules traded"
//	@Failure		400		{object}	router.Response{error=router.ErrorInfo}	"Constraint violation"
//	@Failure		404		{object}	router.Response{error=router.ErrorInfo}	"Schedule not found"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/schedules/trade [post]
func tradeSchedules(c *gin.Context) {
	state, ok := requireQueue(c)
	if !ok {
		return
	}
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqErr := router.NewRequestError(http.StatusBadRequest, "invalid request body", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	firstID, err := core.ParseID(req.FirstScheduleID)
	if err != nil {
		reqErr := router.NewRequestError(http.StatusBadRequest, "invalid first_schedule_id", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	secondID, err := core.ParseID(req.SecondScheduleID)
	if err != nil {
		reqErr := router.NewRequestError(http.StatusBadRequest, "invalid second_schedule_id", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	result, err := uc.NewTrade(
		state.Store, state.Queue, &state.Config.Scheduler, state.Loc,
		firstID, secondID, router.Actor(c),
	).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "schedules traded", toTradeResultDTO(result))
}

// changeEmployee reassigns an assignment
//
//	@Summary		Change the employee
//	@Description	Reassign a committed assignment to a different employee at its current datetime
//	@Tags			schedules
//	@Accept			json
//	@Produce		json
//	@Param			schedule_id	path		string					true	"Schedule ID"
//	@Param			request		body		ChangeEmployeeRequest	true	"New employee"
//	@Success		200			{object}	router.Response{data=ScheduleDTO}		"Schedule reassigned"
//	@Failure		400			{object}	router.Response{error=router.ErrorInfo}	"Constraint violation"
//	@Failure		404			{object}	router.Response{error=router.ErrorInfo}	"Schedule or employee not found"
//	@Failure		500			{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/schedules/{schedule_id}/employee [post]
func changeEmployee(c *gin.Context) {
	state, ok := requireQueue(c)
	if !ok {
		return
	}
	scheduleID, ok := router.GetPathID(c, "schedule_id")
	if !ok {
		return
	}
	var req ChangeEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqErr := router.NewRequestError(http.StatusBadRequest, "invalid request body", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	sched, err := uc.NewChangeEmployee(
		state.Store, state.Queue, &state.Config.Scheduler, state.Loc,
		scheduleID, req.EmployeeID, router.Actor(c),
	).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "schedule reassigned", toScheduleDTO(sched))
}

// unschedule removes an assignment
//
//	@Summary		Delete a schedule
//	@Description	Remove a committed assignment, release its event, and enqueue the upstream delete when one was pushed
//	@Tags			schedules
//	@Produce		json
//	@Param			schedule_id	path		string	true	"Schedule ID"
//	@Success		200			{object}	router.Response{}						"Schedule deleted"
//	@Failure		404			{object}	router.Response{error=router.ErrorInfo}	"Schedule not found"
//	@Failure		500			{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/schedules/{schedule_id} [delete]
func unschedule(c *gin.Context) {
	state, ok := requireQueue(c)
	if !ok {
		return
	}
	scheduleID, ok := router.GetPathID(c, "schedule_id")
	if !ok {
		return
	}
	err := uc.NewUnschedule(state.Store, state.Queue, scheduleID, router.Actor(c)).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "schedule deleted", nil)
}

// retrySync requeues a failed push
//
//	@Summary		Retry a failed sync
//	@Description	Reset a failed schedule to pending and enqueue a fresh push
//	@Tags			schedules
//	@Produce		json
//	@Param			schedule_id	path		string	true	"Schedule ID"
//	@Success		200			{object}	router.Response{data=ScheduleDTO}		"Push requeued"
//	@Failure		404			{object}	router.Response{error=router.ErrorInfo}	"Schedule not found"
//	@Failure		409			{object}	router.Response{error=router.ErrorInfo}	"Schedule did not fail"
//	@Failure		500			{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/schedules/{schedule_id}/retry-sync [post]
func retrySync(c *gin.Context) {
	state, ok := requireQueue(c)
	if !ok {
		return
	}
	scheduleID, ok := router.GetPathID(c, "schedule_id")
	if !ok {
		return
	}
	sched, err := uc.NewRetrySync(state.Store, state.Queue, scheduleID, router.Actor(c)).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "push requeued", toScheduleDTO(sched))
}
