package schedulerrouter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/infra/server/router"
	"github.com/demoplan/demoplan/engine/scheduler/uc"
)

// approveRun commits a run's proposals
//
//	@Summary		Approve a run
//	@Description	Commit every reviewable proposal: create schedules, flag events, and enqueue upstream pushes in one transaction
//	@Tags			scheduler
//	@Produce		json
//	@Param			run_id	path		string	true	"Run ID"
//	@Success		200		{object}	router.Response{data=ApprovalResultDTO}	"Run approved"
//	@Failure		404		{object}	router.Response{error=router.ErrorInfo}	"Run not found"
//	@Failure		409		{object}	router.Response{error=router.ErrorInfo}	"Run not approvable"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/scheduler/runs/{run_id}/approve [post]
func approveRun(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	if state.Queue == nil {
		reqErr := router.NewRequestError(http.StatusServiceUnavailable, "sync queue unavailable", nil)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	runID, ok := router.GetPathID(c, "run_id")
	if !ok {
		return
	}
	result, err := uc.NewApproveRun(state.Store, state.Queue, runID, router.Actor(c)).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "run approved", toApprovalResultDTO(result))
}

// rejectRun discards a run's proposals
//
//	@Summary		Reject a run
//	@Description	Mark every reviewable proposal rejected without touching schedules
//	@Tags			scheduler
//	@Produce		json
//	@Param			run_id	path		string	true	"Run ID"
//	@Success		200		{object}	router.Response{}						"Run rejected"
//	@Failure		404		{object}	router.Response{error=router.ErrorInfo}	"Run not found"
//	@Failure		409		{object}	router.Response{error=router.ErrorInfo}	"Run not rejectable"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/scheduler/runs/{run_id}/reject [post]
func rejectRun(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	runID, ok := router.GetPathID(c, "run_id")
	if !ok {
		return
	}
	if err := uc.NewRejectRun(state.Store, runID, router.Actor(c)).Execute(c.Request.Context()); err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "run rejected", nil)
}
