package schedulerrouter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/infra/server/router"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/engine/scheduler/uc"
)

// startRun launches a scheduling run
//
//	@Summary		Start a scheduling run
//	@Description	Run the auto-scheduler over the planning window and produce proposals for review
//	@Tags			scheduler
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	router.Response{data=RunDTO}			"Run finished and proposals recorded"
//	@Failure		409	{object}	router.Response{error=router.ErrorInfo}	"Another run is already in progress"
//	@Failure		500	{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/scheduler/runs [post]
func startRun(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	if state.Engine == nil {
		reqErr := router.NewRequestError(http.StatusServiceUnavailable, "scheduler engine unavailable", nil)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	run, err := uc.NewStartRun(state.Engine, scheduler.RunTypeManual).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondCreated(c, "scheduler run finished", toRunDTO(run))
}

// listRuns lists past scheduling runs
//
//	@Summary		List scheduling runs
//	@Description	Retrieve run history newest first
//	@Tags			scheduler
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"	default(50)
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	router.Response{data=object{runs=[]RunDTO}}	"Runs retrieved"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}		"Internal server error"
//	@Router			/scheduler/runs [get]
func listRuns(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	limit, offset := router.LimitOffset(c)
	runs, err := uc.NewListRuns(state.Store, limit, offset).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "runs retrieved", gin.H{"runs": toRunDTOs(runs)})
}

// getRunByID retrieves one run with its proposals
//
//	@Summary		Get run details
//	@Description	Retrieve a run and its proposals grouped for review: new placements, swaps, failures, and a day-by-day preview
//	@Tags			scheduler
//	@Produce		json
//	@Param			run_id	path		string	true	"Run ID"
//	@Success		200		{object}	router.Response{data=RunDetailDTO}		"Run retrieved"
//	@Failure		404		{object}	router.Response{error=router.ErrorInfo}	"Run not found"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/scheduler/runs/{run_id} [get]
func getRunByID(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	runID, ok := router.GetPathID(c, "run_id")
	if !ok {
		return
	}
	run, err := uc.NewGetRun(state.Store, runID).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	groups, err := uc.NewListProposals(state.Store, state.Loc, runID).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "run retrieved", RunDetailDTO{
		RunDTO:    toRunDTO(run),
		Proposals: toProposalGroupsDTO(groups),
	})
}
