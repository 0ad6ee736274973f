package schedulerrouter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/infra/server/router"
	"github.com/demoplan/demoplan/engine/scheduler/uc"
)

// editProposal adjusts one proposal before approval
//
//	@Summary		Edit a proposal
//	@Description	Change the employee or the start time of a pending proposal; the new assignment is revalidated against committed schedules
//	@Tags			scheduler
//	@Accept			json
//	@Produce		json
//	@Param			proposal_id	path		string					true	"Proposal ID"
//	@Param			body		body		EditProposalRequest		true	"Fields to change"
//	@Success		200			{object}	router.Response{data=ProposalDTO}		"Proposal updated"
//	@Failure		400			{object}	router.Response{error=router.ErrorInfo}	"Edit breaks a hard constraint"
//	@Failure		404			{object}	router.Response{error=router.ErrorInfo}	"Proposal not found"
//	@Failure		409			{object}	router.Response{error=router.ErrorInfo}	"Proposal past review"
//	@Failure		500			{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/scheduler/proposals/{proposal_id} [put]
func editProposal(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	proposalID, ok := router.GetPathID(c, "proposal_id")
	if !ok {
		return
	}
	var req EditProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqErr := router.NewRequestError(http.StatusBadRequest, "invalid request body", err)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	input := &uc.EditProposalInput{
		EmployeeID: req.EmployeeID,
		Datetime:   req.ScheduleDatetime,
		Actor:      router.Actor(c),
	}
	prop, err := uc.NewEditProposal(state.Store, &state.Config.Scheduler, state.Loc, proposalID, input).
		Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "proposal updated", toProposalDTO(prop))
}
