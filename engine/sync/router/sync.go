package syncrouter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/infra/server/router"
	"github.com/demoplan/demoplan/engine/sync/uc"
)

// syncHealth checks the upstream session
//
//	@Summary		Check upstream health
//	@Description	Exercise the upstream session and report whether it works right now
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	router.Response{data=uc.Health}			"Health report"
//	@Failure		503	{object}	router.Response{error=router.ErrorInfo}	"Upstream client unavailable"
//	@Failure		500	{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/sync/health [get]
func syncHealth(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	if state.Upstream == nil {
		reqErr := router.NewRequestError(http.StatusServiceUnavailable, "upstream client unavailable", nil)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	health, err := uc.NewSyncHealth(state.Upstream).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "upstream health", health)
}

// triggerSync enqueues an immediate pull
//
//	@Summary		Trigger a pull
//	@Description	Enqueue an immediate reconciliation pass instead of waiting for the next periodic tick
//	@Tags			sync
//	@Produce		json
//	@Success		202	{object}	router.Response{}						"Pull enqueued"
//	@Failure		503	{object}	router.Response{error=router.ErrorInfo}	"Sync queue unavailable"
//	@Failure		500	{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/sync/trigger [post]
func triggerSync(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	if state.Queue == nil {
		reqErr := router.NewRequestError(http.StatusServiceUnavailable, "sync queue unavailable", nil)
		router.RespondWithError(c, reqErr.StatusCode, reqErr)
		return
	}
	if err := uc.NewTriggerPull(state.Queue).Execute(c.Request.Context()); err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondAccepted(c, "pull enqueued", nil)
}

// syncStatus summarizes sync state
//
//	@Summary		Sync status
//	@Description	Report schedule counts per sync status and the time of the last completed pull
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	router.Response{data=StatusDTO}			"Status summary"
//	@Failure		500	{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/sync/status [get]
func syncStatus(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	status, err := uc.NewSyncStatus(state.Store).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "sync status", toStatusDTO(status))
}
