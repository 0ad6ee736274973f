package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/infra/server/appstate"
)

// GetAppState resolves the application state installed by the server
// middleware. It writes the error response itself; callers return on nil.
func GetAppState(c *gin.Context) *appstate.State {
	state, err := appstate.GetState(c.Request.Context())
	if err != nil {
		reqErr := NewRequestError(http.StatusInternalServerError, "application state unavailable", err)
		RespondWithError(c, reqErr.StatusCode, reqErr)
		return nil
	}
	return state
}
