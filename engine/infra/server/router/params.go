package router

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/core"
)

// GetPathID parses a UUID path parameter. On a bad value it writes the 400
// itself and reports false.
func GetPathID(c *gin.Context, name string) (core.ID, bool) {
	raw := c.Param(name)
	id, err := core.ParseID(raw)
	if err != nil {
		reqErr := NewRequestError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name), err)
		RespondWithError(c, reqErr.StatusCode, reqErr)
		return "", false
	}
	return id, true
}

// GetPathRefNum parses an integer path parameter, the event reference
// number form. On a bad value it writes the 400 itself and reports false.
func GetPathRefNum(c *gin.Context, name string) (int, bool) {
	raw := c.Param(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		reqErr := NewRequestError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name), err)
		RespondWithError(c, reqErr.StatusCode, reqErr)
		return 0, false
	}
	return n, true
}

// Actor identifies who performed a mutating request for the audit trail.
// There is no authentication layer; callers self-identify via header.
func Actor(c *gin.Context) string {
	if actor := c.GetHeader("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}
