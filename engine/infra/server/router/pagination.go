package router

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// LimitOffset reads the limit and offset query params with sane bounds.
// Absent or malformed values fall back to the defaults.
func LimitOffset(c *gin.Context) (limit, offset int) {
	limit = parseBounded(c.Query("limit"), defaultLimit, maxLimit)
	offset = parseBounded(c.Query("offset"), 0, 0)
	return limit, offset
}

func parseBounded(raw string, def, capAt int) int {
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || val < 0 {
		return def
	}
	if val == 0 && def > 0 {
		return def
	}
	if capAt > 0 && val > capAt {
		return capAt
	}
	return val
}
