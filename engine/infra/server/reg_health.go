package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// Health endpoint
//
//	@Summary      Get server health
//	@Description  Returns overall service health and component status
//	@Tags         health
//	@Produce      json
//	@Success      200 {object} map[string]interface{} "Service is healthy"
//	@Failure      503 {object} map[string]interface{} "Service is not ready"
//	@Router       /health [get]
func CreateHealthHandler(server *Server, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ready := true
		database := gin.H{"ready": true}
		if server.store == nil {
			ready = false
			database = gin.H{"ready": false, "error": "store not initialized"}
		} else if err := server.store.HealthCheck(ctx); err != nil {
			ready = false
			database = gin.H{"ready": false, "error": err.Error()}
		}
		status := statusHealthy
		statusCode := http.StatusOK
		if !ready {
			status = statusDegraded
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, gin.H{
			"data": gin.H{
				"status":   status,
				"version":  version,
				"database": database,
				"sync":     gin.H{"enabled": server.syncEnabled},
				"worker":   gin.H{"ready": server.workerUp},
			},
			"message": "Success",
		})
	}
}
