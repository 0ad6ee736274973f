package syncrouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	syncGroup := apiBase.Group("/sync")
	{
		// GET /api/v0/sync/health
		// Check the upstream session
		syncGroup.GET("/health", syncHealth)

		// POST /api/v0/sync/trigger
		// Enqueue an immediate pull
		syncGroup.POST("/trigger", triggerSync)

		// GET /api/v0/sync/status
		// Schedule counts per sync status and last pull
		syncGroup.GET("/status", syncStatus)
	}
}
