package rotationrouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	rotationsGroup := apiBase.Group("/rotations")
	{
		// GET /api/v0/rotations
		// Weekly grid plus exceptions in range
		rotationsGroup.GET("", listRotations)

		// PUT /api/v0/rotations
		// Replace the weekly grid atomically
		rotationsGroup.PUT("", replaceWeekly)

		// POST /api/v0/rotations/exceptions
		// Add a single-date override
		rotationsGroup.POST("/exceptions", addException)

		// DELETE /api/v0/rotations/exceptions/:exception_id
		// Remove a single-date override
		rotationsGroup.DELETE("/exceptions/:exception_id", deleteException)
	}
}
