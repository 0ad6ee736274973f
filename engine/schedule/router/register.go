package schedulerouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	schedulesGroup := apiBase.Group("/schedules")
	{
		// POST /api/v0/schedules
		// Commit a manual assignment
		schedulesGroup.POST("", createSchedule)

		// POST /api/v0/schedules/trade
		// Swap the employees of two schedules
		schedulesGroup.POST("/trade", tradeSchedules)

		// POST /api/v0/schedules/:schedule_id/reschedule
		// Move an assignment to a new datetime
		schedulesGroup.POST("/:schedule_id/reschedule", reschedule)

		// POST /api/v0/schedules/:schedule_id/employee
		// Reassign an assignment to another employee
		schedulesGroup.POST("/:schedule_id/employee", changeEmployee)

		// POST /api/v0/schedules/:schedule_id/retry-sync
		// Requeue a failed push
		schedulesGroup.POST("/:schedule_id/retry-sync", retrySync)

		// DELETE /api/v0/schedules/:schedule_id
		// Remove an assignment
		schedulesGroup.DELETE("/:schedule_id", unschedule)
	}
}
