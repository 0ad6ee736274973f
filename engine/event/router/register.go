package eventrouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	eventsGroup := apiBase.Group("/events")
	{
		// GET /api/v0/events
		// List events by start datetime
		eventsGroup.GET("", listEvents)

		// GET /api/v0/events/:ref_num
		// Get one event
		eventsGroup.GET("/:ref_num", getEvent)
	}
}
