package eventrouter

import (
	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/event/uc"
	"github.com/demoplan/demoplan/engine/infra/server/router"
)

// listEvents lists events
//
//	@Summary		List events
//	@Description	Retrieve events ordered by start datetime
//	@Tags			events
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"	default(50)
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	router.Response{data=object{events=[]EventDTO}}	"Events retrieved"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}			"Internal server error"
//	@Router			/events [get]
func listEvents(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	limit, offset := router.LimitOffset(c)
	events, err := uc.NewListEvents(state.Store, limit, offset).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "events retrieved", gin.H{"events": toEventDTOs(events)})
}

// getEvent retrieves one event
//
//	@Summary		Get an event
//	@Description	Retrieve a single event by project reference number
//	@Tags			events
//	@Produce		json
//	@Param			ref_num	path		int	true	"Project reference number"
//	@Success		200		{object}	router.Response{data=EventDTO}			"Event retrieved"
//	@Failure		400		{object}	router.Response{error=router.ErrorInfo}	"Invalid reference number"
//	@Failure		404		{object}	router.Response{error=router.ErrorInfo}	"Event not found"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/events/{ref_num} [get]
func getEvent(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	refNum, ok := router.GetPathRefNum(c, "ref_num")
	if !ok {
		return
	}
	ev, err := uc.NewGetEvent(state.Store, refNum).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "event retrieved", toEventDTO(ev))
}
