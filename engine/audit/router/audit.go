package auditrouter

import (
	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/audit/uc"
	"github.com/demoplan/demoplan/engine/infra/server/router"
)

// listAudit lists audit entries
//
//	@Summary		List audit entries
//	@Description	Retrieve the audit trail newest first, optionally filtered by entity or action
//	@Tags			audit
//	@Produce		json
//	@Param			entity_type	query		string	false	"Filter by entity type"
//	@Param			entity_id	query		string	false	"Filter by entity ID"
//	@Param			action		query		string	false	"Filter by action"
//	@Param			limit		query		int		false	"Page size"	default(50)
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	router.Response{data=object{entries=[]EntryDTO}}	"Entries retrieved"
//	@Failure		500			{object}	router.Response{error=router.ErrorInfo}				"Internal server error"
//	@Router			/audit [get]
func listAudit(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	filter := audit.Filter{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Action:     c.Query("action"),
	}
	limit, offset := router.LimitOffset(c)
	entries, err := uc.NewListEntries(state.Store, filter, limit, offset).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "audit entries retrieved", gin.H{"entries": toEntryDTOs(entries)})
}
