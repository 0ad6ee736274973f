package auditrouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	auditGroup := apiBase.Group("/audit")
	{
		// GET /api/v0/audit
		// List the audit trail
		auditGroup.GET("", listAudit)
	}
}
