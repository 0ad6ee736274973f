package server

import (
	"github.com/gin-gonic/gin"

	auditrouter "github.com/demoplan/demoplan/engine/audit/router"
	eventrouter "github.com/demoplan/demoplan/engine/event/router"
	"github.com/demoplan/demoplan/engine/infra/monitoring"
	rosterrouter "github.com/demoplan/demoplan/engine/roster/router"
	rotationrouter "github.com/demoplan/demoplan/engine/rotation/router"
	schedulerouter "github.com/demoplan/demoplan/engine/schedule/router"
	schedulerrouter "github.com/demoplan/demoplan/engine/scheduler/router"
	syncrouter "github.com/demoplan/demoplan/engine/sync/router"
	"github.com/demoplan/demoplan/pkg/version"
)

const apiBasePath = "/api/v0"

func (s *Server) registerRoutes(r *gin.Engine) error {
	apiBase := r.Group(apiBasePath)
	schedulerrouter.Register(apiBase)
	schedulerouter.Register(apiBase)
	eventrouter.Register(apiBase)
	rosterrouter.Register(apiBase)
	rotationrouter.Register(apiBase)
	syncrouter.Register(apiBase)
	auditrouter.Register(apiBase)

	apiBase.GET("/health", CreateHealthHandler(s, version.GetVersion()))
	r.GET("/metrics", gin.WrapH(monitoring.Handler()))

	s.log.Info("Completed route registration", "base", apiBasePath)
	return nil
}
