package schedulerrouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	schedulerGroup := apiBase.Group("/scheduler")
	{
		runsGroup := schedulerGroup.Group("/runs")
		{
			// POST /api/v0/scheduler/runs
			// Start a scheduling run
			runsGroup.POST("", startRun)

			// GET /api/v0/scheduler/runs
			// List run history
			runsGroup.GET("", listRuns)

			// GET /api/v0/scheduler/runs/:run_id
			// Get a run with grouped proposals
			runsGroup.GET("/:run_id", getRunByID)

			// POST /api/v0/scheduler/runs/:run_id/approve
			// Commit the run's proposals
			runsGroup.POST("/:run_id/approve", approveRun)

			// POST /api/v0/scheduler/runs/:run_id/reject
			// Discard the run's proposals
			runsGroup.POST("/:run_id/reject", rejectRun)
		}

		proposalsGroup := schedulerGroup.Group("/proposals")
		{
			// PUT /api/v0/scheduler/proposals/:proposal_id
			// Edit a proposal before approval
			proposalsGroup.PUT("/:proposal_id", editProposal)
		}
	}
}
