//	@title			Demoplan API
//	@version		1.0
//	@description	Demoplan assigns in-store demo events to employees and keeps the MVRetail system of record in sync

//	@BasePath	/api/v0

//	@tag.name			scheduler
//	@tag.description	Scheduling runs and proposal review operations

//	@tag.name			schedules
//	@tag.description	Committed assignment operations

//	@tag.name			events
//	@tag.description	Demo event operations

//	@tag.name			employees
//	@tag.description	Roster and availability operations

//	@tag.name			rotations
//	@tag.description	Weekly rotation and exception operations

//	@tag.name			sync
//	@tag.description	Upstream synchronization operations

//	@tag.name			audit
//	@tag.description	Audit trail operations

//	@tag.name			health
//	@tag.description	Operational endpoints for monitoring and health

package main

import (
	"os"

	"github.com/demoplan/demoplan/cli"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.Execute(); err != nil {
		// Exit with error code 1 if command execution fails
		os.Exit(1)
	}
}
