package uc

import (
	"context"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/scheduler"
)

// -----------------------------------------------------------------------------
// StartRun
// -----------------------------------------------------------------------------

type StartRun struct {
	engine  *scheduler.Engine
	runType scheduler.RunType
}

func NewStartRun(engine *scheduler.Engine, runType scheduler.RunType) *StartRun {
	return &StartRun{engine: engine, runType: runType}
}

// Execute runs the scheduling engine synchronously and returns the finished
// run record. A concurrent run surfaces as a conflict.
func (uc *StartRun) Execute(ctx context.Context) (*scheduler.RunHistory, error) {
	return uc.engine.Run(ctx, uc.runType)
}

// -----------------------------------------------------------------------------
// ListRuns
// -----------------------------------------------------------------------------

type ListRuns struct {
	store  scheduler.Store
	limit  int
	offset int
}

func NewListRuns(store scheduler.Store, limit, offset int) *ListRuns {
	if limit <= 0 {
		limit = 50
	}
	return &ListRuns{store: store, limit: limit, offset: offset}
}

func (uc *ListRuns) Execute(ctx context.Context) ([]*scheduler.RunHistory, error) {
	return uc.store.Repos().Runs.List(ctx, uc.limit, uc.offset)
}

// -----------------------------------------------------------------------------
// GetRun
// -----------------------------------------------------------------------------

type GetRun struct {
	store scheduler.Store
	runID core.ID
}

func NewGetRun(store scheduler.Store, runID core.ID) *GetRun {
	return &GetRun{store: store, runID: runID}
}

func (uc *GetRun) Execute(ctx context.Context) (*scheduler.RunHistory, error) {
	return uc.store.Repos().Runs.GetByID(ctx, uc.runID)
}
