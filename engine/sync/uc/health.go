package uc

import (
	"context"

	"github.com/demoplan/demoplan/engine/core"
)

// UpstreamHealth is the slice of the MVRetail client the health check
// consumes.
type UpstreamHealth interface {
	HealthCheck(ctx context.Context) error
}

// Health reports whether the upstream session works right now.
type Health struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

type SyncHealth struct {
	upstream UpstreamHealth
}

func NewSyncHealth(upstream UpstreamHealth) *SyncHealth {
	return &SyncHealth{upstream: upstream}
}

func (uc *SyncHealth) Execute(ctx context.Context) (*Health, error) {
	if uc.upstream == nil {
		return nil, core.NewError(core.KindInternal, "upstream client not configured")
	}
	if err := uc.upstream.HealthCheck(ctx); err != nil {
		return &Health{Healthy: false, Detail: err.Error()}, nil
	}
	return &Health{Healthy: true}, nil
}

// -----------------------------------------------------------------------------
// TriggerPull
// -----------------------------------------------------------------------------

// PullEnqueuer is the slice of the task queue the manual trigger consumes.
type PullEnqueuer interface {
	TriggerPull(ctx context.Context) error
}

// TriggerPull enqueues an immediate pull instead of waiting for the next
// periodic tick.
type TriggerPull struct {
	queue PullEnqueuer
}

func NewTriggerPull(queue PullEnqueuer) *TriggerPull {
	return &TriggerPull{queue: queue}
}

func (uc *TriggerPull) Execute(ctx context.Context) error {
	if uc.queue == nil {
		return core.NewError(core.KindInternal, "task queue not configured")
	}
	return uc.queue.TriggerPull(ctx)
}
