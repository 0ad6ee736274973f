package uc

import (
	"context"

	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/scheduler"
)

type ListEvents struct {
	store  scheduler.Store
	limit  int
	offset int
}

func NewListEvents(store scheduler.Store, limit, offset int) *ListEvents {
	return &ListEvents{store: store, limit: limit, offset: offset}
}

func (uc *ListEvents) Execute(ctx context.Context) ([]*event.Event, error) {
	return uc.store.Repos().Events.List(ctx, uc.limit, uc.offset)
}

type GetEvent struct {
	store  scheduler.Store
	refNum int
}

func NewGetEvent(store scheduler.Store, refNum int) *GetEvent {
	return &GetEvent{store: store, refNum: refNum}
}

func (uc *GetEvent) Execute(ctx context.Context) (*event.Event, error) {
	return uc.store.Repos().Events.GetByRefNum(ctx, uc.refNum)
}
