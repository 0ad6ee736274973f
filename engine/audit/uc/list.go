package uc

import (
	"context"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/scheduler"
)

type ListEntries struct {
	store  scheduler.Store
	filter audit.Filter
	limit  int
	offset int
}

func NewListEntries(store scheduler.Store, filter audit.Filter, limit, offset int) *ListEntries {
	return &ListEntries{store: store, filter: filter, limit: limit, offset: offset}
}

func (uc *ListEntries) Execute(ctx context.Context) ([]*audit.Entry, error) {
	return uc.store.Repos().Audit.List(ctx, &uc.filter, uc.limit, uc.offset)
}
