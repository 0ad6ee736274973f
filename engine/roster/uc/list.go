package uc

import (
	"context"

	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/scheduler"
)

type ListEmployees struct {
	store      scheduler.Store
	activeOnly bool
}

func NewListEmployees(store scheduler.Store, activeOnly bool) *ListEmployees {
	return &ListEmployees{store: store, activeOnly: activeOnly}
}

func (uc *ListEmployees) Execute(ctx context.Context) ([]*roster.Employee, error) {
	repos := uc.store.Repos()
	if uc.activeOnly {
		return repos.Roster.ListActive(ctx)
	}
	return repos.Roster.List(ctx)
}

type GetEmployee struct {
	store scheduler.Store
	id    string
}

func NewGetEmployee(store scheduler.Store, id string) *GetEmployee {
	return &GetEmployee{store: store, id: id}
}

func (uc *GetEmployee) Execute(ctx context.Context) (*roster.Employee, error) {
	return uc.store.Repos().Roster.GetByID(ctx, uc.id)
}
