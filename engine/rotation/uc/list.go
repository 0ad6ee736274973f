package uc

import (
	"context"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/scheduler"
)

// Board is the rotation admin view: the full weekly table plus the date
// exceptions falling inside the requested range.
type Board struct {
	Weekly     []*rotation.Weekly
	Exceptions []*rotation.Exception
}

type ListRotations struct {
	store scheduler.Store
	from  core.Date
	to    core.Date
}

func NewListRotations(store scheduler.Store, from, to core.Date) *ListRotations {
	return &ListRotations{store: store, from: from, to: to}
}

func (uc *ListRotations) Execute(ctx context.Context) (*Board, error) {
	if uc.to.Before(uc.from) {
		return nil, core.NewError(core.KindValidation, "exception range %s..%s is inverted", uc.from, uc.to)
	}
	repos := uc.store.Repos()
	weekly, err := repos.Rotations.ListWeekly(ctx)
	if err != nil {
		return nil, err
	}
	exceptions, err := repos.Rotations.ListExceptionsBetween(ctx, uc.from, uc.to)
	if err != nil {
		return nil, err
	}
	return &Board{Weekly: weekly, Exceptions: exceptions}, nil
}
