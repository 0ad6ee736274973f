package uc

import (
	"context"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/scheduler"
)

// AddExceptionInput overrides one rotation slot for a single date.
type AddExceptionInput struct {
	RotationType rotation.Type
	Date         core.Date
	EmployeeID   string
	Reason       string
	Actor        string
}

type AddException struct {
	store scheduler.Store
	input AddExceptionInput
}

func NewAddException(store scheduler.Store, input AddExceptionInput) *AddException {
	return &AddException{store: store, input: input}
}

func (uc *AddException) Execute(ctx context.Context) (*rotation.Exception, error) {
	var ex *rotation.Exception
	err := uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		// A second exception for the same (type, date) replaces the
		// first, so capture the loser for the audit trail.
		var before *rotation.Exception
		if prev, err := r.Rotations.GetException(ctx, uc.input.RotationType, uc.input.Date); err == nil {
			before = prev
		}
		mgr := rotation.NewManager(r.Rotations, r.Roster)
		created, err := mgr.AddException(ctx, uc.input.RotationType, uc.input.Date, uc.input.EmployeeID, uc.input.Reason)
		if err != nil {
			return err
		}
		ex = created
		return r.Audit.Append(ctx, audit.New(
			uc.input.Actor, "rotation.exception.add", "rotation_exception", ex.ID.String(), before, ex,
		))
	})
	if err != nil {
		return nil, err
	}
	return ex, nil
}

type DeleteException struct {
	store scheduler.Store
	id    core.ID
	actor string
}

func NewDeleteException(store scheduler.Store, id core.ID, actor string) *DeleteException {
	return &DeleteException{store: store, id: id, actor: actor}
}

func (uc *DeleteException) Execute(ctx context.Context) error {
	return uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		mgr := rotation.NewManager(r.Rotations, r.Roster)
		if err := mgr.DeleteException(ctx, uc.id); err != nil {
			return err
		}
		return r.Audit.Append(ctx, audit.New(
			uc.actor, "rotation.exception.delete", "rotation_exception", uc.id.String(), nil, nil,
		))
	})
}
