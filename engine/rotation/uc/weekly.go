package uc

import (
	"context"
	"strings"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/scheduler"
)

// ReplaceWeekly swaps the whole weekly rotation table in one shot. The
// replacement is all-or-nothing: one bad entry rejects the lot so the
// table never ends up half old, half new.
type ReplaceWeekly struct {
	store   scheduler.Store
	entries []*rotation.Weekly
	actor   string
}

func NewReplaceWeekly(store scheduler.Store, entries []*rotation.Weekly, actor string) *ReplaceWeekly {
	return &ReplaceWeekly{store: store, entries: entries, actor: actor}
}

func (uc *ReplaceWeekly) Execute(ctx context.Context) (*rotation.BulkResult, error) {
	var result *rotation.BulkResult
	err := uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		before, err := r.Rotations.ListWeekly(ctx)
		if err != nil {
			return err
		}
		mgr := rotation.NewManager(r.Rotations, r.Roster)
		result, err = mgr.SetAllWeekly(ctx, uc.entries)
		if err != nil {
			if result != nil && len(result.Problems) > 0 {
				return core.NewError(core.KindValidation,
					"bulk rotation update rejected: %s", strings.Join(result.Problems, "; "))
			}
			return err
		}
		after, err := r.Rotations.ListWeekly(ctx)
		if err != nil {
			return err
		}
		return r.Audit.Append(ctx, audit.New(
			uc.actor, "rotation.weekly.replace", "rotation", "weekly", before, after,
		))
	})
	if err != nil {
		return result, err
	}
	return result, nil
}
