package uc

import (
	"context"
	"errors"
	"time"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/engine/sync/mvretail"
	"github.com/demoplan/demoplan/pkg/config"
	"github.com/demoplan/demoplan/pkg/logger"
)

// UpstreamPuller is the slice of the MVRetail client the pull consumes.
type UpstreamPuller interface {
	ListAvailableReps(ctx context.Context, from, to time.Time) ([]mvretail.Rep, error)
	ListPlanningEvents(ctx context.Context) ([]mvretail.PlanningEvent, error)
	ListScheduledEvents(ctx context.Context, from, to time.Time) ([]mvretail.ScheduledEvent, error)
}

// PullResult summarizes one reconciliation pass.
type PullResult struct {
	Reps          int       `json:"reps"`
	RepsCreated   int       `json:"reps_created"`
	Events        int       `json:"events"`
	EventsCreated int       `json:"events_created"`
	Reconciled    int       `json:"reconciled"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
}

// PullEvents mirrors the upstream system of record into local rows: reps
// into the roster, planning events into the event table, and upstream
// assignments into event conditions. Local scheduling state is preserved on
// update; upstream fetches happen before the single write transaction.
type PullEvents struct {
	store    scheduler.Store
	upstream UpstreamPuller
	cfg      *config.SyncConfig
	now      func() time.Time
}

func NewPullEvents(store scheduler.Store, upstream UpstreamPuller, cfg *config.SyncConfig) *PullEvents {
	return &PullEvents{store: store, upstream: upstream, cfg: cfg, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (uc *PullEvents) WithNow(now func() time.Time) *PullEvents {
	uc.now = now
	return uc
}

func (uc *PullEvents) Execute(ctx context.Context) (*PullResult, error) {
	log := logger.FromContext(ctx)
	from := uc.now()
	to := from.AddDate(0, 0, uc.cfg.PullWindowDays)
	result := &PullResult{WindowStart: from, WindowEnd: to}

	reps, err := uc.upstream.ListAvailableReps(ctx, from, to)
	if err != nil {
		return nil, err
	}
	planning, err := uc.upstream.ListPlanningEvents(ctx)
	if err != nil {
		return nil, err
	}
	scheduled, err := uc.upstream.ListScheduledEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}

	err = uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		for _, rep := range reps {
			created, err := upsertRep(ctx, r, rep)
			if err != nil {
				return err
			}
			result.Reps++
			if created {
				result.RepsCreated++
			}
		}
		for _, pe := range planning {
			created, skipped, err := upsertPlanningEvent(ctx, r, pe)
			if err != nil {
				return err
			}
			if skipped {
				continue
			}
			result.Events++
			if created {
				result.EventsCreated++
			}
		}
		for _, se := range scheduled {
			reconciled, err := reconcileScheduled(ctx, r, se)
			if err != nil {
				return err
			}
			if reconciled {
				result.Reconciled++
			}
		}
		return r.Audit.Append(ctx, audit.New("system", "sync.pull", "sync", "pull", nil, result))
	})
	if err != nil {
		return nil, err
	}
	log.Info("pull finished",
		"reps", result.Reps, "reps_created", result.RepsCreated,
		"events", result.Events, "events_created", result.EventsCreated,
		"reconciled", result.Reconciled)
	return result, nil
}

// upsertRep maps one upstream rep into the roster. New reps arrive active
// with the mapped job title; on update the upstream refreshes name and title
// while local activation stays authoritative.
func upsertRep(ctx context.Context, r *scheduler.Repos, rep mvretail.Rep) (created bool, err error) {
	existing, err := r.Roster.GetByExternalID(ctx, rep.ExternalID)
	switch {
	case err == nil:
		existing.Name = rep.Name
		if rep.JobTitle != "" {
			existing.JobTitle = roster.JobTitle(rep.JobTitle)
		}
		return false, r.Roster.Upsert(ctx, existing)
	case isNotFound(err):
		title := roster.JobTitle(rep.JobTitle)
		if rep.JobTitle == "" {
			title = roster.JobTitleEventSpecialist
		}
		emp := &roster.Employee{
			ID:         core.MustNewID().String(),
			ExternalID: rep.ExternalID,
			Name:       rep.Name,
			JobTitle:   title,
			IsActive:   true,
		}
		return true, r.Roster.Upsert(ctx, emp)
	default:
		return false, err
	}
}

// upsertPlanningEvent maps one upstream planning event into the event table.
// IsScheduled and Condition are local scheduling state and survive updates.
func upsertPlanningEvent(ctx context.Context, r *scheduler.Repos, pe mvretail.PlanningEvent) (created, skipped bool, err error) {
	if pe.Start.IsZero() {
		return false, true, nil
	}
	due := pe.Due
	if due.IsZero() {
		due = pe.Start
	}
	existing, err := r.Events.GetByExternalID(ctx, pe.ExternalID)
	switch {
	case err == nil:
		existing.ProjectName = pe.ProjectName
		existing.LocationMVID = pe.LocationMVID
		existing.StartDatetime = pe.Start
		existing.DueDatetime = due
		existing.EventType = ""
		existing.Normalize()
		return false, false, r.Events.Upsert(ctx, existing)
	case isNotFound(err):
		refNum, err := r.Events.NextRefNum(ctx)
		if err != nil {
			return false, false, err
		}
		ev := &event.Event{
			ProjectRefNum: refNum,
			ExternalID:    pe.ExternalID,
			LocationMVID:  pe.LocationMVID,
			ProjectName:   pe.ProjectName,
			StartDatetime: pe.Start,
			DueDatetime:   due,
		}
		ev.Normalize()
		return true, false, r.Events.Upsert(ctx, ev)
	default:
		return false, false, err
	}
}

// reconcileScheduled flags an event somebody staffed directly upstream so
// the engine stops offering it. Events we pushed ourselves are already
// flagged and keep their condition.
func reconcileScheduled(ctx context.Context, r *scheduler.Repos, se mvretail.ScheduledEvent) (bool, error) {
	local, err := r.Events.GetByExternalID(ctx, se.MPlanID)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if local.IsScheduled {
		return false, nil
	}
	if err := r.Events.SetScheduled(ctx, local.ProjectRefNum, true, event.ConditionSubmitted); err != nil {
		return false, err
	}
	return true, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var coreErr *core.Error
	return errors.As(err, &coreErr) && coreErr.Kind == core.KindNotFound
}
