package tasks

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/infra/monitoring"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/engine/sync/mvretail"
	syncuc "github.com/demoplan/demoplan/engine/sync/uc"
	"github.com/demoplan/demoplan/pkg/config"
	"github.com/demoplan/demoplan/pkg/logger"
)

// Pusher is the slice of the MVRetail client the push workers consume.
type Pusher interface {
	PushAssignment(ctx context.Context, a mvretail.Assignment) (string, error)
	DeleteAssignment(ctx context.Context, externalRef string) error
}

// Deps carries what the sync workers need. Workers read current rows at
// execution start; enqueue-time arguments are never trusted for state.
type Deps struct {
	Store  scheduler.Store
	Pusher Pusher
	Puller syncuc.UpstreamPuller
	Cfg    *config.SyncConfig
}

// AddWorkers registers the four sync task families on a River worker set.
func AddWorkers(workers *river.Workers, deps Deps) {
	river.AddWorker(workers, &PushNewWorker{deps: deps})
	river.AddWorker(workers, &PushUpdateWorker{deps: deps})
	river.AddWorker(workers, &PushDeleteWorker{deps: deps})
	river.AddWorker(workers, &PullEventsWorker{deps: deps})
}

// retryAt implements the doubling push backoff: base, base*2, base*4 after
// attempts 1, 2, 3.
func retryAt(cfg *config.SyncConfig, attempt int) time.Time {
	backoff := cfg.PushBackoffBase
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	return time.Now().Add(backoff)
}

func isPermanent(err error) bool {
	switch core.KindOf(err) {
	case core.KindUpstreamPermanent, core.KindValidation:
		return true
	}
	return false
}

// pushPrecheckReason mirrors the approval-time identity check; ids can still
// go missing between approval and execution.
func pushPrecheckReason(repID, planID, locationID string) string {
	switch {
	case repID == "":
		return "Missing external_id for employee"
	case planID == "":
		return "Missing external_id for event"
	case locationID == "":
		return "Missing location_mvid for event"
	}
	return ""
}

// pushCurrent pushes the current state of one schedule row upstream. It is
// shared by push_new and push_update: both have the row as source of truth.
func (d Deps) pushCurrent(ctx context.Context, kind string, scheduleID core.ID, attempt, maxAttempts int) error {
	log := logger.FromContext(ctx)
	repos := d.Store.Repos()
	sched, err := repos.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			log.Warn("push dropped, schedule deleted locally", "schedule_id", scheduleID)
			return river.JobCancel(err)
		}
		return err
	}
	// A synced row with an upstream ref means a prior attempt completed and
	// only the ack was lost.
	if sched.SyncStatus == schedule.SyncSynced && sched.UpstreamRef != "" {
		return nil
	}
	ev, err := repos.Events.GetByRefNum(ctx, sched.EventRefNum)
	if err != nil {
		return d.failPermanent(ctx, kind, sched.ID, err)
	}
	emp, err := repos.Roster.GetByID(ctx, sched.EmployeeID)
	if err != nil {
		return d.failPermanent(ctx, kind, sched.ID, err)
	}
	if reason := pushPrecheckReason(emp.ExternalID, ev.ExternalID, ev.LocationMVID); reason != "" {
		return d.failPermanent(ctx, kind, sched.ID, core.NewError(core.KindUpstreamPermanent, "%s", reason))
	}
	ref, err := d.Pusher.PushAssignment(ctx, mvretail.Assignment{
		RepID:      emp.ExternalID,
		MPlanID:    ev.ExternalID,
		LocationID: ev.LocationMVID,
		Start:      sched.ScheduleDatetime,
		End:        sched.End(ev.EstimatedMinutes),
	})
	if err != nil {
		if isPermanent(err) {
			return d.failPermanent(ctx, kind, sched.ID, err)
		}
		monitoring.RecordPush(kind, "retry")
		if attempt >= maxAttempts {
			d.markFailed(ctx, sched.ID, err)
		}
		return err
	}
	// The upstream ref lands on the row before the job acks; a crash after
	// this point leaves a synced row, not a duplicate push.
	if err := repos.Schedules.MarkSynced(ctx, sched.ID, ref, time.Now()); err != nil {
		return err
	}
	if err := repos.Events.SetScheduled(ctx, ev.ProjectRefNum, true, event.ConditionSubmitted); err != nil {
		log.Warn("condition update failed after push", "event_ref_num", ev.ProjectRefNum, "error", err)
	}
	monitoring.RecordPush(kind, "success")
	log.Info("assignment pushed", "schedule_id", sched.ID, "upstream_ref", ref)
	return nil
}

func (d Deps) failPermanent(ctx context.Context, kind string, scheduleID core.ID, cause error) error {
	monitoring.RecordPush(kind, "permanent")
	d.markFailed(ctx, scheduleID, cause)
	return river.JobCancel(cause)
}

func (d Deps) markFailed(ctx context.Context, scheduleID core.ID, cause error) {
	log := logger.FromContext(ctx)
	if err := d.Store.Repos().Schedules.MarkSyncFailed(ctx, scheduleID, cause.Error()); err != nil {
		log.Error("mark sync failed", "schedule_id", scheduleID, "error", err)
	}
}

// -----------------------------------------------------------------------------
// Workers
// -----------------------------------------------------------------------------

type PushNewWorker struct {
	river.WorkerDefaults[PushNewArgs]
	deps Deps
}

func (w *PushNewWorker) NextRetry(job *river.Job[PushNewArgs]) time.Time {
	return retryAt(w.deps.Cfg, job.Attempt)
}

func (w *PushNewWorker) Work(ctx context.Context, job *river.Job[PushNewArgs]) error {
	return w.deps.pushCurrent(ctx, job.Args.Kind(), job.Args.ScheduleID, job.Attempt, job.MaxAttempts)
}

type PushUpdateWorker struct {
	river.WorkerDefaults[PushUpdateArgs]
	deps Deps
}

func (w *PushUpdateWorker) NextRetry(job *river.Job[PushUpdateArgs]) time.Time {
	return retryAt(w.deps.Cfg, job.Attempt)
}

func (w *PushUpdateWorker) Work(ctx context.Context, job *river.Job[PushUpdateArgs]) error {
	return w.deps.pushCurrent(ctx, job.Args.Kind(), job.Args.ScheduleID, job.Attempt, job.MaxAttempts)
}

type PushDeleteWorker struct {
	river.WorkerDefaults[PushDeleteArgs]
	deps Deps
}

func (w *PushDeleteWorker) NextRetry(job *river.Job[PushDeleteArgs]) time.Time {
	return retryAt(w.deps.Cfg, job.Attempt)
}

func (w *PushDeleteWorker) Work(ctx context.Context, job *river.Job[PushDeleteArgs]) error {
	log := logger.FromContext(ctx)
	err := w.deps.Pusher.DeleteAssignment(ctx, job.Args.UpstreamRef)
	if err == nil {
		monitoring.RecordPush(job.Args.Kind(), "success")
		log.Info("assignment deleted upstream", "upstream_ref", job.Args.UpstreamRef, "schedule_id", job.Args.ScheduleID)
		return nil
	}
	if isPermanent(err) {
		monitoring.RecordPush(job.Args.Kind(), "permanent")
		log.Error("upstream delete permanently rejected", "upstream_ref", job.Args.UpstreamRef, "error", err)
		return river.JobCancel(err)
	}
	monitoring.RecordPush(job.Args.Kind(), "retry")
	return err
}

type PullEventsWorker struct {
	river.WorkerDefaults[PullEventsArgs]
	deps Deps
}

func (w *PullEventsWorker) Work(ctx context.Context, _ *river.Job[PullEventsArgs]) error {
	_, err := syncuc.NewPullEvents(w.deps.Store, w.deps.Puller, w.deps.Cfg).Execute(ctx)
	if err != nil {
		monitoring.RecordPull("error")
		return err
	}
	monitoring.RecordPull("success")
	return nil
}
