package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/infra/monitoring"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/scheduler/conflict"
	"github.com/demoplan/demoplan/engine/scheduler/constraint"
	"github.com/demoplan/demoplan/pkg/config"
	"github.com/demoplan/demoplan/pkg/logger"
)

// Engine is the three-phase auto-scheduler. A run reads the scheduling
// window, places rotation events, Core events and Supervisor pairings in
// that order, and commits the resulting proposals and run record in one
// transaction. At most one run executes at a time.
type Engine struct {
	store           Store
	rotations       *rotation.Manager
	loc             *time.Location
	windowDays      int
	corePerDayCap   int
	otherNoonExempt bool
	slots           []core.Clock
	typeTimes       map[event.Type]core.Clock
	now             func() time.Time
}

// Option tunes an Engine.
type Option func(*Engine)

// WithNow overrides the clock, for tests.
func WithNow(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

func NewEngine(store Store, rotations *rotation.Manager, cfg *config.SchedulerConfig, loc *time.Location, opts ...Option) (*Engine, error) {
	slots := make([]core.Clock, 0, len(cfg.CoreSlots))
	for _, s := range cfg.CoreSlots {
		c, err := core.ParseClock(s)
		if err != nil {
			return nil, fmt.Errorf("invalid core slot: %w", err)
		}
		slots = append(slots, c)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("at least one core slot is required")
	}
	typeTimes := make(map[event.Type]core.Clock, 8)
	for typ, raw := range map[event.Type]string{
		event.TypeJuicer:          cfg.JuicerTime,
		event.TypeDigitalSetup:    cfg.DigitalSetupTime,
		event.TypeDigitalRefresh:  cfg.DigitalRefreshTime,
		event.TypeFreeosk:         cfg.FreeoskTime,
		event.TypeDigitalTeardown: cfg.DigitalTeardownTime,
		event.TypeDigitals:        cfg.DigitalSetupTime,
		event.TypeSupervisor:      cfg.SupervisorTime,
		event.TypeOther:           cfg.OtherTime,
	} {
		c, err := core.ParseClock(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid default time for %s: %w", typ, err)
		}
		typeTimes[typ] = c
	}
	e := &Engine{
		store:           store,
		rotations:       rotations,
		loc:             loc,
		windowDays:      cfg.WindowDays,
		corePerDayCap:   cfg.CorePerDayCap,
		otherNoonExempt: cfg.OtherNoonExempt,
		slots:           slots,
		typeTimes:       typeTimes,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type runResult struct {
	proposals []*PendingSchedule
	total     int
	scheduled int
	swaps     int
	failed    int
}

// Run executes one scheduler run. The run record is created first so its
// running state is observable; a concurrent second start fails with a
// conflict before any record exists. Proposals and the final run state
// commit together, and any error leaves a failed run with no proposals.
func (e *Engine) Run(ctx context.Context, runType RunType) (*RunHistory, error) {
	log := logger.FromContext(ctx)
	started := e.now().In(e.loc)
	run := &RunHistory{
		ID:        core.MustNewID(),
		StartedAt: started,
		RunType:   runType,
		State:     RunStateRunning,
	}
	if err := e.store.Repos().Runs.Create(ctx, run); err != nil {
		return nil, err
	}
	log.Info("Scheduler run started", "run_id", run.ID, "run_type", runType)

	result, runErr := e.compute(ctx, run)
	if runErr == nil {
		runErr = e.store.WithTx(ctx, func(r *Repos) error {
			if err := r.Runs.AcquireRunLock(ctx); err != nil {
				return err
			}
			if len(result.proposals) > 0 {
				if err := r.Proposals.CreateBatch(ctx, result.proposals); err != nil {
					return fmt.Errorf("writing proposals: %w", err)
				}
			}
			ended := e.now().In(e.loc)
			run.EndedAt = &ended
			run.State = RunStateSuccess
			run.TotalProcessed = result.total
			run.Scheduled = result.scheduled
			run.RequiringSwaps = result.swaps
			run.Failed = result.failed
			return r.Runs.Finish(ctx, run)
		})
	}
	if runErr != nil {
		e.markFailed(ctx, run, runErr)
		return run, runErr
	}
	monitoring.RecordRun(string(run.RunType), string(run.State), run.Scheduled, run.RequiringSwaps, run.Failed)
	log.Info("Scheduler run finished",
		"run_id", run.ID,
		"total", run.TotalProcessed,
		"scheduled", run.Scheduled,
		"swaps", run.RequiringSwaps,
		"failed", run.Failed,
	)
	return run, nil
}

func (e *Engine) markFailed(ctx context.Context, run *RunHistory, cause error) {
	log := logger.FromContext(ctx)
	// The run context may already be cancelled; the failure mark must still
	// land.
	base := context.WithoutCancel(ctx)
	ended := e.now().In(e.loc)
	run.State = RunStateFailed
	run.EndedAt = &ended
	run.ErrorMessage = cause.Error()
	if err := e.store.Repos().Runs.Finish(base, run); err != nil {
		log.Error("Failed to mark scheduler run failed", "run_id", run.ID, "error", err)
	}
	monitoring.RecordRun(string(run.RunType), string(run.State), 0, 0, 0)
	log.Warn("Scheduler run failed", "run_id", run.ID, "error", cause)
}

// compute loads the window and produces the full proposal set in memory.
// Nothing is written; the caller commits the result.
func (e *Engine) compute(ctx context.Context, run *RunHistory) (*runResult, error) {
	repos := e.store.Repos()
	from := core.DateOf(run.StartedAt.In(e.loc))
	windowEnd := from.AddDays(e.windowDays)

	events, err := repos.Events.ListUnscheduledBetween(ctx, from.In(e.loc), windowEnd.AddDays(1).In(e.loc))
	if err != nil {
		return nil, fmt.Errorf("loading window events: %w", err)
	}
	e.sortWindow(events, from)

	maxDate := windowEnd
	for _, ev := range events {
		if due := ev.DueDate(e.loc); maxDate.Before(due) {
			maxDate = due
		}
	}

	employees, err := repos.Roster.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	calendars, err := repos.Roster.Calendars(ctx, from, maxDate)
	if err != nil {
		return nil, fmt.Errorf("loading calendars: %w", err)
	}
	committed, err := repos.Schedules.ListBetween(ctx, from.In(e.loc), maxDate.AddDays(1).In(e.loc))
	if err != nil {
		return nil, fmt.Errorf("loading committed schedules: %w", err)
	}
	refs := make([]int, 0, len(committed))
	for _, s := range committed {
		refs = append(refs, s.EventRefNum)
	}
	committedEvents, err := repos.Events.ListByRefNums(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("loading scheduled events: %w", err)
	}
	eventsByRef := make(map[int]*event.Event, len(committedEvents))
	for _, ev := range committedEvents {
		eventsByRef[ev.ProjectRefNum] = ev
	}
	snapshot, err := e.rotations.Snapshot(ctx, from, maxDate)
	if err != nil {
		return nil, fmt.Errorf("loading rotations: %w", err)
	}

	board := newRunBoard(e.loc, calendars, committed, eventsByRef)
	validator := constraint.NewValidator(constraint.Config{
		CorePerDayCap:   e.corePerDayCap,
		OtherNoonExempt: e.otherNoonExempt,
	})
	pass := &runPass{
		engine:    e,
		run:       run,
		from:      from,
		board:     board,
		validator: validator,
		resolver:  conflict.NewResolver(validator, board, board, e.loc, from),
		snapshot:  snapshot,
		employees: employees,
		byID:      indexEmployees(employees),
		result:    &runResult{},
		counters:  make(map[core.Date]int),
	}
	pass.findClubSupervisor()

	var rotationEvents, coreEvents, pairedEvents []*event.Event
	for _, ev := range events {
		switch {
		case ev.EventType.IsRotation():
			rotationEvents = append(rotationEvents, ev)
		case ev.EventType == event.TypeCore:
			coreEvents = append(coreEvents, ev)
		default:
			pairedEvents = append(pairedEvents, ev)
		}
	}

	phases := []struct {
		name string
		run  func([]*event.Event)
		evs  []*event.Event
	}{
		{"rotation", pass.phaseRotation, rotationEvents},
		{"core", pass.phaseCore, coreEvents},
		{"pairing", pass.phasePairing, pairedEvents},
	}
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return nil, core.WrapError(core.KindConflict, err, "cancelled")
		}
		phase.run(phase.evs)
		logger.FromContext(ctx).Debug("Scheduler phase complete",
			"run_id", run.ID, "phase", phase.name, "processed", len(phase.evs))
	}
	return pass.result, nil
}

// sortWindow orders the window by type priority, urgency, then reference
// number for determinism.
func (e *Engine) sortWindow(events []*event.Event, from core.Date) {
	sort.SliceStable(events, func(i, j int) bool {
		pi, pj := events[i].EventType.Priority(), events[j].EventType.Priority()
		if pi != pj {
			return pi < pj
		}
		ui, uj := from.DaysUntil(events[i].DueDate(e.loc)), from.DaysUntil(events[j].DueDate(e.loc))
		if ui != uj {
			return ui < uj
		}
		return events[i].ProjectRefNum < events[j].ProjectRefNum
	})
}

func indexEmployees(employees []*roster.Employee) map[string]*roster.Employee {
	byID := make(map[string]*roster.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}
	return byID
}
