package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/sync/mvretail"
	"github.com/demoplan/demoplan/pkg/config"
	utils "github.com/demoplan/demoplan/test/helpers"
)

type fakePusher struct {
	pushed  []mvretail.Assignment
	deleted []string
	ref     string
	pushErr error
	delErr  error
}

func (f *fakePusher) PushAssignment(_ context.Context, a mvretail.Assignment) (string, error) {
	f.pushed = append(f.pushed, a)
	if f.pushErr != nil {
		return "", f.pushErr
	}
	return f.ref, nil
}

func (f *fakePusher) DeleteAssignment(_ context.Context, externalRef string) error {
	f.deleted = append(f.deleted, externalRef)
	return f.delErr
}

type fakePuller struct {
	reps      []mvretail.Rep
	events    []mvretail.PlanningEvent
	scheduled []mvretail.ScheduledEvent
}

func (f *fakePuller) ListAvailableReps(_ context.Context, _, _ time.Time) ([]mvretail.Rep, error) {
	return f.reps, nil
}

func (f *fakePuller) ListPlanningEvents(_ context.Context) ([]mvretail.PlanningEvent, error) {
	return f.events, nil
}

func (f *fakePuller) ListScheduledEvents(_ context.Context, _, _ time.Time) ([]mvretail.ScheduledEvent, error) {
	return f.scheduled, nil
}

type workerFixture struct {
	store  *utils.MemStore
	pusher *fakePusher
	puller *fakePuller
	cfg    *config.SyncConfig
}

func newWorkerFixture() *workerFixture {
	return &workerFixture{
		store:  utils.NewMemStore(),
		pusher: &fakePusher{ref: "UP-77"},
		puller: &fakePuller{},
		cfg: &config.SyncConfig{
			PushMaxAttempts: 3,
			PushBackoffBase: 60 * time.Second,
			PullCron:        "0 * * * *",
			PullWindowDays:  21,
			QueueMaxWorkers: 4,
		},
	}
}

func (f *workerFixture) deps() Deps {
	return Deps{Store: f.store, Pusher: f.pusher, Puller: f.puller, Cfg: f.cfg}
}

// seedAssignment creates an employee, an event, and a pending schedule row
// and returns the schedule id.
func (f *workerFixture) seedAssignment(t *testing.T, repExternalID string) core.ID {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.RosterRepo.Upsert(ctx, &roster.Employee{
		ID:         "emp-1",
		ExternalID: repExternalID,
		Name:       "Dana Reyes",
		JobTitle:   roster.JobTitleEventSpecialist,
		IsActive:   true,
	}))
	require.NoError(t, f.store.EventRepo.Upsert(ctx, &event.Event{
		ProjectRefNum:    1001,
		ExternalID:       "M-1",
		LocationMVID:     "L-1",
		ProjectName:      "Core Event 600123",
		EventType:        event.TypeCore,
		StartDatetime:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		DueDatetime:      time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		EstimatedMinutes: 90,
		IsScheduled:      true,
		Condition:        event.ConditionScheduled,
	}))
	id := core.MustNewID()
	require.NoError(t, f.store.ScheduleRepo.Create(ctx, &schedule.Schedule{
		ID:               id,
		EventRefNum:      1001,
		EmployeeID:       "emp-1",
		ScheduleDatetime: time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC),
		SyncStatus:       schedule.SyncPending,
	}))
	return id
}

func jobOf[T river.JobArgs](args T, attempt, maxAttempts int) *river.Job[T] {
	return &river.Job[T]{
		JobRow: &rivertype.JobRow{Attempt: attempt, MaxAttempts: maxAttempts},
		Args:   args,
	}
}

func TestPushNewWorker_Work(t *testing.T) {
	ctx := context.Background()
	t.Run("Should push the current row and record the upstream ref before acking", func(t *testing.T) {
		f := newWorkerFixture()
		id := f.seedAssignment(t, "R-1")
		w := &PushNewWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PushNewArgs{ScheduleID: id}, 1, 3))

		require.NoError(t, err)
		require.Len(t, f.pusher.pushed, 1)
		a := f.pusher.pushed[0]
		assert.Equal(t, "R-1", a.RepID)
		assert.Equal(t, "M-1", a.MPlanID)
		assert.Equal(t, "L-1", a.LocationID)
		assert.Equal(t, time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC), a.Start)
		assert.Equal(t, time.Date(2026, 3, 2, 11, 15, 0, 0, time.UTC), a.End, "end must come from the event duration")

		row, err := f.store.ScheduleRepo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, schedule.SyncSynced, row.SyncStatus)
		assert.Equal(t, "UP-77", row.UpstreamRef)
		require.NotNil(t, row.LastSynced)
		assert.Empty(t, row.APIErrorDetails)

		ev, err := f.store.EventRepo.GetByRefNum(ctx, 1001)
		require.NoError(t, err)
		assert.Equal(t, event.ConditionSubmitted, ev.Condition)
	})
	t.Run("Should ack without pushing when the row is already synced", func(t *testing.T) {
		f := newWorkerFixture()
		id := f.seedAssignment(t, "R-1")
		require.NoError(t, f.store.ScheduleRepo.MarkSynced(ctx, id, "UP-1", time.Now()))
		w := &PushNewWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PushNewArgs{ScheduleID: id}, 2, 3))

		require.NoError(t, err)
		assert.Empty(t, f.pusher.pushed)
	})
	t.Run("Should cancel when the schedule row was deleted locally", func(t *testing.T) {
		f := newWorkerFixture()
		w := &PushNewWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PushNewArgs{ScheduleID: core.MustNewID()}, 1, 3))

		require.Error(t, err)
		assert.Empty(t, f.pusher.pushed)
	})
	t.Run("Should mark the row failed when the employee lost its external id", func(t *testing.T) {
		f := newWorkerFixture()
		id := f.seedAssignment(t, "")
		w := &PushNewWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PushNewArgs{ScheduleID: id}, 1, 3))

		require.Error(t, err)
		assert.Empty(t, f.pusher.pushed)
		row, getErr := f.store.ScheduleRepo.GetByID(ctx, id)
		require.NoError(t, getErr)
		assert.Equal(t, schedule.SyncFailed, row.SyncStatus)
		assert.Contains(t, row.APIErrorDetails, "Missing external_id for employee")
	})
	t.Run("Should mark the row failed on a permanent upstream rejection", func(t *testing.T) {
		f := newWorkerFixture()
		id := f.seedAssignment(t, "R-1")
		f.pusher.pushErr = core.NewError(core.KindUpstreamPermanent, "push assignment: upstream rejected with 422")
		w := &PushNewWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PushNewArgs{ScheduleID: id}, 1, 3))

		require.Error(t, err)
		row, getErr := f.store.ScheduleRepo.GetByID(ctx, id)
		require.NoError(t, getErr)
		assert.Equal(t, schedule.SyncFailed, row.SyncStatus)
		assert.Contains(t, row.APIErrorDetails, "422")
		assert.Len(t, f.pusher.pushed, 1, "permanent rejections must not retry")
	})
	t.Run("Should keep the row pending on a transient failure before the last attempt", func(t *testing.T) {
		f := newWorkerFixture()
		id := f.seedAssignment(t, "R-1")
		f.pusher.pushErr = core.NewError(core.KindUpstreamTransient, "push assignment: upstream returned 502")
		w := &PushNewWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PushNewArgs{ScheduleID: id}, 1, 3))

		require.Error(t, err)
		assert.Equal(t, core.KindUpstreamTransient, core.KindOf(err))
		row, getErr := f.store.ScheduleRepo.GetByID(ctx, id)
		require.NoError(t, getErr)
		assert.Equal(t, schedule.SyncPending, row.SyncStatus, "row stays pending while retries remain")
	})
	t.Run("Should mark the row failed when the final attempt is transient", func(t *testing.T) {
		f := newWorkerFixture()
		id := f.seedAssignment(t, "R-1")
		f.pusher.pushErr = core.NewError(core.KindUpstreamTransient, "push assignment: upstream returned 502")
		w := &PushNewWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PushNewArgs{ScheduleID: id}, 3, 3))

		require.Error(t, err)
		row, getErr := f.store.ScheduleRepo.GetByID(ctx, id)
		require.NoError(t, getErr)
		assert.Equal(t, schedule.SyncFailed, row.SyncStatus)
		assert.Contains(t, row.APIErrorDetails, "502")
	})
}

func TestPushUpdateWorker_Work(t *testing.T) {
	ctx := context.Background()
	t.Run("Should push from the current row, not from the enqueue-time hints", func(t *testing.T) {
		f := newWorkerFixture()
		id := f.seedAssignment(t, "R-1")
		w := &PushUpdateWorker{deps: f.deps()}
		staleEmployee := "emp-gone"
		staleDatetime := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)

		err := w.Work(ctx, jobOf(PushUpdateArgs{
			ScheduleID:    id,
			NewEmployeeID: &staleEmployee,
			NewDatetime:   &staleDatetime,
		}, 1, 3))

		require.NoError(t, err)
		require.Len(t, f.pusher.pushed, 1)
		assert.Equal(t, "R-1", f.pusher.pushed[0].RepID)
		assert.Equal(t, time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC), f.pusher.pushed[0].Start)
	})
}

func TestPushDeleteWorker_Work(t *testing.T) {
	ctx := context.Background()
	t.Run("Should delete the upstream assignment by its ref", func(t *testing.T) {
		f := newWorkerFixture()
		w := &PushDeleteWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PushDeleteArgs{ScheduleID: core.MustNewID(), UpstreamRef: "UP-9"}, 1, 3))

		require.NoError(t, err)
		assert.Equal(t, []string{"UP-9"}, f.pusher.deleted)
	})
	t.Run("Should cancel on a permanent rejection without retrying", func(t *testing.T) {
		f := newWorkerFixture()
		f.pusher.delErr = core.NewError(core.KindUpstreamPermanent, "delete assignment: upstream rejected with 400")
		w := &PushDeleteWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PushDeleteArgs{ScheduleID: core.MustNewID(), UpstreamRef: "UP-9"}, 1, 3))

		require.Error(t, err)
		assert.Len(t, f.pusher.deleted, 1)
	})
	t.Run("Should surface transient errors for the retry policy", func(t *testing.T) {
		f := newWorkerFixture()
		f.pusher.delErr = core.NewError(core.KindUpstreamTransient, "delete assignment: upstream returned 503")
		w := &PushDeleteWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PushDeleteArgs{ScheduleID: core.MustNewID(), UpstreamRef: "UP-9"}, 1, 3))

		require.Error(t, err)
		assert.Equal(t, core.KindUpstreamTransient, core.KindOf(err))
	})
}

func TestPullEventsWorker_Work(t *testing.T) {
	ctx := context.Background()
	t.Run("Should run a reconciliation pass against the puller", func(t *testing.T) {
		f := newWorkerFixture()
		f.puller.reps = []mvretail.Rep{{ExternalID: "R-5", Name: "New Rep"}}
		f.puller.events = []mvretail.PlanningEvent{{
			ExternalID:   "M-9",
			LocationMVID: "L-1",
			ProjectName:  "Core Event 600999",
			Start:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Due:          time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC),
		}}
		w := &PullEventsWorker{deps: f.deps()}

		err := w.Work(ctx, jobOf(PullEventsArgs{}, 1, 1))

		require.NoError(t, err)
		emp, getErr := f.store.RosterRepo.GetByExternalID(ctx, "R-5")
		require.NoError(t, getErr)
		assert.Equal(t, "New Rep", emp.Name)
		ev, getErr := f.store.EventRepo.GetByExternalID(ctx, "M-9")
		require.NoError(t, getErr)
		assert.Equal(t, event.TypeCore, ev.EventType)
	})
}

func TestRetryBackoff(t *testing.T) {
	t.Run("Should double the delay on every attempt", func(t *testing.T) {
		f := newWorkerFixture()
		w := &PushNewWorker{deps: f.deps()}
		for attempt, want := range map[int]time.Duration{
			1: 60 * time.Second,
			2: 120 * time.Second,
			3: 240 * time.Second,
		} {
			at := w.NextRetry(jobOf(PushNewArgs{}, attempt, 3))
			assert.WithinDuration(t, time.Now().Add(want), at, 2*time.Second, "attempt %d", attempt)
		}
	})
}
