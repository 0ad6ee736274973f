package uc

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler"
	utils "github.com/demoplan/demoplan/test/helpers"
)

type fakeQueue struct {
	pushedNew     []core.ID
	pushedDeletes []string
	err           error
}

func (q *fakeQueue) PushNewTx(_ context.Context, _ pgx.Tx, scheduleID core.ID) error {
	if q.err != nil {
		return q.err
	}
	q.pushedNew = append(q.pushedNew, scheduleID)
	return nil
}

func (q *fakeQueue) PushDeleteTx(_ context.Context, _ pgx.Tx, _ core.ID, upstreamRef string) error {
	if q.err != nil {
		return q.err
	}
	q.pushedDeletes = append(q.pushedDeletes, upstreamRef)
	return nil
}

type approveFixture struct {
	store *utils.MemStore
	queue *fakeQueue
	runID core.ID
}

func newApproveFixture(t *testing.T) *approveFixture {
	t.Helper()
	f := &approveFixture{store: utils.NewMemStore(), queue: &fakeQueue{}, runID: core.MustNewID()}
	require.NoError(t, f.store.RunRepo.Create(context.Background(), &scheduler.RunHistory{
		ID:        f.runID,
		StartedAt: time.Now(),
		RunType:   scheduler.RunTypeManual,
		State:     scheduler.RunStateSuccess,
	}))
	return f
}

func (f *approveFixture) addEmployee(t *testing.T, id, externalID string) {
	t.Helper()
	require.NoError(t, f.store.RosterRepo.Upsert(context.Background(), &roster.Employee{
		ID:         id,
		ExternalID: externalID,
		Name:       id,
		JobTitle:   roster.JobTitleEventSpecialist,
		IsActive:   true,
	}))
}

func (f *approveFixture) addEvent(t *testing.T, refNum int, externalID, locationMVID string) {
	t.Helper()
	require.NoError(t, f.store.EventRepo.Upsert(context.Background(), &event.Event{
		ProjectRefNum:    refNum,
		ExternalID:       externalID,
		LocationMVID:     locationMVID,
		ProjectName:      "Product Demo",
		EventType:        event.TypeCore,
		StartDatetime:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		DueDatetime:      time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		EstimatedMinutes: 60,
		Condition:        event.ConditionUnstaffed,
	}))
}

func (f *approveFixture) addProposal(t *testing.T, p *scheduler.PendingSchedule) *scheduler.PendingSchedule {
	t.Helper()
	if p.ID.IsZero() {
		p.ID = core.MustNewID()
	}
	p.RunID = f.runID
	if p.Status == "" {
		p.Status = scheduler.StatusProposed
	}
	require.NoError(t, f.store.ProposalRepo.CreateBatch(context.Background(), []*scheduler.PendingSchedule{p}))
	return p
}

func placedProposal(refNum int, employeeID string, at time.Time) *scheduler.PendingSchedule {
	return &scheduler.PendingSchedule{
		EventRefNum:      refNum,
		EmployeeID:       &employeeID,
		ScheduleDatetime: &at,
	}
}

func TestApproveRun(t *testing.T) {
	noon := time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC)

	t.Run("Should create a pending schedule and enqueue a push for each placement", func(t *testing.T) {
		f := newApproveFixture(t)
		f.addEmployee(t, "emp-1", "REP1")
		f.addEvent(t, 2001, "E1", "L1")
		f.addProposal(t, placedProposal(2001, "emp-1", noon))

		result, err := NewApproveRun(f.store, f.queue, f.runID, "tester").Execute(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Approved)
		require.Len(t, result.ScheduleIDs, 1)
		assert.Equal(t, result.ScheduleIDs, f.queue.pushedNew)

		sched, err := f.store.ScheduleRepo.GetByEventRef(context.Background(), 2001)
		require.NoError(t, err)
		assert.Equal(t, schedule.SyncPending, sched.SyncStatus)
		assert.Equal(t, "emp-1", sched.EmployeeID)

		ev, err := f.store.EventRepo.GetByRefNum(context.Background(), 2001)
		require.NoError(t, err)
		assert.True(t, ev.IsScheduled)
		assert.Equal(t, event.ConditionScheduled, ev.Condition)

		props, err := f.store.ProposalRepo.ListByRun(context.Background(), f.runID)
		require.NoError(t, err)
		assert.Equal(t, scheduler.StatusAPISubmitted, props[0].Status)
	})

	t.Run("Should mark a placement api_failed when the employee has no external id", func(t *testing.T) {
		f := newApproveFixture(t)
		f.addEmployee(t, "emp-1", "")
		f.addEvent(t, 2001, "E2", "L1")
		f.addProposal(t, placedProposal(2001, "emp-1", noon))

		result, err := NewApproveRun(f.store, f.queue, f.runID, "tester").Execute(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, result.Approved)
		assert.Equal(t, 1, result.APIFailed)
		assert.Empty(t, f.queue.pushedNew)

		_, err = f.store.ScheduleRepo.GetByEventRef(context.Background(), 2001)
		assert.Equal(t, core.KindNotFound, core.KindOf(err))

		props, listErr := f.store.ProposalRepo.ListByRun(context.Background(), f.runID)
		require.NoError(t, listErr)
		assert.Equal(t, scheduler.StatusAPIFailed, props[0].Status)
		assert.Equal(t, "Missing external_id for employee", props[0].FailureReason)
	})

	t.Run("Should unschedule the displaced assignment and push its delete on a swap", func(t *testing.T) {
		f := newApproveFixture(t)
		f.addEmployee(t, "emp-1", "REP1")
		f.addEvent(t, 2001, "E1", "L1")
		f.addEvent(t, 2002, "E2", "L1")
		displacedID := core.MustNewID()
		require.NoError(t, f.store.ScheduleRepo.Create(context.Background(), &schedule.Schedule{
			ID:               displacedID,
			EventRefNum:      2001,
			EmployeeID:       "emp-1",
			ScheduleDatetime: noon,
			SyncStatus:       schedule.SyncSynced,
			UpstreamRef:      "UP-1",
		}))
		require.NoError(t, f.store.EventRepo.SetScheduled(context.Background(), 2001, true, event.ConditionScheduled))
		prop := placedProposal(2002, "emp-1", noon)
		prop.IsSwap = true
		prop.DisplacedScheduleID = &displacedID
		f.addProposal(t, prop)

		result, err := NewApproveRun(f.store, f.queue, f.runID, "tester").Execute(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Approved)
		assert.Equal(t, []string{"UP-1"}, f.queue.pushedDeletes)

		_, err = f.store.ScheduleRepo.GetByID(context.Background(), displacedID)
		assert.Equal(t, core.KindNotFound, core.KindOf(err))

		displacedEvent, err := f.store.EventRepo.GetByRefNum(context.Background(), 2001)
		require.NoError(t, err)
		assert.False(t, displacedEvent.IsScheduled)
		assert.Equal(t, event.ConditionUnstaffed, displacedEvent.Condition)

		replacement, err := f.store.ScheduleRepo.GetByEventRef(context.Background(), 2002)
		require.NoError(t, err)
		assert.Equal(t, noon, replacement.ScheduleDatetime)
	})

	t.Run("Should skip the upstream delete when the displaced schedule never synced", func(t *testing.T) {
		f := newApproveFixture(t)
		f.addEmployee(t, "emp-1", "REP1")
		f.addEvent(t, 2001, "E1", "L1")
		f.addEvent(t, 2002, "E2", "L1")
		displacedID := core.MustNewID()
		require.NoError(t, f.store.ScheduleRepo.Create(context.Background(), &schedule.Schedule{
			ID:               displacedID,
			EventRefNum:      2001,
			EmployeeID:       "emp-1",
			ScheduleDatetime: noon,
			SyncStatus:       schedule.SyncPending,
		}))
		prop := placedProposal(2002, "emp-1", noon)
		prop.IsSwap = true
		prop.DisplacedScheduleID = &displacedID
		f.addProposal(t, prop)

		_, err := NewApproveRun(f.store, f.queue, f.runID, "tester").Execute(context.Background())

		require.NoError(t, err)
		assert.Empty(t, f.queue.pushedDeletes)
	})

	t.Run("Should skip unplaced failure records", func(t *testing.T) {
		f := newApproveFixture(t)
		f.addEmployee(t, "emp-1", "REP1")
		f.addEvent(t, 2001, "E1", "L1")
		f.addProposal(t, placedProposal(2001, "emp-1", noon))
		f.addProposal(t, &scheduler.PendingSchedule{
			EventRefNum:   2002,
			FailureReason: "no eligible employee",
		})

		result, err := NewApproveRun(f.store, f.queue, f.runID, "tester").Execute(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Approved)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("Should refuse to approve a failed run", func(t *testing.T) {
		f := newApproveFixture(t)
		failedRunID := core.MustNewID()
		require.NoError(t, f.store.RunRepo.Create(context.Background(), &scheduler.RunHistory{
			ID:        failedRunID,
			StartedAt: time.Now(),
			RunType:   scheduler.RunTypeManual,
			State:     scheduler.RunStateFailed,
		}))

		_, err := NewApproveRun(f.store, f.queue, failedRunID, "tester").Execute(context.Background())

		require.Error(t, err)
		assert.Equal(t, core.KindConflict, core.KindOf(err))
	})

	t.Run("Should refuse to approve a run with nothing reviewable", func(t *testing.T) {
		f := newApproveFixture(t)

		_, err := NewApproveRun(f.store, f.queue, f.runID, "tester").Execute(context.Background())

		require.Error(t, err)
		assert.Equal(t, core.KindConflict, core.KindOf(err))
	})
}

func TestRejectRun(t *testing.T) {
	noon := time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC)

	t.Run("Should reject every reviewable proposal and touch nothing else", func(t *testing.T) {
		f := newApproveFixture(t)
		f.addEmployee(t, "emp-1", "REP1")
		f.addEvent(t, 2001, "E1", "L1")
		f.addProposal(t, placedProposal(2001, "emp-1", noon))
		edited := placedProposal(2001, "emp-1", noon)
		edited.Status = scheduler.StatusEdited
		f.addProposal(t, edited)
		submitted := placedProposal(2001, "emp-1", noon)
		submitted.Status = scheduler.StatusAPISubmitted
		f.addProposal(t, submitted)

		err := NewRejectRun(f.store, f.runID, "tester").Execute(context.Background())

		require.NoError(t, err)
		props, listErr := f.store.ProposalRepo.ListByRun(context.Background(), f.runID)
		require.NoError(t, listErr)
		assert.Equal(t, scheduler.StatusRejected, props[0].Status)
		assert.Equal(t, scheduler.StatusRejected, props[1].Status)
		assert.Equal(t, scheduler.StatusAPISubmitted, props[2].Status)

		ev, err := f.store.EventRepo.GetByRefNum(context.Background(), 2001)
		require.NoError(t, err)
		assert.False(t, ev.IsScheduled)
	})
}
