package uc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/schedule"
)

func TestReschedule(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)

	t.Run("Should move the assignment and requeue the push", func(t *testing.T) {
		f := newFixture()
		f.addEmployee(t, "emp-1", roster.JobTitleEventSpecialist)
		f.addEvent(t, 1001, event.TypeCore)
		id := f.addSchedule(t, 1001, "emp-1", at, schedule.SyncFailed, "UP-1")
		moved := time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)

		sched, err := NewReschedule(f.store, f.queue, &f.cfg, time.UTC, id, moved, "planner").Execute(ctx)

		require.NoError(t, err)
		assert.Equal(t, moved, sched.ScheduleDatetime)
		assert.Equal(t, schedule.SyncPending, sched.SyncStatus)
		assert.Empty(t, sched.APIErrorDetails)
		assert.Equal(t, "UP-1", sched.UpstreamRef, "the upstream identity survives a move")
		require.Len(t, f.queue.updates, 1)
		assert.Equal(t, id, f.queue.updates[0].id)
		assert.Nil(t, f.queue.updates[0].employeeID)
		require.NotNil(t, f.queue.updates[0].datetime)
		assert.Equal(t, moved, *f.queue.updates[0].datetime)
		assert.Equal(t, "schedule.reschedule", f.lastAuditAction(t))
	})
	t.Run("Should not conflict with the slot it is leaving", func(t *testing.T) {
		f := newFixture()
		f.addEmployee(t, "emp-1", roster.JobTitleEventSpecialist)
		f.addEvent(t, 1001, event.TypeCore)
		id := f.addSchedule(t, 1001, "emp-1", at, schedule.SyncSynced, "UP-1")

		_, err := NewReschedule(f.store, f.queue, &f.cfg, time.UTC, id, at.Add(30*time.Minute), "planner").Execute(ctx)

		require.NoError(t, err)
	})
	t.Run("Should reject a move onto another assignment", func(t *testing.T) {
		f := newFixture()
		f.addEmployee(t, "emp-1", roster.JobTitleEventSpecialist)
		f.addEvent(t, 1001, event.TypeCore)
		f.addEvent(t, 1002, event.TypeOther)
		id := f.addSchedule(t, 1001, "emp-1", at, schedule.SyncSynced, "UP-1")
		other := time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)
		f.addSchedule(t, 1002, "emp-1", other, schedule.SyncSynced, "UP-2")

		_, err := NewReschedule(f.store, f.queue, &f.cfg, time.UTC, id, other.Add(30*time.Minute), "planner").Execute(ctx)

		require.Error(t, err)
		assert.Equal(t, core.KindValidation, core.KindOf(err))
		row, getErr := f.store.ScheduleRepo.GetByID(ctx, id)
		require.NoError(t, getErr)
		assert.Equal(t, at, row.ScheduleDatetime, "a rejected move leaves the row untouched")
	})
	t.Run("Should reject a move past the event due date", func(t *testing.T) {
		f := newFixture()
		f.addEmployee(t, "emp-1", roster.JobTitleEventSpecialist)
		f.addEvent(t, 1001, event.TypeCore)
		id := f.addSchedule(t, 1001, "emp-1", at, schedule.SyncSynced, "UP-1")

		_, err := NewReschedule(f.store, f.queue, &f.cfg, time.UTC, id,
			time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC), "planner").Execute(ctx)

		require.Error(t, err)
		assert.Equal(t, core.KindValidation, core.KindOf(err))
	})
}

func TestChangeEmployee(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)

	t.Run("Should reassign the schedule and hint the new employee", func(t *testing.T) {
		f := newFixture()
		f.addEmployee(t, "emp-1", roster.JobTitleEventSpecialist)
		f.addEmployee(t, "emp-2", roster.JobTitleEventSpecialist)
		f.addEvent(t, 1001, event.TypeCore)
		id := f.addSchedule(t, 1001, "emp-1", at, schedule.SyncSynced, "UP-1")

		sched, err := NewChangeEmployee(f.store, f.queue, &f.cfg, time.UTC, id, "emp-2", "planner").Execute(ctx)

		require.NoError(t, err)
		assert.Equal(t, "emp-2", sched.EmployeeID)
		assert.Equal(t, schedule.SyncPending, sched.SyncStatus)
		require.Len(t, f.queue.updates, 1)
		require.NotNil(t, f.queue.updates[0].employeeID)
		assert.Equal(t, "emp-2", *f.queue.updates[0].employeeID)
		assert.Nil(t, f.queue.updates[0].datetime)
		assert.Equal(t, "schedule.change_employee", f.lastAuditAction(t))
	})
	t.Run("Should reject reassigning to the current employee", func(t *testing.T) {
		f := newFixture()
		f.addEmployee(t, "emp-1", roster.JobTitleEventSpecialist)
		f.addEvent(t, 1001, event.TypeCore)
		id := f.addSchedule(t, 1001, "emp-1", at, schedule.SyncSynced, "UP-1")

		_, err := NewChangeEmployee(f.store, f.queue, &f.cfg, time.UTC, id, "emp-1", "planner").Execute(ctx)

		require.Error(t, err)
		assert.Equal(t, core.KindValidation, core.KindOf(err))
	})
	t.Run("Should check the new employee's availability", func(t *testing.T) {
		f := newFixture()
		f.addEmployee(t, "emp-1", roster.JobTitleEventSpecialist)
		f.addEvent(t, 1001, event.TypeCore)
		require.NoError(t, f.store.RosterRepo.Upsert(ctx, &roster.Employee{
			ID:         "emp-2",
			ExternalID: "X-emp-2",
			Name:       "Employee emp-2",
			JobTitle:   roster.JobTitleEventSpecialist,
			IsActive:   true,
		}))
		id := f.addSchedule(t, 1001, "emp-1", at, schedule.SyncSynced, "UP-1")

		_, err := NewChangeEmployee(f.store, f.queue, &f.cfg, time.UTC, id, "emp-2", "planner").Execute(ctx)

		require.Error(t, err)
		assert.Equal(t, core.KindValidation, core.KindOf(err))
		row, getErr := f.store.ScheduleRepo.GetByID(ctx, id)
		require.NoError(t, getErr)
		assert.Equal(t, "emp-1", row.EmployeeID)
	})
	t.Run("Should enforce role constraints on the new pairing", func(t *testing.T) {
		f := newFixture()
		f.addEmployee(t, "emp-1", roster.JobTitleJuicerBarista)
		f.addEmployee(t, "emp-2", roster.JobTitleEventSpecialist)
		f.addEvent(t, 1001, event.TypeJuicer)
		id := f.addSchedule(t, 1001, "emp-1", time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), schedule.SyncSynced, "UP-1")

		_, err := NewChangeEmployee(f.store, f.queue, &f.cfg, time.UTC, id, "emp-2", "planner").Execute(ctx)

		require.Error(t, err)
		assert.Equal(t, core.KindValidation, core.KindOf(err))
		assert.Contains(t, err.Error(), "Juicer")
	})
}
