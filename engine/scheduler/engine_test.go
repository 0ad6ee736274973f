package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/pkg/config"
	utils "github.com/demoplan/demoplan/test/helpers"
)

// Monday, so weekday 0 carries the weekly rotations.
var testNow = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

type engineFixture struct {
	store  *utils.MemStore
	engine *scheduler.Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	store := utils.NewMemStore()
	manager := rotation.NewManager(store.RotationRepo, store.RosterRepo)
	eng, err := scheduler.NewEngine(
		store,
		manager,
		&config.Default().Scheduler,
		time.UTC,
		scheduler.WithNow(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	return &engineFixture{store: store, engine: eng}
}

func (f *engineFixture) addEmployee(t *testing.T, id, name string, title roster.JobTitle) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.RosterRepo.Upsert(ctx, &roster.Employee{
		ID:       id,
		Name:     name,
		JobTitle: title,
		IsActive: true,
	}))
	for wd := 0; wd < 7; wd++ {
		require.NoError(t, f.store.RosterRepo.SetWeeklyAvailability(ctx, &roster.WeeklyAvailability{
			EmployeeID: id,
			Weekday:    wd,
			Available:  true,
			Start:      core.Clock{Hour: 8},
			End:        core.Clock{Hour: 18},
		}))
	}
}

func (f *engineFixture) addEvent(t *testing.T, ev *event.Event) {
	t.Helper()
	if ev.EstimatedMinutes == 0 {
		ev.EstimatedMinutes = event.DefaultEstimatedMinutes
	}
	if ev.Condition == "" {
		ev.Condition = event.ConditionUnstaffed
	}
	require.NoError(t, f.store.EventRepo.Upsert(context.Background(), ev))
}

func (f *engineFixture) setRotation(t *testing.T, typ rotation.Type, weekday int, employeeID string) {
	t.Helper()
	require.NoError(t, f.store.RotationRepo.SetWeekly(context.Background(), &rotation.Weekly{
		RotationType: typ,
		Weekday:      weekday,
		EmployeeID:   employeeID,
	}))
}

func (f *engineFixture) commitSchedule(t *testing.T, refNum int, employeeID string, at time.Time) core.ID {
	t.Helper()
	id := core.MustNewID()
	require.NoError(t, f.store.ScheduleRepo.Create(context.Background(), &schedule.Schedule{
		ID:               id,
		EventRefNum:      refNum,
		EmployeeID:       employeeID,
		ScheduleDatetime: at,
		SyncStatus:       schedule.SyncSynced,
	}))
	return id
}

func (f *engineFixture) run(t *testing.T) (*scheduler.RunHistory, []*scheduler.PendingSchedule) {
	t.Helper()
	run, err := f.engine.Run(context.Background(), scheduler.RunTypeManual)
	require.NoError(t, err)
	proposals, err := f.store.ProposalRepo.ListByRun(context.Background(), run.ID)
	require.NoError(t, err)
	return run, proposals
}

func at(day int, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

func TestEngine_Run(t *testing.T) {
	t.Run("Should place a Juicer event on the designated barista at the default time", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-barista", "Pat", roster.JobTitleJuicerBarista)
		f.addEmployee(t, "emp-lead", "Dana", roster.JobTitleLeadEventSpecialist)
		f.setRotation(t, rotation.TypePrimaryJuicer, 0, "emp-barista")
		f.addEvent(t, &event.Event{
			ProjectRefNum: 1001,
			ProjectName:   "Juicer Production",
			EventType:     event.TypeJuicer,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(6, 0, 0),
		})

		run, proposals := f.run(t)

		assert.Equal(t, scheduler.RunStateSuccess, run.State)
		assert.Equal(t, 1, run.TotalProcessed)
		assert.Equal(t, 1, run.Scheduled)
		require.Len(t, proposals, 1)
		require.NotNil(t, proposals[0].EmployeeID)
		assert.Equal(t, "emp-barista", *proposals[0].EmployeeID)
		require.NotNil(t, proposals[0].ScheduleDatetime)
		assert.Equal(t, at(2, 9, 0), *proposals[0].ScheduleDatetime)
		assert.Equal(t, scheduler.StatusProposed, proposals[0].Status)
	})

	t.Run("Should fall back past the designated employee when they are on time off", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-barista", "Pat", roster.JobTitleJuicerBarista)
		f.addEmployee(t, "emp-backup", "Sam", roster.JobTitleJuicerBarista)
		f.setRotation(t, rotation.TypePrimaryJuicer, 0, "emp-barista")
		require.NoError(t, f.store.RosterRepo.AddTimeOff(context.Background(), &roster.TimeOff{
			ID:         core.MustNewID(),
			EmployeeID: "emp-barista",
			StartDate:  core.Date{Year: 2026, Month: 3, Day: 2},
			EndDate:    core.Date{Year: 2026, Month: 3, Day: 8},
		}))
		f.addEvent(t, &event.Event{
			ProjectRefNum: 1001,
			ProjectName:   "Juicer Production",
			EventType:     event.TypeJuicer,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(6, 0, 0),
		})

		_, proposals := f.run(t)

		require.Len(t, proposals, 1)
		require.NotNil(t, proposals[0].EmployeeID)
		assert.Equal(t, "emp-backup", *proposals[0].EmployeeID)
	})

	t.Run("Should fail a Juicer event with the blocking reason when nobody can work it", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-es", "Lee", roster.JobTitleEventSpecialist)
		f.setRotation(t, rotation.TypePrimaryJuicer, 0, "emp-es")
		f.addEvent(t, &event.Event{
			ProjectRefNum: 1001,
			ProjectName:   "Juicer Production",
			EventType:     event.TypeJuicer,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(6, 0, 0),
		})

		run, proposals := f.run(t)

		assert.Equal(t, 1, run.Failed)
		require.Len(t, proposals, 1)
		assert.Nil(t, proposals[0].EmployeeID)
		assert.NotEmpty(t, proposals[0].FailureReason)
	})

	t.Run("Should spread same-type rotation events across consecutive dates", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-barista", "Pat", roster.JobTitleJuicerBarista)
		f.setRotation(t, rotation.TypePrimaryJuicer, 0, "emp-barista")
		f.setRotation(t, rotation.TypePrimaryJuicer, 1, "emp-barista")
		for i, ref := range []int{1001, 1002} {
			f.addEvent(t, &event.Event{
				ProjectRefNum: ref,
				ProjectName:   "Juicer Production",
				EventType:     event.TypeJuicer,
				StartDatetime: at(2, 0, 0),
				DueDatetime:   at(6+i, 0, 0),
			})
		}

		_, proposals := f.run(t)

		require.Len(t, proposals, 2)
		require.NotNil(t, proposals[0].ScheduleDatetime)
		require.NotNil(t, proposals[1].ScheduleDatetime)
		assert.Equal(t, at(2, 9, 0), *proposals[0].ScheduleDatetime)
		assert.Equal(t, at(3, 9, 0), *proposals[1].ScheduleDatetime)
	})

	t.Run("Should give the opening Core slot to the Primary Lead and cycle the rest", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-es1", "Lee", roster.JobTitleEventSpecialist)
		f.addEmployee(t, "emp-es2", "Kim", roster.JobTitleEventSpecialist)
		f.addEmployee(t, "emp-lead", "Dana", roster.JobTitleLeadEventSpecialist)
		f.setRotation(t, rotation.TypePrimaryLead, 0, "emp-lead")
		for _, ref := range []int{2001, 2002, 2003} {
			f.addEvent(t, &event.Event{
				ProjectRefNum: ref,
				ProjectName:   "Product Demo",
				EventType:     event.TypeCore,
				StartDatetime: at(2, 0, 0),
				DueDatetime:   at(9, 0, 0),
			})
		}

		run, proposals := f.run(t)

		assert.Equal(t, 3, run.Scheduled)
		require.Len(t, proposals, 3)
		require.NotNil(t, proposals[0].EmployeeID)
		assert.Equal(t, "emp-lead", *proposals[0].EmployeeID)
		assert.Equal(t, at(2, 9, 45), *proposals[0].ScheduleDatetime)
		assert.Equal(t, at(2, 10, 30), *proposals[1].ScheduleDatetime)
		assert.Equal(t, at(2, 11, 0), *proposals[2].ScheduleDatetime)
		// One Core per employee per day.
		assert.NotEqual(t, *proposals[1].EmployeeID, *proposals[2].EmployeeID)
	})

	t.Run("Should never use the opening Core slot when the Primary Lead is not feasible", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-es1", "Lee", roster.JobTitleEventSpecialist)
		f.addEmployee(t, "emp-es2", "Kim", roster.JobTitleEventSpecialist)
		f.addEmployee(t, "emp-lead", "Dana", roster.JobTitleLeadEventSpecialist)
		f.setRotation(t, rotation.TypePrimaryLead, 0, "emp-lead")
		require.NoError(t, f.store.RosterRepo.AddTimeOff(context.Background(), &roster.TimeOff{
			ID:         core.MustNewID(),
			EmployeeID: "emp-lead",
			StartDate:  core.Date{Year: 2026, Month: 3, Day: 2},
			EndDate:    core.Date{Year: 2026, Month: 3, Day: 2},
		}))
		for _, ref := range []int{2001, 2002} {
			f.addEvent(t, &event.Event{
				ProjectRefNum: ref,
				ProjectName:   "Product Demo",
				EventType:     event.TypeCore,
				StartDatetime: at(2, 0, 0),
				DueDatetime:   at(9, 0, 0),
			})
		}

		_, proposals := f.run(t)

		require.Len(t, proposals, 2)
		for _, p := range proposals {
			require.NotNil(t, p.ScheduleDatetime)
			assert.NotEqual(t, at(2, 9, 45), *p.ScheduleDatetime)
			assert.NotEqual(t, "emp-lead", *p.EmployeeID)
		}
		assert.Equal(t, at(2, 10, 30), *proposals[0].ScheduleDatetime)
		assert.Equal(t, at(2, 11, 0), *proposals[1].ScheduleDatetime)
	})

	t.Run("Should propose a swap displacing a less urgent committed Core", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-es1", "Lee", roster.JobTitleEventSpecialist)
		// The only employee already works a relaxed Core that day.
		f.addEvent(t, &event.Event{
			ProjectRefNum: 2001,
			ProjectName:   "Relaxed Demo",
			EventType:     event.TypeCore,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(20, 0, 0),
			IsScheduled:   true,
			Condition:     event.ConditionScheduled,
		})
		displacedID := f.commitSchedule(t, 2001, "emp-es1", at(2, 9, 45))
		f.addEvent(t, &event.Event{
			ProjectRefNum: 2002,
			ProjectName:   "Urgent Demo",
			EventType:     event.TypeCore,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(4, 0, 0),
		})

		run, proposals := f.run(t)

		assert.Equal(t, 1, run.RequiringSwaps)
		require.Len(t, proposals, 1)
		p := proposals[0]
		assert.True(t, p.IsSwap)
		require.NotNil(t, p.DisplacedScheduleID)
		assert.Equal(t, displacedID, *p.DisplacedScheduleID)
		require.NotNil(t, p.ScheduleDatetime)
		// The swap takes over the displaced slot.
		assert.Equal(t, at(2, 9, 45), *p.ScheduleDatetime)
		assert.NotEmpty(t, p.SwapReason)
	})

	t.Run("Should fail rather than displace an equally urgent committed Core", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-es1", "Lee", roster.JobTitleEventSpecialist)
		f.addEvent(t, &event.Event{
			ProjectRefNum: 2001,
			ProjectName:   "Committed Demo",
			EventType:     event.TypeCore,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(4, 0, 0),
			IsScheduled:   true,
			Condition:     event.ConditionScheduled,
		})
		f.commitSchedule(t, 2001, "emp-es1", at(2, 9, 45))
		f.addEvent(t, &event.Event{
			ProjectRefNum: 2002,
			ProjectName:   "Incoming Demo",
			EventType:     event.TypeCore,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(4, 0, 0),
		})

		run, proposals := f.run(t)

		assert.Equal(t, 1, run.Failed)
		require.Len(t, proposals, 1)
		assert.False(t, proposals[0].IsSwap)
		assert.NotEmpty(t, proposals[0].FailureReason)
	})

	t.Run("Should pair a Supervisor event with its Core by event number", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-cs", "Morgan", roster.JobTitleClubSupervisor)
		f.addEmployee(t, "emp-lead", "Dana", roster.JobTitleLeadEventSpecialist)
		f.setRotation(t, rotation.TypePrimaryLead, 0, "emp-lead")
		f.addEvent(t, &event.Event{
			ProjectRefNum: 2001,
			ProjectName:   "614325 Beverage Demo",
			EventType:     event.TypeCore,
			EventNumber:   "614325",
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(9, 0, 0),
		})
		f.addEvent(t, &event.Event{
			ProjectRefNum: 3001,
			ProjectName:   "614325 SUPV Beverage",
			EventType:     event.TypeSupervisor,
			EventNumber:   "614325",
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(9, 0, 0),
		})

		run, proposals := f.run(t)

		assert.Equal(t, 2, run.Scheduled)
		require.Len(t, proposals, 2)
		sup := proposals[1]
		require.NotNil(t, sup.EmployeeID)
		assert.Equal(t, "emp-cs", *sup.EmployeeID)
		require.NotNil(t, sup.ScheduleDatetime)
		// Same date as the paired Core, at noon.
		assert.Equal(t, at(2, 12, 0), *sup.ScheduleDatetime)
	})

	t.Run("Should fail a Supervisor event with no matching Core", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-cs", "Morgan", roster.JobTitleClubSupervisor)
		f.addEvent(t, &event.Event{
			ProjectRefNum: 3001,
			ProjectName:   "614325 SUPV Beverage",
			EventType:     event.TypeSupervisor,
			EventNumber:   "614325",
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(9, 0, 0),
		})

		run, proposals := f.run(t)

		assert.Equal(t, 1, run.Failed)
		require.Len(t, proposals, 1)
		assert.Equal(t, "no matching Core event", proposals[0].FailureReason)
	})

	t.Run("Should stack Other events on the Club Supervisor at noon", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-cs", "Morgan", roster.JobTitleClubSupervisor)
		for _, ref := range []int{4001, 4002} {
			f.addEvent(t, &event.Event{
				ProjectRefNum: ref,
				ProjectName:   "Admin Task",
				EventType:     event.TypeOther,
				StartDatetime: at(2, 0, 0),
				DueDatetime:   at(9, 0, 0),
			})
		}

		run, proposals := f.run(t)

		assert.Equal(t, 2, run.Scheduled)
		require.Len(t, proposals, 2)
		for _, p := range proposals {
			require.NotNil(t, p.EmployeeID)
			assert.Equal(t, "emp-cs", *p.EmployeeID)
			require.NotNil(t, p.ScheduleDatetime)
			assert.Equal(t, at(2, 12, 0), *p.ScheduleDatetime)
		}
	})

	t.Run("Should keep the counter identity across a mixed window", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-cs", "Morgan", roster.JobTitleClubSupervisor)
		f.addEmployee(t, "emp-lead", "Dana", roster.JobTitleLeadEventSpecialist)
		f.setRotation(t, rotation.TypePrimaryLead, 0, "emp-lead")
		f.addEvent(t, &event.Event{
			ProjectRefNum: 2001,
			ProjectName:   "Product Demo",
			EventType:     event.TypeCore,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(9, 0, 0),
		})
		f.addEvent(t, &event.Event{
			ProjectRefNum: 4001,
			ProjectName:   "Admin Task",
			EventType:     event.TypeOther,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(9, 0, 0),
		})
		// Juicer with nobody qualified fails.
		f.addEvent(t, &event.Event{
			ProjectRefNum: 1001,
			ProjectName:   "Juicer Production",
			EventType:     event.TypeJuicer,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(6, 0, 0),
		})

		run, _ := f.run(t)

		assert.Equal(t, run.TotalProcessed, run.Scheduled+run.RequiringSwaps+run.Failed)
		assert.Equal(t, 3, run.TotalProcessed)
		assert.Equal(t, 1, run.Failed)
	})

	t.Run("Should refuse a second run while one is in progress", func(t *testing.T) {
		f := newEngineFixture(t)
		require.NoError(t, f.store.RunRepo.Create(context.Background(), &scheduler.RunHistory{
			ID:        core.MustNewID(),
			StartedAt: testNow,
			RunType:   scheduler.RunTypePeriodic,
			State:     scheduler.RunStateRunning,
		}))

		_, err := f.engine.Run(context.Background(), scheduler.RunTypeManual)

		require.Error(t, err)
		assert.Equal(t, core.KindConflict, core.KindOf(err))
	})

	t.Run("Should mark the run failed when proposals cannot be written", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-cs", "Morgan", roster.JobTitleClubSupervisor)
		f.addEvent(t, &event.Event{
			ProjectRefNum: 4001,
			ProjectName:   "Admin Task",
			EventType:     event.TypeOther,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(9, 0, 0),
		})
		f.store.ProposalRepo.CreateErr = core.NewError(core.KindInternal, "insert rejected")

		run, err := f.engine.Run(context.Background(), scheduler.RunTypeManual)

		require.Error(t, err)
		require.NotNil(t, run)
		stored, getErr := f.store.RunRepo.GetByID(context.Background(), run.ID)
		require.NoError(t, getErr)
		assert.Equal(t, scheduler.RunStateFailed, stored.State)
		assert.NotEmpty(t, stored.ErrorMessage)
	})

	t.Run("Should mark the run failed when the context is cancelled", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-cs", "Morgan", roster.JobTitleClubSupervisor)
		f.addEvent(t, &event.Event{
			ProjectRefNum: 4001,
			ProjectName:   "Admin Task",
			EventType:     event.TypeOther,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(9, 0, 0),
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		run, err := f.engine.Run(ctx, scheduler.RunTypeManual)

		require.Error(t, err)
		require.NotNil(t, run)
		stored, getErr := f.store.RunRepo.GetByID(context.Background(), run.ID)
		require.NoError(t, getErr)
		assert.Equal(t, scheduler.RunStateFailed, stored.State)
	})

	t.Run("Should process a window spanning every phase in priority order", func(t *testing.T) {
		f := newEngineFixture(t)
		f.addEmployee(t, "emp-barista", "Pat", roster.JobTitleJuicerBarista)
		f.addEmployee(t, "emp-cs", "Morgan", roster.JobTitleClubSupervisor)
		f.addEmployee(t, "emp-es1", "Lee", roster.JobTitleEventSpecialist)
		f.addEmployee(t, "emp-lead", "Dana", roster.JobTitleLeadEventSpecialist)
		f.setRotation(t, rotation.TypePrimaryJuicer, 0, "emp-barista")
		f.setRotation(t, rotation.TypePrimaryLead, 0, "emp-lead")
		f.addEvent(t, &event.Event{
			ProjectRefNum: 2001,
			ProjectName:   "614325 Beverage Demo",
			EventType:     event.TypeCore,
			EventNumber:   "614325",
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(9, 0, 0),
		})
		f.addEvent(t, &event.Event{
			ProjectRefNum: 3001,
			ProjectName:   "614325 SUPV Beverage",
			EventType:     event.TypeSupervisor,
			EventNumber:   "614325",
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(9, 0, 0),
		})
		f.addEvent(t, &event.Event{
			ProjectRefNum: 1001,
			ProjectName:   "Juicer Production",
			EventType:     event.TypeJuicer,
			StartDatetime: at(2, 0, 0),
			DueDatetime:   at(6, 0, 0),
		})

		run, proposals := f.run(t)

		assert.Equal(t, scheduler.RunStateSuccess, run.State)
		assert.Equal(t, 3, run.Scheduled)
		require.Len(t, proposals, 3)
		// Rotation first, then Core, then pairing.
		assert.Equal(t, 1001, proposals[0].EventRefNum)
		assert.Equal(t, 2001, proposals[1].EventRefNum)
		assert.Equal(t, 3001, proposals[2].EventRefNum)
	})
}
