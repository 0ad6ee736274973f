package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/infra/postgres"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRepo_Create(t *testing.T) {
	t.Run("Should create run record", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewRunRepo(mockPool)
		ctx := context.Background()
		var nilTime *time.Time
		run := &scheduler.RunHistory{
			ID:        core.MustNewID(),
			StartedAt: time.Now(),
			RunType:   scheduler.RunTypeManual,
			State:     scheduler.RunStateRunning,
		}
		mockPool.ExpectExec("INSERT INTO scheduler_runs").
			WithArgs(
				run.ID,
				run.StartedAt,
				nilTime,
				run.RunType,
				run.State,
				0,
				0,
				0,
				0,
				"",
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		err = repo.Create(ctx, run)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should map second running run to conflict", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewRunRepo(mockPool)
		ctx := context.Background()
		run := &scheduler.RunHistory{
			ID:        core.MustNewID(),
			StartedAt: time.Now(),
			RunType:   scheduler.RunTypePeriodic,
			State:     scheduler.RunStateRunning,
		}
		mockPool.ExpectExec("INSERT INTO scheduler_runs").
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "scheduler_runs_single_running_idx"})
		err = repo.Create(ctx, run)
		assert.Error(t, err)
		assert.Equal(t, core.KindConflict, core.KindOf(err))
		assert.Contains(t, err.Error(), "already in progress")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRunRepo_AcquireRunLock(t *testing.T) {
	t.Run("Should acquire the advisory lock", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewRunRepo(mockPool)
		ctx := context.Background()
		rows := mockPool.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(true)
		mockPool.ExpectQuery("SELECT pg_try_advisory_xact_lock").
			WithArgs("demoplan", "scheduler_run").
			WillReturnRows(rows)
		err = repo.AcquireRunLock(ctx)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should return conflict when lock is held", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewRunRepo(mockPool)
		ctx := context.Background()
		rows := mockPool.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(false)
		mockPool.ExpectQuery("SELECT pg_try_advisory_xact_lock").
			WithArgs("demoplan", "scheduler_run").
			WillReturnRows(rows)
		err = repo.AcquireRunLock(ctx)
		assert.Error(t, err)
		assert.Equal(t, core.KindConflict, core.KindOf(err))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRunRepo_Finish(t *testing.T) {
	t.Run("Should record terminal state and counters", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewRunRepo(mockPool)
		ctx := context.Background()
		endedAt := time.Now()
		run := &scheduler.RunHistory{
			ID:             core.MustNewID(),
			EndedAt:        &endedAt,
			State:          scheduler.RunStateSuccess,
			TotalProcessed: 8,
			Scheduled:      6,
			RequiringSwaps: 1,
			Failed:         1,
		}
		mockPool.ExpectExec("UPDATE scheduler_runs").
			WithArgs(run.ID, run.EndedAt, run.State, 8, 6, 1, 1, "").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		err = repo.Finish(ctx, run)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should return not found for missing run", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewRunRepo(mockPool)
		ctx := context.Background()
		run := &scheduler.RunHistory{ID: core.MustNewID(), State: scheduler.RunStateFailed}
		mockPool.ExpectExec("UPDATE scheduler_runs").
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		err = repo.Finish(ctx, run)
		assert.Error(t, err)
		assert.Equal(t, core.KindNotFound, core.KindOf(err))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRunRepo_GetByID(t *testing.T) {
	t.Run("Should return not found for unknown run", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewRunRepo(mockPool)
		ctx := context.Background()
		id := core.MustNewID()
		mockPool.ExpectQuery("SELECT (.+) FROM scheduler_runs WHERE id = \\$1").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)
		result, err := repo.GetByID(ctx, id)
		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, core.KindNotFound, core.KindOf(err))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
