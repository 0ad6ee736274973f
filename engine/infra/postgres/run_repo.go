package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/georgysavva/scany/v2/pgxscan"
)

var runColumns = []string{
	"id",
	"started_at",
	"ended_at",
	"run_type",
	"state",
	"total_processed",
	"scheduled",
	"requiring_swaps",
	"failed",
	"error_message",
}

const runColumnsSQL = "id, started_at, ended_at, run_type, state, total_processed, " +
	"scheduled, requiring_swaps, failed, error_message"

// RunRepo implements scheduler.RunRepository backed by a pgx-compatible pool.
type RunRepo struct {
	db DB
}

func NewRunRepo(db DB) *RunRepo {
	return &RunRepo{db: db}
}

// Create inserts the run record. A partial unique index on the running
// state turns a concurrent second run into a conflict error.
func (r *RunRepo) Create(ctx context.Context, run *scheduler.RunHistory) error {
	query := `
        INSERT INTO scheduler_runs (
            id, started_at, ended_at, run_type, state, total_processed,
            scheduled, requiring_swaps, failed, error_message
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	args := []any{
		run.ID, run.StartedAt, run.EndedAt, run.RunType, run.State,
		run.TotalProcessed, run.Scheduled, run.RequiringSwaps, run.Failed, run.ErrorMessage,
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "scheduler_runs_single_running_idx") {
			return core.NewError(core.KindConflict, "a scheduler run is already in progress")
		}
		return fmt.Errorf("creating run: %w", err)
	}
	return nil
}

// AcquireRunLock takes the advisory lock guarding scheduler runs. The lock
// is transaction scoped, so it releases on commit or rollback.
func (r *RunRepo) AcquireRunLock(ctx context.Context) error {
	var acquired bool
	row := r.db.QueryRow(ctx, "SELECT pg_try_advisory_xact_lock(hashtext($1), hashtext($2))", "demoplan", "scheduler_run")
	if err := row.Scan(&acquired); err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	if !acquired {
		return core.NewError(core.KindConflict, "a scheduler run is already in progress")
	}
	return nil
}

func (r *RunRepo) GetByID(ctx context.Context, id core.ID) (*scheduler.RunHistory, error) {
	query := fmt.Sprintf("SELECT %s FROM scheduler_runs WHERE id = $1", runColumnsSQL)
	var run scheduler.RunHistory
	if err := pgxscan.Get(ctx, r.db, &run, query, id); err != nil {
		return nil, notFound(err, "run %s not found", id)
	}
	return &run, nil
}

func (r *RunRepo) List(ctx context.Context, limit, offset int) ([]*scheduler.RunHistory, error) {
	sb := squirrel.Select(runColumns...).
		From("scheduler_runs").
		OrderBy("started_at DESC", "id").
		PlaceholderFormat(squirrel.Dollar)
	if limit > 0 {
		sb = sb.Limit(uint64(limit))
	}
	if offset > 0 {
		sb = sb.Offset(uint64(offset))
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var runs []*scheduler.RunHistory
	if err := pgxscan.Select(ctx, r.db, &runs, sql, args...); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

func (r *RunRepo) Finish(ctx context.Context, run *scheduler.RunHistory) error {
	query := `
        UPDATE scheduler_runs SET
            ended_at = $2,
            state = $3,
            total_processed = $4,
            scheduled = $5,
            requiring_swaps = $6,
            failed = $7,
            error_message = $8
        WHERE id = $1
    `
	args := []any{
		run.ID, run.EndedAt, run.State, run.TotalProcessed,
		run.Scheduled, run.RequiringSwaps, run.Failed, run.ErrorMessage,
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "run %s not found", run.ID)
	}
	return nil
}
