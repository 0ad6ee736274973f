package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const proposalColumnsSQL = "id, run_id, event_ref_num, employee_id, schedule_datetime, status, " +
	"is_swap, swap_reason, displaced_schedule_id, failure_reason, created_at, updated_at"

// ProposalRepo implements scheduler.ProposalRepository backed by a
// pgx-compatible pool.
type ProposalRepo struct {
	db DB
}

func NewProposalRepo(db DB) *ProposalRepo {
	return &ProposalRepo{db: db}
}

func (r *ProposalRepo) CreateBatch(ctx context.Context, proposals []*scheduler.PendingSchedule) error {
	if len(proposals) == 0 {
		return nil
	}
	sb := squirrel.Insert("pending_schedules").
		Columns(
			"id", "run_id", "event_ref_num", "employee_id", "schedule_datetime",
			"status", "is_swap", "swap_reason", "displaced_schedule_id", "failure_reason",
		).
		PlaceholderFormat(squirrel.Dollar)
	for _, p := range proposals {
		sb = sb.Values(
			p.ID, p.RunID, p.EventRefNum, p.EmployeeID, p.ScheduleDatetime,
			p.Status, p.IsSwap, p.SwapReason, p.DisplacedScheduleID, p.FailureReason,
		)
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("creating proposals: %w", err)
	}
	return nil
}

func (r *ProposalRepo) GetByID(ctx context.Context, id core.ID) (*scheduler.PendingSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM pending_schedules WHERE id = $1", proposalColumnsSQL)
	var proposal scheduler.PendingSchedule
	if err := pgxscan.Get(ctx, r.db, &proposal, query, id); err != nil {
		return nil, notFound(err, "proposal %s not found", id)
	}
	return &proposal, nil
}

func (r *ProposalRepo) ListByRun(ctx context.Context, runID core.ID) ([]*scheduler.PendingSchedule, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM pending_schedules
        WHERE run_id = $1
        ORDER BY created_at, id
    `, proposalColumnsSQL)
	var proposals []*scheduler.PendingSchedule
	if err := pgxscan.Select(ctx, r.db, &proposals, query, runID); err != nil {
		return nil, fmt.Errorf("listing proposals: %w", err)
	}
	return proposals, nil
}

func (r *ProposalRepo) UpdateAssignment(ctx context.Context, id core.ID, employeeID string, datetime time.Time) error {
	query := `
        UPDATE pending_schedules
        SET employee_id = $2, schedule_datetime = $3, status = $4, updated_at = now()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, employeeID, datetime, scheduler.StatusEdited)
	if err != nil {
		return fmt.Errorf("updating proposal assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "proposal %s not found", id)
	}
	return nil
}

func (r *ProposalRepo) UpdateStatus(
	ctx context.Context,
	id core.ID,
	status scheduler.ProposalStatus,
	reason string,
) error {
	ub := squirrel.Update("pending_schedules").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
	if reason != "" {
		ub = ub.Set("failure_reason", reason)
	}
	sql, args, err := ub.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("updating proposal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "proposal %s not found", id)
	}
	return nil
}

func (r *ProposalRepo) UpdateStatusByRun(
	ctx context.Context,
	runID core.ID,
	from []scheduler.ProposalStatus,
	to scheduler.ProposalStatus,
) error {
	ub := squirrel.Update("pending_schedules").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"run_id": runID, "status": from}).
		PlaceholderFormat(squirrel.Dollar)
	sql, args, err := ub.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("updating proposal statuses: %w", err)
	}
	return nil
}
