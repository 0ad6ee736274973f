package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const scheduleColumnsSQL = "id, event_ref_num, employee_id, schedule_datetime, sync_status, " +
	"upstream_ref, last_synced, api_error_details, created_at, updated_at"

// ScheduleRepo implements schedule.Repository backed by a pgx-compatible pool.
type ScheduleRepo struct {
	db DB
}

func NewScheduleRepo(db DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

func (r *ScheduleRepo) Create(ctx context.Context, s *schedule.Schedule) error {
	query := `
        INSERT INTO schedules (
            id, event_ref_num, employee_id, schedule_datetime, sync_status,
            upstream_ref, last_synced, api_error_details
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	args := []any{
		s.ID, s.EventRefNum, s.EmployeeID, s.ScheduleDatetime, s.SyncStatus,
		s.UpstreamRef, s.LastSynced, s.APIErrorDetails,
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "schedules_event_ref_num_key") {
			return core.NewError(core.KindConflict, "event %d is already scheduled", s.EventRefNum)
		}
		return fmt.Errorf("creating schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepo) GetByID(ctx context.Context, id core.ID) (*schedule.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumnsSQL)
	var s schedule.Schedule
	if err := pgxscan.Get(ctx, r.db, &s, query, id); err != nil {
		return nil, notFound(err, "schedule %s not found", id)
	}
	return &s, nil
}

func (r *ScheduleRepo) GetByEventRef(ctx context.Context, refNum int) (*schedule.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE event_ref_num = $1", scheduleColumnsSQL)
	var s schedule.Schedule
	if err := pgxscan.Get(ctx, r.db, &s, query, refNum); err != nil {
		return nil, notFound(err, "no schedule for event %d", refNum)
	}
	return &s, nil
}

func (r *ScheduleRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*schedule.Schedule, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM schedules
        WHERE schedule_datetime >= $1 AND schedule_datetime < $2
        ORDER BY schedule_datetime, id
    `, scheduleColumnsSQL)
	var schedules []*schedule.Schedule
	if err := pgxscan.Select(ctx, r.db, &schedules, query, from, to); err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepo) ListByEmployeeBetween(
	ctx context.Context,
	employeeID string,
	from, to time.Time,
) ([]*schedule.Schedule, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM schedules
        WHERE employee_id = $1 AND schedule_datetime >= $2 AND schedule_datetime < $3
        ORDER BY schedule_datetime, id
    `, scheduleColumnsSQL)
	var schedules []*schedule.Schedule
	if err := pgxscan.Select(ctx, r.db, &schedules, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("listing employee schedules: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepo) ListBySyncStatus(
	ctx context.Context,
	status schedule.SyncStatus,
	limit int,
) ([]*schedule.Schedule, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM schedules
        WHERE sync_status = $1
        ORDER BY schedule_datetime, id
    `, scheduleColumnsSQL)
	args := []any{status}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	var schedules []*schedule.Schedule
	if err := pgxscan.Select(ctx, r.db, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("listing schedules by sync status: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepo) Update(ctx context.Context, s *schedule.Schedule) error {
	query := `
        UPDATE schedules SET
            event_ref_num = $2,
            employee_id = $3,
            schedule_datetime = $4,
            sync_status = $5,
            upstream_ref = $6,
            last_synced = $7,
            api_error_details = $8,
            updated_at = now()
        WHERE id = $1
    `
	args := []any{
		s.ID, s.EventRefNum, s.EmployeeID, s.ScheduleDatetime, s.SyncStatus,
		s.UpstreamRef, s.LastSynced, s.APIErrorDetails,
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "schedule %s not found", s.ID)
	}
	return nil
}

func (r *ScheduleRepo) Delete(ctx context.Context, id core.ID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM schedules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "schedule %s not found", id)
	}
	return nil
}

func (r *ScheduleRepo) MarkSyncPending(ctx context.Context, id core.ID) error {
	query := `
        UPDATE schedules
        SET sync_status = $2, api_error_details = '', updated_at = now()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, schedule.SyncPending)
	if err != nil {
		return fmt.Errorf("marking schedule pending: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "schedule %s not found", id)
	}
	return nil
}

func (r *ScheduleRepo) MarkSynced(ctx context.Context, id core.ID, upstreamRef string, at time.Time) error {
	query := `
        UPDATE schedules
        SET sync_status = $2, upstream_ref = $3, last_synced = $4, api_error_details = '', updated_at = now()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, schedule.SyncSynced, upstreamRef, at)
	if err != nil {
		return fmt.Errorf("marking schedule synced: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "schedule %s not found", id)
	}
	return nil
}

func (r *ScheduleRepo) MarkSyncFailed(ctx context.Context, id core.ID, details string) error {
	query := `
        UPDATE schedules
        SET sync_status = $2, api_error_details = $3, updated_at = now()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, schedule.SyncFailed, details)
	if err != nil {
		return fmt.Errorf("marking schedule failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "schedule %s not found", id)
	}
	return nil
}

func (r *ScheduleRepo) CountBySyncStatus(ctx context.Context) (map[schedule.SyncStatus]int, error) {
	rows, err := r.db.Query(ctx, "SELECT sync_status, count(*) FROM schedules GROUP BY sync_status")
	if err != nil {
		return nil, fmt.Errorf("counting schedules: %w", err)
	}
	defer rows.Close()
	counts := make(map[schedule.SyncStatus]int)
	for rows.Next() {
		var status schedule.SyncStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning sync status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sync status counts: %w", err)
	}
	return counts, nil
}
