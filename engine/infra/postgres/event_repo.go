package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/georgysavva/scany/v2/pgxscan"
)

var eventColumns = []string{
	"project_ref_num",
	"external_id",
	"location_mvid",
	"project_name",
	"event_type",
	"event_number",
	"start_datetime",
	"due_datetime",
	"estimated_minutes",
	"is_scheduled",
	"condition",
	"created_at",
	"updated_at",
}

const eventColumnsSQL = "project_ref_num, external_id, location_mvid, project_name, " +
	"event_type, event_number, start_datetime, due_datetime, estimated_minutes, " +
	"is_scheduled, condition, created_at, updated_at"

// EventRepo implements event.Repository backed by a pgx-compatible pool.
type EventRepo struct {
	db DB
}

func NewEventRepo(db DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Upsert(ctx context.Context, ev *event.Event) error {
	query := `
        INSERT INTO events (
            project_ref_num, external_id, location_mvid, project_name, event_type,
            event_number, start_datetime, due_datetime, estimated_minutes, is_scheduled, condition
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (project_ref_num) DO UPDATE SET
            external_id = $2,
            location_mvid = $3,
            project_name = $4,
            event_type = $5,
            event_number = $6,
            start_datetime = $7,
            due_datetime = $8,
            estimated_minutes = $9,
            is_scheduled = $10,
            condition = $11,
            updated_at = now()
    `
	args := []any{
		ev.ProjectRefNum, ev.ExternalID, ev.LocationMVID, ev.ProjectName, ev.EventType,
		ev.EventNumber, ev.StartDatetime, ev.DueDatetime, ev.EstimatedMinutes, ev.IsScheduled, ev.Condition,
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting event: %w", err)
	}
	return nil
}

func (r *EventRepo) GetByRefNum(ctx context.Context, refNum int) (*event.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE project_ref_num = $1", eventColumnsSQL)
	var ev event.Event
	if err := pgxscan.Get(ctx, r.db, &ev, query, refNum); err != nil {
		return nil, notFound(err, "event %d not found", refNum)
	}
	return &ev, nil
}

func (r *EventRepo) GetByExternalID(ctx context.Context, externalID string) (*event.Event, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM events WHERE external_id = $1 AND external_id <> ''",
		eventColumnsSQL,
	)
	var ev event.Event
	if err := pgxscan.Get(ctx, r.db, &ev, query, externalID); err != nil {
		return nil, notFound(err, "event with external id %s not found", externalID)
	}
	return &ev, nil
}

// NextRefNum draws from a sequence that starts far above the upstream
// reference range, so locally allocated numbers never collide with pulls.
func (r *EventRepo) NextRefNum(ctx context.Context) (int, error) {
	var refNum int
	row := r.db.QueryRow(ctx, "SELECT nextval('event_ref_num_seq')::int")
	if err := row.Scan(&refNum); err != nil {
		return 0, fmt.Errorf("allocating event ref num: %w", err)
	}
	return refNum, nil
}

func (r *EventRepo) ListByRefNums(ctx context.Context, refNums []int) ([]*event.Event, error) {
	if len(refNums) == 0 {
		return nil, nil
	}
	sb := squirrel.Select(eventColumns...).
		From("events").
		Where(squirrel.Eq{"project_ref_num": refNums}).
		OrderBy("project_ref_num").
		PlaceholderFormat(squirrel.Dollar)
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var events []*event.Event
	if err := pgxscan.Select(ctx, r.db, &events, sql, args...); err != nil {
		return nil, fmt.Errorf("listing events by ref nums: %w", err)
	}
	return events, nil
}

func (r *EventRepo) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	sb := squirrel.Select(eventColumns...).
		From("events").
		OrderBy("start_datetime", "project_ref_num").
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
	var events []*event.Event
	if err := pgxscan.Select(ctx, r.db, &events, sql, args...); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

func (r *EventRepo) ListUnscheduledBetween(ctx context.Context, from, to time.Time) ([]*event.Event, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM events
        WHERE NOT is_scheduled AND start_datetime >= $1 AND start_datetime < $2
        ORDER BY start_datetime, project_ref_num
    `, eventColumnsSQL)
	var events []*event.Event
	if err := pgxscan.Select(ctx, r.db, &events, query, from, to); err != nil {
		return nil, fmt.Errorf("listing unscheduled events: %w", err)
	}
	return events, nil
}

func (r *EventRepo) FindCoreByNumber(ctx context.Context, number string) (*event.Event, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM events
        WHERE event_type = $1 AND event_number = $2
        ORDER BY start_datetime, project_ref_num
        LIMIT 1
    `, eventColumnsSQL)
	var ev event.Event
	if err := pgxscan.Get(ctx, r.db, &ev, query, event.TypeCore, number); err != nil {
		return nil, notFound(err, "no Core event numbered %s", number)
	}
	return &ev, nil
}

func (r *EventRepo) SetScheduled(ctx context.Context, refNum int, scheduled bool, condition event.Condition) error {
	query := `
        UPDATE events
        SET is_scheduled = $2, condition = $3, updated_at = now()
        WHERE project_ref_num = $1
    `
	tag, err := r.db.Exec(ctx, query, refNum, scheduled, condition)
	if err != nil {
		return fmt.Errorf("updating event scheduled flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "event %d not found", refNum)
	}
	return nil
}
