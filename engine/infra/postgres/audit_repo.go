package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/demoplan/demoplan/engine/audit"
	"github.com/georgysavva/scany/v2/pgxscan"
)

var auditColumns = []string{
	"id",
	"actor",
	"action",
	"entity_type",
	"entity_id",
	"before_state",
	"after_state",
	"created_at",
}

// AuditRepo implements audit.Repository backed by a pgx-compatible pool.
type AuditRepo struct {
	db DB
}

func NewAuditRepo(db DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, entry *audit.Entry) error {
	query := `
        INSERT INTO audit_log (id, actor, action, entity_type, entity_id, before_state, after_state)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	args := []any{
		entry.ID, entry.Actor, entry.Action, entry.EntityType, entry.EntityID,
		entry.Before, entry.After,
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepo) List(ctx context.Context, filter *audit.Filter, limit, offset int) ([]*audit.Entry, error) {
	sb := squirrel.Select(auditColumns...).
		From("audit_log").
		OrderBy("created_at DESC", "id").
		PlaceholderFormat(squirrel.Dollar)
	sb = applyAuditFilter(sb, filter)
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
	var entries []*audit.Entry
	if err := pgxscan.Select(ctx, r.db, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	return entries, nil
}

func applyAuditFilter(sb squirrel.SelectBuilder, filter *audit.Filter) squirrel.SelectBuilder {
	if filter == nil {
		return sb
	}
	if filter.EntityType != "" {
		sb = sb.Where(squirrel.Eq{"entity_type": filter.EntityType})
	}
	if filter.EntityID != "" {
		sb = sb.Where(squirrel.Eq{"entity_id": filter.EntityID})
	}
	if filter.Action != "" {
		sb = sb.Where(squirrel.Eq{"action": filter.Action})
	}
	return sb
}
