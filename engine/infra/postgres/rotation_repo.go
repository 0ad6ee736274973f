package postgres

import (
	"context"
	"fmt"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const rotationWeeklyColumnsSQL = "rotation_type, weekday, employee_id, updated_at"

const rotationExceptionColumnsSQL = "id, rotation_type, date, employee_id, reason, created_at"

// RotationRepo implements rotation.Repository backed by a pgx-compatible pool.
type RotationRepo struct {
	db DB
}

func NewRotationRepo(db DB) *RotationRepo {
	return &RotationRepo{db: db}
}

func (r *RotationRepo) ListWeekly(ctx context.Context) ([]*rotation.Weekly, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM rotation_weekly ORDER BY rotation_type, weekday",
		rotationWeeklyColumnsSQL,
	)
	var entries []*rotation.Weekly
	if err := pgxscan.Select(ctx, r.db, &entries, query); err != nil {
		return nil, fmt.Errorf("listing weekly rotations: %w", err)
	}
	return entries, nil
}

func (r *RotationRepo) GetWeekly(ctx context.Context, rotationType rotation.Type, weekday int) (*rotation.Weekly, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM rotation_weekly WHERE rotation_type = $1 AND weekday = $2",
		rotationWeeklyColumnsSQL,
	)
	var entry rotation.Weekly
	if err := pgxscan.Get(ctx, r.db, &entry, query, rotationType, weekday); err != nil {
		return nil, notFound(err, "no %s rotation for weekday %d", rotationType, weekday)
	}
	return &entry, nil
}

func (r *RotationRepo) SetWeekly(ctx context.Context, entry *rotation.Weekly) error {
	query := `
        INSERT INTO rotation_weekly (rotation_type, weekday, employee_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (rotation_type, weekday) DO UPDATE SET
            employee_id = $3,
            updated_at = now()
    `
	if _, err := r.db.Exec(ctx, query, entry.RotationType, entry.Weekday, entry.EmployeeID); err != nil {
		return fmt.Errorf("setting weekly rotation: %w", err)
	}
	return nil
}

// ReplaceWeekly clears and refills the table. Atomicity comes from the
// caller's transaction.
func (r *RotationRepo) ReplaceWeekly(ctx context.Context, entries []*rotation.Weekly) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM rotation_weekly"); err != nil {
		return fmt.Errorf("clearing weekly rotations: %w", err)
	}
	for _, entry := range entries {
		query := "INSERT INTO rotation_weekly (rotation_type, weekday, employee_id) VALUES ($1, $2, $3)"
		if _, err := r.db.Exec(ctx, query, entry.RotationType, entry.Weekday, entry.EmployeeID); err != nil {
			return fmt.Errorf("inserting weekly rotation: %w", err)
		}
	}
	return nil
}

func (r *RotationRepo) GetException(
	ctx context.Context,
	rotationType rotation.Type,
	date core.Date,
) (*rotation.Exception, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM rotation_exceptions WHERE rotation_type = $1 AND date = $2",
		rotationExceptionColumnsSQL,
	)
	var ex rotation.Exception
	if err := pgxscan.Get(ctx, r.db, &ex, query, rotationType, date); err != nil {
		return nil, notFound(err, "no %s exception on %s", rotationType, date)
	}
	return &ex, nil
}

func (r *RotationRepo) ListExceptionsBetween(ctx context.Context, from, to core.Date) ([]*rotation.Exception, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM rotation_exceptions
        WHERE date >= $1 AND date <= $2
        ORDER BY date, rotation_type
    `, rotationExceptionColumnsSQL)
	var exceptions []*rotation.Exception
	if err := pgxscan.Select(ctx, r.db, &exceptions, query, from, to); err != nil {
		return nil, fmt.Errorf("listing rotation exceptions: %w", err)
	}
	return exceptions, nil
}

func (r *RotationRepo) AddException(ctx context.Context, exception *rotation.Exception) error {
	query := `
        INSERT INTO rotation_exceptions (id, rotation_type, date, employee_id, reason)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (rotation_type, date) DO UPDATE SET
            id = $1,
            employee_id = $4,
            reason = $5,
            created_at = now()
    `
	args := []any{exception.ID, exception.RotationType, exception.Date, exception.EmployeeID, exception.Reason}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("adding rotation exception: %w", err)
	}
	return nil
}

func (r *RotationRepo) DeleteException(ctx context.Context, id core.ID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM rotation_exceptions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting rotation exception: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewError(core.KindNotFound, "exception %s not found", id)
	}
	return nil
}
