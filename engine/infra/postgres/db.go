package postgres

import (
	"context"
	"errors"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the minimal database surface the repositories depend on. Both
// pgxpool.Pool and pgx.Tx satisfy it, so one repository type serves pooled
// and transactional use, and pgxmock satisfies it for tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// notFound converts pgx.ErrNoRows into a domain not-found error so callers
// never see driver sentinels.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NewError(core.KindNotFound, format, args...)
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, optionally restricted to one constraint name.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
