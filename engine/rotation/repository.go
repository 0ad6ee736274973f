package rotation

import (
	"context"

	"github.com/demoplan/demoplan/engine/core"
)

// Repository persists weekly rotations and their date exceptions.
type Repository interface {
	// ListWeekly retrieves all weekly designations
	ListWeekly(ctx context.Context) ([]*Weekly, error)
	// GetWeekly retrieves the designation for one (type, weekday) pair, or
	// a not-found error
	GetWeekly(ctx context.Context, rotationType Type, weekday int) (*Weekly, error)
	// SetWeekly replaces the designation for one (type, weekday) pair
	SetWeekly(ctx context.Context, entry *Weekly) error
	// ReplaceWeekly atomically replaces the full weekly table
	ReplaceWeekly(ctx context.Context, entries []*Weekly) error
	// GetException retrieves the exception for a (type, date) pair, or a
	// not-found error
	GetException(ctx context.Context, rotationType Type, date core.Date) (*Exception, error)
	// ListExceptionsBetween retrieves exceptions with dates in [from, to]
	ListExceptionsBetween(ctx context.Context, from, to core.Date) ([]*Exception, error)
	// AddException records a date exception, replacing any existing one for
	// the same (type, date) pair
	AddException(ctx context.Context, exception *Exception) error
	// DeleteException removes a date exception
	DeleteException(ctx context.Context, id core.ID) error
}
