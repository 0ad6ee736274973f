package scheduler

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/schedule"
)

// Repos bundles the domain repositories. Inside WithTx every repository is
// bound to the same transaction and Tx exposes it so queue jobs can be
// inserted transactionally; outside WithTx the repositories run
// autocommitted and Tx is nil.
type Repos struct {
	Roster    roster.Repository
	Events    event.Repository
	Schedules schedule.Repository
	Rotations rotation.Repository
	Runs      RunRepository
	Proposals ProposalRepository
	Audit     audit.Repository
	Tx        pgx.Tx
}

// Store provides repository access and transaction scoping over the single
// relational source of truth.
type Store interface {
	// Repos returns autocommitted repositories
	Repos() *Repos
	// WithTx runs fn inside one transaction, committing when fn returns nil
	// and rolling back otherwise
	WithTx(ctx context.Context, fn func(*Repos) error) error
}
