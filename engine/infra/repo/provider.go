package repo

import (
	"context"
	"fmt"

	"github.com/demoplan/demoplan/engine/infra/postgres"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Provider implements scheduler.Store backed by a specific driver
// (PostgreSQL for now). It intentionally hands out repository interfaces
// rather than driver-specific types.
type Provider struct {
	pool *pgxpool.Pool
}

func NewProvider(pool *pgxpool.Pool) *Provider { return &Provider{pool: pool} }

func reposFor(db postgres.DB) *scheduler.Repos {
	return &scheduler.Repos{
		Roster:    postgres.NewRosterRepo(db),
		Events:    postgres.NewEventRepo(db),
		Schedules: postgres.NewScheduleRepo(db),
		Rotations: postgres.NewRotationRepo(db),
		Runs:      postgres.NewRunRepo(db),
		Proposals: postgres.NewProposalRepo(db),
		Audit:     postgres.NewAuditRepo(db),
	}
}

// Repos returns autocommitted repositories bound to the pool.
func (p *Provider) Repos() *scheduler.Repos {
	return reposFor(p.pool)
}

// WithTx runs fn with every repository bound to one transaction, committing
// when fn returns nil and rolling back otherwise. Repos.Tx carries the
// transaction so callers can enqueue jobs atomically with their writes.
func (p *Provider) WithTx(ctx context.Context, fn func(*scheduler.Repos) error) (err error) {
	tx, beginErr := p.pool.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("beginning transaction: %w", beginErr)
	}
	log := logger.FromContext(ctx)
	repos := reposFor(tx)
	repos.Tx = tx
	defer func() {
		if rec := recover(); rec != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error("Failed to rollback transaction", "error", rbErr)
			}
			panic(rec)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error("Failed to rollback transaction", "error", rbErr)
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error("Failed to commit transaction", "error", commitErr)
				err = fmt.Errorf("commit transaction: %w", commitErr)
			}
		}
	}()
	err = fn(repos)
	return err
}
