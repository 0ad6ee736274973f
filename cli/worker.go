package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/engine/infra/jobs"
	"github.com/demoplan/demoplan/engine/infra/postgres"
	"github.com/demoplan/demoplan/engine/infra/repo"
	"github.com/demoplan/demoplan/engine/sync/mvretail"
	"github.com/demoplan/demoplan/engine/sync/tasks"
)

// WorkerCmd returns the worker command
func WorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the sync task runner without the HTTP server",
		Long:  "Processes queued push and pull tasks. Use this to scale sync work separately from the API.",
		RunE:  handleWorkerCmd,
	}
}

func handleWorkerCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Upstream.Username == "" {
		return fmt.Errorf("upstream credentials are required to run the worker")
	}
	log := newLogger(cfg)
	ctx := commandContext(cmd, log)

	store, err := postgres.NewStore(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to setup store: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("Failed to close store", "error", err)
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := postgres.ApplyMigrationsWithLock(ctx, postgres.DSN(&cfg.Database)); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		if err := postgres.ApplyRiverMigrations(ctx, store.Pool()); err != nil {
			return fmt.Errorf("failed to apply task queue migrations: %w", err)
		}
	}

	upstream, err := mvretail.NewClient(&cfg.Upstream)
	if err != nil {
		return fmt.Errorf("failed to create upstream client: %w", err)
	}
	provider := repo.NewProvider(store.Pool())
	manager, err := jobs.NewManager(store.Pool(), tasks.Deps{
		Store:  provider,
		Pusher: upstream,
		Puller: upstream,
		Cfg:    &cfg.Sync,
	}, &cfg.Sync)
	if err != nil {
		return fmt.Errorf("failed to create job manager: %w", err)
	}
	if err := manager.Start(ctx); err != nil {
		return err
	}
	log.Info("Worker running", "queue_max_workers", cfg.Sync.QueueMaxWorkers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Debug("Received shutdown signal, stopping worker")
	case <-ctx.Done():
		log.Debug("Context canceled, stopping worker")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return manager.Stop(stopCtx)
}
