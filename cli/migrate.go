package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/engine/infra/postgres"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE:  handleMigrateCmd,
	}
}

func handleMigrateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	ctx := commandContext(cmd, log)

	if err := postgres.ApplyMigrations(ctx, postgres.DSN(&cfg.Database)); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

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
	if err := postgres.ApplyRiverMigrations(ctx, store.Pool()); err != nil {
		return fmt.Errorf("failed to apply task queue migrations: %w", err)
	}

	log.Info("Migrations applied")
	return nil
}
