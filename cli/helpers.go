package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/pkg/config"
	"github.com/demoplan/demoplan/pkg/logger"
)

// loadConfig reads the optional env file, then builds the config from
// defaults and DEMOPLAN_ environment variables.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		// Best effort: a local .env is optional.
		_ = godotenv.Load()
	}
	return config.Load(cmd.Context())
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level: logger.SetupLevel(cfg.Runtime.LogLevel),
		JSON:  cfg.Runtime.LogJSON,
	})
}

func commandContext(cmd *cobra.Command, log logger.Logger) context.Context {
	return logger.ContextWithLogger(cmd.Context(), log)
}
