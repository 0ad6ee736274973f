package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/engine/infra/server"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  "Starts the REST API and, unless disabled, the background sync task runner in the same process.",
		RunE:  handleServeCmd,
	}
	cmd.Flags().Bool("no-worker", false, "Serve HTTP only, without the background task runner")
	return cmd
}

func handleServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	noWorker, err := cmd.Flags().GetBool("no-worker")
	if err != nil {
		return fmt.Errorf("failed to get no-worker flag: %w", err)
	}
	log := newLogger(cfg)
	srv := server.NewServer(cfg, log, server.Options{WithWorker: !noWorker})
	return srv.Run()
}
