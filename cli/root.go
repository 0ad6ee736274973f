package cli

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "demoplan",
		Short: "Demo event scheduling service",
		Long:  "Demoplan assigns in-store demo events to employees and keeps the MVRetail system of record in sync.",
	}

	root.PersistentFlags().String("env-file", "", "Load environment variables from this file before reading config")

	root.AddCommand(
		ServeCmd(),
		WorkerCmd(),
		MigrateCmd(),
		VersionCmd(),
	)

	return root
}
