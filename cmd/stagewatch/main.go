package main

import (
	"os"

	"github.com/spf13/cobra"

	"stagewatch/internal/interfaces/cli/migrate"
	"stagewatch/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stagewatch",
		Short: "Stagewatch - live-show availability watcher",
		Long:  `Stagewatch polls ticketing providers, resolves records onto the play catalog, and notifies subscribers of availability changes.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
