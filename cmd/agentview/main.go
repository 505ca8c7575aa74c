package main

import (
	"os"

	"github.com/agentview/core/cli"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"agentview",
		"Read-only session-state resolution for agent-tracked projects",
	)

	rootCmd.AddCommand(cli.NewResolveCmd())
	rootCmd.AddCommand(cli.NewSnapshotCmd())
	rootCmd.AddCommand(cli.NewWatchCmd())
	rootCmd.AddCommand(cli.NewEventsCmd())
	rootCmd.AddCommand(cli.NewDoctorCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
