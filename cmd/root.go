package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mpsd-mock",
	Short: "Mock multiplayer session directory for the external-service test harness",
	Long:  `In-memory MPSD simulator: session lifecycle, activity handles, tournament arbitration.`,
	RunE:  runAPI, // default: run API (same as "mpsd-mock api")
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

// Execute runs the root command and returns the error (for main to log.Fatal).
func Execute() error {
	return rootCmd.Execute()
}
