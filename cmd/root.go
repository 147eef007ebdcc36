// Package cmd contains the perch CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "perch",
	Short: "Perch - personal productivity assistant",
	Long: `Perch is a personal productivity service: todos, calendar, notes,
goals, habits, and expenses behind a JSON API, plus a chat assistant
that answers questions grounded in your uploaded documents.

Run 'perch serve' to start the HTTP API server.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
