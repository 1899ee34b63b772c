// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "campushub",
	Short: "CampusHub is the web backend for the student-organization portal",
	Long: `CampusHub is the web backend for the student-organization portal
that serves events, team profiles, galleries and the admin console,
with per-admin feature permissions managed by the main admin.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
