package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "districtctl",
	Short:        "Offline tasks for the district dashboard: build the startup cache, import population tables, inspect caches.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newBuildCacheCmd(), newImportCmd(), newInspectCmd())
}

// Execute runs the root command and exits with 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
