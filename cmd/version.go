package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Actual values can be specified in build command via -ldflags.
var (
	version = "unknown"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s (commit %s, %s)\n", app, version, commit, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
