package cmd

import (
	"github.com/spf13/cobra"
)

// logutilCmd is the base command for utilities that process the SQLite
// telemetry databases produced by 'sim' and 'serve'.
var logutilCmd = &cobra.Command{
	Use:   "logutil",
	Short: "Utilities for working with daemonfield's SQLite telemetry logs.",
	Long: `logutil provides subcommands for processing and exporting data
from the Sessions/Frames tables written by a SessionLogger.`,
}

func init() {
	rootCmd.AddCommand(logutilCmd)
}
