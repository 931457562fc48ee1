package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"daemonfield/cli"
	"daemonfield/config"
)

var (
	logutilExportDbPath string
	logutilExportTable  string
	logutilExportFormat string
	logutilExportOutput string
)

// logutilExportCmd exports one table of a telemetry database to CSV or
// JSON.
var logutilExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a Sessions or Frames table to CSV or JSON.",
	Long: `Reads every row of the given table ('Sessions' or 'Frames') from a
SQLite database written by a SessionLogger and writes it out as CSV or
JSON, either to stdout or to a file.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg := &config.AppConfig{
			Session: config.DefaultSessionConfig(),
			Cli: config.CLIConfig{
				Mode:          config.ModeLogUtil,
				LogUtilDbPath: logutilExportDbPath,
				LogUtilTable:  logutilExportTable,
				LogUtilFormat: logutilExportFormat,
				LogUtilOutput: logutilExportOutput,
			},
		}
		if err := appCfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration for logutil export: %w", err)
		}
		return cli.NewOrchestrator(appCfg).Run()
	},
}

func init() {
	logutilCmd.AddCommand(logutilExportCmd)

	logutilExportCmd.Flags().StringVarP(&logutilExportDbPath, "dbPath", "d", "", "Path to the SQLite database (required).")
	_ = logutilExportCmd.MarkFlagRequired("dbPath")

	logutilExportCmd.Flags().StringVarP(&logutilExportTable, "table", "t", "", "Table to export: 'Sessions' or 'Frames' (required).")
	_ = logutilExportCmd.MarkFlagRequired("table")

	logutilExportCmd.Flags().StringVarP(&logutilExportFormat, "format", "f", "csv", "Output format: 'csv' or 'json'.")
	logutilExportCmd.Flags().StringVarP(&logutilExportOutput, "output", "o", "", "Output file (stdout if empty).")
}
