package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"daemonfield/cli"
	"daemonfield/config"
)

var presetsOutput string

// presetsCmd prints or exports the full preset catalogue.
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Print or export the preset catalogue as JSON.",
	Long: `Emits the full mask preset catalogue (id, name, preview grid, and mask
stats for every registered preset) as JSON, either to stdout or to a file,
e.g. for a frontend build step that bakes the catalogue into a static
asset.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg := &config.AppConfig{
			Session: config.DefaultSessionConfig(),
			Cli: config.CLIConfig{
				Mode:          config.ModePresets,
				Seed:          seed,
				PresetsOutput: presetsOutput,
			},
		}
		if err := appCfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration for mode presets: %w", err)
		}
		return cli.NewOrchestrator(appCfg).Run()
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.Flags().StringVarP(&presetsOutput, "output", "o", "", "File to write the catalogue JSON to (stdout if empty).")
}
