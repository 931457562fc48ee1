package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"daemonfield/cli"
	"daemonfield/config"
)

var (
	simCycles       int
	simDbPath       string
	simWidth        int
	simHeight       int
	simMask         string
	simBalance      float64
	simBalanceMode  string
	simRule         int
	simFPS          int
	simStepsPerTick int
)

// simCmd runs a session headlessly for a fixed number of ticks.
var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run a session headlessly for a fixed number of ticks.",
	Long: `Starts a session from the given grid/mask configuration and steps it
forward Cli.SimCycles times, printing progress and optionally logging every
frame to SQLite. Useful for batch runs and for producing a telemetry
database to feed into 'logutil export'.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg := &config.AppConfig{
			Session: config.DefaultSessionConfig(),
			Cli: config.CLIConfig{
				Mode:      config.ModeSim,
				Seed:      seed,
				SimCycles: simCycles,
				DbPath:    simDbPath,
			},
		}
		appCfg.Session.Width = simWidth
		appCfg.Session.Height = simHeight
		appCfg.Session.Mask = simMask
		appCfg.Session.BalanceMode = simBalanceMode
		appCfg.Session.Rule = simRule
		appCfg.Session.FPS = simFPS
		appCfg.Session.StepsPerTick = simStepsPerTick
		if !math.IsNaN(simBalance) {
			b := simBalance
			appCfg.Session.Balance = &b
		}

		if configFile != "" {
			if err := appCfg.LoadFromFile(configFile); err != nil {
				return fmt.Errorf("failed to load config file '%s': %w", configFile, err)
			}
		}

		if cmd.Flags().Changed("seed") {
			appCfg.Cli.Seed = seed
		}
		if cmd.Flags().Changed("width") {
			appCfg.Session.Width = simWidth
		}
		if cmd.Flags().Changed("height") {
			appCfg.Session.Height = simHeight
		}
		if cmd.Flags().Changed("mask") {
			appCfg.Session.Mask = simMask
		}
		if cmd.Flags().Changed("cycles") {
			appCfg.Cli.SimCycles = simCycles
		}
		if cmd.Flags().Changed("dbPath") {
			appCfg.Cli.DbPath = simDbPath
		}
		if cmd.Flags().Changed("balanceMode") {
			appCfg.Session.BalanceMode = simBalanceMode
		}
		if cmd.Flags().Changed("rule") {
			appCfg.Session.Rule = simRule
		}
		if cmd.Flags().Changed("fps") {
			appCfg.Session.FPS = simFPS
		}
		if cmd.Flags().Changed("stepsPerTick") {
			appCfg.Session.StepsPerTick = simStepsPerTick
		}
		if cmd.Flags().Changed("balance") {
			b := simBalance
			appCfg.Session.Balance = &b
		}

		if err := appCfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration for mode sim: %w", err)
		}

		return cli.NewOrchestrator(appCfg).Run()
	},
}

func init() {
	rootCmd.AddCommand(simCmd)

	defaults := config.DefaultSessionConfig()
	simCmd.Flags().IntVarP(&simCycles, "cycles", "c", 100, "Number of ticks to run.")
	simCmd.Flags().StringVar(&simDbPath, "dbPath", "", "Path to a SQLite database for telemetry logging (disabled if empty).")
	simCmd.Flags().IntVar(&simWidth, "width", defaults.Width, "Grid width.")
	simCmd.Flags().IntVar(&simHeight, "height", defaults.Height, "Grid height.")
	simCmd.Flags().StringVar(&simMask, "mask", defaults.Mask, "Preset id to start from.")
	simCmd.Flags().Float64Var(&simBalance, "balance", math.NaN(), "Balance target in [-1,1] (unset leaves balancing off).")
	simCmd.Flags().StringVar(&simBalanceMode, "balanceMode", defaults.BalanceMode, "Balance mode: 'none', 'weight', or 'synapse_count'.")
	simCmd.Flags().IntVar(&simRule, "rule", defaults.Rule, "Wolfram rule override (0-255; 0 keeps the preset's own rule).")
	simCmd.Flags().IntVar(&simFPS, "fps", defaults.FPS, "Autoplay frames per second (unused in sim mode's own loop, kept for config symmetry).")
	simCmd.Flags().IntVar(&simStepsPerTick, "stepsPerTick", defaults.StepsPerTick, "Engine steps per autoplay tick (unused in sim mode's own loop, kept for config symmetry).")
}
