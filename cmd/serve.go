package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"daemonfield/cli"
	"daemonfield/config"
)

var (
	serveAddr           string
	serveDbPath         string
	serveAllowedOrigins string
	serveWidth          int
	serveHeight         int
	serveMask           string
	serveBalance        float64
	serveBalanceMode    string
	serveRule           int
	serveFPS            int
	serveStepsPerTick   int
)

// serveCmd runs the HTTP API: health/experiments catalogue and session
// action dispatch/frame polling.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server.",
	Long: `Serves the health, experiment-catalogue, and session endpoints
described by the frontend contract: session creation, synchronous action
dispatch, and long-polled autoplay frames.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg := &config.AppConfig{
			Session: config.DefaultSessionConfig(),
			Cli: config.CLIConfig{
				Mode:           config.ModeServe,
				Seed:           seed,
				ServeAddr:      serveAddr,
				DbPath:         serveDbPath,
				AllowedOrigins: serveAllowedOrigins,
			},
		}
		appCfg.Session.Width = serveWidth
		appCfg.Session.Height = serveHeight
		appCfg.Session.Mask = serveMask
		appCfg.Session.BalanceMode = serveBalanceMode
		appCfg.Session.Rule = serveRule
		appCfg.Session.FPS = serveFPS
		appCfg.Session.StepsPerTick = serveStepsPerTick
		if !math.IsNaN(serveBalance) {
			b := serveBalance
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
		if cmd.Flags().Changed("addr") {
			appCfg.Cli.ServeAddr = serveAddr
		}
		if cmd.Flags().Changed("dbPath") {
			appCfg.Cli.DbPath = serveDbPath
		}
		if cmd.Flags().Changed("allowedOrigins") {
			appCfg.Cli.AllowedOrigins = serveAllowedOrigins
		}
		if cmd.Flags().Changed("width") {
			appCfg.Session.Width = serveWidth
		}
		if cmd.Flags().Changed("height") {
			appCfg.Session.Height = serveHeight
		}
		if cmd.Flags().Changed("mask") {
			appCfg.Session.Mask = serveMask
		}
		if cmd.Flags().Changed("balanceMode") {
			appCfg.Session.BalanceMode = serveBalanceMode
		}
		if cmd.Flags().Changed("rule") {
			appCfg.Session.Rule = serveRule
		}
		if cmd.Flags().Changed("fps") {
			appCfg.Session.FPS = serveFPS
		}
		if cmd.Flags().Changed("stepsPerTick") {
			appCfg.Session.StepsPerTick = serveStepsPerTick
		}
		if cmd.Flags().Changed("balance") {
			b := serveBalance
			appCfg.Session.Balance = &b
		}

		if err := appCfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration for mode serve: %w", err)
		}

		return cli.NewOrchestrator(appCfg).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	defaults := config.DefaultSessionConfig()
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on.")
	serveCmd.Flags().StringVar(&serveDbPath, "dbPath", "daemonfield.db", "Path to the SQLite database used for telemetry logging (disabled if empty).")
	serveCmd.Flags().StringVar(&serveAllowedOrigins, "allowedOrigins", "*", "Comma-separated frontend origins permitted by CORS ('*' permits any).")
	serveCmd.Flags().IntVar(&serveWidth, "width", defaults.Width, "Default grid width for new sessions.")
	serveCmd.Flags().IntVar(&serveHeight, "height", defaults.Height, "Default grid height for new sessions.")
	serveCmd.Flags().StringVar(&serveMask, "mask", defaults.Mask, "Default preset id for new sessions.")
	serveCmd.Flags().Float64Var(&serveBalance, "balance", math.NaN(), "Default balance target in [-1,1] (unset leaves balancing off).")
	serveCmd.Flags().StringVar(&serveBalanceMode, "balanceMode", defaults.BalanceMode, "Default balance mode: 'none', 'weight', or 'synapse_count'.")
	serveCmd.Flags().IntVar(&serveRule, "rule", defaults.Rule, "Default Wolfram rule override (0-255; 0 keeps the preset's own rule).")
	serveCmd.Flags().IntVar(&serveFPS, "fps", defaults.FPS, "Default autoplay frames per second.")
	serveCmd.Flags().IntVar(&serveStepsPerTick, "stepsPerTick", defaults.StepsPerTick, "Default engine steps per autoplay tick.")
}
