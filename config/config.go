// Package config provides types and functions for managing application
// configuration: session defaults, CLI/runtime knobs, TOML overrides, and
// the process-global PRNG. It mirrors the daemonfield CLI's AppConfig{
// Session, Cli} split: session defaults feed new sessions, CLI knobs govern
// the process itself.
package config

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"daemonfield/presets"
	"daemonfield/session"
)

// Operation modes for the daemonfield binary.
const (
	ModeServe   = "serve"
	ModeSim     = "sim"
	ModePresets = "presets"
	ModeLogUtil = "logutil"
)

// SupportedModes lists every valid CLIConfig.Mode value.
var SupportedModes = []string{ModeServe, ModeSim, ModePresets, ModeLogUtil}

// DefaultSessionConfig returns the configuration knobs a fresh session starts
// with absent any CLI flag, TOML file, or per-request override.
func DefaultSessionConfig() session.Config {
	return session.Config{
		Width:        40,
		Height:       40,
		Mask:         "simple",
		Balance:      nil,
		BalanceMode:  "none",
		Rule:         0,
		FPS:          10,
		StepsPerTick: 1,
	}
}

// CLIConfig holds the process-level knobs that are not themselves part of a
// session's configuration: which mode to run in, where to serve from, where
// to log to, and the seed for the process-global PRNG.
type CLIConfig struct {
	Mode       string
	Seed       int64
	ConfigFile string
	ServeAddr  string
	DbPath     string

	// AllowedOrigins is a comma-separated list of frontend origins permitted
	// by the CORS middleware in mode 'serve'; "*" permits any origin.
	AllowedOrigins string

	// SimCycles is only consulted when Mode == ModeSim: how many ticks to
	// run before printing the final frame and exiting.
	SimCycles int

	// PresetsOutput is only consulted when Mode == ModePresets: a file path
	// to write the catalogue JSON to, or "" for stdout.
	PresetsOutput string

	// LogUtil* are only consulted when Mode == ModeLogUtil.
	LogUtilSubcommand string
	LogUtilDbPath     string
	LogUtilTable      string
	LogUtilFormat     string
	LogUtilOutput     string
}

// AppConfig is the fully resolved configuration for one process run: the
// session defaults new sessions are started with, the CLI/runtime knobs, and
// the process-global PRNG seeded from Cli.Seed.
type AppConfig struct {
	Session session.Config
	Cli     CLIConfig

	rng *rand.Rand
}

// Rand returns the process-global PRNG, seeding it from Cli.Seed on first
// use (a zero seed is replaced with the current time, as for benchmarks
// against the live clock rather than a fixed run).
func (ac *AppConfig) Rand() *rand.Rand {
	if ac.rng == nil {
		ac.rng = NewRand(ac.Cli.Seed)
	}
	return ac.rng
}

// NewRand builds the process-global PRNG for a given seed; seed == 0 is
// replaced with the current time so unseeded runs still vary.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// LoadCLIConfig populates CLIConfig and the session default knobs by parsing
// flags from args using the given FlagSet. args should not include the
// program name; ginkgo/go-test flags present in args (e.g. when the caller
// is itself under `go test`) are filtered out before parsing so they don't
// collide with daemonfield's own flag names.
func LoadCLIConfig(fSet *flag.FlagSet, args []string) (CLIConfig, session.Config, error) {
	cli := CLIConfig{}
	sess := DefaultSessionConfig()

	fSet.StringVar(&cli.Mode, "mode", ModeServe, fmt.Sprintf("Operation mode: '%s', '%s', '%s', or '%s'.", ModeServe, ModeSim, ModePresets, ModeLogUtil))
	fSet.Int64Var(&cli.Seed, "seed", 0, "Seed for the process-global random number generator (0 uses current time).")
	fSet.StringVar(&cli.ConfigFile, "configFile", "", "Path to a TOML file overriding session defaults.")
	fSet.StringVar(&cli.ServeAddr, "addr", ":8080", "Address to listen on for mode 'serve'.")
	fSet.StringVar(&cli.DbPath, "dbPath", "daemonfield.db", "Path to the SQLite database used for telemetry logging.")
	fSet.StringVar(&cli.AllowedOrigins, "allowedOrigins", "*", "Comma-separated frontend origins permitted by CORS in mode 'serve' ('*' permits any).")
	fSet.IntVar(&cli.SimCycles, "cycles", 100, "Number of ticks to run in mode 'sim'.")
	fSet.StringVar(&cli.PresetsOutput, "presetsOutput", "", "File to write the preset catalogue JSON to in mode 'presets' (stdout if empty).")

	fSet.IntVar(&sess.Width, "width", sess.Width, "Grid width for new sessions.")
	fSet.IntVar(&sess.Height, "height", sess.Height, "Grid height for new sessions.")
	fSet.StringVar(&sess.Mask, "mask", sess.Mask, "Default preset id for new sessions.")
	fSet.StringVar(&sess.BalanceMode, "balanceMode", sess.BalanceMode, "Default balance mode: 'none', 'weight', or 'synapse_count'.")
	fSet.IntVar(&sess.Rule, "rule", sess.Rule, "Wolfram rule override (0-255; 0 keeps the preset's own rule).")
	fSet.IntVar(&sess.FPS, "fps", sess.FPS, "Default autoplay frames per second.")
	fSet.IntVar(&sess.StepsPerTick, "stepsPerTick", sess.StepsPerTick, "Default engine steps per autoplay tick.")
	balance := fSet.Float64("balance", math.NaN(), "Default balance target in [-1,1] (unset leaves balancing off).")

	fSet.StringVar(&cli.LogUtilSubcommand, "logutil.subcommand", "export", "Log utility subcommand (e.g., 'export').")
	fSet.StringVar(&cli.LogUtilDbPath, "logutil.dbPath", "", "Path to the SQLite DB for mode 'logutil'.")
	fSet.StringVar(&cli.LogUtilTable, "logutil.table", "", "Table to process in mode 'logutil'.")
	fSet.StringVar(&cli.LogUtilFormat, "logutil.format", "csv", "Output format for logutil export.")
	fSet.StringVar(&cli.LogUtilOutput, "logutil.output", "", "Output file for logutil export (stdout if empty).")

	var filtered []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-ginkgo.") && !strings.HasPrefix(arg, "-test.") {
			filtered = append(filtered, arg)
		}
	}

	if err := fSet.Parse(filtered); err != nil {
		return cli, sess, fmt.Errorf("error parsing flags: %w", err)
	}

	if cli.Seed == 0 {
		cli.Seed = time.Now().UnixNano()
	}
	if !math.IsNaN(*balance) {
		b := *balance
		sess.Balance = &b
	}
	if cli.DbPath != "" {
		cli.DbPath = filepath.Clean(cli.DbPath)
	}
	if cli.LogUtilDbPath != "" {
		cli.LogUtilDbPath = filepath.Clean(cli.LogUtilDbPath)
	}

	return cli, sess, nil
}

// NewAppConfig builds an AppConfig from command-line style arguments: it
// loads session defaults and CLI knobs via LoadCLIConfig, overlays a TOML
// file if -configFile was given, and validates the result.
func NewAppConfig(args []string) (*AppConfig, error) {
	cli, sess, err := LoadCLIConfig(flag.NewFlagSet("daemonfield", flag.ContinueOnError), args)
	if err != nil {
		return nil, fmt.Errorf("failed to load CLI config: %w", err)
	}

	ac := &AppConfig{Session: sess, Cli: cli}
	if cli.ConfigFile != "" {
		if err := ac.LoadFromFile(cli.ConfigFile); err != nil {
			return nil, fmt.Errorf("failed to load config file '%s': %w", cli.ConfigFile, err)
		}
	}
	if err := ac.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return ac, nil
}

// LoadFromFile overlays session defaults from a TOML file onto ac.Session,
// matched by Go field name like the rest of the package (no struct tags),
// e.g.:
//
//	Width = 80
//	Height = 60
//	Mask = "wide_hat"
//	BalanceMode = "weight"
//
// Fields absent from the file are left at their current value, so callers
// typically build ac.Session from flag defaults first and decode on top.
func (ac *AppConfig) LoadFromFile(path string) error {
	if _, err := toml.DecodeFile(path, &ac.Session); err != nil {
		return err
	}
	return nil
}

// Validate checks AppConfig for internally consistent, in-range values.
func (ac *AppConfig) Validate() error {
	modeValid := false
	for _, m := range SupportedModes {
		if ac.Cli.Mode == m {
			modeValid = true
			break
		}
	}
	if !modeValid {
		return fmt.Errorf("invalid mode '%s', supported modes are %v", ac.Cli.Mode, SupportedModes)
	}

	s := ac.Session
	if s.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", s.Width)
	}
	if s.Height <= 0 {
		return fmt.Errorf("height must be positive, got %d", s.Height)
	}
	if _, ok := presets.Get(s.Mask); !ok {
		return fmt.Errorf("unknown mask preset '%s'", s.Mask)
	}
	if s.Rule < 0 || s.Rule > 255 {
		return fmt.Errorf("rule must be between 0 and 255, got %d", s.Rule)
	}
	if s.FPS < 1 {
		return fmt.Errorf("fps must be at least 1, got %d", s.FPS)
	}
	if s.StepsPerTick < 1 {
		return fmt.Errorf("stepsPerTick must be at least 1, got %d", s.StepsPerTick)
	}
	switch s.BalanceMode {
	case "none", "weight", "synapse_count":
	default:
		return fmt.Errorf("invalid balanceMode '%s', must be one of 'none', 'weight', 'synapse_count'", s.BalanceMode)
	}
	if s.Balance != nil && (*s.Balance < -1.0 || *s.Balance > 1.0) {
		return fmt.Errorf("balance must be between -1.0 and 1.0, got %f", *s.Balance)
	}

	switch ac.Cli.Mode {
	case ModeServe:
		if ac.Cli.ServeAddr == "" {
			return fmt.Errorf("addr must be specified for mode '%s'", ModeServe)
		}
	case ModeSim:
		if ac.Cli.SimCycles < 1 {
			return fmt.Errorf("cycles must be at least 1 for mode '%s', got %d", ModeSim, ac.Cli.SimCycles)
		}
	case ModeLogUtil:
		if ac.Cli.LogUtilDbPath == "" {
			return fmt.Errorf("logutil.dbPath must be specified for mode '%s'", ModeLogUtil)
		}
		switch ac.Cli.LogUtilFormat {
		case "csv", "json":
		default:
			return fmt.Errorf("invalid logutil.format '%s', must be 'csv' or 'json'", ac.Cli.LogUtilFormat)
		}
	}

	return nil
}
