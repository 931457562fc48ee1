package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags shared by every subcommand.
	configFile string
	seed       int64
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "daemonfield",
	Short: "daemonfield: daemon-detection cellular automaton server and CLI",
	Long: `daemonfield runs mask-driven cellular automata (Wolfram elementary CA
and lateral-competition networks) and reports emergent "daemon" clusters.
Use 'daemonfield [command] --help' for details on a specific command.`,
}

// Execute adds all child commands to the root command and runs it. Called
// once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "configFile", "", "Path to a TOML file overriding session defaults.")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Seed for the process-global random number generator (0 uses current time).")
}
