package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nvote",
		Short: "N-version voting experiments",
		Long: `nvote generates synthetic answers for N-version software modules and
measures how well voting algorithms recover the correct answer.

A module holds versions placed in a diversity space. Versions close to each
other fail together; distant versions fail independently. Generated
experiments are stored in SQLite and can be voted on, compared, served over
HTTP or MCP, and archived to MongoDB.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("db", "", "Experiment database path (default: ~/.nvote/experiment.db)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.nvote/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newModuleCmd(),
		newVersionsCmd(),
		newGenerateCmd(),
		newExperimentsCmd(),
		newAlgorithmsCmd(),
		newVoteCmd(),
		newAnalyzeCmd(),
		newLeaderboardCmd(),
		newArchiveCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newConfigCmd(),
	)

	return rootCmd
}
