package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adjutant",
	Short: "Work-request orchestration engine",
	Long: `Adjutant turns raw work requests into analyzed, confirmed, and executed
task plans.

Submitted requests become clarification items: an execution backend analyzes
each one, produces a structured summary, and raises clarifying questions.
Confirming a clarification spawns a feedback item, which is planned into a
task batch and executed bucket by bucket through the tool pool.

Core pieces:
- A polling scheduler that moves pending items through their lifecycles
- A prioritized tool pool (claude, gemini, direct API) with quota failover
- A task executor that runs backend and frontend buckets concurrently
- A SQLite store holding every item, task snapshot, and tool health record

Start the engine with 'adjutant serve', submit work with 'adjutant submit',
and watch it move with 'adjutant watch'.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
