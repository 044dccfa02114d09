// Package main provides the librarian CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "librarian",
	Short: "Retrieval-grounded book recommendations",
	Long: `librarian recommends books from a local JSONL catalog.

Summaries are indexed in an embedded vector collection and retrieved by
semantic similarity; a hosted model turns the retrieved context into a
single structured recommendation through a forced tool call.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
