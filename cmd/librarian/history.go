package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkerr/librarian/internal/config"
	"github.com/mkerr/librarian/internal/history"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "Maximum number of entries")
}

// HistoryResponse is the response for the history command.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Total   int             `json:"total"`
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded recommendations",
	Long:  `List recommendations previously accepted in recommend sessions, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	db, err := history.Open(cfg.HistoryDB)
	if err != nil {
		exitWithError(ExitError, "opening history: %v", err)
	}
	defer db.Close()

	entries, err := db.List(historyLimit)
	if err != nil {
		exitWithError(ExitError, "listing history: %v", err)
	}

	if humanOutput {
		if len(entries) == 0 {
			fmt.Println("No recommendations recorded yet.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Title)
			fmt.Printf("   query: %s\n", e.Query)
			if len(e.Reasons) > 0 {
				fmt.Printf("   reasons: %s\n", strings.Join(e.Reasons, "; "))
			}
			fmt.Println()
		}
		return nil
	}

	return outputJSON(HistoryResponse{Entries: entries, Total: len(entries)})
}
