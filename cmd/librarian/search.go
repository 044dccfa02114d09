package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mkerr/librarian/internal/catalog"
	"github.com/mkerr/librarian/internal/config"
	"github.com/mkerr/librarian/internal/embedding"
	"github.com/mkerr/librarian/internal/index"
	"github.com/mkerr/librarian/internal/openai"
)

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Maximum number of results (default from config)")
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []index.Result `json:"results"`
	Total   int            `json:"total"`
	Model   string         `json:"model"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog by semantic similarity",
	Long: `Search the catalog by semantic similarity.

Embeds the query with the same model used at ingestion and returns the
nearest book summaries, without involving the recommendation model.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_ = godotenv.Load()

	query := strings.TrimSpace(args[0])
	if query == "" {
		exitWithError(ExitError, "search query cannot be empty")
	}

	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	key, err := config.PrimaryKey()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		exitWithError(ExitDataError, "loading catalog: %v", err)
	}

	client := openai.NewClient(openai.WithAPIKey(config.IndexKey(key)))
	provider := embedding.NewOpenAIProvider(client, embedding.WithModel(cfg.EmbeddingModel))

	idx, err := index.New(provider, cfg.Collection)
	if err != nil {
		exitWithError(ExitError, "creating index: %v", err)
	}
	if err := idx.UpsertAll(ctx, cat); err != nil {
		exitWithError(ExitError, "ingesting catalog: %v", err)
	}

	limit := cfg.TopK
	if searchLimit > 0 {
		limit = searchLimit
	}

	results, err := idx.Search(ctx, query, limit)
	if err != nil {
		exitWithError(ExitError, "searching index: %v", err)
	}

	if humanOutput {
		fmt.Printf("Search: %q\n", query)
		fmt.Printf("Found %d books\n\n", len(results))
		for i, r := range results {
			fmt.Printf("%d. [%.2f] %s\n", i+1, r.Similarity, r.Title)
			fmt.Printf("   %s\n\n", truncateString(r.Summary, SearchSummaryMaxLen))
		}
		return nil
	}

	return outputJSON(SearchResponse{
		Query:   query,
		Results: results,
		Total:   len(results),
		Model:   provider.ModelName(),
	})
}
