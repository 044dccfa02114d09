package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mkerr/librarian/internal/catalog"
	"github.com/mkerr/librarian/internal/config"
	"github.com/mkerr/librarian/internal/embedding"
	"github.com/mkerr/librarian/internal/history"
	"github.com/mkerr/librarian/internal/index"
	"github.com/mkerr/librarian/internal/media"
	"github.com/mkerr/librarian/internal/openai"
	"github.com/mkerr/librarian/internal/prompt"
	"github.com/mkerr/librarian/internal/recommend"
)

var (
	recommendQuery string
	recommendTopK  int
	noMedia        bool
)

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVarP(&recommendQuery, "query", "q", "", "Run a single turn with this query instead of prompting")
	recommendCmd.Flags().IntVarP(&recommendTopK, "top-k", "k", 0, "Number of retrieval results (default from config)")
	recommendCmd.Flags().BoolVar(&noMedia, "no-media", false, "Skip the image and audio prompts")
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a book for a free-text request",
	Long: `Recommend a book for a free-text request.

Loads the catalog, ingests it into the vector collection, then prompts for
queries in a loop. Each accepted recommendation can optionally be rendered
as a cover image and spoken audio, and is recorded in the history database.

Requires OPENAI_API_KEY in the environment or a .env file.`,
	Args: cobra.NoArgs,
	RunE: runRecommend,
}

// session holds the per-run pipeline pieces shared by every query turn.
type session struct {
	cfg         *config.Config
	cat         *catalog.Catalog
	idx         *index.Index
	recommender *recommend.Recommender
	gen         *media.Generator
	hist        *history.DB
	in          *bufio.Scanner
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	key, err := config.PrimaryKey()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if recommendTopK > 0 {
		cfg.TopK = recommendTopK
	}

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		exitWithError(ExitDataError, "loading catalog: %v", err)
	}
	if cat.Len() == 0 {
		exitWithError(ExitDataError, "catalog %s contains no books", cfg.Catalog)
	}
	fmt.Printf("[load] %d books\n", cat.Len())

	chatClient := openai.NewClient(openai.WithAPIKey(key))
	indexClient := chatClient
	if indexKey := config.IndexKey(key); indexKey != key {
		indexClient = openai.NewClient(openai.WithAPIKey(indexKey))
	}

	provider := embedding.NewOpenAIProvider(indexClient, embedding.WithModel(cfg.EmbeddingModel))
	idx, err := index.New(provider, cfg.Collection)
	if err != nil {
		exitWithError(ExitError, "creating index: %v", err)
	}
	if err := idx.UpsertAll(ctx, cat); err != nil {
		exitWithError(ExitError, "ingesting catalog: %v", err)
	}

	hist, err := history.Open(cfg.HistoryDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		hist = nil
	} else {
		defer hist.Close()
	}

	s := &session{
		cfg:         cfg,
		cat:         cat,
		idx:         idx,
		recommender: recommend.New(chatClient, cfg.ChatModel, cat),
		gen: media.NewGenerator(chatClient, cfg.MediaDir,
			media.WithImageModel(cfg.ImageModel),
			media.WithSpeechModel(cfg.SpeechModel),
			media.WithVoice(cfg.Voice)),
		hist: hist,
		in:   bufio.NewScanner(os.Stdin),
	}

	if query := strings.TrimSpace(recommendQuery); query != "" {
		s.turn(ctx, query)
		return nil
	}

	for {
		fmt.Print("\nTell me what you're interested in so I can recommend a book (empty line to quit):\n> ")
		if !s.in.Scan() {
			break
		}
		query := strings.TrimSpace(s.in.Text())
		if query == "" {
			break
		}
		s.turn(ctx, query)
	}
	return nil
}

// turn runs one full query turn. Errors terminate the turn, never the session.
func (s *session) turn(ctx context.Context, query string) {
	results, err := s.idx.Search(ctx, query, s.cfg.TopK)
	if err != nil {
		printTurnError(fmt.Errorf("searching index: %w", err))
		return
	}

	contextBlock := prompt.BuildContext(results)
	fmt.Printf("\nContext:\n---\n%s\n---\n", contextBlock)

	rec, err := s.recommender.Recommend(ctx, query, contextBlock)
	if err != nil {
		printTurnError(err)
		return
	}

	s.printRecommendation(rec)
	if rec.Status != recommend.StatusOK {
		return
	}

	if s.hist != nil {
		entry := history.Entry{Query: query, Title: rec.Title, Verbal: rec.Verbal, Reasons: rec.Reasons}
		if _, err := s.hist.Record(entry); err != nil {
			fmt.Fprintf(os.Stderr, "warning: recording history: %v\n", err)
		}
	}

	if noMedia {
		return
	}
	s.offerMedia(ctx, rec)
}

func (s *session) printRecommendation(rec recommend.Recommendation) {
	switch rec.Status {
	case recommend.StatusOK:
		text := rec.Verbal
		if text == "" {
			text = rec.Blurb
		}
		fmt.Printf("\nBot> %s\n", text)
		if book, ok := s.cat.Get(rec.Title); ok && book.Summary != "" {
			fmt.Printf("\n[Summary]\n%s\n", book.Summary)
		}
	case recommend.StatusRefuse:
		fmt.Println("\nBot> I can't help with that request.")
	}
}

// offerMedia asks the two yes/no media questions. Failures are reported and
// do not affect the recommendation or the history record.
func (s *session) offerMedia(ctx context.Context, rec recommend.Recommendation) {
	blurb := rec.Blurb
	if blurb == "" {
		if book, ok := s.cat.Get(rec.Title); ok {
			blurb = book.Summary
		}
	}

	if s.askYesNo("\nGenerate a cover-style image for this recommendation? (Y/N): ") {
		if path, err := s.gen.GenerateCover(ctx, rec.Title, blurb); err != nil {
			fmt.Fprintf(os.Stderr, "image generation failed: %v\n", err)
		} else {
			fmt.Printf("[image saved] %s\n", path)
		}
	}

	verbal := rec.Verbal
	if verbal == "" {
		verbal = blurb
	}
	if verbal == "" {
		verbal = "Recommendation: " + rec.Title
	}
	if s.askYesNo("Speak the recommendation as audio? (Y/N): ") {
		if path, err := s.gen.Speak(ctx, rec.Title, verbal); err != nil {
			fmt.Fprintf(os.Stderr, "audio generation failed: %v\n", err)
		} else {
			fmt.Printf("[audio saved] %s\n", path)
		}
	}
}

func (s *session) askYesNo(question string) bool {
	fmt.Print(question)
	if !s.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(s.in.Text()))
	return strings.HasPrefix(answer, "y")
}

// printTurnError prints a distinct message per error kind, without leaking
// raw transport errors unexplained.
func printTurnError(err error) {
	switch {
	case errors.Is(err, recommend.ErrUnresolvedTitle):
		fmt.Fprintf(os.Stderr, "error: the model picked a title outside the catalog: %v\n", err)
	case errors.Is(err, recommend.ErrSchemaViolation):
		fmt.Fprintf(os.Stderr, "error: the model's answer did not match the expected schema: %v\n", err)
	case openai.IsAuthError(err):
		fmt.Fprintf(os.Stderr, "error: authentication failed, check %s: %v\n", config.PrimaryKeyEnv, err)
	case openai.IsRateLimited(err):
		fmt.Fprintln(os.Stderr, "error: rate limited by the provider, try again shortly")
	default:
		fmt.Fprintf(os.Stderr, "error: recommendation request failed: %v\n", err)
	}
}
