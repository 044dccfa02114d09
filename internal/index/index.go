// Package index adapts the book catalog to an embedded vector collection.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/mkerr/librarian/internal/catalog"
	"github.com/mkerr/librarian/internal/embedding"
)

// Result is a single retrieval hit, ordered by descending similarity.
type Result struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Themes     []string `json:"themes,omitempty"`
	Similarity float32  `json:"similarity"`
}

// Index stores one embedded document per catalog title.
//
// Re-ingesting an already-present title overwrites the stored document,
// matching the catalog loader's last-write-wins rule.
type Index struct {
	collection *chromem.Collection
}

// New creates an in-memory collection whose embedding function delegates to
// the provider, so ingestion and queries share one vector space.
func New(provider embedding.Provider, collectionName string) (*Index, error) {
	db := chromem.NewDB()

	embedFunc := chromem.EmbeddingFunc(func(ctx context.Context, text string) ([]float32, error) {
		emb, err := provider.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		return emb.Vector, nil
	})

	collection, err := db.CreateCollection(collectionName, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	return &Index{collection: collection}, nil
}

// UpsertAll embeds every book summary and stores it keyed by title, with
// the summary as document content and the themes as metadata.
func (idx *Index) UpsertAll(ctx context.Context, cat *catalog.Catalog) error {
	for _, book := range cat.Books() {
		doc := chromem.Document{
			ID:      book.Title,
			Content: book.Summary,
			Metadata: map[string]string{
				"title":  book.Title,
				"themes": strings.Join(book.Themes, ", "),
			},
		}
		if err := idx.collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("indexing %q: %w", book.Title, err)
		}
	}
	return nil
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return idx.collection.Count()
}

// Search embeds the query with the same provider used at ingestion and
// returns up to topK hits ordered by descending similarity. topK below 1 is
// raised to 1; above the collection size it is clamped. An empty collection
// returns an empty result rather than an error.
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	count := idx.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK < 1 {
		topK = 1
	}
	if topK > count {
		topK = count
	}

	hits, err := idx.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			Title:      hit.ID,
			Summary:    hit.Content,
			Themes:     splitThemes(hit.Metadata["themes"]),
			Similarity: hit.Similarity,
		}
	}
	return results, nil
}

func splitThemes(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ", ")
}
