package embedding

import (
	"context"
	"fmt"

	"github.com/mkerr/librarian/internal/openai"
)

// OpenAIProvider generates embeddings using the OpenAI embeddings API.
//
// The vector dimensionality is learned from the first response and enforced
// on every subsequent call, so a mid-run model change cannot silently mix
// vector spaces.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	dimensions int
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithModel sets the embedding model.
func WithModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.model = model
	}
}

// WithDimensions sets the expected vector dimensions up front.
func WithDimensions(dims int) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.dimensions = dims
	}
}

// NewOpenAIProvider creates a new OpenAI embedding provider.
func NewOpenAIProvider(client *openai.Client, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		client: client,
		model:  openai.DefaultEmbeddingModel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Embed generates an embedding for the given text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	vector, err := p.client.CreateEmbedding(ctx, p.model, text)
	if err != nil {
		return Embedding{}, err
	}

	if p.dimensions == 0 {
		p.dimensions = len(vector)
	}
	if len(vector) != p.dimensions {
		return Embedding{}, fmt.Errorf("unexpected embedding dimensions: got %d, want %d", len(vector), p.dimensions)
	}

	return Embedding{Vector: vector}, nil
}

// ModelName returns the name of the embedding model.
func (p *OpenAIProvider) ModelName() string {
	return p.model
}

// Dimensions returns the vector dimensions, or 0 before the first call.
func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}
