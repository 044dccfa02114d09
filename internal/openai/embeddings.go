package openai

import (
	"context"
	"fmt"
)

// embeddingRequest is the request body for the embeddings endpoint.
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embeddingResponse is the embeddings endpoint response.
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// CreateEmbedding returns the embedding vector for the given input text.
func (c *Client) CreateEmbedding(ctx context.Context, model, input string) ([]float32, error) {
	req := embeddingRequest{Model: model, Input: input}

	var resp embeddingResponse
	if err := c.postJSON(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ErrInvalidResponse)
	}

	return resp.Data[0].Embedding, nil
}
