package openai

import (
	"context"
	"encoding/base64"
	"fmt"
)

// imageRequest is the request body for the image generation endpoint.
type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
}

// imageResponse is the image generation response.
type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateImage requests a generated image and returns the decoded bytes.
func (c *Client) GenerateImage(ctx context.Context, model, prompt, size string) ([]byte, error) {
	req := imageRequest{Model: model, Prompt: prompt, Size: size}

	var resp imageResponse
	if err := c.postJSON(ctx, "/images/generations", req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: no image returned", ErrInvalidResponse)
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image data: %v", ErrInvalidResponse, err)
	}

	return img, nil
}

// speechRequest is the request body for the speech synthesis endpoint.
type speechRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}

// Speech synthesizes spoken audio for the input text and returns the raw
// audio bytes (MP3 by default).
func (c *Client) Speech(ctx context.Context, model, voice, input string) ([]byte, error) {
	req := speechRequest{Model: model, Voice: voice, Input: input}

	audio, err := c.postRaw(ctx, "/audio/speech", req)
	if err != nil {
		return nil, err
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio response", ErrInvalidResponse)
	}

	return audio, nil
}
