// Package media renders cover images and spoken audio for recommendations.
//
// Generation failures are the caller's to report; nothing here retries or
// touches the recommendation that triggered the request.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/mkerr/librarian/internal/openai"
)

const (
	// DefaultImageSize is the requested cover image size.
	DefaultImageSize = "1024x1024"

	// DefaultVoice is the speech synthesis voice.
	DefaultVoice = "alloy"

	// maxPromptSummaryLength limits how much of the blurb goes into the
	// image prompt.
	maxPromptSummaryLength = 800
)

// Generator writes generated artifacts under a fixed output directory,
// named deterministically from the recommended title.
type Generator struct {
	client      *openai.Client
	imageModel  string
	speechModel string
	voice       string
	outDir      string
}

// Option configures a Generator.
type Option func(*Generator)

// WithImageModel sets the image generation model.
func WithImageModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.imageModel = model
		}
	}
}

// WithSpeechModel sets the speech synthesis model.
func WithSpeechModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.speechModel = model
		}
	}
}

// WithVoice sets the speech synthesis voice.
func WithVoice(voice string) Option {
	return func(g *Generator) {
		if voice != "" {
			g.voice = voice
		}
	}
}

// NewGenerator creates a Generator writing under outDir.
func NewGenerator(client *openai.Client, outDir string, opts ...Option) *Generator {
	g := &Generator{
		client:      client,
		imageModel:  openai.DefaultImageModel,
		speechModel: openai.DefaultSpeechModel,
		voice:       DefaultVoice,
		outDir:      outDir,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateCover requests a cover-style illustration for the title and
// writes it to cover_<slug>.png. Returns the written path.
func (g *Generator) GenerateCover(ctx context.Context, title, blurb string) (string, error) {
	img, err := g.client.GenerateImage(ctx, g.imageModel, coverPrompt(title, blurb), DefaultImageSize)
	if err != nil {
		return "", fmt.Errorf("generating cover image: %w", err)
	}

	path := filepath.Join(g.outDir, "cover_"+Slug(title)+".png")
	if err := g.write(path, img); err != nil {
		return "", err
	}
	return path, nil
}

// Speak synthesizes the recommendation text as spoken audio and writes it
// to tts_<slug>.mp3. Returns the written path.
func (g *Generator) Speak(ctx context.Context, title, text string) (string, error) {
	audio, err := g.client.Speech(ctx, g.speechModel, g.voice, text)
	if err != nil {
		return "", fmt.Errorf("synthesizing audio: %w", err)
	}

	path := filepath.Join(g.outDir, "tts_"+Slug(title)+".mp3")
	if err := g.write(path, audio); err != nil {
		return "", err
	}
	return path, nil
}

func (g *Generator) write(path string, data []byte) error {
	if err := os.MkdirAll(g.outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func coverPrompt(title, blurb string) string {
	return fmt.Sprintf(
		"Book cover illustration for '%s'. Focus on the mood and main themes: %s. "+
			"No text overlay, cinematic lighting, high contrast, modern style.",
		title, truncateUTF8(blurb, maxPromptSummaryLength))
}

// truncateUTF8 safely truncates text to approximately maxLen bytes without
// splitting multi-byte UTF-8 characters.
func truncateUTF8(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}

	validLen := maxLen
	for validLen > 0 && !utf8.RuneStart(text[validLen]) {
		validLen--
	}
	return text[:validLen]
}
