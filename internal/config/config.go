// Package config loads the librarian configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is the config file looked up in the working directory.
	DefaultPath = "config.yaml"

	// PrimaryKeyEnv is the environment variable holding the provider API key.
	// A missing primary key is a fatal startup error.
	PrimaryKeyEnv = "OPENAI_API_KEY"

	// IndexKeyEnv optionally overrides the key used for embedding calls.
	// When unset, the primary key is used.
	IndexKeyEnv = "LIBRARIAN_INDEX_API_KEY"
)

// Config is the root application configuration.
type Config struct {
	Catalog        string `yaml:"catalog"`
	Collection     string `yaml:"collection"`
	TopK           int    `yaml:"top_k"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
	ImageModel     string `yaml:"image_model"`
	SpeechModel    string `yaml:"speech_model"`
	Voice          string `yaml:"voice"`
	MediaDir       string `yaml:"media_dir"`
	HistoryDB      string `yaml:"history_db"`
}

// Load reads the config from path. A missing file yields the defaults;
// a partial file has defaults applied to the fields it leaves out.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Catalog == "" {
		cfg.Catalog = "book_summaries.jsonl"
	}
	if cfg.Collection == "" {
		cfg.Collection = "book_summaries"
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 1
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4.1-nano"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gpt-image-1"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "gpt-4o-mini-tts"
	}
	if cfg.Voice == "" {
		cfg.Voice = "alloy"
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = "media"
	}
	if cfg.HistoryDB == "" {
		cfg.HistoryDB = "librarian.db"
	}
}

// PrimaryKey returns the provider API key from the environment.
func PrimaryKey() (string, error) {
	key := os.Getenv(PrimaryKeyEnv)
	if key == "" {
		return "", fmt.Errorf("missing %s (set it in the environment or a .env file)", PrimaryKeyEnv)
	}
	return key, nil
}

// IndexKey returns the key for embedding calls, falling back to the
// primary key when no dedicated index key is set.
func IndexKey(primary string) string {
	if key := os.Getenv(IndexKeyEnv); key != "" {
		return key
	}
	return primary
}
