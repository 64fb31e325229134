// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/poiesic/stargaze/ai"
)

// Prefix starts every environment variable name.
const Prefix = "STARGAZE_"

// TokenFallback is read when STARGAZE_GITHUB_TOKEN is not set.
const TokenFallback = "GITHUB_TOKEN"

var (
	// ErrMissingToken is returned when no GitHub token is configured.
	ErrMissingToken = errors.New("GITHUB_TOKEN is not set")

	// ErrInvalidConfig is returned when a setting is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds settings for the stargaze tools.
type Config struct {
	GitHubToken string `envconfig:"STARGAZE_GITHUB_TOKEN"`
	GitHubAPI   string `envconfig:"STARGAZE_GITHUB_API" default:"https://api.github.com"`

	// DBPath defaults to ~/.config/stargaze/stars.db.
	DBPath string `envconfig:"STARGAZE_DB"`

	EmbeddingHost       string `envconfig:"STARGAZE_EMBEDDING_HOST" default:"http://localhost:11434/v1"`
	EmbeddingModel      string `envconfig:"STARGAZE_EMBEDDING_MODEL" default:"all-minilm:l6-v2"`
	EmbeddingAPIKey     string `envconfig:"STARGAZE_EMBEDDING_API_KEY"`
	EmbeddingDimensions int    `envconfig:"STARGAZE_EMBEDDING_DIMENSIONS" default:"384"`

	FetchConcurrency int `envconfig:"STARGAZE_FETCH_CONCURRENCY" default:"5"`
	// FetchRate is in requests per second. Zero disables pacing.
	FetchRate   float64       `envconfig:"STARGAZE_FETCH_RATE" default:"0"`
	HTTPTimeout time.Duration `envconfig:"STARGAZE_HTTP_TIMEOUT" default:"10s"`
}

// Load reads .env, if present, and then the environment.
func Load() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	// Tags carry full names; with no prefix envconfig reads exactly those.
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if _, ok := os.LookupEnv(Prefix + "GITHUB_TOKEN"); !ok {
		cfg.GitHubToken = os.Getenv(TokenFallback)
	}

	if cfg.DBPath == "" {
		path, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = path
	}
	cfg.DBPath = expandHome(cfg.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultDBPath returns ~/.config/stargaze/stars.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "stargaze", "stars.db"), nil
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("%w: fetch concurrency must be at least 1, got %d", ErrInvalidConfig, c.FetchConcurrency)
	}
	if c.FetchRate < 0 {
		return fmt.Errorf("%w: fetch rate must not be negative", ErrInvalidConfig)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http timeout must be positive", ErrInvalidConfig)
	}
	if c.EmbeddingDimensions < 0 {
		return fmt.Errorf("%w: embedding dimensions must not be negative", ErrInvalidConfig)
	}
	return nil
}

// RequireToken returns ErrMissingToken unless a GitHub token is set.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.GitHubToken) == "" {
		return ErrMissingToken
	}
	return nil
}

// AIConfig builds the embedding service configuration.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.EmbeddingHost),
		ai.WithEmbeddingModel(c.EmbeddingModel),
		ai.WithAPIKey(c.EmbeddingAPIKey),
		ai.WithDimensions(c.EmbeddingDimensions),
	)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
