// Package config resolves runtime configuration from the environment, with
// optional .env file loading for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the CLI needs to assemble a pipeline.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string
	// DocsDir is the root directory of the document corpus.
	DocsDir string
	// DocGlob selects files under DocsDir (doublestar pattern).
	DocGlob string
	// SynonymsPath is an optional YAML file of synonym groups.
	SynonymsPath string
	// ProjectID scopes runs, terms, and issues.
	ProjectID string
	// GeminiAPIKey authenticates the LM client.
	GeminiAPIKey string
	// Model is the generative model name.
	Model string
	// ReviewBatchSize is the number of terms per review batch.
	ReviewBatchSize int
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first if present; real environment variables win.
func Load() (*Config, error) {
	// Ignore a missing .env; it is a local-development convenience.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:       envOr("GLOSS_DB_PATH", "gloss.db"),
		DocsDir:      envOr("GLOSS_DOCS_DIR", "."),
		DocGlob:      os.Getenv("GLOSS_DOC_GLOB"),
		SynonymsPath: os.Getenv("GLOSS_SYNONYMS"),
		ProjectID:    envOr("GLOSS_PROJECT", "default"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Model:        os.Getenv("GLOSS_MODEL"),
	}

	batch := envOr("GLOSS_REVIEW_BATCH", "10")
	n, err := strconv.Atoi(batch)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("config: GLOSS_REVIEW_BATCH must be a positive integer, got %q", batch)
	}
	cfg.ReviewBatchSize = n

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
