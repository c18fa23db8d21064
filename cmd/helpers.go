package cmd

import (
	"fmt"
	"os"

	"github.com/repoflow/repoflow/internal/config"
	"github.com/repoflow/repoflow/internal/githost"
	"github.com/repoflow/repoflow/internal/llm"
	"github.com/repoflow/repoflow/internal/search"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `repoflow init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newHostClient creates a GitHub content client, picking up GITHUB_TOKEN
// for a higher rate limit when present.
func newHostClient() *githost.Client {
	return githost.NewClient(githost.Config{
		Token: os.Getenv("GITHUB_TOKEN"),
	})
}

// newLLMProvider creates the configured completion provider behind the
// client-side rate limiter.
func newLLMProvider(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}
	return provider, nil
}

// newSearchIndex builds the semantic node index when an OpenAI key is
// available. Without one it returns nil and the search feature stays off.
func newSearchIndex(cfg *config.Config) (*search.Index, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, nil
	}
	embedder := search.NewOpenAIEmbedder(apiKey, search.OpenAIModel(cfg.EmbeddingModel))
	return search.NewIndex(embedder)
}
