package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// .repoflow.yml in the working directory and returns it.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to repoflow! Let's configure your project.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for flow descriptions",
		Items: []string{"anthropic", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   - fast & cheap (haiku / gpt-4o-mini)",
			"normal - balanced (sonnet / gpt-4o)",
			"max    - highest quality (opus / gpt-4)",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]

	// 3. API server port.
	portPrompt := promptui.Prompt{
		Label:    "Port for the repoflow serve API",
		Default:  "8080",
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	// 4. Database path.
	dbPrompt := promptui.Prompt{
		Label:   "SQLite database path",
		Default: "repoflow.db",
	}
	dbPath, err := dbPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}

	defaults := DefaultConfig()
	cfg := &Config{
		Provider:          provider,
		Model:             ModelFor(provider, quality),
		Quality:           quality,
		EmbeddingModel:    defaults.EmbeddingModel,
		RequestsPerMinute: defaults.RequestsPerMinute,
		Server: ServerConfig{
			Port:         port,
			DatabasePath: dbPath,
		},
	}

	// Point out missing keys before the first run trips over them.
	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: set %s in your environment before running repoflow analyze --describe.\n", envVar)
	}
	if provider != ProviderOpenAI && os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Println("Note: semantic search needs OPENAI_API_KEY for embeddings; without it the feature stays off.")
	}

	if err := cfg.Save(FileName); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", FileName)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
