package config

// qualityPresets maps each provider+quality combination to a model choice.
var qualityPresets = map[ProviderType]map[QualityTier]string{
	ProviderAnthropic: {
		QualityLite:   "claude-haiku-4-5-20251001",
		QualityNormal: "claude-sonnet-4-5-20250929",
		QualityMax:    "claude-opus-4-1-20250805",
	},
	ProviderOpenAI: {
		QualityLite:   "gpt-4o-mini",
		QualityNormal: "gpt-4o",
		QualityMax:    "gpt-4",
	},
	ProviderOllama: {
		QualityLite:   "llama3",
		QualityNormal: "llama3",
		QualityMax:    "llama3:70b",
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderAnthropic,
		Model:             "claude-sonnet-4-5-20250929",
		Quality:           QualityNormal,
		EmbeddingModel:    "text-embedding-3-small",
		RequestsPerMinute: 30,
		Server: ServerConfig{
			Port:            8080,
			DatabasePath:    "repoflow.db",
			AllowAllOrigins: false,
		},
	}
}

// ModelFor returns the preset model for the given provider and tier.
// Unknown combinations fall back to the normal Anthropic preset.
func ModelFor(provider ProviderType, tier QualityTier) string {
	if tiers, ok := qualityPresets[provider]; ok {
		if model, ok := tiers[tier]; ok {
			return model
		}
	}
	return qualityPresets[ProviderAnthropic][QualityNormal]
}
