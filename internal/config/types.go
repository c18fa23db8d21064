package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// QualityTier trades speed and cost against narrative quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// Config is the top-level repoflow configuration, corresponding to .repoflow.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	Quality           QualityTier  `yaml:"quality" koanf:"quality"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Server            ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	Port            int    `yaml:"port" koanf:"port"`
	DatabasePath    string `yaml:"database_path" koanf:"database_path"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
