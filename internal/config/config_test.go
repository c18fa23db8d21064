package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("default provider = %q, want %q", cfg.Provider, ProviderAnthropic)
	}
	if cfg.Quality != QualityNormal {
		t.Errorf("default quality = %q, want %q", cfg.Quality, QualityNormal)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.DatabasePath != "repoflow.db" {
		t.Errorf("default database path = %q", cfg.Server.DatabasePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.repoflow.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.Quality = QualityMax
	original.RequestsPerMinute = 12
	original.Server.Port = 9191
	original.Server.DatabasePath = "flows.db"
	original.Server.AllowAllOrigins = true

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Quality != original.Quality {
		t.Errorf("quality: got %q, want %q", loaded.Quality, original.Quality)
	}
	if loaded.RequestsPerMinute != original.RequestsPerMinute {
		t.Errorf("requests_per_minute: got %d, want %d", loaded.RequestsPerMinute, original.RequestsPerMinute)
	}
	if loaded.Server.Port != original.Server.Port {
		t.Errorf("server.port: got %d, want %d", loaded.Server.Port, original.Server.Port)
	}
	if loaded.Server.DatabasePath != original.Server.DatabasePath {
		t.Errorf("server.database_path: got %q, want %q", loaded.Server.DatabasePath, original.Server.DatabasePath)
	}
	if !loaded.Server.AllowAllOrigins {
		t.Error("server.allow_all_origins lost in round-trip")
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yml")

	// A missing file yields defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("REPOFLOW_PROVIDER", "openai")
	t.Setenv("REPOFLOW_SERVER__PORT", "9090")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("provider override failed: got %q, want %q", loaded.Provider, ProviderOpenAI)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("nested override failed: got port %d, want 9090", loaded.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"unknown provider", func(c *Config) { c.Provider = "watson" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"unknown quality", func(c *Config) { c.Quality = "ultra" }},
		{"negative rpm", func(c *Config) { c.RequestsPerMinute = -1 }},
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"huge port", func(c *Config) { c.Server.Port = 70000 }},
		{"empty database path", func(c *Config) { c.Server.DatabasePath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestModelFor(t *testing.T) {
	if m := ModelFor(ProviderAnthropic, QualityLite); m != "claude-haiku-4-5-20251001" {
		t.Errorf("anthropic lite = %q", m)
	}
	if m := ModelFor(ProviderOpenAI, QualityMax); m != "gpt-4" {
		t.Errorf("openai max = %q", m)
	}

	// Unknown combination falls back.
	if m := ModelFor("unknown", QualityLite); m != "claude-sonnet-4-5-20250929" {
		t.Errorf("fallback = %q", m)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		if got := APIKeyEnvVar(tt.provider); got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"8080", false},
		{"1", false},
		{"65535", false},
		{"0", true},
		{"70000", true},
		{"http", true},
		{"", true},
	}
	for _, tt := range tests {
		err := validatePort(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("validatePort(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
