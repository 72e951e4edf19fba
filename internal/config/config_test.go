package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"missing redis addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"unknown strategy", func(c *Config) { c.Ranking.Strategy = "bm25" }, "ranking.strategy"},
		{"unknown reference", func(c *Config) { c.Ranking.TFIDF.Reference = "all" }, "ranking.tfidf.reference"},
		{"unknown analyzer", func(c *Config) { c.Ranking.TFIDF.Analyzer = "french" }, "ranking.tfidf.analyzer"},
		{"dpi too low", func(c *Config) { c.Ranking.OCR.DPI = 10 }, "ranking.ocr.dpi"},
		{"provider missing", func(c *Config) { c.Embedding.Vectorizer.Provider = "nebius" }, "no entry"},
		{"provider without key", func(c *Config) {
			c.Embedding.Vectorizer.Provider = "openai"
			c.Embedding.Vectorizer.Model = "text-embedding-3-small"
			c.Embedding.Providers = map[string]ProviderConfig{"openai": {}}
		}, "api_key"},
		{"provider without model", func(c *Config) {
			c.Embedding.Vectorizer.Provider = "openai"
			c.Embedding.Providers = map[string]ProviderConfig{"openai": {APIKey: "sk-test"}}
		}, "model"},
		{"negative dimensions", func(c *Config) { c.Embedding.Vectorizer.Dimensions = -1 }, "dimensions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_OpenAIProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Providers = map[string]ProviderConfig{"openai": {APIKey: "sk-test"}}
	cfg.Embedding.Vectorizer = VectorizerConfig{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 || cfg.HTTP.WriteTimeoutSec != 120 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("unexpected http defaults: %+v", cfg.HTTP)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Embedding.Vectorizer.Provider != MockProvider {
		t.Errorf("expected mock provider, got %q", cfg.Embedding.Vectorizer.Provider)
	}
	if cfg.Ranking.Strategy != "tfidf" || cfg.Ranking.TFIDF.Reference != "corpus" || cfg.Ranking.TFIDF.Analyzer != "standard" {
		t.Errorf("unexpected ranking defaults: %+v", cfg.Ranking)
	}
	if cfg.Ranking.Workers <= 0 || cfg.Ranking.ExtractionTimeoutSec != 60 || cfg.Ranking.MaxDocuments != 500 {
		t.Errorf("unexpected ranking limits: %+v", cfg.Ranking)
	}
	if cfg.Ranking.OCR.DPI != 200 || cfg.Ranking.OCR.Language != "eng" || !cfg.Ranking.OCR.IsEnabled() {
		t.Errorf("unexpected ocr defaults: %+v", cfg.Ranking.OCR)
	}
	if cfg.Storage.KeyPrefix != "resumerank:" {
		t.Errorf("expected KeyPrefix='resumerank:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Postgres.Enabled() {
		t.Error("postgres must be disabled without a DSN")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	disabled := false
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 5, WriteTimeoutSec: 60, ShutdownSec: 5},
		Ranking: RankingConfig{Strategy: "embedding", Workers: 2, OCR: OCRConfig{Enabled: &disabled, DPI: 300}},
		Storage: StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 5 || cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("http overridden: %+v", cfg.HTTP)
	}
	if cfg.Ranking.Strategy != "embedding" || cfg.Ranking.Workers != 2 || cfg.Ranking.OCR.DPI != 300 {
		t.Errorf("ranking overridden: %+v", cfg.Ranking)
	}
	if cfg.Ranking.OCR.IsEnabled() {
		t.Error("explicitly disabled OCR must stay disabled")
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RR_TEST_SET", "value")
	got := string(expandEnvVars([]byte("a=${RR_TEST_SET} b=${RR_TEST_UNSET:-fallback} c=${RR_TEST_UNSET}")))
	if got != "a=value b=fallback c=" {
		t.Errorf("unexpected expansion %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("RR_TEST_PORT", "9090")
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := `
http:
  port: ${RR_TEST_PORT}
database:
  addrs: ["redis:6379"]
ranking:
  strategy: embedding
  ocr:
    enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.Ranking.Strategy != "embedding" || cfg.Ranking.OCR.IsEnabled() {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	for _, v := range []string{"HTTP_PORT", "REDIS_ADDR", "EMBEDDING_PROVIDER", "RANKING_STRATEGY"} {
		t.Setenv(v, "")
	}
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port != 8080 || cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("unexpected local config: %+v", cfg)
	}
	if cfg.Embedding.Vectorizer.Provider != MockProvider {
		t.Errorf("local config should default to the mock embedder, got %q", cfg.Embedding.Vectorizer.Provider)
	}
}
