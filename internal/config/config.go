package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// MockProvider names the built-in deterministic embedder that needs no provider settings.
const MockProvider = "mock"

// Config holds the resumerank configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds static API keys for the HTTP API. No keys disables the check.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int `yaml:"max_body_bytes"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PostgresConfig holds result sink settings. An empty DSN disables persistence.
type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// Enabled reports whether rankings are persisted.
func (p PostgresConfig) Enabled() bool { return p.DSN != "" }

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Vectorizer VectorizerConfig          `yaml:"vectorizer"`
	// CacheTTLHours bounds the lifetime of cached text embeddings; 0 keeps them forever.
	CacheTTLHours int `yaml:"cache_ttl_hours"`
	MaxBatchSize  int `yaml:"max_batch_size"`
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	User    string `yaml:"user"`
}

// VectorizerConfig selects the embedding model.
type VectorizerConfig struct {
	Provider            string `yaml:"provider"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// RankingConfig holds ranking engine settings.
type RankingConfig struct {
	Strategy             string      `yaml:"strategy"` // tfidf (default) | embedding
	Workers              int         `yaml:"workers"`
	ExtractionTimeoutSec int         `yaml:"extraction_timeout_sec"`
	MaxDocuments         int         `yaml:"max_documents"`
	TFIDF                TFIDFConfig `yaml:"tfidf"`
	OCR                  OCRConfig   `yaml:"ocr"`
}

// TFIDFConfig holds statistical vectorizer settings.
type TFIDFConfig struct {
	Reference string `yaml:"reference"` // query | candidates | corpus (default)
	Analyzer  string `yaml:"analyzer"`  // standard (default) | english
}

// OCRConfig holds optical fallback settings.
type OCRConfig struct {
	Enabled  *bool  `yaml:"enabled"` // default true
	DPI      int    `yaml:"dpi"`
	Language string `yaml:"language"`
}

// IsEnabled reports whether the OCR fallback runs; unset means enabled.
func (o OCRConfig) IsEnabled() bool { return o.Enabled == nil || *o.Enabled }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Vectorizer.Provider == "" {
		c.Embedding.Vectorizer.Provider = MockProvider
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 100
	}
	if c.Ranking.Strategy == "" {
		c.Ranking.Strategy = "tfidf"
	}
	if c.Ranking.Workers <= 0 {
		c.Ranking.Workers = runtime.NumCPU()
	}
	if c.Ranking.ExtractionTimeoutSec <= 0 {
		c.Ranking.ExtractionTimeoutSec = 60
	}
	if c.Ranking.MaxDocuments <= 0 {
		c.Ranking.MaxDocuments = 500
	}
	if c.Ranking.TFIDF.Reference == "" {
		c.Ranking.TFIDF.Reference = "corpus"
	}
	if c.Ranking.TFIDF.Analyzer == "" {
		c.Ranking.TFIDF.Analyzer = "standard"
	}
	if c.Ranking.OCR.DPI <= 0 {
		c.Ranking.OCR.DPI = 200
	}
	if c.Ranking.OCR.Language == "" {
		c.Ranking.OCR.Language = "eng"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "resumerank:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Ranking.Strategy {
	case "tfidf", "embedding":
	default:
		return fmt.Errorf("ranking.strategy must be \"tfidf\" or \"embedding\", got %q", c.Ranking.Strategy)
	}
	switch c.Ranking.TFIDF.Reference {
	case "query", "candidates", "corpus":
	default:
		return fmt.Errorf(
			"ranking.tfidf.reference must be \"query\", \"candidates\" or \"corpus\", got %q",
			c.Ranking.TFIDF.Reference,
		)
	}
	switch c.Ranking.TFIDF.Analyzer {
	case "standard", "english":
	default:
		return fmt.Errorf("ranking.tfidf.analyzer must be \"standard\" or \"english\", got %q", c.Ranking.TFIDF.Analyzer)
	}
	if c.Ranking.OCR.DPI < 50 || c.Ranking.OCR.DPI > 1200 {
		return fmt.Errorf("ranking.ocr.dpi must be between 50 and 1200, got %d", c.Ranking.OCR.DPI)
	}

	vec := c.Embedding.Vectorizer
	if vec.Provider != MockProvider {
		p, ok := c.Embedding.Providers[vec.Provider]
		if !ok {
			return fmt.Errorf("embedding.vectorizer.provider %q has no entry in embedding.providers", vec.Provider)
		}
		if p.APIKey == "" {
			return fmt.Errorf("embedding.providers.%s.api_key is required", vec.Provider)
		}
		if vec.Model == "" {
			return fmt.Errorf("embedding.vectorizer.model is required for provider %q", vec.Provider)
		}
	}
	if vec.Dimensions < 0 {
		return fmt.Errorf("embedding.vectorizer.dimensions must not be negative, got %d", vec.Dimensions)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
