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

// Config holds the urbansearch configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Search     SearchConfig     `yaml:"search"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Corpus drivers.
const (
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
	DriverPostgres = "postgres"
	DriverFile     = "file"
)

// CorpusConfig describes where destination records are read from.
type CorpusConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, postgres, file (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	DSN              string   `yaml:"dsn"`
	Path             string   `yaml:"path"`
	Watch            bool     `yaml:"watch"`
	RefreshSec       int      `yaml:"refresh_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Cache drivers for the embedding cache.
const (
	CacheNone   = "none"
	CacheRedis  = "redis"
	CacheBadger = "badger"
)

// EmbeddingCacheConfig holds embedding cache settings.
type EmbeddingCacheConfig struct {
	Driver   string `yaml:"driver"` // none, redis, badger (default: none)
	Path     string `yaml:"path"`   // badger directory, empty = in-memory
	TTLHours int    `yaml:"ttl_hours"`
}

// EmbeddingConfig holds query embedding settings. An empty APIKey disables the vector tier.
type EmbeddingConfig struct {
	Provider         string               `yaml:"provider"`
	APIKey           string               `yaml:"api_key"`
	BaseURL          string               `yaml:"base_url"`
	Model            string               `yaml:"model"`
	Dimensions       int                  `yaml:"dimensions"`
	QueryInstruction string               `yaml:"query_instruction"`
	TimeoutMs        int                  `yaml:"timeout_ms"`
	RatePerSec       float64              `yaml:"rate_per_sec"` // 0 = unlimited
	Burst            int                  `yaml:"burst"`
	Cache            EmbeddingCacheConfig `yaml:"cache"`
}

// Enabled reports whether an embedding provider is configured.
func (c EmbeddingConfig) Enabled() bool { return c.APIKey != "" }

// ExtractionConfig holds structured intent extraction settings.
// An empty APIKey leaves only the local fallback parser.
type ExtractionConfig struct {
	APIKey     string  `yaml:"api_key"`
	BaseURL    string  `yaml:"base_url"`
	Model      string  `yaml:"model"`
	TimeoutMs  int     `yaml:"timeout_ms"`
	RatePerSec float64 `yaml:"rate_per_sec"` // 0 = unlimited
	Burst      int     `yaml:"burst"`
}

// Enabled reports whether an extraction provider is configured.
func (c ExtractionConfig) Enabled() bool { return c.APIKey != "" }

// PopularityStep is one row of the save_count boost table.
type PopularityStep struct {
	MinSaves int     `yaml:"min_saves"`
	Boost    float64 `yaml:"boost"`
}

// PopularityConfig is the save_count and crown boost table applied by the ranker.
type PopularityConfig struct {
	Steps      []PopularityStep `yaml:"steps"`
	CrownBoost float64          `yaml:"crown_boost"`
}

// SearchConfig holds search engine tuning.
type SearchConfig struct {
	DefaultPageSize     int              `yaml:"default_page_size"`
	MaxPageSize         int              `yaml:"max_page_size"`
	SimilarityThreshold float64          `yaml:"similarity_threshold"`
	Workers             int              `yaml:"workers"`
	ParallelThreshold   int              `yaml:"parallel_threshold"`
	Popularity          PopularityConfig `yaml:"popularity"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, substitutes ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// DefaultPopularity is the canonical save_count boost table.
func DefaultPopularity() PopularityConfig {
	return PopularityConfig{
		Steps: []PopularityStep{
			{MinSaves: 100, Boost: 3.0},
			{MinSaves: 50, Boost: 2.5},
			{MinSaves: 20, Boost: 2.0},
			{MinSaves: 10, Boost: 1.5},
		},
		CrownBoost: 1.3,
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Corpus.Driver == "" {
		c.Corpus.Driver = DriverRedis
	}
	if c.Corpus.KeyPrefix == "" {
		c.Corpus.KeyPrefix = "urbansearch:"
	}
	if c.Corpus.RefreshSec <= 0 {
		c.Corpus.RefreshSec = 60
	}
	if c.Corpus.ReadinessTimeout <= 0 {
		c.Corpus.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 3000
	}
	if c.Embedding.Burst <= 0 {
		c.Embedding.Burst = 1
	}
	if c.Embedding.Cache.Driver == "" {
		c.Embedding.Cache.Driver = CacheNone
	}
	if c.Embedding.Cache.TTLHours <= 0 {
		c.Embedding.Cache.TTLHours = 24 * 7
	}

	if c.Extraction.Model == "" {
		c.Extraction.Model = "gpt-4o-mini"
	}
	if c.Extraction.TimeoutMs <= 0 {
		c.Extraction.TimeoutMs = 5000
	}
	if c.Extraction.Burst <= 0 {
		c.Extraction.Burst = 1
	}

	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 50
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Search.SimilarityThreshold <= 0 {
		c.Search.SimilarityThreshold = 0.7
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = runtime.NumCPU()
	}
	if c.Search.ParallelThreshold <= 0 {
		c.Search.ParallelThreshold = 2000
	}
	if len(c.Search.Popularity.Steps) == 0 && c.Search.Popularity.CrownBoost == 0 {
		c.Search.Popularity = DefaultPopularity()
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Corpus.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Corpus.Addrs) == 0 {
			return fmt.Errorf("corpus.addrs is required for driver %q", c.Corpus.Driver)
		}
	case DriverPostgres:
		if c.Corpus.DSN == "" {
			return fmt.Errorf("corpus.dsn is required for driver %q", c.Corpus.Driver)
		}
	case DriverFile:
		if c.Corpus.Path == "" {
			return fmt.Errorf("corpus.path is required for driver %q", c.Corpus.Driver)
		}
	default:
		return fmt.Errorf("corpus.driver must be one of redis, valkey, postgres, file, got %q", c.Corpus.Driver)
	}

	switch c.Embedding.Cache.Driver {
	case CacheNone, CacheBadger:
	case CacheRedis:
		if c.Corpus.Driver != DriverRedis && c.Corpus.Driver != DriverValkey {
			return fmt.Errorf("embedding.cache.driver %q requires a redis or valkey corpus", CacheRedis)
		}
	default:
		return fmt.Errorf("embedding.cache.driver must be none, redis or badger, got %q", c.Embedding.Cache.Driver)
	}

	if c.Embedding.RatePerSec < 0 || c.Extraction.RatePerSec < 0 {
		return fmt.Errorf("rate_per_sec must not be negative")
	}

	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("search.similarity_threshold must be in (0, 1], got %v", c.Search.SimilarityThreshold)
	}

	prev := -1
	for i, step := range c.Search.Popularity.Steps {
		if step.MinSaves <= 0 || step.Boost < 0 {
			return fmt.Errorf("search.popularity.steps[%d]: min_saves must be positive and boost non-negative", i)
		}
		if prev != -1 && step.MinSaves >= prev {
			return fmt.Errorf("search.popularity.steps must be ordered by min_saves descending")
		}
		prev = step.MinSaves
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package directories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
