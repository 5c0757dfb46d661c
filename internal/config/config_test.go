package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Corpus: CorpusConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Corpus.Addrs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
	if !strings.Contains(err.Error(), "corpus.addrs") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_CorpusDrivers(t *testing.T) {
	tests := []struct {
		name    string
		corpus  CorpusConfig
		wantErr bool
	}{
		{"valkey with addrs", CorpusConfig{Driver: DriverValkey, Addrs: []string{"v:6379"}}, false},
		{"postgres with dsn", CorpusConfig{Driver: DriverPostgres, DSN: "postgres://x"}, false},
		{"postgres without dsn", CorpusConfig{Driver: DriverPostgres}, true},
		{"file with path", CorpusConfig{Driver: DriverFile, Path: "corpus.yaml"}, false},
		{"file without path", CorpusConfig{Driver: DriverFile}, true},
		{"unknown driver", CorpusConfig{Driver: "mongo"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{HTTP: HTTPConfig{Port: 8080}, Corpus: tc.corpus}
			cfg.ApplyDefaults()

			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_RedisCacheNeedsRedisCorpus(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Corpus:    CorpusConfig{Driver: DriverFile, Path: "corpus.yaml"},
		Embedding: EmbeddingConfig{Cache: EmbeddingCacheConfig{Driver: CacheRedis}},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis cache over file corpus")
	}
}

func TestValidate_PopularityOrder(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Popularity.Steps = []PopularityStep{
		{MinSaves: 10, Boost: 1.5},
		{MinSaves: 100, Boost: 3.0},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for ascending popularity steps")
	}
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultPageSize = 200

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default page size exceeds max")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Corpus.Driver != DriverRedis {
		t.Errorf("expected Driver=redis, got %q", cfg.Corpus.Driver)
	}
	if cfg.Corpus.RefreshSec != 60 {
		t.Errorf("expected RefreshSec=60, got %d", cfg.Corpus.RefreshSec)
	}
	if cfg.Search.DefaultPageSize != 50 {
		t.Errorf("expected DefaultPageSize=50, got %d", cfg.Search.DefaultPageSize)
	}
	if cfg.Search.MaxPageSize != 100 {
		t.Errorf("expected MaxPageSize=100, got %d", cfg.Search.MaxPageSize)
	}
	if cfg.Search.SimilarityThreshold != 0.7 {
		t.Errorf("expected SimilarityThreshold=0.7, got %v", cfg.Search.SimilarityThreshold)
	}
	if len(cfg.Search.Popularity.Steps) != 4 || cfg.Search.Popularity.CrownBoost != 1.3 {
		t.Errorf("expected default popularity table, got %+v", cfg.Search.Popularity)
	}
	if cfg.Embedding.Cache.Driver != CacheNone {
		t.Errorf("expected cache driver none, got %q", cfg.Embedding.Cache.Driver)
	}
}

func TestApplyDefaults_KeepsExplicitPopularity(t *testing.T) {
	cfg := Config{Search: SearchConfig{Popularity: PopularityConfig{
		Steps: []PopularityStep{{MinSaves: 100, Boost: 8}},
	}}}
	cfg.ApplyDefaults()

	if len(cfg.Search.Popularity.Steps) != 1 || cfg.Search.Popularity.Steps[0].Boost != 8 {
		t.Errorf("explicit popularity table overwritten: %+v", cfg.Search.Popularity)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("URBANSEARCH_TEST_ADDR", "cache:6379")

	cfg, err := Parse([]byte(`
corpus:
  driver: redis
  addrs: ["${URBANSEARCH_TEST_ADDR}"]
embedding:
  api_key: "${URBANSEARCH_TEST_MISSING:-fallback-key}"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Corpus.Addrs[0] != "cache:6379" {
		t.Errorf("expected expanded addr, got %q", cfg.Corpus.Addrs[0])
	}
	if cfg.Embedding.APIKey != "fallback-key" {
		t.Errorf("expected default api key, got %q", cfg.Embedding.APIKey)
	}
	if !cfg.Embedding.Enabled() {
		t.Error("expected embedding enabled")
	}
	if cfg.Extraction.Enabled() {
		t.Error("expected extraction disabled without api key")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("corpus: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("failed to load local config: %v", err)
	}
	if cfg.Corpus.Driver != DriverFile {
		t.Errorf("expected local config to use the file corpus, got %q", cfg.Corpus.Driver)
	}
}
