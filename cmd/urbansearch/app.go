package main

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/urbansearch/internal/config"
	"github.com/kailas-cloud/urbansearch/internal/corpus"
	dbBadger "github.com/kailas-cloud/urbansearch/internal/db/badger"
	dbPostgres "github.com/kailas-cloud/urbansearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/urbansearch/internal/db/redis"
	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/request"
	"github.com/kailas-cloud/urbansearch/internal/metrics"
	destrepo "github.com/kailas-cloud/urbansearch/internal/repository/destination"
	"github.com/kailas-cloud/urbansearch/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/urbansearch/internal/transport/openai"
	analyzeruc "github.com/kailas-cloud/urbansearch/internal/usecase/analyzer"
	embeddinguc "github.com/kailas-cloud/urbansearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/urbansearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/urbansearch/internal/usecase/search"
)

// corpusSource is what every corpus driver provides.
type corpusSource interface {
	corpus.Source
	Ping(ctx context.Context) error
}

// app is the composition root shared by serve and search.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	snapshot *corpus.Cache
	search   *searchuc.Service
	health   *healthuc.Service
	file     *corpus.FileSource
	closers  []func()
}

func (a *app) limits() request.Limits {
	return request.Limits{
		DefaultPageSize: a.cfg.Search.DefaultPageSize,
		MaxPageSize:     a.cfg.Search.MaxPageSize,
	}
}

// Close releases resources in reverse construction order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *app, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// explicit registration, no init()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	source, kv, err := a.openCorpus(ctx)
	if err != nil {
		return nil, err
	}

	a.snapshot = corpus.NewCache(source, time.Duration(cfg.Corpus.RefreshSec)*time.Second, logger,
		corpus.WithMetrics(metrics.CorpusRefreshTotal, metrics.CorpusSnapshotSize))
	a.closers = append(a.closers, a.snapshot.Close)

	embedder, err := a.buildEmbedder(kv)
	if err != nil {
		return nil, err
	}
	provider := embeddinguc.NewProvider(embedder,
		cfg.Embedding.RatePerSec, cfg.Embedding.Burst,
		time.Duration(cfg.Embedding.TimeoutMs)*time.Millisecond, logger)

	// nil interface, not a typed nil pointer
	var extractor analyzeruc.Extractor
	if cfg.Extraction.Enabled() {
		extractor = openaiTransport.NewExtractor(&openaiTransport.ExtractorConfig{
			APIKey:  cfg.Extraction.APIKey,
			BaseURL: cfg.Extraction.BaseURL,
			Model:   cfg.Extraction.Model,
			Logger:  logger,
		})
	}
	analyzer := analyzeruc.New(extractor,
		cfg.Extraction.RatePerSec, cfg.Extraction.Burst,
		time.Duration(cfg.Extraction.TimeoutMs)*time.Millisecond, logger)

	pool, err := ants.NewPool(cfg.Search.Workers)
	if err != nil {
		return nil, fmt.Errorf("create vector worker pool: %w", err)
	}
	a.closers = append(a.closers, pool.Release)

	retrievers := []searchuc.Retriever{
		searchuc.NewVectorRetriever(cfg.Search.SimilarityThreshold, pool, cfg.Search.ParallelThreshold),
		searchuc.NewFullTextRetriever(),
		searchuc.NewAttributeRetriever(),
		searchuc.NewKeywordRetriever(),
	}
	a.search = searchuc.New(a.snapshot, analyzer, provider, retrievers, searchuc.Config{
		Popularity: popularityFromConfig(cfg.Search.Popularity),
	}, logger)

	var embChecker, extChecker healthuc.Checker
	if provider.Enabled() {
		embChecker = provider
	}
	if analyzer.Enabled() {
		extChecker = analyzer
	}
	a.health = healthuc.New(source, a.snapshot, embChecker, extChecker)

	logger.Info("search engine ready",
		zap.String("corpus_driver", cfg.Corpus.Driver),
		zap.Bool("embedding_enabled", provider.Enabled()),
		zap.Bool("extraction_enabled", analyzer.Enabled()),
		zap.String("embedding_cache", cfg.Embedding.Cache.Driver),
		zap.Int("workers", cfg.Search.Workers),
	)
	return a, nil
}

// openCorpus connects the configured corpus driver. kv is the redis store when
// the corpus lives in redis or valkey, for the embedding cache.
func (a *app) openCorpus(ctx context.Context) (corpusSource, *dbRedis.Store, error) {
	cfg := a.cfg.Corpus

	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		a.closers = append(a.closers, store.Close)

		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			return nil, nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
		}
		a.logger.Info("Connected to corpus store", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
		return destrepo.New(store, cfg.KeyPrefix, a.logger), store, nil

	case config.DriverPostgres:
		store, err := dbPostgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.logger.Info("Connected to corpus store", zap.String("driver", cfg.Driver))
		return store, nil, nil

	case config.DriverFile:
		a.file = corpus.NewFileSource(cfg.Path, a.logger)
		a.logger.Info("Using corpus file", zap.String("path", cfg.Path))
		return a.file, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown corpus driver %q", cfg.Driver)
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// Returns nil when no embedding provider is configured.
func (a *app) buildEmbedder(kv *dbRedis.Store) (domain.Embedder, error) {
	cfg := a.cfg.Embedding
	if !cfg.Enabled() {
		return nil, nil
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     a.logger,
	})

	var embedder domain.Embedder = base
	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	prefix := fmt.Sprintf("%semb:%s:%d:", a.cfg.Corpus.KeyPrefix, cfg.Model, cfg.Dimensions)

	switch cfg.Cache.Driver {
	case config.CacheRedis:
		embedder = embcache.New(base, kv, prefix, ttl, metrics.EmbeddingCacheTotal, a.logger)
	case config.CacheBadger:
		store, err := dbBadger.Open(cfg.Cache.Path, a.logger)
		if err != nil {
			return nil, fmt.Errorf("open embedding cache: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		embedder = embcache.New(base, store, prefix, ttl, metrics.EmbeddingCacheTotal, a.logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, a.logger)

	// outermost, so the cache key includes the instruction
	if cfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction), nil
	}
	return embedder, nil
}

func popularityFromConfig(p config.PopularityConfig) searchuc.Popularity {
	steps := make([]searchuc.PopularityStep, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = searchuc.PopularityStep{MinSaves: s.MinSaves, Boost: s.Boost}
	}
	return searchuc.Popularity{Steps: steps, CrownBoost: p.CrownBoost}
}
