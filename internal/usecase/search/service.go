package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/urbansearch/internal/corpus"
	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/request"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/result"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
	"github.com/kailas-cloud/urbansearch/internal/logger"
	"github.com/kailas-cloud/urbansearch/internal/metrics"
	"github.com/kailas-cloud/urbansearch/internal/usecase/analyzer"
)

// DefaultCandidateLimit caps the candidates a single tier hands to the ranker.
const DefaultCandidateLimit = 1000

// Tier outcome labels.
const (
	outcomeHit     = "hit"
	outcomeEmpty   = "empty"
	outcomeSkipped = "skipped"
	outcomeError   = "error"
)

// Config tunes the coordinator.
type Config struct {
	CandidateLimit int
	Popularity     Popularity
}

// Response is the engine output. Results carry no internal scores.
type Response struct {
	Results     []domain.Summary
	Tier        tier.Tier
	Intent      intent.Intent
	Suggestions []string
}

// Service is the tier coordinator: it prepares intent and embedding, tries
// the retrievers in order and ranks the first non-empty result set.
type Service struct {
	snapshots  SnapshotSource
	analyzer   Analyzer
	embedder   QueryEmbedder
	retrievers []Retriever
	ranker     *Ranker
	limit      int
	log        *zap.Logger
}

// New creates a search service. retrievers are tried in the given order.
func New(
	snapshots SnapshotSource, an Analyzer, emb QueryEmbedder, retrievers []Retriever, cfg Config, log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultCandidateLimit
	}
	return &Service{
		snapshots:  snapshots,
		analyzer:   an,
		embedder:   emb,
		retrievers: retrievers,
		ranker:     NewRanker(cfg.Popularity),
		limit:      cfg.CandidateLimit,
		log:        log,
	}
}

// Search runs a validated request through the tier fallback chain. It fails
// only when no corpus snapshot is available or every attempted tier failed.
func (s *Service) Search(ctx context.Context, req *request.Request) (*Response, error) {
	start := time.Now()
	log := logger.FromContextOr(ctx, s.log)

	snap, release, err := s.snapshots.Acquire(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrCorpusUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrCorpusUnavailable, err)
		}
		return nil, err
	}
	defer release()

	in, prepDur := s.prepare(ctx, req)

	var (
		candidates []result.Candidate
		produced   = tier.Keyword
		attempted  int
		failed     int
	)
	for _, r := range s.retrievers {
		t := r.Tier()
		if a, ok := r.(applicable); ok && !a.Applicable(in) {
			metrics.SearchTierOutcomesTotal.WithLabelValues(string(t), outcomeSkipped).Inc()
			continue
		}

		attempted++
		found, rerr := s.try(ctx, r, in, snap)
		if rerr != nil {
			failed++
			metrics.SearchTierOutcomesTotal.WithLabelValues(string(t), outcomeError).Inc()
			log.Warn("search tier failed", zap.String("tier", string(t)), zap.Error(rerr))
			continue
		}
		if len(found) == 0 {
			metrics.SearchTierOutcomesTotal.WithLabelValues(string(t), outcomeEmpty).Inc()
			continue
		}

		metrics.SearchTierOutcomesTotal.WithLabelValues(string(t), outcomeHit).Inc()
		candidates, produced = found, t
		break
	}

	if attempted > 0 && failed == attempted {
		return nil, domain.ErrAllTiersFailed
	}

	ranked := s.ranker.Rank(candidates, in.Intent, req.Query(), req.PageSize())
	resp := &Response{
		Results:     result.Summaries(ranked),
		Tier:        produced,
		Intent:      in.Intent,
		Suggestions: analyzer.Suggestions(in.Intent),
	}

	dur := time.Since(start)
	metrics.SearchRequestsTotal.WithLabelValues(string(produced)).Inc()
	metrics.SearchDuration.WithLabelValues(string(produced)).Observe(dur.Seconds())
	log.Info("search",
		zap.String("tier", string(produced)),
		zap.String("intent_source", string(in.Intent.Source())),
		zap.Bool("embedding_available", in.Embedding.Available),
		zap.String("embedding_reason", in.Embedding.Reason),
		zap.Int("corpus_size", snap.Len()),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(resp.Results)),
		zap.Duration("prepare", prepDur),
		zap.Duration("duration", dur),
	)

	return resp, nil
}

// prepare runs the analyzer and the embedder concurrently. Neither fails:
// both degrade to a fallback value.
func (s *Service) prepare(ctx context.Context, req *request.Request) (*Input, time.Duration) {
	start := time.Now()

	var (
		in  intent.Intent
		emb domain.QueryEmbedding
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		in = s.analyzer.Analyze(gctx, req.Query())
		return nil
	})
	g.Go(func() error {
		if s.embedder == nil {
			emb = domain.Unavailable("not_configured")
			return nil
		}
		emb = s.embedder.Embed(gctx, req.Query())
		return nil
	})
	_ = g.Wait()

	return NewInput(req.Query(), in, emb, req.Filters()), time.Since(start)
}

// try runs one retriever, turning a panic into an error.
func (s *Service) try(
	ctx context.Context, r Retriever, in *Input, snap *corpus.Snapshot,
) (found []result.Candidate, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			found, err = nil, fmt.Errorf("retriever %s panicked: %v", r.Tier(), rec)
		}
	}()
	return r.Retrieve(ctx, in, snap, s.limit)
}
