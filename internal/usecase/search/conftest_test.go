package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/urbansearch/internal/corpus"
	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/filter"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/request"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/result"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
	"github.com/kailas-cloud/urbansearch/internal/usecase/analyzer"
)

// --- Snapshot source ---

type stubSnapshots struct {
	snap     *corpus.Snapshot
	err      error
	acquired int
	released int
}

func (s *stubSnapshots) Acquire(context.Context) (*corpus.Snapshot, func(), error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	if !s.snap.Pin() {
		return nil, nil, errors.New("snapshot retired")
	}
	s.acquired++
	return s.snap, func() {
		s.released++
		s.snap.Unpin()
	}, nil
}

// --- Analyzer ---

type fallbackAnalyzer struct{}

func (fallbackAnalyzer) Analyze(_ context.Context, query string) intent.Intent {
	return analyzer.ParseFallback(query)
}

type fixedAnalyzer struct {
	in intent.Intent
}

func (a fixedAnalyzer) Analyze(context.Context, string) intent.Intent { return a.in }

// --- Embedder ---

type stubEmbedder struct {
	emb   domain.QueryEmbedding
	calls int
}

func (e *stubEmbedder) Embed(context.Context, string) domain.QueryEmbedding {
	e.calls++
	return e.emb
}

// --- Retrievers ---

type errRetriever struct {
	t tier.Tier
}

func (r errRetriever) Tier() tier.Tier { return r.t }

func (r errRetriever) Retrieve(context.Context, *Input, *corpus.Snapshot, int) ([]result.Candidate, error) {
	return nil, errors.New("read failed")
}

type panicRetriever struct {
	t tier.Tier
}

func (r panicRetriever) Tier() tier.Tier { return r.t }

func (r panicRetriever) Retrieve(context.Context, *Input, *corpus.Snapshot, int) ([]result.Candidate, error) {
	panic("boom")
}

type countingRetriever struct {
	Retriever
	calls int
}

func (r *countingRetriever) Retrieve(
	ctx context.Context, in *Input, snap *corpus.Snapshot, limit int,
) ([]result.Candidate, error) {
	r.calls++
	return r.Retriever.Retrieve(ctx, in, snap, limit)
}

// --- Helpers ---

func newSnapshot(t *testing.T, records ...domain.Destination) *corpus.Snapshot {
	t.Helper()
	snap, err := corpus.NewSnapshot(context.Background(), records, time.Now())
	require.NoError(t, err)
	t.Cleanup(snap.Close)
	return snap
}

func newRequest(t *testing.T, query string, pageSize int) *request.Request {
	t.Helper()
	req, err := request.New(query, pageSize, filter.Set{}, request.Limits{})
	require.NoError(t, err)
	return &req
}

func slugs(summaries []domain.Summary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.Slug
	}
	return out
}

func candidateSlugs(cs []result.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Destination().Slug
	}
	return out
}

func defaultRetrievers() []Retriever {
	return []Retriever{
		NewVectorRetriever(DefaultSimilarityThreshold, nil, 0),
		NewFullTextRetriever(),
		NewAttributeRetriever(),
		NewKeywordRetriever(),
	}
}

func newService(snap *corpus.Snapshot, an Analyzer, emb QueryEmbedder, retrievers []Retriever) *Service {
	return New(&stubSnapshots{snap: snap}, an, emb, retrievers, Config{Popularity: DefaultPopularity()}, nil)
}

func unavailable() *stubEmbedder {
	return &stubEmbedder{emb: domain.Unavailable("not_configured")}
}
