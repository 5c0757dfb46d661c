package search

import (
	"context"

	"github.com/kailas-cloud/urbansearch/internal/corpus"
	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/filter"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/result"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
)

// Analyzer produces the structured reading of a query. It never fails.
type Analyzer interface {
	Analyze(ctx context.Context, query string) intent.Intent
}

// QueryEmbedder produces the query vector or the reason it is unavailable.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) domain.QueryEmbedding
}

// SnapshotSource hands out the current corpus snapshot pinned for one
// request; release must be called when the request is done with it.
type SnapshotSource interface {
	Acquire(ctx context.Context) (snap *corpus.Snapshot, release func(), err error)
}

// Retriever is one retrieval strategy. Retrieve is read-only and returns an
// empty slice when nothing matches; errors are internal failures only.
type Retriever interface {
	Tier() tier.Tier
	Retrieve(ctx context.Context, in *Input, snap *corpus.Snapshot, limit int) ([]result.Candidate, error)
}

// applicable is implemented by retrievers that need preconditions (e.g. a query vector).
type applicable interface {
	Applicable(in *Input) bool
}

// Input is everything a retriever may use.
type Input struct {
	Query     string
	Intent    intent.Intent
	Embedding domain.QueryEmbedding
	// Caller holds the request filters, hard in every tier.
	Caller filter.Set
	// Strict adds the intent filters to Caller; the caller wins on conflicts.
	Strict filter.Set
}

// NewInput builds the retriever input for a query.
func NewInput(query string, in intent.Intent, emb domain.QueryEmbedding, caller filter.Set) *Input {
	return &Input{
		Query:     query,
		Intent:    in,
		Embedding: emb,
		Caller:    caller,
		Strict:    caller.Merge(filter.FromIntent(in)),
	}
}

// Terms returns the intent keywords, or the raw query when there are none.
func (in *Input) Terms() []string {
	if kw := in.Intent.Keywords(); len(kw) > 0 {
		return kw
	}
	return []string{in.Query}
}
