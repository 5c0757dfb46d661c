package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/urbansearch/internal/corpus"
	"github.com/kailas-cloud/urbansearch/internal/db/sqlite"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/result"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
)

// FullTextRetriever queries the snapshot's FTS5 index over description,
// content and search_text. Base score is -bm25, higher is better.
type FullTextRetriever struct{}

// NewFullTextRetriever creates the full-text tier.
func NewFullTextRetriever() *FullTextRetriever { return &FullTextRetriever{} }

// Tier implements Retriever.
func (r *FullTextRetriever) Tier() tier.Tier { return tier.FullText }

// Retrieve implements Retriever.
func (r *FullTextRetriever) Retrieve(
	ctx context.Context, in *Input, snap *corpus.Snapshot, limit int,
) ([]result.Candidate, error) {
	terms := in.Intent.Keywords()
	if len(terms) == 0 {
		terms = strings.Fields(in.Query)
	}
	expr := sqlite.MatchAny(terms)
	if expr == "" || snap.Len() == 0 {
		return nil, nil
	}

	// filters run after matching, so fetch every hit
	hits, err := snap.FullText(ctx, expr, snap.Len())
	if err != nil {
		return nil, fmt.Errorf("fulltext: %w", err)
	}

	var out []result.Candidate
	for _, h := range hits {
		d, ok := snap.Get(h.Slug)
		if !ok || !in.Strict.Matches(d) {
			continue
		}
		out = append(out, result.NewCandidate(d, tier.FullText, h.Score))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
