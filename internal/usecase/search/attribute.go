package search

import (
	"context"
	"strings"

	"github.com/kailas-cloud/urbansearch/internal/corpus"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/result"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
)

// AttributeRetriever matches curated tags. A record matches when one of its
// tags equals or contains a keyword (or the raw query without keywords).
// Results keep snapshot order.
type AttributeRetriever struct{}

// NewAttributeRetriever creates the ai-fields tier.
func NewAttributeRetriever() *AttributeRetriever { return &AttributeRetriever{} }

// Tier implements Retriever.
func (r *AttributeRetriever) Tier() tier.Tier { return tier.AIFields }

// Retrieve implements Retriever.
func (r *AttributeRetriever) Retrieve(
	_ context.Context, in *Input, snap *corpus.Snapshot, limit int,
) ([]result.Candidate, error) {
	terms := lowerTerms(in.Terms())
	if len(terms) == 0 {
		return nil, nil
	}

	matched := snap.TaggedWith(func(tag string) bool {
		for _, t := range terms {
			if strings.Contains(tag, t) {
				return true
			}
		}
		return false
	})

	var out []result.Candidate
	for _, d := range matched {
		if !in.Caller.Matches(d) {
			continue
		}
		out = append(out, result.NewCandidate(d, tier.AIFields, 1.0))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func lowerTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
