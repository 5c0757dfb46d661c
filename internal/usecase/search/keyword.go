package search

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/kailas-cloud/urbansearch/internal/corpus"
	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/result"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
)

// Keyword tier base score weights.
const (
	weightNameContainsQuery = 10
	weightNameStartsQuery   = 5
	weightKeywordName       = 3
	weightKeywordCategory   = 2
	weightKeywordCity       = 1.5
	weightKeywordContent    = 0.5
)

// KeywordRetriever is the last-resort substring tier over name, description,
// content, city and category. A record matches on any keyword or on the raw
// query.
type KeywordRetriever struct{}

// NewKeywordRetriever creates the keyword tier.
func NewKeywordRetriever() *KeywordRetriever { return &KeywordRetriever{} }

// Tier implements Retriever.
func (r *KeywordRetriever) Tier() tier.Tier { return tier.Keyword }

type keywordHit struct {
	d     *domain.Destination
	score float64
}

// Retrieve implements Retriever.
func (r *KeywordRetriever) Retrieve(
	ctx context.Context, in *Input, snap *corpus.Snapshot, limit int,
) ([]result.Candidate, error) {
	query := strings.ToLower(strings.TrimSpace(in.Query))
	terms := lowerTerms(in.Terms())

	records := snap.Records()
	var hits []keywordHit
	for i := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err //nolint:wrapcheck // context error
			}
		}
		d := &records[i]
		if !in.Caller.Matches(d) {
			continue
		}
		if score, ok := KeywordScore(d, query, terms); ok {
			hits = append(hits, keywordHit{d: d, score: score})
		}
	}

	slices.SortStableFunc(hits, func(a, b keywordHit) int { return cmp.Compare(b.score, a.score) })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]result.Candidate, len(hits))
	for i, h := range hits {
		out[i] = result.NewCandidate(h.d, tier.Keyword, h.score)
	}
	return out, nil
}

// KeywordScore returns the keyword tier base score of d. query and terms must
// be lowercased. ok is false when neither the query nor any term occurs in
// name, description, content, city or category.
func KeywordScore(d *domain.Destination, query string, terms []string) (score float64, ok bool) {
	name := strings.ToLower(d.Name)
	desc := strings.ToLower(d.Description)
	content := strings.ToLower(d.Content)
	city := strings.ToLower(d.City)
	category := strings.ToLower(d.Category)

	inAny := func(s string) bool {
		return strings.Contains(name, s) || strings.Contains(desc, s) || strings.Contains(content, s) ||
			strings.Contains(city, s) || strings.Contains(category, s)
	}

	if query != "" {
		ok = inAny(query)
		if strings.Contains(name, query) {
			score += weightNameContainsQuery
		}
		if strings.HasPrefix(name, query) {
			score += weightNameStartsQuery
		}
	}

	for _, t := range terms {
		if t == "" {
			continue
		}
		if inAny(t) {
			ok = true
		}
		if strings.Contains(name, t) {
			score += weightKeywordName
		}
		if strings.Contains(category, t) {
			score += weightKeywordCategory
		}
		if strings.Contains(city, t) {
			score += weightKeywordCity
		}
		if strings.Contains(content, t) {
			score += weightKeywordContent
		}
	}

	return score, ok
}
