package search

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/result"
)

// Composite score boosts.
const (
	boostNameQuery        = 0.2
	boostDescriptionQuery = 0.1
	boostIntentCategory   = 0.15
	boostIntentCity       = 0.1
	boostPerMichelinStar  = 0.05
	boostHighRating       = 0.05
	highRating            = 4.5
)

// PopularityStep grants Boost to records with at least MinSaves saves.
type PopularityStep struct {
	MinSaves int
	Boost    float64
}

// Popularity is the save_count and crown boost table. Steps are ordered by
// MinSaves descending; the first matching step applies.
type Popularity struct {
	Steps      []PopularityStep
	CrownBoost float64
}

// DefaultPopularity is the canonical boost table.
func DefaultPopularity() Popularity {
	return Popularity{
		Steps: []PopularityStep{
			{MinSaves: 100, Boost: 3.0},
			{MinSaves: 50, Boost: 2.5},
			{MinSaves: 20, Boost: 2.0},
			{MinSaves: 10, Boost: 1.5},
		},
		CrownBoost: 1.3,
	}
}

// Boost returns the popularity boost of d.
func (p Popularity) Boost(d *domain.Destination) float64 {
	var b float64
	for _, s := range p.Steps {
		if d.SaveCount >= s.MinSaves {
			b = s.Boost
			break
		}
	}
	if d.Crown {
		b += p.CrownBoost
	}
	return b
}

// Ranker computes composite scores and the final order of one tier's candidates.
type Ranker struct {
	popularity Popularity
}

// NewRanker creates a ranker with the given popularity table.
func NewRanker(p Popularity) *Ranker {
	return &Ranker{popularity: p}
}

// Rank scores candidates, keeps the best-scoring entry per slug, sorts by
// score desc then name asc then slug asc, and truncates to limit (0 keeps all).
func (r *Ranker) Rank(candidates []result.Candidate, in intent.Intent, rawQuery string, limit int) []result.Ranked {
	query := strings.ToLower(strings.TrimSpace(rawQuery))
	city := strings.ToLower(in.City())
	category := strings.ToLower(in.Category())

	best := make(map[string]int, len(candidates))
	ranked := make([]result.Ranked, 0, len(candidates))
	for _, c := range candidates {
		d := c.Destination()
		score := r.Score(c, query, city, category)
		if i, ok := best[d.Slug]; ok {
			if score > ranked[i].Score() {
				ranked[i] = result.NewRanked(c, score)
			}
			continue
		}
		best[d.Slug] = len(ranked)
		ranked = append(ranked, result.NewRanked(c, score))
	}

	slices.SortFunc(ranked, compareRanked)

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Score returns the composite score of c. query, city and category must be
// lowercased; empty values contribute nothing.
func (r *Ranker) Score(c result.Candidate, query, city, category string) float64 {
	d := c.Destination()

	score := finite(c.Base())
	if query != "" {
		if strings.Contains(strings.ToLower(d.Name), query) {
			score += boostNameQuery
		}
		if strings.Contains(strings.ToLower(d.Description), query) {
			score += boostDescriptionQuery
		}
	}
	if category != "" && strings.Contains(strings.ToLower(d.Category), category) {
		score += boostIntentCategory
	}
	if city != "" && strings.Contains(strings.ToLower(d.City), city) {
		score += boostIntentCity
	}
	if d.MichelinStars > 0 {
		score += boostPerMichelinStar * float64(d.MichelinStars)
	}
	if d.Rating >= highRating {
		score += boostHighRating
	}
	score += r.popularity.Boost(d)

	return finite(score)
}

func compareRanked(a, b result.Ranked) int {
	if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
		return c
	}
	return domain.CompareByName(a.Destination(), b.Destination())
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
