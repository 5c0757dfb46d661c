package result

import (
	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
)

// Candidate is a destination produced by one retrieval tier together with
// that tier's base score.
type Candidate struct {
	dest *domain.Destination
	tier tier.Tier
	base float64
}

// NewCandidate creates a candidate.
func NewCandidate(dest *domain.Destination, t tier.Tier, base float64) Candidate {
	return Candidate{dest: dest, tier: t, base: base}
}

// Destination returns the referenced record.
func (c Candidate) Destination() *domain.Destination { return c.dest }

// Tier returns the producing tier.
func (c Candidate) Tier() tier.Tier { return c.tier }

// Base returns the tier base score.
func (c Candidate) Base() float64 { return c.base }

// Ranked is a candidate with its final composite score. Scores stay inside
// the engine; responses carry summaries only.
type Ranked struct {
	Candidate
	score float64
}

// NewRanked creates a ranked result.
func NewRanked(c Candidate, score float64) Ranked {
	return Ranked{Candidate: c, score: score}
}

// Score returns the composite score.
func (r Ranked) Score() float64 { return r.score }

// Summaries projects ranked results onto their public summaries.
func Summaries(rs []Ranked) []domain.Summary {
	out := make([]domain.Summary, len(rs))
	for i, r := range rs {
		out[i] = r.dest.Summary()
	}
	return out
}
