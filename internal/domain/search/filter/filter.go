package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
)

// Accepted caller filter ranges.
const (
	MaxRating        = 5.0
	MaxPriceLevel    = 4
	MaxMichelinStars = 3
)

// Set is a conjunction of hard constraints on destinations. Zero values mean unset.
type Set struct {
	city          string
	category      string
	minRating     float64
	maxPriceLevel int
	minMichelin   int
}

// New validates caller-supplied filters.
func New(city, category string, minRating float64, maxPriceLevel, minMichelin int) (Set, error) {
	if minRating < 0 || minRating > MaxRating {
		return Set{}, fmt.Errorf("rating must be between 0 and %v: %w", MaxRating, domain.ErrInvalidFilter)
	}
	if maxPriceLevel < 0 || maxPriceLevel > MaxPriceLevel {
		return Set{}, fmt.Errorf("priceLevel must be between 1 and %d: %w", MaxPriceLevel, domain.ErrInvalidFilter)
	}
	if minMichelin < 0 || minMichelin > MaxMichelinStars {
		return Set{}, fmt.Errorf("michelinStar must be between 1 and %d: %w", MaxMichelinStars, domain.ErrInvalidFilter)
	}
	return Set{
		city:          strings.ToLower(strings.TrimSpace(city)),
		category:      strings.ToLower(strings.TrimSpace(category)),
		minRating:     minRating,
		maxPriceLevel: maxPriceLevel,
		minMichelin:   minMichelin,
	}, nil
}

// FromIntent converts analyzer output into hard constraints. The intent has
// already been sanitized, so no validation is needed. openNow is not applied:
// records carry no opening hours.
func FromIntent(in intent.Intent) Set {
	f := in.Filters()
	return Set{
		city:          strings.ToLower(in.City()),
		category:      strings.ToLower(in.Category()),
		minRating:     f.Rating,
		maxPriceLevel: f.PriceLevel,
		minMichelin:   f.MichelinStar,
	}
}

// Merge combines two sets; the receiver wins where both are set.
func (s Set) Merge(other Set) Set {
	out := s
	if out.city == "" {
		out.city = other.city
	}
	if out.category == "" {
		out.category = other.category
	}
	if out.minRating == 0 {
		out.minRating = other.minRating
	}
	if out.maxPriceLevel == 0 {
		out.maxPriceLevel = other.maxPriceLevel
	}
	if out.minMichelin == 0 {
		out.minMichelin = other.minMichelin
	}
	return out
}

// City returns the lowercased city containment constraint.
func (s Set) City() string { return s.city }

// Category returns the lowercased category containment constraint.
func (s Set) Category() string { return s.category }

// MinRating returns the rating floor.
func (s Set) MinRating() float64 { return s.minRating }

// MaxPriceLevel returns the price level ceiling.
func (s Set) MaxPriceLevel() int { return s.maxPriceLevel }

// MinMichelin returns the michelin star floor.
func (s Set) MinMichelin() int { return s.minMichelin }

// IsEmpty reports whether the set has no constraints.
func (s Set) IsEmpty() bool {
	return s == Set{}
}

// Matches reports whether d satisfies every constraint. Records with an unknown
// rating or price level fail the corresponding constraint.
func (s Set) Matches(d *domain.Destination) bool {
	if s.city != "" && !strings.Contains(strings.ToLower(d.City), s.city) {
		return false
	}
	if s.category != "" && !strings.Contains(strings.ToLower(d.Category), s.category) {
		return false
	}
	if s.minRating > 0 && d.Rating < s.minRating {
		return false
	}
	if s.maxPriceLevel > 0 && (d.PriceLevel == 0 || d.PriceLevel > s.maxPriceLevel) {
		return false
	}
	if s.minMichelin > 0 && d.MichelinStars < s.minMichelin {
		return false
	}
	return true
}
