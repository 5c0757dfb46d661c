package domain

import (
	"cmp"
	"math"
	"strings"
)

// Destination is a catalog entry. Records are owned by the enrichment pipeline
// and are never mutated by the search engine.
type Destination struct {
	Slug          string    `json:"slug" yaml:"slug"`
	Name          string    `json:"name" yaml:"name"`
	City          string    `json:"city" yaml:"city"`
	Category      string    `json:"category" yaml:"category"`
	Description   string    `json:"description,omitempty" yaml:"description"`
	Content       string    `json:"content,omitempty" yaml:"content"`
	SearchText    string    `json:"search_text,omitempty" yaml:"search_text"`
	Image         string    `json:"image,omitempty" yaml:"image"`
	Tags          []string  `json:"tags,omitempty" yaml:"tags"`
	Rating        float64   `json:"rating,omitempty" yaml:"rating"`
	MichelinStars int       `json:"michelin_stars,omitempty" yaml:"michelin_stars"`
	SaveCount     int       `json:"save_count,omitempty" yaml:"save_count"`
	Crown         bool      `json:"crown,omitempty" yaml:"crown"`
	PriceLevel    int       `json:"price_level,omitempty" yaml:"price_level"`
	Embedding     []float32 `json:"embedding,omitempty" yaml:"embedding"`
}

// HasEmbedding reports whether the record carries a vector.
func (d *Destination) HasEmbedding() bool { return len(d.Embedding) > 0 }

// CompareByName orders destinations alphabetically by name ignoring case.
// Names equal under case folding fall back to the raw name, then the slug.
func CompareByName(a, b *Destination) int {
	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.Slug, b.Slug)
}

// Summary is the public projection of a destination: no vectors, no scores.
type Summary struct {
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	City          string   `json:"city"`
	Category      string   `json:"category"`
	Description   string   `json:"description,omitempty"`
	Image         string   `json:"image,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	MichelinStars int      `json:"michelin_stars,omitempty"`
	SaveCount     int      `json:"save_count,omitempty"`
	Crown         bool     `json:"crown,omitempty"`
	PriceLevel    int      `json:"price_level,omitempty"`
}

// Summary strips internal-only fields. A non-finite rating is reported as unknown.
func (d *Destination) Summary() Summary {
	rating := d.Rating
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		rating = 0
	}
	return Summary{
		Slug:          d.Slug,
		Name:          d.Name,
		City:          d.City,
		Category:      d.Category,
		Description:   d.Description,
		Image:         d.Image,
		Tags:          d.Tags,
		Rating:        rating,
		MichelinStars: d.MichelinStars,
		SaveCount:     d.SaveCount,
		Crown:         d.Crown,
		PriceLevel:    d.PriceLevel,
	}
}

// ListFilter narrows a corpus listing. Empty fields match everything; matching
// is case-insensitive containment.
type ListFilter struct {
	City     string
	Category string
}
