package intent

import (
	"encoding/json"
	"strings"
)

// Source identifies which analyzer path produced an Intent.
type Source string

// Intent sources.
const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Accepted filter ranges of the extraction contract.
const (
	MinPriceLevel = 1
	MaxPriceLevel = 4
	MinRating     = 4.0
	MaxRating     = 5.0
	MinMichelin   = 1
	MaxMichelin   = 3
)

// Filters are the optional constraints an analyzer may infer from a query.
// Zero values mean unset.
type Filters struct {
	OpenNow      bool    `json:"openNow,omitempty"`
	PriceLevel   int     `json:"priceLevel,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	MichelinStar int     `json:"michelinStar,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return !f.OpenNow && f.PriceLevel == 0 && f.Rating == 0 && f.MichelinStar == 0
}

// Sanitize drops values outside the accepted ranges, NaN included.
func (f Filters) Sanitize() Filters {
	out := f
	if !(out.PriceLevel >= MinPriceLevel && out.PriceLevel <= MaxPriceLevel) {
		out.PriceLevel = 0
	}
	if !(out.Rating >= MinRating && out.Rating <= MaxRating) {
		out.Rating = 0
	}
	if !(out.MichelinStar >= MinMichelin && out.MichelinStar <= MaxMichelin) {
		out.MichelinStar = 0
	}
	return out
}

// Intent is the structured reading of a raw query. It is immutable once built.
type Intent struct {
	keywords []string
	city     string
	category string
	filters  Filters
	source   Source
}

// New builds an Intent. Keywords are copied, blank ones dropped; city and
// category are trimmed; filters are sanitized.
func New(keywords []string, city, category string, filters Filters, source Source) Intent {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, k)
		}
	}
	return Intent{
		keywords: kw,
		city:     cleanOptional(city),
		category: cleanOptional(category),
		filters:  filters.Sanitize(),
		source:   source,
	}
}

// cleanOptional maps the "null" placeholders some models emit to unset.
func cleanOptional(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return ""
	}
	return s
}

// Keywords returns a copy of the ordered keywords.
func (i Intent) Keywords() []string {
	out := make([]string, len(i.keywords))
	copy(out, i.keywords)
	return out
}

// City returns the inferred city, empty when unset.
func (i Intent) City() string { return i.city }

// Category returns the inferred category, empty when unset.
func (i Intent) Category() string { return i.category }

// Filters returns the inferred filters.
func (i Intent) Filters() Filters { return i.filters }

// Source returns the analyzer path that produced the intent.
func (i Intent) Source() Source { return i.source }

type wireIntent struct {
	Keywords []string `json:"keywords"`
	City     string   `json:"city,omitempty"`
	Category string   `json:"category,omitempty"`
	Filters  *Filters `json:"filters,omitempty"`
}

// MarshalJSON renders the extraction contract shape.
func (i Intent) MarshalJSON() ([]byte, error) {
	w := wireIntent{
		Keywords: i.Keywords(),
		City:     i.city,
		Category: i.category,
	}
	if !i.filters.IsZero() {
		f := i.filters
		w.Filters = &f
	}
	return json.Marshal(w) //nolint:wrapcheck // plain struct encoding
}
