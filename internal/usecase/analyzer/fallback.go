package analyzer

import (
	"strings"

	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
)

// Gazetteer lists checked by the local parser, in priority order.
var (
	KnownCities     = []string{"tokyo", "paris", "new york", "london", "rome", "barcelona", "berlin", "amsterdam", "sydney", "dubai"}
	KnownCategories = []string{"restaurant", "cafe", "hotel", "bar", "shop", "museum", "park", "temple", "shrine"}
)

// minKeywordLen is exclusive: tokens must be longer than this.
const minKeywordLen = 2

// ParseFallback is the deterministic local parser. The first city and the
// first category contained in the lowercased query win. Every whitespace
// token longer than two characters becomes a keyword unless it is part of
// the matched city or category; original casing and order are kept.
func ParseFallback(query string) intent.Intent {
	lower := strings.ToLower(query)
	city := firstContained(lower, KnownCities)
	category := firstContained(lower, KnownCategories)

	var keywords []string
	for _, word := range strings.Fields(query) {
		lw := strings.ToLower(word)
		if city != "" && strings.Contains(city, lw) {
			continue
		}
		if category != "" && strings.Contains(category, lw) {
			continue
		}
		if len([]rune(word)) > minKeywordLen {
			keywords = append(keywords, word)
		}
	}

	return intent.New(keywords, city, category, intent.Filters{}, intent.SourceFallback)
}

func firstContained(s string, candidates []string) string {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return c
		}
	}
	return ""
}
