package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
)

func TestParseFallback(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		keywords []string
		city     string
		category string
	}{
		{
			name:     "city and category removed from keywords",
			query:    "romantic restaurant in Tokyo",
			keywords: []string{"romantic"},
			city:     "tokyo",
			category: "restaurant",
		},
		{
			name:     "multi-word city",
			query:    "jazz bar New York",
			keywords: []string{"jazz"},
			city:     "new york",
			category: "bar",
		},
		{
			name:     "no gazetteer match keeps long tokens",
			query:    "Blue Note",
			keywords: []string{"Blue", "Note"},
		},
		{
			name:     "short tokens dropped",
			query:    "a ok spa day",
			keywords: []string{"spa", "day"},
		},
		{
			name:     "first city in list order wins",
			query:    "paris or tokyo",
			keywords: []string{"paris"},
			city:     "tokyo",
		},
		{
			name:     "category substring of a longer word",
			query:    "barcelona tapas",
			keywords: []string{"tapas"},
			city:     "barcelona",
			category: "bar",
		},
		{
			name:     "plural category token kept",
			query:    "cafes in rome",
			keywords: []string{"cafes"},
			city:     "rome",
			category: "cafe",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := ParseFallback(tc.query)

			if tc.keywords == nil {
				tc.keywords = []string{}
			}
			assert.Equal(t, tc.keywords, in.Keywords())
			assert.Equal(t, tc.city, in.City())
			assert.Equal(t, tc.category, in.Category())
			assert.Equal(t, intent.SourceFallback, in.Source())
			assert.True(t, in.Filters().IsZero())
		})
	}
}

func TestParseFallback_Deterministic(t *testing.T) {
	a := ParseFallback("best sushi museum in tokyo")
	b := ParseFallback("best sushi museum in tokyo")

	assert.Equal(t, a, b)
}
