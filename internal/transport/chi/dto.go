package chi

import (
	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
)

// searchBody is the POST /search payload.
type searchBody struct {
	Query    string       `json:"query"`
	PageSize int          `json:"pageSize"`
	Filters  *filtersBody `json:"filters"`
}

type filtersBody struct {
	City         string  `json:"city"`
	Category     string  `json:"category"`
	Rating       float64 `json:"rating"`
	PriceLevel   int     `json:"priceLevel"`
	MichelinStar int     `json:"michelinStar"`
}

// searchResponse is the search contract. Results is never null.
type searchResponse struct {
	Results     []domain.Summary `json:"results"`
	SearchTier  tier.Tier        `json:"searchTier"`
	Intent      *intent.Intent   `json:"intent,omitempty"`
	Suggestions []string         `json:"suggestions,omitempty"`
	Error       string           `json:"error,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
