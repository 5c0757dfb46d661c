package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/filter"
)

// Search parameter limits.
const (
	MinQueryLength  = 2
	MaxQueryLength  = 500
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Limits bounds page sizes. Zero fields fall back to the package defaults.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Request is a validated search query.
type Request struct {
	query    string
	pageSize int
	filters  filter.Set
}

// New validates and normalizes search parameters. The query is trimmed and
// must hold between MinQueryLength and MaxQueryLength characters. pageSize <= 0
// selects the default; larger values are clamped to the maximum.
func New(query string, pageSize int, filters filter.Set, limits Limits) (Request, error) {
	q := strings.TrimSpace(query)
	n := utf8.RuneCountInString(q)
	if n < MinQueryLength {
		return Request{}, domain.ErrQueryTooShort
	}
	if n > MaxQueryLength {
		return Request{}, fmt.Errorf("max %d chars: %w", MaxQueryLength, domain.ErrQueryTooLong)
	}

	def, maxSize := limits.DefaultPageSize, limits.MaxPageSize
	if def <= 0 {
		def = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if pageSize <= 0 {
		pageSize = def
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}

	return Request{query: q, pageSize: pageSize, filters: filters}, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// PageSize returns the maximum number of results.
func (r *Request) PageSize() int { return r.pageSize }

// Filters returns the caller-supplied hard filters.
func (r *Request) Filters() filter.Set { return r.filters }
