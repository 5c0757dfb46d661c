package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/filter"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  sushi  ", 0, filter.Set{}, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "sushi" {
		t.Errorf("Query() = %q, want trimmed", r.Query())
	}
	if r.PageSize() != DefaultPageSize {
		t.Errorf("PageSize() = %d, want %d", r.PageSize(), DefaultPageSize)
	}
	if !r.Filters().IsEmpty() {
		t.Error("expected empty filters")
	}
}

func TestNew_PageSizeClamped(t *testing.T) {
	r, err := New("sushi", 1000, filter.Set{}, Limits{DefaultPageSize: 20, MaxPageSize: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.PageSize() != 60 {
		t.Errorf("PageSize() = %d, want 60", r.PageSize())
	}

	r, _ = New("sushi", 0, filter.Set{}, Limits{DefaultPageSize: 20, MaxPageSize: 60})
	if r.PageSize() != 20 {
		t.Errorf("PageSize() = %d, want configured default 20", r.PageSize())
	}
}

func TestNew_TooShort(t *testing.T) {
	for _, q := range []string{"", " ", "a", "  b  "} {
		_, err := New(q, 10, filter.Set{}, Limits{})
		if !errors.Is(err, domain.ErrQueryTooShort) {
			t.Errorf("New(%q) error = %v, want ErrQueryTooShort", q, err)
		}
	}
}

func TestNew_TooLong(t *testing.T) {
	_, err := New(strings.Repeat("x", MaxQueryLength+1), 10, filter.Set{}, Limits{})
	if !errors.Is(err, domain.ErrQueryTooLong) {
		t.Errorf("expected ErrQueryTooLong, got %v", err)
	}

	if _, err := New(strings.Repeat("x", MaxQueryLength), 10, filter.Set{}, Limits{}); err != nil {
		t.Errorf("query at the limit should pass: %v", err)
	}
}

func TestNew_CountsRunesNotBytes(t *testing.T) {
	if _, err := New("寿司", 10, filter.Set{}, Limits{}); err != nil {
		t.Errorf("two-rune query should pass: %v", err)
	}
}
