// Package corpus holds the in-process snapshot of the destination catalog and
// the read-through cache that refreshes it.
package corpus

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/urbansearch/internal/db/sqlite"
	"github.com/kailas-cloud/urbansearch/internal/domain"
)

// Snapshot is an immutable view of the corpus with the per-snapshot indexes
// the retrievers need. Records are ordered by save_count desc, name, slug.
type Snapshot struct {
	records  []domain.Destination
	bySlug   map[string]int
	tags     map[string][]int
	tagKeys  []string
	fts      *sqlite.Index
	loadedAt time.Time

	// refs counts the owner reference plus one per pinned reader; the
	// full-text index is closed when it drops to zero.
	refs    atomic.Int64
	retired atomic.Bool
}

// NewSnapshot orders records, drops duplicate slugs (keeping the first in
// snapshot order) and builds the tag and full-text indexes.
func NewSnapshot(ctx context.Context, records []domain.Destination, loadedAt time.Time) (*Snapshot, error) {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, compareRecords)

	s := &Snapshot{
		records:  make([]domain.Destination, 0, len(sorted)),
		bySlug:   make(map[string]int, len(sorted)),
		tags:     make(map[string][]int),
		loadedAt: loadedAt,
	}
	s.refs.Store(1)

	rows := make([]sqlite.Row, 0, len(sorted))
	for _, d := range sorted {
		if _, dup := s.bySlug[d.Slug]; dup {
			continue
		}
		i := len(s.records)
		s.records = append(s.records, d)
		s.bySlug[d.Slug] = i

		seen := make(map[string]struct{}, len(d.Tags))
		for _, tag := range d.Tags {
			key := strings.ToLower(strings.TrimSpace(tag))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			s.tags[key] = append(s.tags[key], i)
		}

		rows = append(rows, sqlite.Row{
			Slug:        d.Slug,
			Description: d.Description,
			Content:     d.Content,
			SearchText:  d.SearchText,
		})
	}

	s.tagKeys = make([]string, 0, len(s.tags))
	for k := range s.tags {
		s.tagKeys = append(s.tagKeys, k)
	}
	slices.Sort(s.tagKeys)

	fts, err := sqlite.Build(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("build full-text index: %w", err)
	}
	s.fts = fts

	return s, nil
}

func compareRecords(a, b domain.Destination) int {
	if c := cmp.Compare(b.SaveCount, a.SaveCount); c != 0 {
		return c
	}
	return domain.CompareByName(&a, &b)
}

// Len returns the number of records.
func (s *Snapshot) Len() int { return len(s.records) }

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Records returns the records in snapshot order. Callers must not modify them.
func (s *Snapshot) Records() []domain.Destination { return s.records }

// Get returns the record with the given slug.
func (s *Snapshot) Get(slug string) (*domain.Destination, bool) {
	i, ok := s.bySlug[slug]
	if !ok {
		return nil, false
	}
	return &s.records[i], true
}

// TaggedWith returns records having at least one tag accepted by match, in
// snapshot order. Tags are passed lowercased.
func (s *Snapshot) TaggedWith(match func(tag string) bool) []*domain.Destination {
	var idx []int
	seen := make(map[int]struct{})
	for _, tag := range s.tagKeys {
		if !match(tag) {
			continue
		}
		for _, i := range s.tags[tag] {
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			idx = append(idx, i)
		}
	}
	slices.Sort(idx)

	out := make([]*domain.Destination, len(idx))
	for j, i := range idx {
		out[j] = &s.records[i]
	}
	return out
}

// FullText runs an FTS5 MATCH expression over description, content and
// search_text.
func (s *Snapshot) FullText(ctx context.Context, expr string, limit int) ([]sqlite.Hit, error) {
	hits, err := s.fts.Match(ctx, expr, limit)
	if err != nil {
		return nil, fmt.Errorf("full-text match: %w", err)
	}
	return hits, nil
}

// Pin takes a reader reference. It fails once the snapshot has been fully
// released; every successful Pin must be paired with Unpin.
func (s *Snapshot) Pin() bool {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return false
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Unpin drops a reader reference.
func (s *Snapshot) Unpin() {
	if s.refs.Add(-1) == 0 {
		s.fts.Close()
	}
}

// Close drops the owner reference. The full-text index stays open until the
// last pinned reader calls Unpin. Close is idempotent.
func (s *Snapshot) Close() {
	if s.retired.CompareAndSwap(false, true) {
		s.Unpin()
	}
}
