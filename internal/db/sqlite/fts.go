// Package sqlite provides an in-memory SQLite FTS5 index for full-text
// retrieval over a corpus snapshot.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/urbansearch/internal/db"
)

// Row is one indexed document. Only the text columns are searchable.
type Row struct {
	Slug        string
	Description string
	Content     string
	SearchText  string
}

// Hit is a matching document with its relevance (higher is better).
type Hit struct {
	Slug  string
	Score float64
}

// Index is an immutable FTS5 index living in a private in-memory database.
type Index struct {
	db   *sql.DB
	size int
}

const schema = `CREATE VIRTUAL TABLE docs USING fts5(
	slug UNINDEXED,
	description,
	content,
	search_text,
	tokenize = 'unicode61 remove_diacritics 2'
)`

// Build creates an index over rows.
func Build(ctx context.Context, rows []Row) (*Index, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, &db.Error{Op: db.OpIndex, Err: fmt.Errorf("open sqlite: %w", err)}
	}
	// every connection to ":memory:" is a separate database
	conn.SetMaxOpenConns(1)

	if err := load(ctx, conn, rows); err != nil {
		_ = conn.Close()
		return nil, &db.Error{Op: db.OpIndex, Err: err}
	}
	return &Index{db: conn, size: len(rows)}, nil
}

func load(ctx context.Context, conn *sql.DB, rows []Row) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create fts table: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO docs (slug, description, content, search_text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Slug, r.Description, r.Content, r.SearchText); err != nil {
			return fmt.Errorf("insert %s: %w", r.Slug, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int { return ix.size }

// Match runs an FTS5 MATCH expression and returns up to limit hits ordered by
// relevance. An empty expression matches nothing.
func (ix *Index) Match(ctx context.Context, expr string, limit int) ([]Hit, error) {
	if strings.TrimSpace(expr) == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT slug, bm25(docs) AS rank
		FROM docs
		WHERE docs MATCH ?
		ORDER BY rank, slug
		LIMIT ?`, expr, limit)
	if err != nil {
		return nil, &db.Error{Op: db.OpMatch, Err: err}
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			slug string
			rank float64
		)
		if err := rows.Scan(&slug, &rank); err != nil {
			return nil, &db.Error{Op: db.OpMatch, Err: err}
		}
		// bm25() is negative, more negative is more relevant
		hits = append(hits, Hit{Slug: slug, Score: -rank})
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpMatch, Err: err}
	}
	return hits, nil
}

// Close releases the in-memory database.
func (ix *Index) Close() {
	if ix == nil || ix.db == nil {
		return
	}
	_ = ix.db.Close()
}

// MatchAny builds an expression matching documents that contain any of the
// terms. Each term is quoted, so operators and punctuation are literal.
func MatchAny(terms []string) string {
	quoted := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(strings.ReplaceAll(t, `"`, " "))
		if t == "" || !hasToken(t) {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// hasToken reports whether s contains at least one letter or digit; a quoted
// string with no tokens is an FTS5 syntax error.
func hasToken(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 0x7f {
			return true
		}
	}
	return false
}
