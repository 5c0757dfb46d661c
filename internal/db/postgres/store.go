package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/urbansearch/internal/db"
	"github.com/kailas-cloud/urbansearch/internal/domain"
)

// Store reads destination records from PostgreSQL. Embeddings live in a
// pgvector column and may be NULL.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(15 * time.Minute)

	s := New(conn)
	if err := s.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection pool.
func New(conn *sql.DB) *Store {
	return &Store{db: conn}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() {
	_ = s.db.Close()
}

// ListDestinations returns every destination matching the filter.
func (s *Store) ListDestinations(ctx context.Context, filter *domain.ListFilter) ([]domain.Destination, error) {
	query, args := buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var out []domain.Destination
	for rows.Next() {
		var (
			d   domain.Destination
			emb *pgvector.Vector
		)
		err := rows.Scan(
			&d.Slug, &d.Name, &d.City, &d.Category,
			&d.Description, &d.Content, &d.SearchText, &d.Image,
			pq.Array(&d.Tags),
			&d.Rating, &d.MichelinStars, &d.SaveCount, &d.Crown, &d.PriceLevel,
			&emb,
		)
		if err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("scan destination: %w", err)}
		}
		if emb != nil {
			d.Embedding = emb.Slice()
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}

	return out, nil
}

const selectDestinations = `
	SELECT slug, name, COALESCE(city, ''), COALESCE(category, ''),
		COALESCE(description, ''), COALESCE(content, ''), COALESCE(search_text, ''), COALESCE(image, ''),
		tags,
		COALESCE(rating, 0), COALESCE(michelin_stars, 0), COALESCE(save_count, 0),
		COALESCE(crown, false), COALESCE(price_level, 0),
		embedding
	FROM destinations`

func buildListQuery(filter *domain.ListFilter) (string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if filter != nil {
		if filter.City != "" {
			args = append(args, "%"+escapeLike(filter.City)+"%")
			where = append(where, "city ILIKE "+placeholder(len(args)))
		}
		if filter.Category != "" {
			args = append(args, "%"+escapeLike(filter.Category)+"%")
			where = append(where, "category ILIKE "+placeholder(len(args)))
		}
	}

	return selectDestinations + `
	WHERE ` + strings.Join(where, " AND ") + `
	ORDER BY slug`, args
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
