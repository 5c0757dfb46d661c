package destination

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/urbansearch/internal/domain"
)

const batchSize = 500

// store is the consumer interface for destination hashes (ISP).
type store interface {
	Ping(ctx context.Context) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo reads destination records stored as hashes under <prefix>dest:<slug>.
type Repo struct {
	store  store
	prefix string
	log    *zap.Logger
}

// New creates a destination repository.
func New(s store, keyPrefix string, log *zap.Logger) *Repo {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repo{store: s, prefix: keyPrefix, log: log}
}

// Ping checks store connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping destination store: %w", err)
	}
	return nil
}

// ListDestinations scans every destination hash and applies the filter.
// Malformed records are logged and skipped.
func (r *Repo) ListDestinations(ctx context.Context, filter *domain.ListFilter) ([]domain.Destination, error) {
	keys, err := r.store.Scan(ctx, r.keyPattern())
	if err != nil {
		return nil, fmt.Errorf("scan destinations: %w", err)
	}

	out := make([]domain.Destination, 0, len(keys))
	skipped := 0

	for start := 0; start < len(keys); start += batchSize {
		end := min(start+batchSize, len(keys))
		batch := keys[start:end]

		hashes, err := r.store.HGetAllMulti(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("load destinations: %w", err)
		}

		for i, m := range hashes {
			if len(m) == 0 {
				continue // deleted between SCAN and HGETALL
			}
			d, err := parseHashFields(r.slugFromKey(batch[i]), m)
			if err != nil {
				if !errors.Is(err, domain.ErrMalformedRecord) {
					return nil, err
				}
				skipped++
				r.log.Warn("skipping malformed destination", zap.String("key", batch[i]), zap.Error(err))
				continue
			}
			if matchesFilter(&d, filter) {
				out = append(out, d)
			}
		}
	}

	if skipped > 0 {
		r.log.Warn("destinations skipped", zap.Int("count", skipped), zap.Int("loaded", len(out)))
	}
	return out, nil
}

func (r *Repo) keyPattern() string {
	return r.prefix + "dest:*"
}

func (r *Repo) slugFromKey(key string) string {
	return strings.TrimPrefix(key, r.prefix+"dest:")
}

func matchesFilter(d *domain.Destination, f *domain.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.City != "" && !containsFold(d.City, f.City) {
		return false
	}
	if f.Category != "" && !containsFold(d.Category, f.Category) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
