package corpus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/urbansearch/internal/domain"
)

// Source lists destination records (Redis/Valkey, Postgres or a file).
type Source interface {
	ListDestinations(ctx context.Context, filter *domain.ListFilter) ([]domain.Destination, error)
}

// Cache is a read-through snapshot cache with a TTL. One reload runs at a
// time; concurrent readers keep the previous snapshot meanwhile. A failed
// reload keeps serving the last good snapshot.
type Cache struct {
	source Source
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	current     atomic.Pointer[Snapshot]
	nextRefresh atomic.Int64
	invalidated atomic.Bool

	refreshTotal *prometheus.CounterVec
	sizeGauge    prometheus.Gauge
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics sets the refresh counter (label "result") and the snapshot size gauge.
func WithMetrics(refreshTotal *prometheus.CounterVec, size prometheus.Gauge) Option {
	return func(c *Cache) {
		c.refreshTotal = refreshTotal
		c.sizeGauge = size
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a snapshot cache. ttl <= 0 disables expiry; the snapshot
// is then only reloaded after Invalidate.
func NewCache(source Source, ttl time.Duration, logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		source: source,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Snapshot returns the current snapshot, reloading it when stale. The result
// is not pinned; readers that query the full-text index use Acquire.
// It fails with domain.ErrCorpusUnavailable only when no snapshot was ever loaded.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	cur := c.current.Load()
	if cur != nil && !c.stale() {
		return cur, nil
	}

	if cur != nil {
		if !c.mu.TryLock() {
			return cur, nil
		}
	} else {
		c.mu.Lock()
	}
	defer c.mu.Unlock()

	// another caller may have reloaded while we waited
	cur = c.current.Load()
	if cur != nil && !c.stale() {
		return cur, nil
	}

	next, err := c.load(ctx)
	if err != nil {
		c.incRefresh("error")
		c.invalidated.Store(false)
		c.nextRefresh.Store(c.deadline())
		if cur != nil {
			c.logger.Warn("Corpus reload failed, serving stale snapshot",
				zap.Int("records", cur.Len()),
				zap.Time("loaded_at", cur.LoadedAt()),
				zap.Error(err))
			return cur, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrCorpusUnavailable, err)
	}

	c.swap(cur, next)
	c.incRefresh("ok")
	c.logger.Info("Corpus snapshot loaded", zap.Int("records", next.Len()))
	return next, nil
}

// Acquire returns the current snapshot pinned for the caller, reloading it
// when stale. The release func must be called once the caller is done; a
// replaced snapshot is closed only after its last reader releases it.
func (c *Cache) Acquire(ctx context.Context) (*Snapshot, func(), error) {
	for {
		snap, err := c.Snapshot(ctx)
		if err != nil {
			return nil, nil, err
		}
		if snap.Pin() {
			return snap, snap.Unpin, nil
		}
		// retired between load and pin; the next pass sees its replacement
	}
}

// Invalidate marks the snapshot stale; the next Snapshot call reloads it.
func (c *Cache) Invalidate() {
	c.invalidated.Store(true)
}

// Loaded reports whether a snapshot is available.
func (c *Cache) Loaded() bool {
	return c.current.Load() != nil
}

// Close releases the current snapshot.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur := c.current.Swap(nil); cur != nil {
		cur.Close()
	}
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	records, err := c.source.ListDestinations(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	return NewSnapshot(ctx, records, c.now())
}

func (c *Cache) swap(prev, next *Snapshot) {
	c.invalidated.Store(false)
	c.current.Store(next)
	c.nextRefresh.Store(c.deadline())
	if c.sizeGauge != nil {
		c.sizeGauge.Set(float64(next.Len()))
	}
	if prev != nil {
		prev.Close()
	}
}

func (c *Cache) stale() bool {
	if c.invalidated.Load() {
		return true
	}
	if c.ttl <= 0 {
		return false
	}
	return c.now().UnixNano() >= c.nextRefresh.Load()
}

func (c *Cache) deadline() int64 {
	if c.ttl <= 0 {
		return 0
	}
	return c.now().Add(c.ttl).UnixNano()
}

func (c *Cache) incRefresh(result string) {
	if c.refreshTotal != nil {
		c.refreshTotal.WithLabelValues(result).Inc()
	}
}
