package silence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/listenupapp/tafcue/internal/chapters"
	"github.com/listenupapp/tafcue/internal/store"
)

// cacheTTL keeps probe results for a month.
const cacheTTL = 30 * 24 * time.Hour

// Cache is the key/value store backing Cached. *store.Store implements it.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Cached memoizes another probe by content hash and thresholds.
type Cached struct {
	next   Probe
	cache  Cache
	logger *slog.Logger
}

// NewCached wraps next with cache.
func NewCached(next Probe, cache Cache, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cached{next: next, cache: cache, logger: logger}
}

// CacheKey returns the cache key for req.
func CacheKey(req Request) string {
	return "silence:" + req.Hash + ":" + req.Params()
}

// Detect implements Probe. Requests without a hash bypass the cache, and
// cache failures fall through to the wrapped probe.
func (c *Cached) Detect(ctx context.Context, req Request) ([]chapters.Interval, error) {
	if req.Hash == "" {
		return c.next.Detect(ctx, req)
	}

	key := CacheKey(req)
	var intervals []chapters.Interval
	err := c.cache.Get(ctx, key, &intervals)
	switch {
	case err == nil:
		c.logger.Debug("silence cache hit", "key", key, "intervals", len(intervals))
		return intervals, nil
	case !errors.Is(err, store.ErrNotFound):
		c.logger.Warn("silence cache read failed", "key", key, "error", err)
	}

	intervals, err = c.next.Detect(ctx, req)
	if err != nil {
		return nil, err
	}
	if intervals == nil {
		intervals = []chapters.Interval{}
	}

	if err := c.cache.Set(ctx, key, intervals, cacheTTL); err != nil {
		c.logger.Warn("silence cache write failed", "key", key, "error", err)
	}
	return intervals, nil
}
