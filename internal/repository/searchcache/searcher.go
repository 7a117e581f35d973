package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/db"
)

// Searcher is the engine search surface wrapped by the cache.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte) (*db.SearchResponse, error)
	Msearch(ctx context.Context, index string, body []byte) ([]json.RawMessage, error)
	Count(ctx context.Context, index string, body []byte) (int, error)
	OpenScroll(ctx context.Context, index string, body []byte, keepAlive time.Duration) (*db.SearchResponse, error)
	Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) (*db.SearchResponse, error)
	ClearScroll(ctx context.Context, scrollID string) error
}

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// generationKey holds a counter that is part of every response key.
// Bumping it orphans all cached responses at once; they age out by TTL.
const generationKey = "gen"

// CachedSearcher caches raw search responses in a key-value store.
// Only Search is cached; cursors, counts and multi-searches go straight to the engine.
type CachedSearcher struct {
	inner      Searcher
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"bypass"), may be nil.
func New(
	inner Searcher,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSearcher {
	return &CachedSearcher{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Search returns a cached response for an identical (index, body) pair of
// the current generation or queries the engine and stores the raw response.
// When the generation cannot be read the cache is bypassed.
func (c *CachedSearcher) Search(ctx context.Context, index string, body []byte) (*db.SearchResponse, error) {
	gen, ok := c.generation(ctx)
	if !ok {
		c.incCache("bypass")
		return c.inner.Search(ctx, index, body)
	}
	key := cacheKey(gen, index, body)

	if resp, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return resp, nil
	}

	c.incCache("miss")

	resp, err := c.inner.Search(ctx, index, body)
	if err != nil {
		return nil, err
	}

	c.putToCache(ctx, key, resp.Raw)
	return resp, nil
}

// Msearch delegates to the engine.
func (c *CachedSearcher) Msearch(ctx context.Context, index string, body []byte) ([]json.RawMessage, error) {
	return c.inner.Msearch(ctx, index, body)
}

// Count delegates to the engine.
func (c *CachedSearcher) Count(ctx context.Context, index string, body []byte) (int, error) {
	return c.inner.Count(ctx, index, body)
}

// OpenScroll delegates to the engine.
func (c *CachedSearcher) OpenScroll(
	ctx context.Context, index string, body []byte, keepAlive time.Duration,
) (*db.SearchResponse, error) {
	return c.inner.OpenScroll(ctx, index, body, keepAlive)
}

// Scroll delegates to the engine.
func (c *CachedSearcher) Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) (*db.SearchResponse, error) {
	return c.inner.Scroll(ctx, scrollID, keepAlive)
}

// ClearScroll delegates to the engine.
func (c *CachedSearcher) ClearScroll(ctx context.Context, scrollID string) error {
	return c.inner.ClearScroll(ctx, scrollID)
}

func (c *CachedSearcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// Invalidate starts a new cache generation. Responses cached before the call
// are no longer served.
func (c *CachedSearcher) Invalidate(ctx context.Context) {
	if _, err := c.store.Incr(ctx, generationKey); err != nil {
		c.logger.Warn("Failed to bump search cache generation", zap.Error(err))
	}
}

// generation reads the current counter. A missing counter is generation 0.
func (c *CachedSearcher) generation(ctx context.Context) (int64, bool) {
	data, err := c.store.Get(ctx, generationKey)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, true
	}
	if err != nil {
		c.logger.Warn("Failed to read search cache generation", zap.Error(err))
		return 0, false
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		c.logger.Warn("Malformed search cache generation", zap.ByteString("value", data))
		return 0, false
	}
	return gen, true
}

func cacheKey(gen int64, index string, body []byte) string {
	h := sha256.New()
	h.Write(strconv.AppendInt(nil, gen, 10))
	h.Write([]byte{0})
	h.Write([]byte(index))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachedSearcher) getFromCache(ctx context.Context, key string) (*db.SearchResponse, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached search response", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	resp, err := db.DecodeSearchResponse(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached search response", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return resp, true
}

func (c *CachedSearcher) putToCache(ctx context.Context, key string, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("Failed to cache search response", zap.String("key", key), zap.Error(err))
	}
}
