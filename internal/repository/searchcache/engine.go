package searchcache

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/memodex/internal/db"
)

// DefaultSettle covers the engine's default one-second refresh interval.
const DefaultSettle = 2 * time.Second

// Engine routes searches through a CachedSearcher and starts a new cache
// generation after every write. Writes only become searchable after the
// engine refreshes, and a search in between may cache the old view under
// the new generation, so each write bumps the generation once more after
// the settle delay.
type Engine struct {
	db.Engine
	cache  *CachedSearcher
	settle time.Duration

	mu      sync.Mutex
	pending *time.Timer
	closed  bool
}

// Compile-time check: Engine is a drop-in db.Engine.
var _ db.Engine = (*Engine)(nil)

// NewEngine wraps inner. settle <= 0 disables the delayed invalidation.
func NewEngine(inner db.Engine, cache *CachedSearcher, settle time.Duration) *Engine {
	return &Engine{Engine: inner, cache: cache, settle: settle}
}

// Search is served from the cache.
func (e *Engine) Search(ctx context.Context, index string, body []byte) (*db.SearchResponse, error) {
	return e.cache.Search(ctx, index, body)
}

// Bulk writes and invalidates. Partially failed bulks still changed the index.
func (e *Engine) Bulk(ctx context.Context, body []byte) (*db.BulkResponse, error) {
	resp, err := e.Engine.Bulk(ctx, body)
	e.invalidate(ctx)
	return resp, err
}

// Index writes one document and invalidates.
func (e *Engine) Index(ctx context.Context, index, id string, body []byte) error {
	err := e.Engine.Index(ctx, index, id, body)
	e.invalidate(ctx)
	return err
}

// Delete removes one document and invalidates.
func (e *Engine) Delete(ctx context.Context, index, id string) error {
	err := e.Engine.Delete(ctx, index, id)
	e.invalidate(ctx)
	return err
}

// Update patches one document and invalidates.
func (e *Engine) Update(ctx context.Context, index, id string, body []byte) error {
	err := e.Engine.Update(ctx, index, id, body)
	e.invalidate(ctx)
	return err
}

// CreateIndex creates an index and invalidates.
func (e *Engine) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	err := e.Engine.CreateIndex(ctx, def)
	e.invalidate(ctx)
	return err
}

// PutMapping extends a mapping and invalidates.
func (e *Engine) PutMapping(ctx context.Context, name string, body []byte) error {
	err := e.Engine.PutMapping(ctx, name, body)
	e.invalidate(ctx)
	return err
}

// Refresh makes writes visible and invalidates.
func (e *Engine) Refresh(ctx context.Context, name string) error {
	err := e.Engine.Refresh(ctx, name)
	e.invalidate(ctx)
	return err
}

// Close stops a pending delayed invalidation and closes the inner engine.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	if e.pending != nil {
		e.pending.Stop()
	}
	e.mu.Unlock()
	e.Engine.Close()
}

func (e *Engine) invalidate(ctx context.Context) {
	e.cache.Invalidate(context.WithoutCancel(ctx))
	if e.settle <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	// A burst of writes shares one delayed bump, pushed past the last write.
	if e.pending != nil {
		e.pending.Stop()
	}
	e.pending = time.AfterFunc(e.settle, func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.settle)
		defer cancel()
		e.cache.Invalidate(ctx)
	})
}
