package db

import (
	"context"
	"encoding/json"
	"time"
)

// Engine is the search engine facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Engine interface {
	Pinger
	Searcher
	Scroller
	BulkWriter
	DocumentStore
	IndexManager
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher runs query bodies against an index.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte) (*SearchResponse, error)
	Msearch(ctx context.Context, index string, body []byte) ([]json.RawMessage, error)
	Count(ctx context.Context, index string, body []byte) (int, error)
}

// Scroller manages scroll cursors.
type Scroller interface {
	OpenScroll(ctx context.Context, index string, body []byte, keepAlive time.Duration) (*SearchResponse, error)
	Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) (*SearchResponse, error)
	ClearScroll(ctx context.Context, scrollID string) error
}

// BulkWriter submits NDJSON bulk bodies.
type BulkWriter interface {
	Bulk(ctx context.Context, body []byte) (*BulkResponse, error)
}

// DocumentStore provides single-document operations.
type DocumentStore interface {
	Index(ctx context.Context, index, id string, body []byte) error
	Get(ctx context.Context, index, id string, sourceIncludes []string) (*GetResponse, error)
	Delete(ctx context.Context, index, id string) error
	Update(ctx context.Context, index, id string, body []byte) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	GetMapping(ctx context.Context, name string) (json.RawMessage, error)
	PutMapping(ctx context.Context, name string, body []byte) error
	Refresh(ctx context.Context, name string) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Cache is a key-value store with its own connection lifecycle.
type Cache interface {
	Pinger
	KVStore
	Close()
}
