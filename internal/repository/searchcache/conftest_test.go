package searchcache

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/db"
)

type mockSearcher struct {
	raw          string
	err          error
	searchCalls  int
	msearchCalls int
	countCalls   int
	scrollCalls  int
}

func (m *mockSearcher) Search(_ context.Context, _ string, _ []byte) (*db.SearchResponse, error) {
	m.searchCalls++
	if m.err != nil {
		return nil, m.err
	}
	return db.DecodeSearchResponse([]byte(m.raw))
}

func (m *mockSearcher) Msearch(_ context.Context, _ string, _ []byte) ([]json.RawMessage, error) {
	m.msearchCalls++
	return nil, m.err
}

func (m *mockSearcher) Count(_ context.Context, _ string, _ []byte) (int, error) {
	m.countCalls++
	return 3, m.err
}

func (m *mockSearcher) OpenScroll(_ context.Context, _ string, _ []byte, _ time.Duration) (*db.SearchResponse, error) {
	m.scrollCalls++
	return &db.SearchResponse{ScrollID: "s1"}, m.err
}

func (m *mockSearcher) Scroll(_ context.Context, _ string, _ time.Duration) (*db.SearchResponse, error) {
	m.scrollCalls++
	return &db.SearchResponse{ScrollID: "s1"}, m.err
}

func (m *mockSearcher) ClearScroll(_ context.Context, _ string) error {
	m.scrollCalls++
	return m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn  func(ctx context.Context, key string) ([]byte, error)
	setFn  func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	incrFn func(ctx context.Context, key string) (int64, error)
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key)
	}
	return 1, nil
}

// cachedOnly answers every response lookup with data and reports no
// generation counter.
func cachedOnly(data string) func(context.Context, string) ([]byte, error) {
	return func(_ context.Context, key string) ([]byte, error) {
		if key == generationKey {
			return nil, db.ErrKeyNotFound
		}
		return []byte(data), nil
	}
}

// memKV is a working in-memory store; TTLs are ignored.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func newTestCachedSearcher(t *testing.T, inner *mockSearcher) (*CachedSearcher, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, time.Minute, nil, zap.NewNop()), ms
}
