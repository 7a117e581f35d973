package index

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/memodex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	existsFn     func(ctx context.Context, name string) (bool, error)
	createFn     func(ctx context.Context, def *db.IndexDefinition) error
	getMappingFn func(ctx context.Context, name string) (json.RawMessage, error)
	putMappingFn func(ctx context.Context, name string, body []byte) error
	refreshFn    func(ctx context.Context, name string) error
	countFn      func(ctx context.Context, index string, body []byte) (int, error)
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createFn != nil {
		return m.createFn(ctx, def)
	}
	return nil
}

func (m *mockStore) GetMapping(ctx context.Context, name string) (json.RawMessage, error) {
	if m.getMappingFn != nil {
		return m.getMappingFn(ctx, name)
	}
	return json.RawMessage(`{}`), nil
}

func (m *mockStore) PutMapping(ctx context.Context, name string, body []byte) error {
	if m.putMappingFn != nil {
		return m.putMappingFn(ctx, name, body)
	}
	return nil
}

func (m *mockStore) Refresh(ctx context.Context, name string) error {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, name)
	}
	return nil
}

func (m *mockStore) Count(ctx context.Context, index string, body []byte) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, index, body)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "memos"), ms
}
