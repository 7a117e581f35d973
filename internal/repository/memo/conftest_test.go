package memo

import (
	"context"
	"testing"

	"github.com/kailas-cloud/memodex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	bulkFn   func(ctx context.Context, body []byte) (*db.BulkResponse, error)
	indexFn  func(ctx context.Context, index, id string, body []byte) error
	getFn    func(ctx context.Context, index, id string, includes []string) (*db.GetResponse, error)
	deleteFn func(ctx context.Context, index, id string) error
	updateFn func(ctx context.Context, index, id string, body []byte) error
}

func (m *mockStore) Bulk(ctx context.Context, body []byte) (*db.BulkResponse, error) {
	if m.bulkFn != nil {
		return m.bulkFn(ctx, body)
	}
	return &db.BulkResponse{}, nil
}

func (m *mockStore) Index(ctx context.Context, index, id string, body []byte) error {
	if m.indexFn != nil {
		return m.indexFn(ctx, index, id, body)
	}
	return nil
}

func (m *mockStore) Get(ctx context.Context, index, id string, includes []string) (*db.GetResponse, error) {
	if m.getFn != nil {
		return m.getFn(ctx, index, id, includes)
	}
	return nil, db.ErrDocumentNotFound
}

func (m *mockStore) Delete(ctx context.Context, index, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, index, id)
	}
	return nil
}

func (m *mockStore) Update(ctx context.Context, index, id string, body []byte) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, index, id, body)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "memos"), ms
}
