package search

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/kailas-cloud/memodex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn      func(ctx context.Context, index string, body []byte) (*db.SearchResponse, error)
	msearchFn     func(ctx context.Context, index string, body []byte) ([]json.RawMessage, error)
	countFn       func(ctx context.Context, index string, body []byte) (int, error)
	openScrollFn  func(ctx context.Context, index string, body []byte, keepAlive time.Duration) (*db.SearchResponse, error)
	scrollFn      func(ctx context.Context, scrollID string, keepAlive time.Duration) (*db.SearchResponse, error)
	clearScrollFn func(ctx context.Context, scrollID string) error
}

func (m *mockStore) Search(ctx context.Context, index string, body []byte) (*db.SearchResponse, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, body)
	}
	return &db.SearchResponse{}, nil
}

func (m *mockStore) Msearch(ctx context.Context, index string, body []byte) ([]json.RawMessage, error) {
	if m.msearchFn != nil {
		return m.msearchFn(ctx, index, body)
	}
	return nil, nil
}

func (m *mockStore) Count(ctx context.Context, index string, body []byte) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, index, body)
	}
	return 0, nil
}

func (m *mockStore) OpenScroll(
	ctx context.Context, index string, body []byte, keepAlive time.Duration,
) (*db.SearchResponse, error) {
	if m.openScrollFn != nil {
		return m.openScrollFn(ctx, index, body, keepAlive)
	}
	return &db.SearchResponse{}, nil
}

func (m *mockStore) Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) (*db.SearchResponse, error) {
	if m.scrollFn != nil {
		return m.scrollFn(ctx, scrollID, keepAlive)
	}
	return &db.SearchResponse{}, nil
}

func (m *mockStore) ClearScroll(ctx context.Context, scrollID string) error {
	if m.clearScrollFn != nil {
		return m.clearScrollFn(ctx, scrollID)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "memos"), ms
}

func mustDecode(t *testing.T, data string) *db.SearchResponse {
	t.Helper()
	sr, err := db.DecodeSearchResponse([]byte(data))
	if err != nil {
		t.Fatalf("DecodeSearchResponse: %v", err)
	}
	return sr
}
