package index

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/domain"
)

type mockRepo struct {
	exists      bool
	existsErr   error
	createErr   error
	created     bool
	createCalls int
	count       int
	refreshed   bool
	mapping     json.RawMessage
}

func (m *mockRepo) Name() string { return "memos" }

func (m *mockRepo) Exists(context.Context) (bool, error) { return m.exists, m.existsErr }

func (m *mockRepo) Create(context.Context) (bool, error) {
	m.createCalls++
	return m.created, m.createErr
}

func (m *mockRepo) Mapping(context.Context) (json.RawMessage, error) { return m.mapping, nil }

func (m *mockRepo) PutMapping(_ context.Context, body json.RawMessage) error {
	m.mapping = body
	return nil
}

func (m *mockRepo) Refresh(context.Context) error {
	m.refreshed = true
	return nil
}

func (m *mockRepo) Count(context.Context) (int, error) { return m.count, nil }

func TestEnsure_CreatesWhenAbsent(t *testing.T) {
	repo := &mockRepo{created: true}
	created, err := New(repo, zap.NewNop()).Ensure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !created || repo.createCalls != 1 {
		t.Errorf("created = %v, calls = %d", created, repo.createCalls)
	}
}

func TestEnsure_NoopWhenExists(t *testing.T) {
	repo := &mockRepo{exists: true}
	created, err := New(repo, zap.NewNop()).Ensure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if created || repo.createCalls != 0 {
		t.Errorf("created = %v, calls = %d", created, repo.createCalls)
	}
}

func TestEnsure_ExistsError(t *testing.T) {
	repo := &mockRepo{existsErr: domain.ErrEngineUnavailable}
	_, err := New(repo, zap.NewNop()).Ensure(context.Background())
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
	if repo.createCalls != 0 {
		t.Error("create attempted after a failed existence check")
	}
}

func TestEnsure_CreateError(t *testing.T) {
	boom := errors.New("boom")
	repo := &mockRepo{createErr: boom}
	if _, err := New(repo, zap.NewNop()).Ensure(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestPutMapping_RejectsInvalidJSON(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, zap.NewNop())
	if err := svc.PutMapping(context.Background(), json.RawMessage(`{`)); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
	if err := svc.PutMapping(context.Background(), json.RawMessage(`{"properties":{}}`)); err != nil {
		t.Fatal(err)
	}
	m, _ := svc.Mapping(context.Background())
	if string(m) != `{"properties":{}}` {
		t.Errorf("mapping = %s", m)
	}
}

func TestRefreshAndCount(t *testing.T) {
	repo := &mockRepo{count: 5}
	svc := New(repo, zap.NewNop())
	if err := svc.Refresh(context.Background()); err != nil || !repo.refreshed {
		t.Fatalf("refresh: %v", err)
	}
	if n, err := svc.Count(context.Background()); err != nil || n != 5 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}
