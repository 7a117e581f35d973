package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/domain"
	dombatch "github.com/kailas-cloud/memodex/internal/domain/batch"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/memo/patch"
	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	"github.com/kailas-cloud/memodex/internal/domain/search/result"
	"github.com/kailas-cloud/memodex/internal/query"
	batchuc "github.com/kailas-cloud/memodex/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/memodex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/memodex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/memodex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/memodex/internal/usecase/search"
)

// --- search ---

type mockSearchRepo struct {
	env       result.Envelope
	page      result.Page
	count     int
	responses []json.RawMessage
	raw       json.RawMessage
	err       error

	lastSearch    query.SearchBody
	lastScroll    query.ScrollBody
	lastKeepAlive time.Duration
	lastEntries   []request.MultiSearchEntry
	lastScrollID  string
}

func (m *mockSearchRepo) Search(_ context.Context, body query.SearchBody) (result.Envelope, error) {
	m.lastSearch = body
	return m.env, m.err
}

func (m *mockSearchRepo) OpenScroll(_ context.Context, body query.ScrollBody, keepAlive time.Duration) (result.Page, error) {
	m.lastScroll, m.lastKeepAlive = body, keepAlive
	return m.page, m.err
}

func (m *mockSearchRepo) ScrollNext(_ context.Context, id string, keepAlive time.Duration) (result.Page, error) {
	m.lastScrollID, m.lastKeepAlive = id, keepAlive
	return m.page, m.err
}

func (m *mockSearchRepo) ClearScroll(_ context.Context, id string) error {
	m.lastScrollID = id
	return m.err
}

func (m *mockSearchRepo) MultiSearch(_ context.Context, entries []request.MultiSearchEntry) ([]json.RawMessage, error) {
	m.lastEntries = entries
	return m.responses, m.err
}

func (m *mockSearchRepo) Count(context.Context, query.CountBody) (int, error) {
	return m.count, m.err
}

func (m *mockSearchRepo) Raw(context.Context, json.RawMessage) (json.RawMessage, error) {
	return m.raw, m.err
}

// --- memos ---

type mockMemoRepo struct {
	mu   sync.Mutex
	docs map[string]memo.Source
	err  error
}

func (m *mockMemoRepo) Upsert(_ context.Context, doc memo.Keyed) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc.Source
	return nil
}

func (m *mockMemoRepo) Get(_ context.Context, id string, _ []string) (memo.Source, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.docs[id]
	return src, ok, m.err
}

func (m *mockMemoRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *mockMemoRepo) Patch(_ context.Context, id string, p patch.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	for k, v := range p.Fields() {
		src[k] = v
	}
	return nil
}

// BulkIndex rejects ids listed in reject.
func (m *mockMemoRepo) BulkIndex(_ context.Context, docs []dombatch.Doc) ([]dombatch.Ack, error) {
	acks := make([]dombatch.Ack, len(docs))
	for i, d := range docs {
		if strings.HasPrefix(d.ID, "bad") {
			acks[i] = dombatch.Ack{ID: d.ID, Status: 400, Error: json.RawMessage(`{"type":"mapper_parsing_exception"}`)}
			continue
		}
		acks[i] = dombatch.Ack{ID: d.ID, Status: 201}
	}
	return acks, nil
}

func (m *mockMemoRepo) Lines(docs []dombatch.Doc) ([]string, error) {
	out := make([]string, 0, 2*len(docs))
	for _, d := range docs {
		out = append(out, `{"index":{"_id":"`+d.ID+`"}}`, string(d.Source))
	}
	return out, nil
}

func (m *mockMemoRepo) BulkLines(_ context.Context, lines []string) (dombatch.Response, error) {
	var resp dombatch.Response
	for i := 0; i < len(lines); i += 2 {
		if strings.Contains(lines[i], `"bad`) {
			resp.Errors = true
			resp.Items = append(resp.Items, dombatch.Ack{Status: 400, Error: json.RawMessage(`{"type":"mapper_parsing_exception"}`)})
			continue
		}
		resp.Items = append(resp.Items, dombatch.Ack{Status: 201})
	}
	return resp, nil
}

// --- index ---

type mockIndexRepo struct {
	exists bool
	count  int
}

func (m *mockIndexRepo) Name() string                          { return "memos" }
func (m *mockIndexRepo) Exists(context.Context) (bool, error) { return m.exists, nil }
func (m *mockIndexRepo) Create(context.Context) (bool, error) { return true, nil }
func (m *mockIndexRepo) Mapping(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"memos":{"mappings":{}}}`), nil
}
func (m *mockIndexRepo) PutMapping(context.Context, json.RawMessage) error { return nil }
func (m *mockIndexRepo) Refresh(context.Context) error                     { return nil }
func (m *mockIndexRepo) Count(context.Context) (int, error)                { return m.count, nil }

// --- health ---

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	handler http.Handler
	search  *mockSearchRepo
	memos   *mockMemoRepo
	index   *mockIndexRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		search: &mockSearchRepo{},
		memos:  &mockMemoRepo{docs: make(map[string]memo.Source)},
		index:  &mockIndexRepo{},
	}
	logger := zap.NewNop()
	srv := NewServer(
		searchuc.New(env.search, logger),
		documentuc.New(env.memos),
		batchuc.New(env.memos, env.memos, logger),
		indexuc.New(env.index, logger),
		healthuc.New(pinger{}, nil),
		logger,
	)
	env.handler = NewRouter(srv, RouterConfig{})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader = http.NoBody
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

var errBoom = errors.New("boom")
