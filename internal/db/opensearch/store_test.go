package opensearch

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/memodex/internal/db"
	"github.com/kailas-cloud/memodex/internal/domain"
)

// fakeEngine serves canned responses keyed by URL path and records requests.
type fakeEngine struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recorded
}

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func (f *fakeEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
	h, ok := f.routes[r.URL.Path]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"no_route","reason":"` + r.URL.Path + `"}}`))
		return
	}
	h(w, r)
}

func (f *fakeEngine) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newTestStore(t *testing.T, routes map[string]http.HandlerFunc) (*Store, *fakeEngine) {
	t.Helper()
	fake := &fakeEngine{routes: routes}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewStore(Config{Addrs: []string{srv.URL}, DisableRetry: true})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, fake
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	_, err := NewStore(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "addrs")
}

func TestPing(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/": reply(http.StatusOK, `{}`),
	})
	require.NoError(t, s.Ping(context.Background()))
}

func TestPing_Unavailable(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/": reply(http.StatusServiceUnavailable, `{}`),
	})
	err := s.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}

func TestBasicAuth(t *testing.T) {
	var user, pass string
	fake := &fakeEngine{routes: map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, r *http.Request) {
			user, pass, _ = r.BasicAuth()
			w.WriteHeader(http.StatusOK)
		},
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s, err := NewStore(Config{Addrs: []string{srv.URL}, Username: "admin", Password: "secret", DisableRetry: true})
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, "admin", user)
	assert.Equal(t, "secret", pass)
}

const searchResponse = `{
	"took": 2,
	"hits": {
		"total": {"value": 1, "relation": "eq"},
		"hits": [{"_index":"memos","_id":"M-1","_score":3.5,"_source":{"memoId":"M-1"}}]
	},
	"aggregations": {"industry_facet": {"buckets": [{"key":"Energy","doc_count":1}]}}
}`

func TestSearch(t *testing.T) {
	s, fake := newTestStore(t, map[string]http.HandlerFunc{
		"/memos/_search": reply(http.StatusOK, searchResponse),
	})

	resp, err := s.Search(context.Background(), "memos", []byte(`{"query":{"match_all":{}}}`))
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "M-1", resp.Hits[0].ID)
	assert.InDelta(t, 3.5, resp.Hits[0].Score, 1e-9)
	assert.Contains(t, resp.Aggregations, "industry_facet")
	assert.JSONEq(t, `{"query":{"match_all":{}}}`, fake.last().Body)
}

func TestSearch_BadRequest(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/memos/_search": reply(http.StatusBadRequest, `{"error":{"type":"parsing_exception","reason":"unknown query [bogus]"},"status":400}`),
	})

	_, err := s.Search(context.Background(), "memos", []byte(`{"query":{"bogus":{}}}`))
	require.Error(t, err)

	var dbErr *db.Error
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, http.StatusBadRequest, dbErr.Status)
	assert.Equal(t, db.OpSearch, dbErr.Op)
	assert.Contains(t, err.Error(), "parsing_exception: unknown query [bogus]")
	assert.False(t, dbErr.Retryable())
}

func TestSearch_IndexNotFound(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/missing/_search": reply(http.StatusNotFound, `{"error":{"type":"index_not_found_exception","reason":"no such index [missing]"}}`),
	})

	_, err := s.Search(context.Background(), "missing", []byte(`{}`))
	assert.ErrorIs(t, err, db.ErrIndexNotFound)
}

func TestOpenScroll(t *testing.T) {
	s, fake := newTestStore(t, map[string]http.HandlerFunc{
		"/memos/_search": reply(http.StatusOK, `{"_scroll_id":"c1","hits":{"total":5,"hits":[]}}`),
	})

	resp, err := s.OpenScroll(context.Background(), "memos", []byte(`{"size":100}`), 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "c1", resp.ScrollID)
	assert.Contains(t, fake.last().Query, "scroll=")
}

func TestScroll(t *testing.T) {
	s, fake := newTestStore(t, map[string]http.HandlerFunc{
		"/_search/scroll": reply(http.StatusOK, `{"_scroll_id":"c2","hits":{"hits":[{"_id":"M-9","_source":{}}]}}`),
	})

	resp, err := s.Scroll(context.Background(), "c1", 90*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "c2", resp.ScrollID)
	require.Len(t, resp.Hits, 1)
	assert.JSONEq(t, `{"scroll":"90s","scroll_id":"c1"}`, fake.last().Body)
}

func TestScroll_Expired(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/_search/scroll": reply(http.StatusNotFound, `{"error":{"type":"search_phase_execution_exception","reason":"all shards failed"}}`),
	})

	_, err := s.Scroll(context.Background(), "gone", time.Minute)
	assert.ErrorIs(t, err, db.ErrScrollNotFound)
}

func TestClearScroll(t *testing.T) {
	s, fake := newTestStore(t, map[string]http.HandlerFunc{
		"/_search/scroll": reply(http.StatusOK, `{"succeeded":true,"num_freed":1}`),
	})

	require.NoError(t, s.ClearScroll(context.Background(), "c1"))
	assert.Equal(t, http.MethodDelete, fake.last().Method)
	assert.JSONEq(t, `{"scroll_id":["c1"]}`, fake.last().Body)
}

func TestMsearch(t *testing.T) {
	s, fake := newTestStore(t, map[string]http.HandlerFunc{
		"/memos/_msearch": reply(http.StatusOK, `{"responses":[{"hits":{"hits":[]}},{"error":{"type":"x"},"status":400}]}`),
	})

	body := "{}\n{\"query\":{\"match_all\":{}}}\n{}\n{\"query\":{\"bogus\":{}}}\n"
	out, err := s.Msearch(context.Background(), "memos", []byte(body))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.JSONEq(t, `{"error":{"type":"x"},"status":400}`, string(out[1]))
	assert.Equal(t, body, fake.last().Body)
}

func TestCount(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/memos/_count": reply(http.StatusOK, `{"count":42}`),
	})

	n, err := s.Count(context.Background(), "memos", []byte(`{"query":{"match_all":{}}}`))
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestBulk(t *testing.T) {
	s, fake := newTestStore(t, map[string]http.HandlerFunc{
		"/_bulk": reply(http.StatusOK, `{"took":1,"errors":true,"items":[
			{"index":{"_id":"a","status":201}},
			{"index":{"_id":"b","status":400,"error":{"type":"mapper_parsing_exception","reason":"failed"}}}]}`),
	})

	body := "{\"index\":{\"_index\":\"memos\",\"_id\":\"a\"}}\n{}\n"
	resp, err := s.Bulk(context.Background(), []byte(body))
	require.NoError(t, err)
	assert.True(t, resp.Errors)
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[1].Failed())
	assert.Equal(t, body, fake.last().Body)
}

func TestBulk_TransportFailure(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/_bulk": reply(http.StatusBadGateway, `bad gateway`),
	})

	_, err := s.Bulk(context.Background(), []byte("{}\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}

func TestIndexAndGet(t *testing.T) {
	docs := map[string]string{}
	var mu sync.Mutex
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/memos/_doc/M-1": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			switch r.Method {
			case http.MethodPut, http.MethodPost:
				b, _ := io.ReadAll(r.Body)
				docs["M-1"] = string(b)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"result":"created"}`))
			case http.MethodGet:
				src, ok := docs["M-1"]
				if !ok {
					w.WriteHeader(http.StatusNotFound)
					_, _ = w.Write([]byte(`{"_id":"M-1","found":false}`))
					return
				}
				_, _ = w.Write([]byte(`{"_index":"memos","_id":"M-1","found":true,"_source":` + src + `}`))
			case http.MethodDelete:
				if _, ok := docs["M-1"]; !ok {
					w.WriteHeader(http.StatusNotFound)
					_, _ = w.Write([]byte(`{"result":"not_found"}`))
					return
				}
				delete(docs, "M-1")
				_, _ = w.Write([]byte(`{"result":"deleted"}`))
			}
		},
	})
	ctx := context.Background()

	_, err := s.Get(ctx, "memos", "M-1", nil)
	assert.ErrorIs(t, err, db.ErrDocumentNotFound)

	require.NoError(t, s.Index(ctx, "memos", "M-1", []byte(`{"memoId":"M-1","region":"EU"}`)))
	got, err := s.Get(ctx, "memos", "M-1", []string{"region"})
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.JSONEq(t, `{"memoId":"M-1","region":"EU"}`, string(got.Source))

	require.NoError(t, s.Delete(ctx, "memos", "M-1"))
	assert.ErrorIs(t, s.Delete(ctx, "memos", "M-1"), db.ErrDocumentNotFound)
}

func TestGet_SourceIncludes(t *testing.T) {
	s, fake := newTestStore(t, map[string]http.HandlerFunc{
		"/memos/_doc/M-1": reply(http.StatusOK, `{"_id":"M-1","found":true,"_source":{}}`),
	})
	_, err := s.Get(context.Background(), "memos", "M-1", []string{"memoId", "region"})
	require.NoError(t, err)
	assert.Contains(t, fake.last().Query, "_source_includes=memoId%2Cregion")
}

func TestUpdate(t *testing.T) {
	s, fake := newTestStore(t, map[string]http.HandlerFunc{
		"/memos/_update/M-1": reply(http.StatusOK, `{"result":"updated"}`),
		"/memos/_update/M-2": reply(http.StatusNotFound, `{"error":{"type":"document_missing_exception","reason":"[M-2]: document missing"}}`),
	})
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "memos", "M-1", []byte(`{"doc":{"region":"US"}}`)))
	assert.JSONEq(t, `{"doc":{"region":"US"}}`, fake.last().Body)
	assert.ErrorIs(t, s.Update(ctx, "memos", "M-2", []byte(`{"doc":{}}`)), db.ErrDocumentNotFound)
}

func TestIndexExists(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/memos":  reply(http.StatusOK, ``),
		"/broken": reply(http.StatusForbidden, ``),
	})
	ctx := context.Background()

	ok, err := s.IndexExists(ctx, "memos")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IndexExists(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.IndexExists(ctx, "broken")
	require.Error(t, err)
}

func TestCreateIndex(t *testing.T) {
	s, fake := newTestStore(t, map[string]http.HandlerFunc{
		"/memos": reply(http.StatusOK, `{"acknowledged":true}`),
		"/dupe":  reply(http.StatusBadRequest, `{"error":{"type":"resource_already_exists_exception","reason":"exists"}}`),
	})
	ctx := context.Background()

	def := db.NewIndex("memos").Keyword("memoId").TextWithKeyword("clientName").MustBuild()
	require.NoError(t, s.CreateIndex(ctx, def))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(fake.last().Body), &body))
	assert.Equal(t, http.MethodPut, fake.last().Method)
	assert.Contains(t, body, "settings")
	assert.Contains(t, body, "mappings")

	dupe := db.NewIndex("dupe").Keyword("memoId").MustBuild()
	assert.ErrorIs(t, s.CreateIndex(ctx, dupe), db.ErrIndexExists)

	bad := &db.IndexDefinition{Name: "x"}
	assert.Error(t, s.CreateIndex(ctx, bad))
}

func TestGetMapping(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/memos/_mapping": reply(http.StatusOK, `{"memos":{"mappings":{"properties":{"memoId":{"type":"keyword"}}}}}`),
	})

	m, err := s.GetMapping(context.Background(), "memos")
	require.NoError(t, err)
	assert.JSONEq(t, `{"properties":{"memoId":{"type":"keyword"}}}`, string(m))
}

func TestPutMappingAndRefresh(t *testing.T) {
	s, fake := newTestStore(t, map[string]http.HandlerFunc{
		"/memos/_mapping": reply(http.StatusOK, `{"acknowledged":true}`),
		"/memos/_refresh": reply(http.StatusOK, `{"_shards":{"total":1}}`),
	})
	ctx := context.Background()

	require.NoError(t, s.PutMapping(ctx, "memos", []byte(`{"properties":{"rating":{"type":"keyword"}}}`)))
	assert.Equal(t, http.MethodPut, fake.last().Method)

	require.NoError(t, s.Refresh(ctx, "memos"))
	assert.True(t, strings.HasSuffix(fake.last().Path, "/_refresh"))
}

func TestWaitForReady_Timeout(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/": reply(http.StatusServiceUnavailable, ``),
	})
	err := s.WaitForReady(context.Background(), 600*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestWaitForReady_OK(t *testing.T) {
	s, _ := newTestStore(t, map[string]http.HandlerFunc{
		"/": reply(http.StatusOK, `{}`),
	})
	require.NoError(t, s.WaitForReady(context.Background(), 2*time.Second))
}

func TestFormatKeepAlive(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{2 * time.Minute, "2m"},
		{time.Hour, "1h"},
		{90 * time.Second, "90s"},
		{1500 * time.Millisecond, "1500ms"},
		{0, "1m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatKeepAlive(tt.d), "formatKeepAlive(%s)", tt.d)
	}
}

func TestEngineError(t *testing.T) {
	err := engineError(http.StatusInternalServerError, []byte(`not json`))
	assert.EqualError(t, err, "Internal Server Error")

	err = engineError(http.StatusBadRequest, []byte(`{"error":"plain message"}`))
	assert.EqualError(t, err, "plain message")
}
