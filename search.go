package memodex

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/memodex/internal/usecase/search"
)

// DefaultScrollSize is the scroll page size when the request sets none.
const DefaultScrollSize = 100

// MultiSearchEntry is one header/body pair of a multi-search. An empty
// Header targets the client's index.
type MultiSearchEntry struct {
	Header json.RawMessage
	Body   json.RawMessage
}

// SearchService runs structured searches.
type SearchService struct {
	svc searchUseCase
	obs *observer
}

// Do compiles and runs req. Facet buckets are returned when req asked for them.
func (s *SearchService) Do(ctx context.Context, req *Request) (res SearchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observeSearch("search", start, res.Total, err) }()

	dr, err := req.build()
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	var facets searchuc.FacetOptions
	if req != nil && req.facets {
		facets = searchuc.FacetOptions{Enabled: true, Fields: req.facetFields}
	}
	env, err := s.svc.Search(ctx, dr, facets)
	if err != nil {
		return SearchResult{}, err
	}
	return fromEnvelope(env), nil
}

// Count returns the number of memos matching req.
func (s *SearchService) Count(ctx context.Context, req *Request) (n int, err error) {
	start := time.Now()
	defer func() { s.obs.observeSearch("count", start, n, err) }()

	dr, err := req.build()
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return s.svc.Count(ctx, dr)
}

// Scroll opens a cursor over every match of req and returns the first page.
// keepAlive <= 0 uses the default of two minutes. Pages must be fetched
// one after another; release the cursor with ClearScroll.
func (s *SearchService) Scroll(ctx context.Context, req *Request, keepAlive time.Duration) (p Page, err error) {
	start := time.Now()
	defer func() { s.obs.observeSearch("scroll_open", start, p.Total, err) }()

	var extra []request.Option
	if req == nil || !req.sizeSet {
		extra = append(extra, request.WithSize(DefaultScrollSize))
	}
	dr, err := req.build(extra...)
	if err != nil {
		return Page{}, fmt.Errorf("scroll: %w", err)
	}
	page, err := s.svc.OpenScroll(ctx, dr, keepAlive)
	if err != nil {
		return Page{}, err
	}
	return fromPage(page), nil
}

// ScrollNext fetches the page after the one scrollID was returned with.
// An empty page means the cursor is exhausted.
func (s *SearchService) ScrollNext(ctx context.Context, scrollID string, keepAlive time.Duration) (p Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe("scroll_next", start, err) }()

	page, err := s.svc.ScrollNext(ctx, scrollID, keepAlive)
	if err != nil {
		return Page{}, err
	}
	return fromPage(page), nil
}

// ClearScroll releases a cursor.
func (s *SearchService) ClearScroll(ctx context.Context, scrollID string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("scroll_clear", start, err) }()

	return s.svc.ClearScroll(ctx, scrollID)
}

// MultiSearch sends the entries in one round trip. Responses are returned
// as the engine sent them, one per entry.
func (s *SearchService) MultiSearch(ctx context.Context, entries []MultiSearchEntry) (out []json.RawMessage, err error) {
	start := time.Now()
	defer func() { s.obs.observe("msearch", start, err) }()

	in := make([]request.MultiSearchEntry, len(entries))
	for i, e := range entries {
		in[i] = request.MultiSearchEntry{Header: e.Header, Body: e.Body}
	}
	return s.svc.MultiSearch(ctx, in)
}

// Entries renders requests as multi-search entries against the client's index.
func Entries(reqs ...*Request) ([]MultiSearchEntry, error) {
	out := make([]MultiSearchEntry, 0, len(reqs))
	for i, r := range reqs {
		body, err := r.Query()
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		out = append(out, MultiSearchEntry{Body: body})
	}
	return out, nil
}

// Raw sends a caller-built search body and returns the response untouched.
func (s *SearchService) Raw(ctx context.Context, body json.RawMessage) (out json.RawMessage, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search_raw", start, err) }()

	return s.svc.RawSearch(ctx, body)
}
