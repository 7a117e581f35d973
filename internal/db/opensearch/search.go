package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/kailas-cloud/memodex/internal/db"
)

// Search runs a query body against index.
func (s *Store) Search(ctx context.Context, index string, body []byte) (*db.SearchResponse, error) {
	data, _, err := s.do(ctx, db.OpSearch, opensearchapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	})
	if err != nil {
		return nil, err
	}
	return decodeSearch(db.OpSearch, data)
}

// OpenScroll runs a query body and keeps a scroll cursor alive for keepAlive.
func (s *Store) OpenScroll(
	ctx context.Context, index string, body []byte, keepAlive time.Duration,
) (*db.SearchResponse, error) {
	data, _, err := s.do(ctx, db.OpSearch, opensearchapi.SearchRequest{
		Index:  []string{index},
		Body:   bytes.NewReader(body),
		Scroll: keepAlive,
	})
	if err != nil {
		return nil, err
	}
	return decodeSearch(db.OpSearch, data)
}

type scrollBody struct {
	Scroll   string `json:"scroll"`
	ScrollID string `json:"scroll_id"`
}

// Scroll fetches the next page of a cursor and extends it by keepAlive.
func (s *Store) Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) (*db.SearchResponse, error) {
	payload, err := json.Marshal(scrollBody{Scroll: formatKeepAlive(keepAlive), ScrollID: scrollID})
	if err != nil {
		return nil, &db.Error{Op: db.OpScroll, Err: err}
	}
	data, status, err := s.do(ctx, db.OpScroll, opensearchapi.ScrollRequest{
		Body: bytes.NewReader(payload),
	})
	if err != nil {
		return nil, scrollNotFound(status, err)
	}
	return decodeSearch(db.OpScroll, data)
}

// ClearScroll releases a cursor. Clearing an unknown cursor is an error.
func (s *Store) ClearScroll(ctx context.Context, scrollID string) error {
	payload, err := json.Marshal(map[string][]string{"scroll_id": {scrollID}})
	if err != nil {
		return &db.Error{Op: db.OpClearScroll, Err: err}
	}
	_, status, err := s.do(ctx, db.OpClearScroll, opensearchapi.ClearScrollRequest{
		Body: bytes.NewReader(payload),
	})
	if err != nil {
		return scrollNotFound(status, err)
	}
	return nil
}

// Msearch runs an NDJSON multi-search body. Per-entry responses, including
// entry-level errors, are returned unmodified.
func (s *Store) Msearch(ctx context.Context, index string, body []byte) ([]json.RawMessage, error) {
	req := opensearchapi.MsearchRequest{Body: bytes.NewReader(body)}
	if index != "" {
		req.Index = []string{index}
	}
	data, _, err := s.do(ctx, db.OpMsearch, req)
	if err != nil {
		return nil, err
	}
	out, err := db.DecodeMsearchResponse(data)
	if err != nil {
		return nil, &db.Error{Op: db.OpMsearch, Err: err}
	}
	return out, nil
}

// Count returns the number of documents matching a query body.
// A nil body counts every document.
func (s *Store) Count(ctx context.Context, index string, body []byte) (int, error) {
	req := opensearchapi.CountRequest{Index: []string{index}}
	if body != nil {
		req.Body = bytes.NewReader(body)
	}
	data, _, err := s.do(ctx, db.OpCount, req)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: fmt.Errorf("decode count: %w", err)}
	}
	return resp.Count, nil
}

func decodeSearch(op string, data []byte) (*db.SearchResponse, error) {
	resp, err := db.DecodeSearchResponse(data)
	if err != nil {
		return nil, &db.Error{Op: op, Err: err}
	}
	return resp, nil
}

func scrollNotFound(status int, err error) error {
	var dbErr *db.Error
	if status == http.StatusNotFound && errors.As(err, &dbErr) && !errors.Is(err, db.ErrScrollNotFound) {
		dbErr.Err = fmt.Errorf("%w: %w", db.ErrScrollNotFound, dbErr.Err)
	}
	return err
}

// formatKeepAlive renders a duration in engine time units, e.g. "2m" or "90s".
func formatKeepAlive(d time.Duration) string {
	switch {
	case d <= 0:
		return "1m"
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%ds", d/time.Second)
	default:
		return fmt.Sprintf("%dms", d/time.Millisecond)
	}
}
