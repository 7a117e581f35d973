package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/memodex/internal/db"
	"github.com/kailas-cloud/memodex/internal/domain"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	"github.com/kailas-cloud/memodex/internal/domain/search/result"
	"github.com/kailas-cloud/memodex/internal/query"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, index string, body []byte) (*db.SearchResponse, error)
	Msearch(ctx context.Context, index string, body []byte) ([]json.RawMessage, error)
	Count(ctx context.Context, index string, body []byte) (int, error)
	OpenScroll(ctx context.Context, index string, body []byte, keepAlive time.Duration) (*db.SearchResponse, error)
	Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) (*db.SearchResponse, error)
	ClearScroll(ctx context.Context, scrollID string) error
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
	index string
}

// New creates a search repository bound to one index.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index}
}

// Search executes a rendered search body and normalizes the response.
func (r *Repo) Search(ctx context.Context, body query.SearchBody) (result.Envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return result.Envelope{}, fmt.Errorf("marshal search body: %w", err)
	}

	sr, err := r.store.Search(ctx, r.index, payload)
	if err != nil {
		return result.Envelope{}, fmt.Errorf("search %s: %w", r.index, err)
	}

	total, relation, err := result.ParseTotal(sr.Total)
	if err != nil {
		return result.Envelope{}, err
	}
	hits, err := toHits(sr.Hits)
	if err != nil {
		return result.Envelope{}, err
	}
	facets, err := parseFacets(sr.Aggregations)
	if err != nil {
		return result.Envelope{}, err
	}

	env := result.Envelope{
		Total:    total,
		Relation: relation,
		Hits:     hits,
		Facets:   facets,
		Raw:      sr.Raw,
		Query:    payload,
	}
	if len(sr.Aggregations) > 0 {
		aggs, err := json.Marshal(sr.Aggregations)
		if err != nil {
			return result.Envelope{}, fmt.Errorf("marshal aggregations: %w", err)
		}
		env.Aggregations = aggs
	}
	return env, nil
}

// OpenScroll runs the first page of a scroll.
func (r *Repo) OpenScroll(ctx context.Context, body query.ScrollBody, keepAlive time.Duration) (result.Page, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return result.Page{}, fmt.Errorf("marshal scroll body: %w", err)
	}
	sr, err := r.store.OpenScroll(ctx, r.index, payload, keepAlive)
	if err != nil {
		return result.Page{}, fmt.Errorf("open scroll %s: %w", r.index, err)
	}
	page, err := toPage(sr)
	if err != nil {
		return result.Page{}, err
	}
	page.Query = payload
	return page, nil
}

// ScrollNext fetches the next page of a cursor.
func (r *Repo) ScrollNext(ctx context.Context, scrollID string, keepAlive time.Duration) (result.Page, error) {
	sr, err := r.store.Scroll(ctx, scrollID, keepAlive)
	if err != nil {
		return result.Page{}, fmt.Errorf("scroll: %w", mapScrollErr(err))
	}
	return toPage(sr)
}

// ClearScroll releases a cursor.
func (r *Repo) ClearScroll(ctx context.Context, scrollID string) error {
	if err := r.store.ClearScroll(ctx, scrollID); err != nil {
		return fmt.Errorf("clear scroll: %w", mapScrollErr(err))
	}
	return nil
}

// MultiSearch runs several header/body pairs in one round trip. Entry
// responses are returned as the engine produced them.
func (r *Repo) MultiSearch(ctx context.Context, entries []request.MultiSearchEntry) ([]json.RawMessage, error) {
	var buf bytes.Buffer
	for i, e := range entries {
		for _, part := range []json.RawMessage{e.Header, e.Body} {
			if len(part) == 0 {
				part = json.RawMessage("{}")
			}
			var compact bytes.Buffer
			if err := json.Compact(&compact, part); err != nil {
				return nil, fmt.Errorf("msearch entry %d: %w", i, err)
			}
			buf.Write(compact.Bytes())
			buf.WriteByte('\n')
		}
	}
	out, err := r.store.Msearch(ctx, r.index, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("msearch %s: %w", r.index, err)
	}
	return out, nil
}

// Count returns the number of documents matching a count body.
func (r *Repo) Count(ctx context.Context, body query.CountBody) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal count body: %w", err)
	}
	n, err := r.store.Count(ctx, r.index, payload)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.index, err)
	}
	return n, nil
}

// Raw sends a caller-built body and returns the engine response untouched.
func (r *Repo) Raw(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	sr, err := r.store.Search(ctx, r.index, body)
	if err != nil {
		return nil, fmt.Errorf("raw search %s: %w", r.index, err)
	}
	return sr.Raw, nil
}

func toPage(sr *db.SearchResponse) (result.Page, error) {
	total, _, err := result.ParseTotal(sr.Total)
	if err != nil {
		return result.Page{}, err
	}
	hits, err := toHits(sr.Hits)
	if err != nil {
		return result.Page{}, err
	}
	return result.Page{ScrollID: sr.ScrollID, Total: total, Hits: hits, Raw: sr.Raw}, nil
}

func toHits(in []db.Hit) ([]result.Hit, error) {
	hits := make([]result.Hit, 0, len(in))
	for _, h := range in {
		var src memo.Source
		if len(h.Source) > 0 {
			if err := json.Unmarshal(h.Source, &src); err != nil {
				return nil, fmt.Errorf("decode source of %s: %w", h.ID, err)
			}
		}
		hits = append(hits, result.NewHit(h.ID, h.Score, src, h.Raw))
	}
	return hits, nil
}

type termsAggResult struct {
	Buckets []struct {
		Key      json.RawMessage `json:"key"`
		DocCount int             `json:"doc_count"`
	} `json:"buckets"`
}

// parseFacets extracts "<field>_facet" bucket lists. Other aggregations are ignored.
func parseFacets(aggs map[string]json.RawMessage) (map[string][]result.Bucket, error) {
	if len(aggs) == 0 {
		return nil, nil
	}
	out := make(map[string][]result.Bucket)
	for name, raw := range aggs {
		field, ok := query.FacetField(name)
		if !ok {
			continue
		}
		var agg termsAggResult
		if err := json.Unmarshal(raw, &agg); err != nil {
			return nil, fmt.Errorf("decode facet %s: %w", name, err)
		}
		buckets := make([]result.Bucket, 0, len(agg.Buckets))
		for _, b := range agg.Buckets {
			buckets = append(buckets, result.Bucket{Key: bucketKey(b.Key), DocCount: b.DocCount})
		}
		out[field] = buckets
	}
	return out, nil
}

// bucketKey renders keyword keys as plain strings and anything else as JSON text.
func bucketKey(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

func mapScrollErr(err error) error {
	if errors.Is(err, db.ErrScrollNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrScrollExpired, err)
	}
	return err
}
