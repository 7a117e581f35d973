package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dombatch "github.com/kailas-cloud/memodex/internal/domain/batch"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/search/criteria"
	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	"github.com/kailas-cloud/memodex/internal/domain/search/result"
	"github.com/kailas-cloud/memodex/internal/domain/search/textquery"
)

// defaultScrollSize is the page size of a scroll opened without one.
const defaultScrollSize = 100

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeNotFound          ErrorCode = "not_found"
	CodeScrollExpired     ErrorCode = "scroll_expired"
	CodeBulkRejected      ErrorCode = "bulk_rejected"
	CodeEngineUnavailable ErrorCode = "engine_unavailable"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Sample  []json.RawMessage `json:"sample,omitempty"`
}

// TextQuery is one full-text clause.
type TextQuery struct {
	Query    string   `json:"query"`
	Fields   []string `json:"fields,omitempty"`
	Type     string   `json:"type,omitempty"`
	Operator string   `json:"operator,omitempty"`
	Boost    *float64 `json:"boost,omitempty"`
}

// SortField orders hits by one field.
type SortField struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"`
}

// SearchRequest is the structured query an agent submits.
type SearchRequest struct {
	Criteria           map[string][]string `json:"criteria,omitempty"`
	MustText           []TextQuery         `json:"must_text,omitempty"`
	ShouldText         []TextQuery         `json:"should_text,omitempty"`
	MinimumShouldMatch *int                `json:"minimum_should_match,omitempty"`
	Size               *int                `json:"size,omitempty"`
	From               *int                `json:"from,omitempty"`
	TrackTotalHits     *bool               `json:"track_total_hits,omitempty"`
	Explain            *bool               `json:"explain,omitempty"`
	Sort               []SortField         `json:"sort,omitempty"`
	SourceIncludes     []string            `json:"source_includes,omitempty"`
	SourceExcludes     []string            `json:"source_excludes,omitempty"`

	// Facets defaults to true.
	Facets      *bool    `json:"facets,omitempty"`
	FacetFields []string `json:"facet_fields,omitempty"`
}

// AgentSearchRequest is the flat form used by automated agents.
type AgentSearchRequest struct {
	Industry []string `json:"industry,omitempty"`
	Region   []string `json:"region,omitempty"`
	Currency []string `json:"currency,omitempty"`
	Queries  []string `json:"queries,omitempty"`
	Size     int      `json:"size,omitempty"`
}

// ScrollRequest opens a cursor. KeepAlive is a Go duration ("2m").
type ScrollRequest struct {
	SearchRequest
	KeepAlive string `json:"keep_alive,omitempty"`
}

// ScrollNextRequest continues a cursor.
type ScrollNextRequest struct {
	ScrollID  string `json:"scroll_id"`
	KeepAlive string `json:"keep_alive,omitempty"`
}

// MultiSearchEntry is one raw header/body pair.
type MultiSearchEntry struct {
	Header json.RawMessage `json:"header,omitempty"`
	Body   json.RawMessage `json:"body"`
}

// MultiSearchRequest carries either raw entries or structured requests.
type MultiSearchRequest struct {
	Searches []MultiSearchEntry `json:"searches,omitempty"`
	Requests []SearchRequest    `json:"requests,omitempty"`
}

// BulkRequest carries memo bodies for ingestion.
type BulkRequest struct {
	Memos []memo.Source `json:"memos"`
}

// Hit is one matching memo.
type Hit struct {
	ID     string      `json:"id"`
	Score  float64     `json:"score"`
	Source memo.Source `json:"source"`
}

// SearchResponse is the normalized search envelope.
type SearchResponse struct {
	Total        int                        `json:"total"`
	Relation     string                     `json:"relation,omitempty"`
	Hits         []Hit                      `json:"hits"`
	Facets       map[string][]result.Bucket `json:"facets,omitempty"`
	Aggregations json.RawMessage            `json:"aggregations,omitempty"`
	Query        json.RawMessage            `json:"query,omitempty"`
	Raw          json.RawMessage            `json:"raw,omitempty"`
}

// PageResponse is one page of a scroll cursor.
type PageResponse struct {
	ScrollID string          `json:"scroll_id"`
	Total    int             `json:"total"`
	Hits     []Hit           `json:"hits"`
	Query    json.RawMessage `json:"query,omitempty"`
}

// MultiSearchResponse holds per-entry engine responses.
type MultiSearchResponse struct {
	Responses []json.RawMessage `json:"responses"`
}

// CountResponse holds a document count.
type CountResponse struct {
	Count int `json:"count"`
}

// MemoResponse is a single stored memo.
type MemoResponse struct {
	ID     string      `json:"id"`
	Source memo.Source `json:"source,omitempty"`
}

// BulkItemError reports one rejected memo.
type BulkItemError struct {
	Position int             `json:"position"`
	ID       string          `json:"id,omitempty"`
	Code     ErrorCode       `json:"code"`
	Message  string          `json:"message"`
	Detail   json.RawMessage `json:"detail,omitempty"`
}

// BulkResponse reports a bulk write.
type BulkResponse struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Errors    []BulkItemError `json:"errors,omitempty"`
}

// EnsureIndexResponse reports whether the index was created.
type EnsureIndexResponse struct {
	Index   string `json:"index"`
	Created bool   `json:"created"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (d *SearchRequest) toDomain() (request.Request, error) {
	return d.toDomainWith()
}

func (d *SearchRequest) toDomainWith(extra ...request.Option) (request.Request, error) {
	must, err := textQueriesFromDTO(d.MustText)
	if err != nil {
		return request.Request{}, fmt.Errorf("must_text: %w", err)
	}
	should, err := textQueriesFromDTO(d.ShouldText)
	if err != nil {
		return request.Request{}, fmt.Errorf("should_text: %w", err)
	}

	opts := []request.Option{
		request.WithCriteria(criteria.New(d.Criteria)),
		request.WithMust(must...),
		request.WithShould(should...),
	}
	opts = append(opts, extra...)
	if d.MinimumShouldMatch != nil {
		opts = append(opts, request.WithMinimumShouldMatch(*d.MinimumShouldMatch))
	}
	if d.Size != nil {
		opts = append(opts, request.WithSize(*d.Size))
	}
	if d.From != nil {
		opts = append(opts, request.WithFrom(*d.From))
	}
	if d.TrackTotalHits != nil {
		opts = append(opts, request.WithTrackTotalHits(*d.TrackTotalHits))
	}
	if d.Explain != nil {
		opts = append(opts, request.WithExplain(*d.Explain))
	}
	for _, s := range d.Sort {
		opts = append(opts, request.WithSort(request.SortField{Field: s.Field, Order: request.SortOrder(s.Order)}))
	}
	// An explicit empty list is still a source filter.
	if d.SourceIncludes != nil {
		opts = append(opts, request.WithSourceIncludes(d.SourceIncludes...))
	}
	if d.SourceExcludes != nil {
		opts = append(opts, request.WithSourceExcludes(d.SourceExcludes...))
	}
	return request.New(opts...)
}

func (d *SearchRequest) facetsEnabled() bool {
	return d.Facets == nil || *d.Facets
}

func textQueriesFromDTO(in []TextQuery) ([]textquery.TextQuery, error) {
	out := make([]textquery.TextQuery, 0, len(in))
	for i, q := range in {
		tq, err := textquery.New(
			q.Query, q.Fields,
			textquery.MatchType(q.Type), textquery.Operator(q.Operator),
			boostOrDefault(q.Boost),
		)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		out = append(out, tq)
	}
	return out, nil
}

func parseKeepAlive(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid keep_alive %q: %w", s, err)
	}
	if d <= 0 {
		return 0, errors.New("keep_alive must be positive")
	}
	return d, nil
}

func hitsToDTO(in []result.Hit) []Hit {
	out := make([]Hit, len(in))
	for i := range in {
		out[i] = Hit{ID: in[i].ID(), Score: in[i].Score(), Source: in[i].Source()}
	}
	return out
}

func envelopeToDTO(env result.Envelope, withRaw bool) SearchResponse {
	resp := SearchResponse{
		Total:        env.Total,
		Relation:     env.Relation,
		Hits:         hitsToDTO(env.Hits),
		Facets:       env.Facets,
		Aggregations: env.Aggregations,
		Query:        env.Query,
	}
	if withRaw {
		resp.Raw = env.Raw
	}
	return resp
}

func pageToDTO(p result.Page) PageResponse {
	return PageResponse{ScrollID: p.ScrollID, Total: p.Total, Hits: hitsToDTO(p.Hits), Query: p.Query}
}

func outcomeToDTO(o dombatch.Outcome) BulkResponse {
	resp := BulkResponse{Succeeded: o.Succeeded, Failed: o.Failed()}
	for _, r := range o.Errors {
		resp.Errors = append(resp.Errors, BulkItemError{
			Position: r.Position(),
			ID:       r.ID(),
			Code:     batchErrorCode(r.Err()),
			Message:  batchItemMessage(r),
			Detail:   r.Detail(),
		})
	}
	return resp
}

func keyedFromSources(srcs []memo.Source) []memo.Keyed {
	docs := make([]memo.Keyed, len(srcs))
	for i, s := range srcs {
		docs[i] = memo.Keyed{Source: s}
	}
	return docs
}

// boostOrDefault keeps an explicit boost, including 0, for validation.
func boostOrDefault(p *float64) float64 {
	if p == nil {
		return textquery.DefaultBoost
	}
	return *p
}
