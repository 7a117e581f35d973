package query

import (
	"encoding/json"

	"github.com/kailas-cloud/memodex/internal/domain/search/request"
)

// Sort is one rendered sort key: {"<field>":{"order":"asc|desc"}}.
type Sort struct {
	Field string
	Order string
}

// MarshalJSON implements json.Marshaler.
func (s Sort) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]string{s.Field: {"order": s.Order}})
}

// SourceFilter is the _source projection. A nil list is omitted,
// an empty non-nil list is sent as [].
type SourceFilter struct {
	Includes []string
	Excludes []string
}

// MarshalJSON implements json.Marshaler.
func (s SourceFilter) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, 2)
	if s.Includes != nil {
		out["includes"] = s.Includes
	}
	if s.Excludes != nil {
		out["excludes"] = s.Excludes
	}
	return json.Marshal(out)
}

// SearchBody is the request body of a paged search.
type SearchBody struct {
	Query          Bool                `json:"query"`
	Size           int                 `json:"size"`
	From           int                 `json:"from"`
	TrackTotalHits bool                `json:"track_total_hits"`
	Explain        bool                `json:"explain,omitempty"`
	Sort           []Sort              `json:"sort,omitempty"`
	Source         *SourceFilter       `json:"_source,omitempty"`
	Aggs           map[string]TermsAgg `json:"aggs,omitempty"`
}

// NewSearchBody renders a paged search. explain, sort and _source are only
// present when the request sets them. aggs is attached by the caller.
func NewSearchBody(req *request.Request) SearchBody {
	body := SearchBody{
		Query:          Compile(req),
		Size:           req.Size(),
		From:           req.From(),
		TrackTotalHits: req.TrackTotalHits(),
		Explain:        req.Explain(),
	}
	for _, s := range req.Sort() {
		body.Sort = append(body.Sort, Sort{Field: s.Field, Order: string(s.Order)})
	}
	inc, exc := req.SourceIncludes(), req.SourceExcludes()
	if inc != nil || exc != nil {
		body.Source = &SourceFilter{Includes: inc, Excludes: exc}
	}
	return body
}

// ScrollBody is the request body that opens a scroll cursor.
type ScrollBody struct {
	Query          Bool `json:"query"`
	Size           int  `json:"size"`
	TrackTotalHits bool `json:"track_total_hits"`
}

// NewScrollBody renders the first scroll request.
func NewScrollBody(req *request.Request) ScrollBody {
	return ScrollBody{
		Query:          Compile(req),
		Size:           req.Size(),
		TrackTotalHits: req.TrackTotalHits(),
	}
}

// CountBody is the request body of a count.
type CountBody struct {
	Query Bool `json:"query"`
}

// NewCountBody renders a count request.
func NewCountBody(req *request.Request) CountBody {
	return CountBody{Query: Compile(req)}
}
