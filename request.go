package memodex

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/memodex/internal/domain"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/search/criteria"
	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	"github.com/kailas-cloud/memodex/internal/domain/search/textquery"
	"github.com/kailas-cloud/memodex/internal/query"
)

// MatchType is the multi-field match strategy of a text query.
type MatchType = textquery.MatchType

// Match strategies.
const (
	BestFields   = textquery.BestFields
	MostFields   = textquery.MostFields
	Phrase       = textquery.Phrase
	PhrasePrefix = textquery.PhrasePrefix
	BoolPrefix   = textquery.BoolPrefix
)

// Operator combines the terms of a text query.
type Operator = textquery.Operator

// Term operators.
const (
	Or  = textquery.Or
	And = textquery.And
)

// SortOrder is a sort direction.
type SortOrder = request.SortOrder

// Sort directions.
const (
	Asc  = request.Asc
	Desc = request.Desc
)

// Match is one full-text query. Empty Fields targets the narrative
// sections. Zero Boost means unset (weight 1); negative, NaN and infinite
// boosts are rejected.
type Match struct {
	Query    string
	Fields   []string
	Type     MatchType
	Operator Operator
	Boost    float64
}

type agentArgs struct {
	queries []string
	size    int
}

// Request is a fluent search request builder. The zero value is not usable;
// start from NewRequest or AgentRequest. Errors are reported when the
// request is executed.
type Request struct {
	agent    *agentArgs
	criteria map[string][]string
	must     []Match
	should   []Match
	opts     []request.Option
	sizeSet  bool

	facets      bool
	facetFields []string

	err error
}

// NewRequest starts an empty request: no filters, no text queries, size 10.
func NewRequest() *Request {
	return &Request{criteria: make(map[string][]string)}
}

// AgentRequest builds the request automated agents send: industry, region
// and currency filters, and one should-query per phrase matched against the
// risk factors and committee discussion points. When any phrase is given at
// least one has to match. size <= 0 means 10. Facets on every facet field are
// requested, as the HTTP agent endpoint does.
func AgentRequest(industry, region, currency, queries []string, size int) *Request {
	r := NewRequest()
	r.Where(memo.FieldIndustry, industry...)
	r.Where(memo.FieldRegion, region...)
	r.Where(memo.FieldCurrency, currency...)
	r.agent = &agentArgs{queries: append([]string(nil), queries...), size: size}
	r.facets = true
	return r
}

// Where adds exact-match values for a facet field. Values of one field are
// OR-ed; fields are AND-ed. Non-facet fields are ignored.
func (r *Request) Where(field string, values ...string) *Request {
	if len(values) > 0 {
		r.criteria[field] = append(r.criteria[field], values...)
	}
	return r
}

// Must adds text queries every hit has to match.
func (r *Request) Must(q ...Match) *Request {
	r.must = append(r.must, q...)
	return r
}

// Should adds optional scoring text queries.
func (r *Request) Should(q ...Match) *Request {
	r.should = append(r.should, q...)
	return r
}

// MinimumShouldMatch sets how many should-queries a hit has to satisfy.
// It only applies when the request has should-queries.
func (r *Request) MinimumShouldMatch(n int) *Request {
	r.opts = append(r.opts, request.WithMinimumShouldMatch(n))
	return r
}

// Size sets the page size.
func (r *Request) Size(n int) *Request {
	r.sizeSet = true
	r.opts = append(r.opts, request.WithSize(n))
	return r
}

// From sets the page offset.
func (r *Request) From(n int) *Request {
	r.opts = append(r.opts, request.WithFrom(n))
	return r
}

// Sort appends a sort key. An empty order means ascending.
func (r *Request) Sort(field string, order SortOrder) *Request {
	switch {
	case field == "":
		r.setErr(errors.New("sort field is required"))
	case order == "":
		order = Asc
	case order != Asc && order != Desc:
		r.setErr(fmt.Errorf("invalid sort order %q for %s", order, field))
	}
	r.opts = append(r.opts, request.WithSort(request.SortField{Field: field, Order: order}))
	return r
}

// Include restricts the returned source fields.
func (r *Request) Include(fields ...string) *Request {
	r.opts = append(r.opts, request.WithSourceIncludes(fields...))
	return r
}

// Exclude drops source fields from hits.
func (r *Request) Exclude(fields ...string) *Request {
	r.opts = append(r.opts, request.WithSourceExcludes(fields...))
	return r
}

// Explain asks the engine for per-hit score explanations.
func (r *Request) Explain() *Request {
	r.opts = append(r.opts, request.WithExplain(true))
	return r
}

// TrackTotalHits toggles exact total counting. Default: on.
func (r *Request) TrackTotalHits(v bool) *Request {
	r.opts = append(r.opts, request.WithTrackTotalHits(v))
	return r
}

// Facets asks for value buckets on the given keyword fields (the facet fields,
// clientID, clientName.keyword), or on every facet field when none are named.
// Only SearchService.Do honors facets.
func (r *Request) Facets(fields ...string) *Request {
	r.facets = true
	r.facetFields = append(r.facetFields, fields...)
	return r
}

// Query renders the engine query body this request compiles to.
func (r *Request) Query() (json.RawMessage, error) {
	dr, err := r.build()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(query.NewSearchBody(dr))
	if err != nil {
		return nil, fmt.Errorf("render query: %w", err)
	}
	return body, nil
}

func (r *Request) setErr(err error) {
	if r.err == nil {
		r.err = err
	}
}

// build compiles the builder into a domain request. Failures wrap
// ErrInvalidRequest.
func (r *Request) build(extra ...request.Option) (*request.Request, error) {
	if r == nil {
		d, err := request.New(extra...)
		if err != nil {
			return nil, domain.InvalidRequestError(err)
		}
		return &d, nil
	}
	if r.err != nil {
		return nil, domain.InvalidRequestError(r.err)
	}
	must, err := toTextQueries(r.must)
	if err != nil {
		return nil, domain.InvalidRequestError(fmt.Errorf("must: %w", err))
	}
	should, err := toTextQueries(r.should)
	if err != nil {
		return nil, domain.InvalidRequestError(fmt.Errorf("should: %w", err))
	}

	opts := make([]request.Option, 0, len(r.opts)+len(extra)+3)
	opts = append(opts,
		request.WithCriteria(criteria.New(r.criteria)),
		request.WithMust(must...),
		request.WithShould(should...),
	)
	opts = append(opts, r.opts...)
	opts = append(opts, extra...)

	if r.agent == nil {
		dr, err := request.New(opts...)
		if err != nil {
			return nil, domain.InvalidRequestError(err)
		}
		return &dr, nil
	}

	dr, err := request.Agent(
		r.criteria[memo.FieldIndustry], r.criteria[memo.FieldRegion], r.criteria[memo.FieldCurrency],
		r.agent.queries, r.agent.size,
	)
	if err != nil {
		return nil, domain.InvalidRequestError(err)
	}
	// Agent phrases come first; builder clauses are added on top.
	for _, o := range opts {
		o(&dr)
	}
	return &dr, nil
}

func toTextQueries(in []Match) ([]textquery.TextQuery, error) {
	out := make([]textquery.TextQuery, 0, len(in))
	for i, m := range in {
		boost := m.Boost
		if boost == 0 {
			boost = textquery.DefaultBoost
		}
		tq, err := textquery.New(m.Query, m.Fields, m.Type, m.Operator, boost)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		out = append(out, tq)
	}
	return out, nil
}
