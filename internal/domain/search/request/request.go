package request

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/memodex/internal/domain/search/criteria"
	"github.com/kailas-cloud/memodex/internal/domain/search/textquery"
)

// Request defaults.
const (
	DefaultSize               = 10
	DefaultFrom               = 0
	DefaultMinimumShouldMatch = 1
)

// SortOrder is the direction of a sort key.
type SortOrder string

// Sort directions.
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// SortField is one sort key.
type SortField struct {
	Field string
	Order SortOrder
}

// Request is a structured memo search: facet criteria, weighted text
// queries and paging/projection knobs.
type Request struct {
	criteria           criteria.Criteria
	must               []textquery.TextQuery
	should             []textquery.TextQuery
	minimumShouldMatch int
	size               int
	from               int
	trackTotalHits     bool
	explain            bool
	sort               []SortField
	sourceIncludes     []string
	sourceExcludes     []string
}

// Defaults returns a request with default knobs and no clauses.
// Each call returns an independent value.
func Defaults() Request {
	return Request{
		criteria:           criteria.New(nil),
		minimumShouldMatch: DefaultMinimumShouldMatch,
		size:               DefaultSize,
		from:               DefaultFrom,
		trackTotalHits:     true,
	}
}

// Option configures a Request.
type Option func(*Request)

// WithCriteria sets the facet filters.
func WithCriteria(c criteria.Criteria) Option {
	return func(r *Request) { r.criteria = c }
}

// WithMust appends text queries every hit has to match.
func WithMust(q ...textquery.TextQuery) Option {
	return func(r *Request) { r.must = append(r.must, q...) }
}

// WithShould appends optional scoring text queries.
func WithShould(q ...textquery.TextQuery) Option {
	return func(r *Request) { r.should = append(r.should, q...) }
}

// WithMinimumShouldMatch sets how many should-queries a hit has to satisfy.
func WithMinimumShouldMatch(n int) Option {
	return func(r *Request) { r.minimumShouldMatch = n }
}

// WithSize sets the page size.
func WithSize(n int) Option {
	return func(r *Request) { r.size = n }
}

// WithFrom sets the page offset.
func WithFrom(n int) Option {
	return func(r *Request) { r.from = n }
}

// WithTrackTotalHits toggles exact total counting.
func WithTrackTotalHits(v bool) Option {
	return func(r *Request) { r.trackTotalHits = v }
}

// WithExplain toggles per-hit score explanations.
func WithExplain(v bool) Option {
	return func(r *Request) { r.explain = v }
}

// WithSort appends sort keys.
func WithSort(s ...SortField) Option {
	return func(r *Request) { r.sort = append(r.sort, s...) }
}

// WithSourceIncludes restricts returned source fields.
// Calling it with no fields still marks the projection as specified.
func WithSourceIncludes(fields ...string) Option {
	return func(r *Request) { r.sourceIncludes = append([]string{}, fields...) }
}

// WithSourceExcludes drops source fields from hits.
func WithSourceExcludes(fields ...string) Option {
	return func(r *Request) { r.sourceExcludes = append([]string{}, fields...) }
}

// New builds a request from defaults and opts.
// Paging values are passed through verbatim; only sort keys are validated.
func New(opts ...Option) (Request, error) {
	r := Defaults()
	for _, o := range opts {
		o(&r)
	}
	for i, s := range r.sort {
		if s.Field == "" {
			return Request{}, fmt.Errorf("sort field is required at index %d", i)
		}
		switch s.Order {
		case "":
			r.sort[i].Order = Asc
		case Asc, Desc:
		default:
			return Request{}, fmt.Errorf("invalid sort order %q for %s", s.Order, s.Field)
		}
	}
	return r, nil
}

// Criteria returns the facet filters.
func (r *Request) Criteria() criteria.Criteria { return r.criteria }

// Must returns a copy of the required text queries.
func (r *Request) Must() []textquery.TextQuery { return slices.Clone(r.must) }

// Should returns a copy of the optional text queries.
func (r *Request) Should() []textquery.TextQuery { return slices.Clone(r.should) }

// MinimumShouldMatch returns the caller's minimum_should_match.
func (r *Request) MinimumShouldMatch() int { return r.minimumShouldMatch }

// Size returns the page size.
func (r *Request) Size() int { return r.size }

// From returns the page offset.
func (r *Request) From() int { return r.from }

// TrackTotalHits reports whether exact totals are requested.
func (r *Request) TrackTotalHits() bool { return r.trackTotalHits }

// Explain reports whether score explanations are requested.
func (r *Request) Explain() bool { return r.explain }

// Sort returns a copy of the sort keys.
func (r *Request) Sort() []SortField { return slices.Clone(r.sort) }

// SourceIncludes returns the include projection; nil means not specified.
func (r *Request) SourceIncludes() []string { return slices.Clone(r.sourceIncludes) }

// SourceExcludes returns the exclude projection; nil means not specified.
func (r *Request) SourceExcludes() []string { return slices.Clone(r.sourceExcludes) }
