package query

import (
	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	"github.com/kailas-cloud/memodex/internal/domain/search/textquery"
)

// Compile translates a search request into a boolean query.
//
// Facet criteria become filter clauses in canonical facet order, must and
// should text queries become multi_match clauses in request order. When
// there are no should clauses minimum_should_match is forced to 0, so an
// empty should list never excludes every document.
func Compile(req *request.Request) Bool {
	c := req.Criteria()

	var b Bool
	for _, field := range c.Fields() {
		b.Filter = append(b.Filter, Terms{Field: field, Values: c.Values(field)})
	}
	for _, q := range req.Must() {
		b.Must = append(b.Must, multiMatch(q))
	}
	for _, q := range req.Should() {
		b.Should = append(b.Should, multiMatch(q))
	}

	b.MinimumShouldMatch = req.MinimumShouldMatch()
	if len(b.Should) == 0 {
		b.MinimumShouldMatch = 0
	}
	return b
}

func multiMatch(q textquery.TextQuery) MultiMatch {
	return MultiMatch{
		Query:    q.Query(),
		Fields:   q.Fields(),
		Type:     string(q.MatchType()),
		Operator: string(q.Operator()),
		Boost:    q.Boost(),
	}
}
