package request

import (
	"fmt"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/search/criteria"
	"github.com/kailas-cloud/memodex/internal/domain/search/textquery"
)

// AgentFields returns the narrative fields agent queries are matched against.
func AgentFields() []string {
	return []string{memo.FieldRiskFactors, memo.FieldKeyCommitteeDiscussionPoints}
}

// Agent builds the request an automated agent sends: facet filters on
// industry, region and currency, plus one should-query per phrase on the
// risk narrative. At least one phrase has to match when any are given.
func Agent(industry, region, currency, queries []string, size int) (Request, error) {
	should := make([]textquery.TextQuery, 0, len(queries))
	for i, q := range queries {
		tq, err := textquery.New(q, AgentFields(), textquery.BestFields, textquery.Or, textquery.DefaultBoost)
		if err != nil {
			return Request{}, fmt.Errorf("query %d: %w", i, err)
		}
		should = append(should, tq)
	}
	if size <= 0 {
		size = DefaultSize
	}
	return New(
		WithCriteria(criteria.New(map[string][]string{
			memo.FieldIndustry: industry,
			memo.FieldRegion:   region,
			memo.FieldCurrency: currency,
		})),
		WithShould(should...),
		WithMinimumShouldMatch(1),
		WithSize(size),
	)
}
