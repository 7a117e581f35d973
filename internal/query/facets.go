package query

import (
	"encoding/json"
	"strings"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
)

// FacetBucketLimit is the maximum number of buckets returned per facet.
const FacetBucketLimit = 50

const facetSuffix = "_facet"

// TermsAgg is a terms bucket aggregation.
type TermsAgg struct {
	Field string
	Size  int
}

// MarshalJSON renders {"terms":{"field":F,"size":N}}.
func (a TermsAgg) MarshalJSON() ([]byte, error) {
	type terms struct {
		Field string `json:"field"`
		Size  int    `json:"size"`
	}
	return json.Marshal(map[string]terms{"terms": {Field: a.Field, Size: a.Size}})
}

// Facets builds one terms aggregation per field, named "<field>_facet".
// An empty field list means all memo facet fields.
func Facets(fields []string) map[string]TermsAgg {
	if len(fields) == 0 {
		fields = memo.FacetFields()
	}
	aggs := make(map[string]TermsAgg, len(fields))
	for _, f := range fields {
		aggs[FacetName(f)] = TermsAgg{Field: f, Size: FacetBucketLimit}
	}
	return aggs
}

// FacetName returns the aggregation name for a facet field.
func FacetName(field string) string { return field + facetSuffix }

// FacetField reverses FacetName. ok is false for names without the suffix.
func FacetField(name string) (string, bool) {
	field, ok := strings.CutSuffix(name, facetSuffix)
	if !ok || field == "" {
		return "", false
	}
	return field, true
}
