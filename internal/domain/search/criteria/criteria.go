package criteria

import (
	"slices"
	"sort"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
)

// Criteria is a set of accepted values per facet field.
// Values within a field are OR-ed, fields are AND-ed.
type Criteria struct {
	values  map[string][]string
	unknown []string
}

// New builds Criteria from raw field->values input.
// Only the enumerated facet fields are kept; others are dropped and
// reported by Unknown. Empty strings and duplicate values are removed,
// first-seen order is preserved.
func New(raw map[string][]string) Criteria {
	c := Criteria{values: make(map[string][]string, len(raw))}
	for field, vals := range raw {
		if !memo.IsFacetField(field) {
			c.unknown = append(c.unknown, field)
			continue
		}
		if clean := dedup(vals); len(clean) > 0 {
			c.values[field] = clean
		}
	}
	sort.Strings(c.unknown)
	return c
}

// Values returns a copy of the accepted values for field, nil when none.
func (c Criteria) Values(field string) []string {
	return slices.Clone(c.values[field])
}

// Fields returns the facet fields that carry values, in canonical order.
func (c Criteria) Fields() []string {
	var out []string
	for _, f := range memo.FacetFields() {
		if len(c.values[f]) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// IsEmpty reports whether no facet carries a value.
func (c Criteria) IsEmpty() bool { return len(c.values) == 0 }

// Unknown returns the dropped non-facet field names, sorted.
func (c Criteria) Unknown() []string { return slices.Clone(c.unknown) }

func dedup(vals []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
