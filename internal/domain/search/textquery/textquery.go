package textquery

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
)

// MaxQueryLength is the maximum allowed text query length.
const MaxQueryLength = 4096

// DefaultBoost is the weight callers use when no boost was given.
const DefaultBoost = 1.0

// MatchType is the multi-field match strategy.
type MatchType string

// Match strategies.
const (
	// BestFields scores by the single best matching field.
	BestFields   MatchType = "best_fields"
	MostFields   MatchType = "most_fields"
	Phrase       MatchType = "phrase"
	PhrasePrefix MatchType = "phrase_prefix"
	// BoolPrefix treats the last term as a prefix.
	BoolPrefix MatchType = "bool_prefix"
)

// IsValid checks if the match type is one of the supported values.
func (m MatchType) IsValid() bool {
	switch m {
	case BestFields, MostFields, Phrase, PhrasePrefix, BoolPrefix:
		return true
	}
	return false
}

// positional strategies only work on analyzed text.
func (m MatchType) textOnly() bool {
	return m == Phrase || m == PhrasePrefix || m == BoolPrefix
}

// Operator combines the terms of a query.
type Operator string

// Term operators.
const (
	Or  Operator = "or"
	And Operator = "and"
)

// IsValid checks if the operator is supported.
func (o Operator) IsValid() bool { return o == Or || o == And }

// TextQuery is a validated full-text query against one or more memo fields.
type TextQuery struct {
	query     string
	fields    []string
	matchType MatchType
	operator  Operator
	boost     float64
}

// New validates and normalizes a text query.
// Defaults: fields=narrative fields, type=best_fields, operator=or.
// boost must be finite and positive; callers substitute DefaultBoost when
// the caller left it unset.
func New(query string, fields []string, m MatchType, op Operator, boost float64) (TextQuery, error) {
	if strings.TrimSpace(query) == "" {
		return TextQuery{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return TextQuery{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = BestFields
	}
	if !m.IsValid() {
		return TextQuery{}, fmt.Errorf("invalid match type: %q", m)
	}
	if op == "" {
		op = Or
	}
	if !op.IsValid() {
		return TextQuery{}, fmt.Errorf("invalid operator: %q", op)
	}
	if math.IsNaN(boost) || math.IsInf(boost, 0) || boost <= 0 {
		return TextQuery{}, fmt.Errorf("boost must be a positive finite number, got %v", boost)
	}

	if len(fields) == 0 {
		fields = memo.NarrativeFields()
	} else {
		fields = slices.Clone(fields)
	}
	for _, f := range fields {
		if f == "" {
			return TextQuery{}, fmt.Errorf("field name is required")
		}
		if m.textOnly() && !memo.IsTextField(f) {
			return TextQuery{}, fmt.Errorf("match type %q requires a text field, got %q", m, f)
		}
	}

	return TextQuery{query: query, fields: fields, matchType: m, operator: op, boost: boost}, nil
}

// Query returns the query text.
func (q TextQuery) Query() string { return q.query }

// Fields returns a copy of the target fields.
func (q TextQuery) Fields() []string { return slices.Clone(q.fields) }

// MatchType returns the match strategy.
func (q TextQuery) MatchType() MatchType { return q.matchType }

// Operator returns the term operator.
func (q TextQuery) Operator() Operator { return q.operator }

// Boost returns the relative weight of this query.
func (q TextQuery) Boost() float64 { return q.boost }
