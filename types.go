package memodex

import (
	"encoding/json"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/search/result"
)

// Memo is a raw memo document. Unknown fields are carried through untouched.
type Memo map[string]any

// ID returns the memoId field, or "" when it is absent or blank.
func (m Memo) ID() string {
	id, _ := memo.Source(m).ID()
	return id
}

// Memo field names.
const (
	FieldMemoID                       = memo.IDField
	FieldIndustry                     = memo.FieldIndustry
	FieldSector                       = memo.FieldSector
	FieldRegion                       = memo.FieldRegion
	FieldCurrency                     = memo.FieldCurrency
	FieldClientName                   = memo.FieldClientName
	FieldBusinessDescription          = memo.FieldBusinessDescription
	FieldExecutiveSummary             = memo.FieldExecutiveSummary
	FieldRiskFactors                  = memo.FieldRiskFactors
	FieldKeyCommitteeDiscussionPoints = memo.FieldKeyCommitteeDiscussionPoints
)

// Hit is one matching memo.
type Hit struct {
	ID     string
	Score  float64
	Source Memo
}

// Bucket is one facet value with its document count.
type Bucket = result.Bucket

// SearchResult is a normalized search response.
type SearchResult struct {
	Total    int
	Relation string // "eq" or "gte"
	Hits     []Hit
	// Facets maps a facet field to its buckets. Nil when facets were off.
	Facets       map[string][]Bucket
	Aggregations json.RawMessage
	// Query is the body sent to the engine.
	Query json.RawMessage
	Raw   json.RawMessage
}

// Page is one page of a scroll cursor.
type Page struct {
	ScrollID string
	Total    int
	Hits     []Hit
	// Query is set on the first page only.
	Query json.RawMessage
}

// Done reports whether the cursor is exhausted.
func (p Page) Done() bool { return len(p.Hits) == 0 }

// BulkItemError reports one rejected memo.
type BulkItemError struct {
	Position int
	ID       string
	Err      error
	// Detail is the engine error payload, if the engine rejected the item.
	Detail json.RawMessage
}

// BulkResult summarizes a lenient bulk write.
type BulkResult struct {
	Succeeded int
	Errors    []BulkItemError
}

// Failed returns the number of rejected memos.
func (r BulkResult) Failed() int { return len(r.Errors) }

func fromHits(in []result.Hit) []Hit {
	out := make([]Hit, len(in))
	for i := range in {
		out[i] = Hit{ID: in[i].ID(), Score: in[i].Score(), Source: Memo(in[i].Source())}
	}
	return out
}

func fromEnvelope(env result.Envelope) SearchResult {
	return SearchResult{
		Total:        env.Total,
		Relation:     env.Relation,
		Hits:         fromHits(env.Hits),
		Facets:       env.Facets,
		Aggregations: env.Aggregations,
		Query:        env.Query,
		Raw:          env.Raw,
	}
}

func fromPage(p result.Page) Page {
	return Page{ScrollID: p.ScrollID, Total: p.Total, Hits: fromHits(p.Hits), Query: p.Query}
}
