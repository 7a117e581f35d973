package result

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
)

// Hit is a single search hit.
type Hit struct {
	id     string
	score  float64
	source memo.Source
	raw    json.RawMessage
}

// NewHit creates a search hit. raw is the unmodified engine hit object.
func NewHit(id string, score float64, source memo.Source, raw json.RawMessage) Hit {
	return Hit{id: id, score: score, source: source, raw: raw}
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Score returns the relevance score.
func (h *Hit) Score() float64 { return h.score }

// Source returns the (possibly projected) document body.
func (h *Hit) Source() memo.Source { return h.source }

// Raw returns the engine hit as received.
func (h *Hit) Raw() json.RawMessage { return h.raw }

// Bucket is one facet value with its document count.
type Bucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}

// Envelope is the normalized outcome of a structured search.
type Envelope struct {
	Total        int
	Relation     string
	Hits         []Hit
	Facets       map[string][]Bucket
	Aggregations json.RawMessage
	Raw          json.RawMessage
	// Query is the request body sent to the engine.
	Query json.RawMessage
}

// Page is one page of a scroll cursor.
type Page struct {
	ScrollID string
	Total    int
	Hits     []Hit
	Raw      json.RawMessage
	// Query is set on the first page only.
	Query json.RawMessage
}

// Relation values reported with a total.
const (
	RelationEq  = "eq"
	RelationGte = "gte"
)

// ParseTotal normalizes the engine hit total, which is either a bare
// integer or {"value": N, "relation": R}. A missing total is zero.
func ParseTotal(raw json.RawMessage) (int, string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, "", nil
	}
	if raw[0] == '{' {
		var obj struct {
			Value    int    `json:"value"`
			Relation string `json:"relation"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return 0, "", fmt.Errorf("decode total: %w", err)
		}
		return obj.Value, obj.Relation, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, "", fmt.Errorf("decode total: %w", err)
	}
	return n, RelationEq, nil
}
