package db

import (
	"encoding/json"
	"fmt"
)

// SearchResponse is the decoded envelope of a search or scroll call.
type SearchResponse struct {
	ScrollID     string
	Took         int
	TimedOut     bool
	Total        json.RawMessage
	Hits         []Hit
	Aggregations map[string]json.RawMessage
	Raw          json.RawMessage
}

// Hit is a single document hit.
type Hit struct {
	Index  string
	ID     string
	Score  float64
	Source json.RawMessage
	Raw    json.RawMessage
}

type searchEnvelope struct {
	ScrollID string `json:"_scroll_id"`
	Took     int    `json:"took"`
	TimedOut bool   `json:"timed_out"`
	Hits     struct {
		Total json.RawMessage   `json:"total"`
		Hits  []json.RawMessage `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

type hitEnvelope struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// DecodeSearchResponse parses a raw engine search response.
// A null _score (sorted queries) decodes as 0.
func DecodeSearchResponse(data []byte) (*SearchResponse, error) {
	var env searchEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	resp := &SearchResponse{
		ScrollID:     env.ScrollID,
		Took:         env.Took,
		TimedOut:     env.TimedOut,
		Total:        env.Hits.Total,
		Aggregations: env.Aggregations,
		Raw:          json.RawMessage(data),
		Hits:         make([]Hit, 0, len(env.Hits.Hits)),
	}
	for i, raw := range env.Hits.Hits {
		var h hitEnvelope
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("decode hit %d: %w", i, err)
		}
		hit := Hit{Index: h.Index, ID: h.ID, Source: h.Source, Raw: raw}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		resp.Hits = append(resp.Hits, hit)
	}
	return resp, nil
}

// GetResponse is the decoded result of a single-document get.
type GetResponse struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// DecodeMsearchResponse splits an _msearch response into per-entry bodies.
func DecodeMsearchResponse(data []byte) ([]json.RawMessage, error) {
	var env struct {
		Responses []json.RawMessage `json:"responses"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode msearch response: %w", err)
	}
	return env.Responses, nil
}
