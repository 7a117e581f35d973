package db

import (
	"encoding/json"
	"fmt"
)

// BulkResponse is the decoded result of a bulk call.
type BulkResponse struct {
	Took   int
	Errors bool
	Items  []BulkItem
}

// BulkItem is the per-action outcome, in submission order.
type BulkItem struct {
	Action string
	Index  string
	ID     string
	Status int
	Error  json.RawMessage
}

// Failed reports whether the engine rejected this action.
func (i BulkItem) Failed() bool {
	return len(i.Error) > 0 || i.Status >= 300
}

type bulkEnvelope struct {
	Took   int                          `json:"took"`
	Errors bool                         `json:"errors"`
	Items  []map[string]json.RawMessage `json:"items"`
}

type bulkItemEnvelope struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error"`
}

// DecodeBulkResponse parses a raw engine bulk response. Each item is a
// single-key object keyed by the action name.
func DecodeBulkResponse(data []byte) (*BulkResponse, error) {
	var env bulkEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}
	resp := &BulkResponse{Took: env.Took, Errors: env.Errors, Items: make([]BulkItem, 0, len(env.Items))}
	for i, item := range env.Items {
		if len(item) != 1 {
			return nil, fmt.Errorf("decode bulk item %d: want one action, got %d", i, len(item))
		}
		for action, raw := range item {
			var body bulkItemEnvelope
			if err := json.Unmarshal(raw, &body); err != nil {
				return nil, fmt.Errorf("decode bulk item %d: %w", i, err)
			}
			resp.Items = append(resp.Items, BulkItem{
				Action: action,
				Index:  body.Index,
				ID:     body.ID,
				Status: body.Status,
				Error:  body.Error,
			})
		}
	}
	return resp, nil
}
