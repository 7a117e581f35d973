package batch

import (
	"encoding/json"
	"sort"
)

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	position int
	id       string
	status   ItemStatus
	err      error
	detail   json.RawMessage
}

// NewOK creates a successful batch result.
func NewOK(position int, id string) Result {
	return Result{position: position, id: id, status: StatusOK}
}

// NewError creates a failed batch result. detail is the engine error payload, if any.
func NewError(position int, id string, err error, detail json.RawMessage) Result {
	return Result{position: position, id: id, status: StatusError, err: err, detail: detail}
}

// Position returns the item index in the submitted batch.
func (r Result) Position() int { return r.position }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Detail returns the engine error payload, if any.
func (r Result) Detail() json.RawMessage { return r.detail }

// Outcome aggregates a lenient bulk write.
type Outcome struct {
	Succeeded int
	Errors    []Result
}

// NewOutcome tallies results; errors are ordered by input position.
func NewOutcome(results []Result) Outcome {
	var o Outcome
	for _, r := range results {
		if r.status == StatusOK {
			o.Succeeded++
			continue
		}
		o.Errors = append(o.Errors, r)
	}
	sort.SliceStable(o.Errors, func(i, j int) bool {
		return o.Errors[i].position < o.Errors[j].position
	})
	return o
}

// Failed returns the number of rejected items.
func (o Outcome) Failed() int { return len(o.Errors) }
