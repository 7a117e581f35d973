package batch

import "encoding/json"

// Doc is one serialized memo of a bulk write.
type Doc struct {
	ID     string
	Source json.RawMessage
}

// Ack is the engine's per-action answer, in submission order.
type Ack struct {
	ID     string
	Status int
	Error  json.RawMessage
}

// Failed reports whether the engine rejected the action.
func (a Ack) Failed() bool {
	return len(a.Error) > 0 || a.Status >= 300
}

// Response is the outcome of one bulk call.
type Response struct {
	Errors bool
	Items  []Ack
}

// ErrorSample returns the error payloads of up to limit rejected items, in order.
func (r Response) ErrorSample(limit int) []json.RawMessage {
	var sample []json.RawMessage
	for _, it := range r.Items {
		if len(sample) >= limit {
			break
		}
		if len(it.Error) > 0 {
			sample = append(sample, it.Error)
		}
	}
	return sample
}
