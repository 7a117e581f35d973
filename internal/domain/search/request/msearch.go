package request

import "encoding/json"

// MultiSearchEntry is one header/body pair of a multi-search. An empty
// header targets the bound index.
type MultiSearchEntry struct {
	Header json.RawMessage
	Body   json.RawMessage
}
