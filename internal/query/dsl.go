package query

import "encoding/json"

// Terms matches documents whose keyword field equals any of Values.
type Terms struct {
	Field  string
	Values []string
}

// MarshalJSON renders {"terms":{"<field>":[...]}}.
func (t Terms) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string][]string{
		"terms": {t.Field: nonNil(t.Values)},
	})
}

// MultiMatch runs one query text across several fields.
type MultiMatch struct {
	Query    string
	Fields   []string
	Type     string
	Operator string
	Boost    float64
}

type multiMatchBody struct {
	Query    string   `json:"query"`
	Fields   []string `json:"fields"`
	Type     string   `json:"type"`
	Operator string   `json:"operator"`
	Boost    *float64 `json:"boost,omitempty"`
}

// MarshalJSON renders {"multi_match":{...}}. A boost of 1.0 is the engine
// default and is omitted.
func (m MultiMatch) MarshalJSON() ([]byte, error) {
	body := multiMatchBody{
		Query:    m.Query,
		Fields:   nonNil(m.Fields),
		Type:     m.Type,
		Operator: m.Operator,
	}
	if m.Boost != 1.0 {
		b := m.Boost
		body.Boost = &b
	}
	return json.Marshal(map[string]multiMatchBody{"multi_match": body})
}

// Bool is the compiled boolean query.
type Bool struct {
	Filter             []Terms
	Must               []MultiMatch
	Should             []MultiMatch
	MinimumShouldMatch int
}

type boolBody struct {
	Filter             []Terms      `json:"filter"`
	Must               []MultiMatch `json:"must"`
	Should             []MultiMatch `json:"should"`
	MinimumShouldMatch int          `json:"minimum_should_match"`
}

// MarshalJSON renders {"bool":{...}}. Empty clause lists are sent as [].
func (b Bool) MarshalJSON() ([]byte, error) {
	body := boolBody{
		Filter:             b.Filter,
		Must:               b.Must,
		Should:             b.Should,
		MinimumShouldMatch: b.MinimumShouldMatch,
	}
	if body.Filter == nil {
		body.Filter = []Terms{}
	}
	if body.Must == nil {
		body.Must = []MultiMatch{}
	}
	if body.Should == nil {
		body.Should = []MultiMatch{}
	}
	return json.Marshal(map[string]boolBody{"bool": body})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
