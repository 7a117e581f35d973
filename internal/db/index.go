package db

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// IndexFieldType enumerates supported mapping field types.
type IndexFieldType string

const (
	// IndexFieldKeyword is an exact-match, aggregatable field.
	IndexFieldKeyword IndexFieldType = "keyword"
	// IndexFieldText is an analyzed full-text field.
	IndexFieldText IndexFieldType = "text"
)

// IndexField describes a single field in an index mapping.
type IndexField struct {
	Name string
	Type IndexFieldType
	// KeywordSubfield adds a "<name>.keyword" exact-match subfield to text fields.
	KeywordSubfield bool
}

// IndexDefinition is a complete index definition used on create.
type IndexDefinition struct {
	Name     string
	Shards   int
	Replicas int
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIndexName(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if idx.Shards <= 0 {
		return errors.New("shards must be positive")
	}
	if idx.Replicas < 0 {
		return errors.New("replicas must be non-negative")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true

		if f.KeywordSubfield && f.Type != IndexFieldText {
			return errors.New("keyword subfield requires a text field: " + f.Name)
		}
	}

	return nil
}

type fieldMapping struct {
	Type   string                  `json:"type"`
	Fields map[string]fieldMapping `json:"fields,omitempty"`
}

type indexBody struct {
	Settings struct {
		Shards   int `json:"number_of_shards"`
		Replicas int `json:"number_of_replicas"`
	} `json:"settings"`
	Mappings struct {
		Properties map[string]fieldMapping `json:"properties"`
	} `json:"mappings"`
}

// Body renders the index create request body.
func (idx *IndexDefinition) Body() ([]byte, error) {
	var body indexBody
	body.Settings.Shards = idx.Shards
	body.Settings.Replicas = idx.Replicas
	body.Mappings.Properties = make(map[string]fieldMapping, len(idx.Fields))
	for _, f := range idx.Fields {
		m := fieldMapping{Type: string(f.Type)}
		if f.KeywordSubfield {
			m.Fields = map[string]fieldMapping{"keyword": {Type: string(IndexFieldKeyword)}}
		}
		body.Mappings.Properties[f.Name] = m
	}
	return json.Marshal(body)
}

// IsValidIndexName returns true if s is a lowercase name of [a-z0-9_.-]
// that does not start with '-', '_' or '.'.
func IsValidIndexName(s string) bool {
	if s == "" || strings.ContainsAny(s[:1], "-_.") {
		return false
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == '-' || r == '.'
		if !isLower && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
