package db

import (
	"strconv"
	"strings"
)

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition with one shard and no replicas.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{
		def: IndexDefinition{
			Name:   name,
			Shards: 1,
		},
	}
}

// Shards sets the number of primary shards.
func (b *IndexBuilder) Shards(n int) *IndexBuilder {
	b.def.Shards = n
	return b
}

// Replicas sets the number of replicas per shard.
func (b *IndexBuilder) Replicas(n int) *IndexBuilder {
	b.def.Replicas = n
	return b
}

// Keyword adds a keyword field to the index.
func (b *IndexBuilder) Keyword(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name: name,
		Type: IndexFieldKeyword,
	})
	return b
}

// Text adds a text field to the index.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name: name,
		Type: IndexFieldText,
	})
	return b
}

// TextWithKeyword adds a text field with a "keyword" subfield for sorting and exact match.
func (b *IndexBuilder) TextWithKeyword(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:            name,
		Type:            IndexFieldText,
		KeywordSubfield: true,
	})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String returns a compact debug representation of the definition.
func (idx *IndexDefinition) String() string {
	parts := []string{
		"PUT", idx.Name,
		"shards=" + strconv.Itoa(idx.Shards),
		"replicas=" + strconv.Itoa(idx.Replicas),
	}
	for i := range idx.Fields {
		f := &idx.Fields[i]
		p := f.Name + ":" + string(f.Type)
		if f.KeywordSubfield {
			p += "+keyword"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}
