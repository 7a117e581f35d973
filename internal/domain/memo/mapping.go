package memo

// FieldKind is the engine mapping type of a memo field.
type FieldKind string

// Field kinds used by the memo index.
const (
	KindKeyword FieldKind = "keyword"
	KindText    FieldKind = "text"
	// KindTextKeyword is analyzed text with an exact-match "keyword" subfield.
	KindTextKeyword FieldKind = "text+keyword"
)

// Index settings for the memo index.
const (
	Shards   = 1
	Replicas = 0
)

// FieldMapping is one entry of the fixed memo schema.
type FieldMapping struct {
	Name string
	Kind FieldKind
}

// Mapping returns the fixed memo schema in declaration order.
func Mapping() []FieldMapping {
	fields := []FieldMapping{
		{Name: IDField, Kind: KindKeyword},
		{Name: FieldClientName, Kind: KindTextKeyword},
		{Name: FieldClientID, Kind: KindKeyword},
	}
	for _, f := range facetFields {
		fields = append(fields, FieldMapping{Name: f, Kind: KindKeyword})
	}
	for _, f := range []string{
		FieldBusinessDescription,
		FieldExecutiveSummary,
		FieldProposedCommitments,
		FieldRiskFactors,
		FieldLendingThesis,
		FieldEnvironmentalRisks,
		FieldKeyCommitteeDiscussionPoints,
	} {
		fields = append(fields, FieldMapping{Name: f, Kind: KindText})
	}
	return fields
}

// KeywordSubfield is the exact-match subfield of KindTextKeyword fields.
const KeywordSubfield = "keyword"

// IsKeywordField reports whether name is mapped as a keyword and can be
// bucketed by a terms aggregation: keyword fields and the keyword subfield
// of text+keyword fields.
func IsKeywordField(name string) bool {
	for _, f := range Mapping() {
		switch f.Kind {
		case KindKeyword:
			if name == f.Name {
				return true
			}
		case KindTextKeyword:
			if name == f.Name+"."+KeywordSubfield {
				return true
			}
		}
	}
	return false
}
