package memo

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// IDField is the source field holding the memo identifier.
const IDField = "memoId"

// Facet fields: exact-match categorical fields usable as filters and buckets.
const (
	FieldIndustry = "industry"
	FieldSector   = "sector"
	FieldRegion   = "region"
	FieldCurrency = "currency"
)

// Narrative fields: free-text sections targeted by text queries.
const (
	FieldBusinessDescription          = "businessDescription"
	FieldExecutiveSummary             = "executiveSummary"
	FieldProposedCommitments          = "proposedCommitments"
	FieldRiskFactors                  = "riskFactors"
	FieldLendingThesis                = "lendingThesis"
	FieldEnvironmentalRisks           = "environmentalRisks"
	FieldKeyCommitteeDiscussionPoints = "keyCommitteeDiscussionPoints"
)

// Client metadata fields.
const (
	FieldClientName = "clientName"
	FieldClientID   = "clientID"
)

var facetFields = []string{FieldIndustry, FieldSector, FieldRegion, FieldCurrency}

// Default text-search targets, in the order they are sent to the engine.
var narrativeFields = []string{
	FieldBusinessDescription,
	FieldExecutiveSummary,
	FieldRiskFactors,
	FieldKeyCommitteeDiscussionPoints,
	FieldLendingThesis,
	FieldEnvironmentalRisks,
	FieldProposedCommitments,
}

// FacetFields returns the four facet fields in canonical order.
// Each call returns a fresh slice.
func FacetFields() []string { return slices.Clone(facetFields) }

// NarrativeFields returns the default text-search target fields.
// Each call returns a fresh slice.
func NarrativeFields() []string { return slices.Clone(narrativeFields) }

// IsFacetField reports whether name is one of the enumerated facet fields.
func IsFacetField(name string) bool { return slices.Contains(facetFields, name) }

// IsTextField reports whether name is mapped as analyzed text.
// clientName is text with a keyword subfield.
func IsTextField(name string) bool {
	return name == FieldClientName || slices.Contains(narrativeFields, name)
}

// Memo is the typed shape of an indexed credit memo.
type Memo struct {
	MemoID     string `json:"memoId"`
	ClientName string `json:"clientName,omitempty"`
	ClientID   string `json:"clientID,omitempty"`

	Industry string `json:"industry,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Region   string `json:"region,omitempty"`
	Currency string `json:"currency,omitempty"`

	BusinessDescription          string `json:"businessDescription,omitempty"`
	ExecutiveSummary             string `json:"executiveSummary,omitempty"`
	ProposedCommitments          string `json:"proposedCommitments,omitempty"`
	RiskFactors                  string `json:"riskFactors,omitempty"`
	LendingThesis                string `json:"lendingThesis,omitempty"`
	EnvironmentalRisks           string `json:"environmentalRisks,omitempty"`
	KeyCommitteeDiscussionPoints string `json:"keyCommitteeDiscussionPoints,omitempty"`
}

// Source returns the memo as an untyped document body.
func (m Memo) Source() Source {
	data, err := json.Marshal(m)
	if err != nil {
		// Memo holds only strings, so marshal cannot fail.
		panic(fmt.Sprintf("memo: marshal: %v", err))
	}
	var src Source
	_ = json.Unmarshal(data, &src)
	return src
}

// Source is a raw document body. Unknown fields are carried through untouched.
type Source map[string]any

// ID returns the memoId field if it is a non-blank string.
func (s Source) ID() (string, bool) {
	v, ok := s[IDField].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// String returns the named field as a string, or "" when absent or not a string.
func (s Source) String(field string) string {
	v, _ := s[field].(string)
	return v
}

// Keyed pairs a document body with the stable id it is written under.
type Keyed struct {
	ID     string
	Source Source
}
