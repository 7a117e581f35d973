package patch

import (
	"fmt"
	"maps"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
)

// Patch is a partial memo update. Listed fields are overwritten, others are unchanged.
type Patch struct {
	fields map[string]any
}

// New validates and creates a Patch. At least one field must be provided
// and the memo identifier cannot be rewritten.
func New(fields map[string]any) (Patch, error) {
	if len(fields) == 0 {
		return Patch{}, fmt.Errorf("at least one field must be provided")
	}
	if _, ok := fields[memo.IDField]; ok {
		return Patch{}, fmt.Errorf("%s cannot be patched", memo.IDField)
	}
	return Patch{fields: maps.Clone(fields)}, nil
}

// Fields returns a copy of the updated fields.
func (p Patch) Fields() map[string]any { return maps.Clone(p.fields) }

// Doc returns the engine partial-update body.
func (p Patch) Doc() map[string]any {
	return map[string]any{"doc": p.Fields()}
}
