package batch

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
)

// IDFunc derives a document id from a memo source. An empty id means the
// memo cannot be written.
type IDFunc func(src memo.Source) (string, error)

var contentNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("memodex.memo"))

// IDFromField uses the memoId field.
func IDFromField(src memo.Source) (string, error) {
	id, _ := src.ID()
	return id, nil
}

// IDFromContent derives a UUIDv5 from the canonical JSON of the source.
// Map keys are sorted by encoding/json, so equal content yields equal ids
// across runs.
func IDFromContent(src memo.Source) (string, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(contentNamespace, data).String(), nil
}
