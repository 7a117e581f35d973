package batch

import (
	"context"

	dombatch "github.com/kailas-cloud/memodex/internal/domain/batch"
)

// BulkIndexer writes serialized memos in one bulk call.
type BulkIndexer interface {
	BulkIndex(ctx context.Context, docs []dombatch.Doc) ([]dombatch.Ack, error)
}

// LineSubmitter renders and sends NDJSON lines in one bulk call.
type LineSubmitter interface {
	Lines(docs []dombatch.Doc) ([]string, error)
	BulkLines(ctx context.Context, lines []string) (dombatch.Response, error)
}
