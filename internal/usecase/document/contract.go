package document

import (
	"context"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/memo/patch"
)

// Repository defines the storage contract for single memos.
type Repository interface {
	Upsert(ctx context.Context, doc memo.Keyed) error
	Get(ctx context.Context, id string, includes []string) (memo.Source, bool, error)
	Delete(ctx context.Context, id string) error
	Patch(ctx context.Context, id string, p patch.Patch) error
}
