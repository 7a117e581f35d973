package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	"github.com/kailas-cloud/memodex/internal/domain/search/result"
	"github.com/kailas-cloud/memodex/internal/query"
)

// Repository defines the engine contract for search operations.
type Repository interface {
	Search(ctx context.Context, body query.SearchBody) (result.Envelope, error)
	OpenScroll(ctx context.Context, body query.ScrollBody, keepAlive time.Duration) (result.Page, error)
	ScrollNext(ctx context.Context, scrollID string, keepAlive time.Duration) (result.Page, error)
	ClearScroll(ctx context.Context, scrollID string) error
	MultiSearch(ctx context.Context, entries []request.MultiSearchEntry) ([]json.RawMessage, error)
	Count(ctx context.Context, body query.CountBody) (int, error)
	Raw(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
}
