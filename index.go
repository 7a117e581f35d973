package memodex

import (
	"context"
	"time"
)

// IndexService manages the memo index.
type IndexService struct {
	svc indexUseCase
	obs *observer
}

// Name returns the index the client is bound to.
func (s *IndexService) Name() string { return s.svc.Name() }

// Ensure creates the index with the memo mapping if it does not exist.
// Returns true if this call created it.
func (s *IndexService) Ensure(ctx context.Context) (created bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("index_ensure", start, err) }()

	return s.svc.Ensure(ctx)
}

// Refresh makes recent writes visible to search.
func (s *IndexService) Refresh(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("index_refresh", start, err) }()

	return s.svc.Refresh(ctx)
}

// Count returns the number of memos in the index.
func (s *IndexService) Count(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { s.obs.observe("index_count", start, err) }()

	return s.svc.Count(ctx)
}
