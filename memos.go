package memodex

import (
	"context"
	"time"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
)

// MemoService writes and reads memos.
type MemoService struct {
	docSvc   documentUseCase
	batchSvc batchUseCase
	obs      *observer
}

// Upsert creates or replaces one memo under id. An empty id uses the
// memoId field. Returns the id written.
func (s *MemoService) Upsert(ctx context.Context, id string, m Memo) (written string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("memo_upsert", start, err) }()

	return s.docSvc.Upsert(ctx, id, memo.Source(m))
}

// Get fetches a memo. A missing memo returns found=false and no error.
// fields restricts the returned source; none returns every field.
func (s *MemoService) Get(ctx context.Context, id string, fields ...string) (m Memo, found bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("memo_get", start, err) }()

	src, found, err := s.docSvc.Get(ctx, id, fields)
	if err != nil || !found {
		return nil, false, err
	}
	return Memo(src), true, nil
}

// Delete removes a memo. Deleting a missing memo returns ErrNotFound.
func (s *MemoService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("memo_delete", start, err) }()

	return s.docSvc.Delete(ctx, id)
}

// Patch overwrites the given fields of an existing memo.
func (s *MemoService) Patch(ctx context.Context, id string, fields map[string]any) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("memo_patch", start, err) }()

	return s.docSvc.Patch(ctx, id, fields)
}

// BulkUpsert writes memos in chunks, keyed by their memoId (or content
// when WithContentIDs is set). It never fails as a whole: every rejected
// memo is reported in the result, ordered by input position.
func (s *MemoService) BulkUpsert(ctx context.Context, memos []Memo) BulkResult {
	start := time.Now()

	docs := make([]memo.Keyed, len(memos))
	for i, m := range memos {
		docs[i] = memo.Keyed{Source: memo.Source(m)}
	}
	out := s.batchSvc.Upsert(ctx, docs)

	res := BulkResult{Succeeded: out.Succeeded}
	for _, e := range out.Errors {
		res.Errors = append(res.Errors, BulkItemError{
			Position: e.Position(),
			ID:       e.ID(),
			Err:      e.Err(),
			Detail:   e.Detail(),
		})
	}
	s.obs.observeBulk("memo_bulk_upsert", start, res)
	return res
}

// Load writes memos in a single bulk call and fails if the engine rejects
// any of them. The error is a *BulkVerificationError carrying up to three
// engine error payloads.
func (s *MemoService) Load(ctx context.Context, memos []Memo) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("memo_load", start, err) }()

	docs := make([]memo.Keyed, len(memos))
	for i, m := range memos {
		docs[i] = memo.Keyed{Source: memo.Source(m)}
	}
	return s.batchSvc.UpsertStrict(ctx, docs)
}

// Verify submits prebuilt NDJSON bulk lines as one call and fails if the
// engine rejects any item. See Load.
func (s *MemoService) Verify(ctx context.Context, lines []string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("memo_verify", start, err) }()

	return s.batchSvc.Verify(ctx, lines)
}
