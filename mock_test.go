package memodex

import (
	"context"
	"encoding/json"
	"time"

	dombatch "github.com/kailas-cloud/memodex/internal/domain/batch"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	"github.com/kailas-cloud/memodex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/memodex/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn      func(ctx context.Context, req *request.Request, facets searchuc.FacetOptions) (result.Envelope, error)
	openScrollFn  func(ctx context.Context, req *request.Request, keepAlive time.Duration) (result.Page, error)
	scrollNextFn  func(ctx context.Context, id string, keepAlive time.Duration) (result.Page, error)
	clearScrollFn func(ctx context.Context, id string) error
	msearchFn     func(ctx context.Context, entries []request.MultiSearchEntry) ([]json.RawMessage, error)
	countFn       func(ctx context.Context, req *request.Request) (int, error)
	rawFn         func(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
}

func (m *mockSearchUC) Search(
	ctx context.Context, req *request.Request, facets searchuc.FacetOptions,
) (result.Envelope, error) {
	return m.searchFn(ctx, req, facets)
}

func (m *mockSearchUC) OpenScroll(ctx context.Context, req *request.Request, keepAlive time.Duration) (result.Page, error) {
	return m.openScrollFn(ctx, req, keepAlive)
}

func (m *mockSearchUC) ScrollNext(ctx context.Context, id string, keepAlive time.Duration) (result.Page, error) {
	return m.scrollNextFn(ctx, id, keepAlive)
}

func (m *mockSearchUC) ClearScroll(ctx context.Context, id string) error {
	return m.clearScrollFn(ctx, id)
}

func (m *mockSearchUC) MultiSearch(ctx context.Context, entries []request.MultiSearchEntry) ([]json.RawMessage, error) {
	return m.msearchFn(ctx, entries)
}

func (m *mockSearchUC) Count(ctx context.Context, req *request.Request) (int, error) {
	return m.countFn(ctx, req)
}

func (m *mockSearchUC) RawSearch(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return m.rawFn(ctx, body)
}

// --- documentUseCase mock ---

type mockDocumentUC struct {
	upsertFn func(ctx context.Context, id string, src memo.Source) (string, error)
	getFn    func(ctx context.Context, id string, includes []string) (memo.Source, bool, error)
	deleteFn func(ctx context.Context, id string) error
	patchFn  func(ctx context.Context, id string, fields map[string]any) error
}

func (m *mockDocumentUC) Upsert(ctx context.Context, id string, src memo.Source) (string, error) {
	return m.upsertFn(ctx, id, src)
}

func (m *mockDocumentUC) Get(ctx context.Context, id string, includes []string) (memo.Source, bool, error) {
	return m.getFn(ctx, id, includes)
}

func (m *mockDocumentUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockDocumentUC) Patch(ctx context.Context, id string, fields map[string]any) error {
	return m.patchFn(ctx, id, fields)
}

// --- batchUseCase mock ---

type mockBatchUC struct {
	upsertFn       func(ctx context.Context, docs []memo.Keyed) dombatch.Outcome
	verifyFn       func(ctx context.Context, lines []string) error
	upsertStrictFn func(ctx context.Context, docs []memo.Keyed) error
}

func (m *mockBatchUC) Upsert(ctx context.Context, docs []memo.Keyed) dombatch.Outcome {
	return m.upsertFn(ctx, docs)
}

func (m *mockBatchUC) Verify(ctx context.Context, lines []string) error {
	return m.verifyFn(ctx, lines)
}

func (m *mockBatchUC) UpsertStrict(ctx context.Context, docs []memo.Keyed) error {
	return m.upsertStrictFn(ctx, docs)
}

// --- indexUseCase mock ---

type mockIndexUC struct {
	name      string
	ensureFn  func(ctx context.Context) (bool, error)
	refreshFn func(ctx context.Context) error
	countFn   func(ctx context.Context) (int, error)
}

func (m *mockIndexUC) Name() string { return m.name }

func (m *mockIndexUC) Ensure(ctx context.Context) (bool, error) { return m.ensureFn(ctx) }

func (m *mockIndexUC) Refresh(ctx context.Context) error { return m.refreshFn(ctx) }

func (m *mockIndexUC) Count(ctx context.Context) (int, error) { return m.countFn(ctx) }
