package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/memodex/internal/db"
	"github.com/kailas-cloud/memodex/internal/domain"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
)

var matchAllCount = []byte(`{"query":{"match_all":{}}}`)

// store is the consumer interface for index lifecycle (ISP).
type store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	GetMapping(ctx context.Context, name string) (json.RawMessage, error)
	PutMapping(ctx context.Context, name string, body []byte) error
	Refresh(ctx context.Context, name string) error
	Count(ctx context.Context, index string, body []byte) (int, error)
}

// Repo implements usecase/index.Repository.
type Repo struct {
	store store
	index string
}

// New creates an index repository bound to one index.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index}
}

// Name returns the bound index name.
func (r *Repo) Name() string { return r.index }

// Exists reports whether the index is present.
func (r *Repo) Exists(ctx context.Context) (bool, error) {
	ok, err := r.store.IndexExists(ctx, r.index)
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", r.index, err)
	}
	return ok, nil
}

// Create creates the index with the memo mapping. A concurrent creation by
// another client is reported as created=false.
func (r *Repo) Create(ctx context.Context) (bool, error) {
	def, err := buildIndex(r.index)
	if err != nil {
		return false, err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", r.index, err)
	}
	return true, nil
}

// Mapping returns the live index mapping as reported by the engine.
func (r *Repo) Mapping(ctx context.Context) (json.RawMessage, error) {
	m, err := r.store.GetMapping(ctx, r.index)
	if err != nil {
		return nil, fmt.Errorf("get mapping %s: %w", r.index, mapIndexNotFound(err))
	}
	return m, nil
}

// PutMapping adds fields to the live mapping.
func (r *Repo) PutMapping(ctx context.Context, body json.RawMessage) error {
	if err := r.store.PutMapping(ctx, r.index, body); err != nil {
		return fmt.Errorf("put mapping %s: %w", r.index, mapIndexNotFound(err))
	}
	return nil
}

// Refresh makes recent writes visible to search.
func (r *Repo) Refresh(ctx context.Context) error {
	if err := r.store.Refresh(ctx, r.index); err != nil {
		return fmt.Errorf("refresh %s: %w", r.index, mapIndexNotFound(err))
	}
	return nil
}

// Count returns the number of documents in the index.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx, r.index, matchAllCount)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.index, mapIndexNotFound(err))
	}
	return n, nil
}

// buildIndex converts the memo schema into an engine index definition.
func buildIndex(name string) (*db.IndexDefinition, error) {
	b := db.NewIndex(name).Shards(memo.Shards).Replicas(memo.Replicas)
	for _, f := range memo.Mapping() {
		switch f.Kind {
		case memo.KindKeyword:
			b.Keyword(f.Name)
		case memo.KindText:
			b.Text(f.Name)
		case memo.KindTextKeyword:
			b.TextWithKeyword(f.Name)
		default:
			return nil, fmt.Errorf("unknown field kind %q for %s", f.Kind, f.Name)
		}
	}
	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build index %s: %w", name, err)
	}
	return def, nil
}

func mapIndexNotFound(err error) error {
	if errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}
