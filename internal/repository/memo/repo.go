package memo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/memodex/internal/db"
	"github.com/kailas-cloud/memodex/internal/domain"
	dombatch "github.com/kailas-cloud/memodex/internal/domain/batch"
	dommemo "github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/memo/patch"
)

// store is the consumer interface for memo documents (ISP).
type store interface {
	Bulk(ctx context.Context, body []byte) (*db.BulkResponse, error)
	Index(ctx context.Context, index, id string, body []byte) error
	Get(ctx context.Context, index, id string, sourceIncludes []string) (*db.GetResponse, error)
	Delete(ctx context.Context, index, id string) error
	Update(ctx context.Context, index, id string, body []byte) error
}

// Repo implements usecase/document.Repository and usecase/batch.Repository.
type Repo struct {
	store store
	index string
}

// New creates a memo repository bound to one index.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index}
}

// Index returns the bound index name.
func (r *Repo) Index() string { return r.index }

// Upsert writes a memo under its id, replacing any previous version.
func (r *Repo) Upsert(ctx context.Context, doc dommemo.Keyed) error {
	data, err := json.Marshal(doc.Source)
	if err != nil {
		return fmt.Errorf("marshal memo %s: %w", doc.ID, err)
	}
	if err := r.store.Index(ctx, r.index, doc.ID, data); err != nil {
		return fmt.Errorf("index %s/%s: %w", r.index, doc.ID, err)
	}
	return nil
}

// Get returns a memo source. A missing memo is reported as found=false, not an error.
func (r *Repo) Get(ctx context.Context, id string, includes []string) (dommemo.Source, bool, error) {
	resp, err := r.store.Get(ctx, r.index, id, includes)
	if err != nil {
		if errors.Is(err, db.ErrDocumentNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s/%s: %w", r.index, id, err)
	}
	src := dommemo.Source{}
	if len(resp.Source) > 0 {
		if err := json.Unmarshal(resp.Source, &src); err != nil {
			return nil, false, fmt.Errorf("decode memo %s: %w", id, err)
		}
	}
	return src, true, nil
}

// Delete removes a memo.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.index, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", r.index, id, mapNotFound(err))
	}
	return nil
}

// Patch applies a partial update to an existing memo.
func (r *Repo) Patch(ctx context.Context, id string, p patch.Patch) error {
	data, err := json.Marshal(p.Doc())
	if err != nil {
		return fmt.Errorf("marshal patch %s: %w", id, err)
	}
	if err := r.store.Update(ctx, r.index, id, data); err != nil {
		return fmt.Errorf("update %s/%s: %w", r.index, id, mapNotFound(err))
	}
	return nil
}

type actionLine struct {
	Index actionMeta `json:"index"`
}

type actionMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

// BulkIndex submits docs as one bulk call of index actions. Items are
// returned in submission order; item failures are not an error.
func (r *Repo) BulkIndex(ctx context.Context, docs []dombatch.Doc) ([]dombatch.Ack, error) {
	var buf bytes.Buffer
	for _, d := range docs {
		action, err := ActionLine(r.index, d.ID)
		if err != nil {
			return nil, fmt.Errorf("marshal action %s: %w", d.ID, err)
		}
		buf.WriteString(action)
		buf.WriteByte('\n')
		if err := json.Compact(&buf, d.Source); err != nil {
			return nil, fmt.Errorf("compact source %s: %w", d.ID, err)
		}
		buf.WriteByte('\n')
	}

	resp, err := r.store.Bulk(ctx, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("bulk %s: %w", r.index, err)
	}
	if len(resp.Items) != len(docs) {
		return nil, &db.Error{
			Op:  db.OpBulk,
			Err: fmt.Errorf("engine returned %d items for %d actions", len(resp.Items), len(docs)),
		}
	}
	return toAcks(resp.Items), nil
}

// Lines renders docs as NDJSON action/source line pairs for the bound index.
func (r *Repo) Lines(docs []dombatch.Doc) ([]string, error) {
	lines := make([]string, 0, 2*len(docs))
	for _, d := range docs {
		action, err := ActionLine(r.index, d.ID)
		if err != nil {
			return nil, fmt.Errorf("marshal action %s: %w", d.ID, err)
		}
		var src bytes.Buffer
		if err := json.Compact(&src, d.Source); err != nil {
			return nil, fmt.Errorf("compact source %s: %w", d.ID, err)
		}
		lines = append(lines, action, src.String())
	}
	return lines, nil
}

// BulkLines submits caller-built NDJSON lines as one bulk call.
func (r *Repo) BulkLines(ctx context.Context, lines []string) (dombatch.Response, error) {
	body := strings.Join(lines, "\n") + "\n"
	resp, err := r.store.Bulk(ctx, []byte(body))
	if err != nil {
		return dombatch.Response{}, fmt.Errorf("bulk %s: %w", r.index, err)
	}
	return dombatch.Response{Errors: resp.Errors, Items: toAcks(resp.Items)}, nil
}

func toAcks(items []db.BulkItem) []dombatch.Ack {
	acks := make([]dombatch.Ack, len(items))
	for i, it := range items {
		acks[i] = dombatch.Ack{ID: it.ID, Status: it.Status, Error: it.Error}
	}
	return acks
}

// ActionLine renders the bulk action for one memo id.
func ActionLine(index, id string) (string, error) {
	data, err := json.Marshal(actionLine{Index: actionMeta{Index: index, ID: id}})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func mapNotFound(err error) error {
	if errors.Is(err, db.ErrDocumentNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}
