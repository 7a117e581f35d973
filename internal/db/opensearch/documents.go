package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/kailas-cloud/memodex/internal/db"
)

// Bulk submits an NDJSON body. Item-level failures are reported in the
// response, not as an error.
func (s *Store) Bulk(ctx context.Context, body []byte) (*db.BulkResponse, error) {
	data, _, err := s.do(ctx, db.OpBulk, opensearchapi.BulkRequest{
		Body: bytes.NewReader(body),
	})
	if err != nil {
		return nil, err
	}
	resp, err := db.DecodeBulkResponse(data)
	if err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: err}
	}
	return resp, nil
}

// Index writes a document under id, replacing any previous version.
func (s *Store) Index(ctx context.Context, index, id string, body []byte) error {
	_, _, err := s.do(ctx, db.OpIndex, opensearchapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	})
	return err
}

// Get fetches a document. A missing document or index returns db.ErrDocumentNotFound.
func (s *Store) Get(ctx context.Context, index, id string, sourceIncludes []string) (*db.GetResponse, error) {
	data, status, err := s.do(ctx, db.OpGet, opensearchapi.GetRequest{
		Index:          index,
		DocumentID:     id,
		SourceIncludes: sourceIncludes,
	})
	if status == http.StatusNotFound {
		return nil, db.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	var resp db.GetResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("decode document: %w", err)}
	}
	if !resp.Found {
		return nil, db.ErrDocumentNotFound
	}
	return &resp, nil
}

// Delete removes a document. A missing document returns db.ErrDocumentNotFound.
func (s *Store) Delete(ctx context.Context, index, id string) error {
	_, status, err := s.do(ctx, db.OpDelete, opensearchapi.DeleteRequest{
		Index:      index,
		DocumentID: id,
	})
	if status == http.StatusNotFound {
		return db.ErrDocumentNotFound
	}
	return err
}

// Update applies a partial update body ({"doc": {...}}).
func (s *Store) Update(ctx context.Context, index, id string, body []byte) error {
	_, status, err := s.do(ctx, db.OpUpdate, opensearchapi.UpdateRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	})
	if status == http.StatusNotFound && !errors.Is(err, db.ErrIndexNotFound) {
		return db.ErrDocumentNotFound
	}
	return err
}
