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

// IndexExists reports whether an index exists.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	_, status, err := s.do(ctx, db.OpIndexExists, opensearchapi.IndicesExistsRequest{
		Index: []string{name},
	})
	switch {
	case status == http.StatusNotFound:
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// CreateIndex creates an index with settings and mappings from def.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid index definition: %w", err)
	}
	body, err := def.Body()
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	_, _, err = s.do(ctx, db.OpCreateIndex, opensearchapi.IndicesCreateRequest{
		Index: def.Name,
		Body:  bytes.NewReader(body),
	})
	if errors.Is(err, db.ErrIndexExists) {
		return db.ErrIndexExists
	}
	return err
}

// GetMapping returns the mappings object of an index.
func (s *Store) GetMapping(ctx context.Context, name string) (json.RawMessage, error) {
	data, _, err := s.do(ctx, db.OpGetMapping, opensearchapi.IndicesGetMappingRequest{
		Index: []string{name},
	})
	if err != nil {
		return nil, err
	}
	var resp map[string]struct {
		Mappings json.RawMessage `json:"mappings"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &db.Error{Op: db.OpGetMapping, Err: fmt.Errorf("decode mapping: %w", err)}
	}
	if entry, ok := resp[name]; ok {
		return entry.Mappings, nil
	}
	// An alias resolves to its single concrete index.
	if len(resp) == 1 {
		for _, v := range resp {
			return v.Mappings, nil //nolint:staticcheck // single entry
		}
	}
	return nil, db.ErrIndexNotFound
}

// PutMapping adds fields to an index mapping.
func (s *Store) PutMapping(ctx context.Context, name string, body []byte) error {
	_, _, err := s.do(ctx, db.OpPutMapping, opensearchapi.IndicesPutMappingRequest{
		Index: []string{name},
		Body:  bytes.NewReader(body),
	})
	return err
}

// Refresh makes recent writes visible to search.
func (s *Store) Refresh(ctx context.Context, name string) error {
	_, _, err := s.do(ctx, db.OpRefresh, opensearchapi.IndicesRefreshRequest{
		Index: []string{name},
	})
	return err
}
