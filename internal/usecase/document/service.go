package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/memodex/internal/domain"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/memo/patch"
)

// Service handles single-memo CRUD.
type Service struct {
	repo Repository
}

// New creates a document service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upsert writes src under id. An empty id falls back to the memoId field.
func (s *Service) Upsert(ctx context.Context, id string, src memo.Source) (string, error) {
	if src == nil {
		return "", domain.InvalidRequestError(errors.New("memo body is required"))
	}
	if strings.TrimSpace(id) == "" {
		id, _ = src.ID()
	}
	if id == "" {
		return "", domain.InvalidRequestError(fmt.Errorf("%s is required", memo.IDField))
	}
	if err := s.repo.Upsert(ctx, memo.Keyed{ID: id, Source: src}); err != nil {
		return "", fmt.Errorf("upsert memo: %w", err)
	}
	return id, nil
}

// Get returns a memo. A missing memo is found=false with a nil error.
// includes restricts the returned source fields; nil returns all of them.
func (s *Service) Get(ctx context.Context, id string, includes []string) (memo.Source, bool, error) {
	if err := requireID(id); err != nil {
		return nil, false, err
	}
	src, found, err := s.repo.Get(ctx, id, includes)
	if err != nil {
		return nil, false, fmt.Errorf("get memo: %w", err)
	}
	return src, found, nil
}

// Delete removes a memo. A missing memo returns domain.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete memo: %w", err)
	}
	return nil
}

// Patch overwrites the listed fields of an existing memo.
func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) error {
	if err := requireID(id); err != nil {
		return err
	}
	p, err := patch.New(fields)
	if err != nil {
		return domain.InvalidRequestError(err)
	}
	if err := s.repo.Patch(ctx, id, p); err != nil {
		return fmt.Errorf("patch memo: %w", err)
	}
	return nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.InvalidRequestError(errors.New("memo id is required"))
	}
	return nil
}
