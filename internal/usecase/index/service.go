package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/domain"
)

// Service manages the memo index.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates an index service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Name returns the managed index name.
func (s *Service) Name() string { return s.repo.Name() }

// Ensure creates the index with the memo mapping when it is absent.
// Returns true if this call created it.
func (s *Service) Ensure(ctx context.Context) (bool, error) {
	exists, err := s.repo.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("ensure index: %w", err)
	}
	if exists {
		return false, nil
	}

	created, err := s.repo.Create(ctx)
	if err != nil {
		return false, fmt.Errorf("ensure index: %w", err)
	}
	if created {
		s.logger.Info("Index created", zap.String("index", s.repo.Name()))
	}
	return created, nil
}

// Mapping returns the live mapping.
func (s *Service) Mapping(ctx context.Context) (json.RawMessage, error) {
	return s.repo.Mapping(ctx)
}

// PutMapping adds fields to the live mapping.
func (s *Service) PutMapping(ctx context.Context, body json.RawMessage) error {
	if !json.Valid(body) {
		return domain.InvalidRequestError(errors.New("mapping is not valid JSON"))
	}
	return s.repo.PutMapping(ctx, body)
}

// Refresh makes recent writes searchable.
func (s *Service) Refresh(ctx context.Context) error {
	return s.repo.Refresh(ctx)
}

// Count returns the number of memos in the index.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
