package index

import (
	"context"
	"encoding/json"
)

// Repository defines the engine contract for the memo index lifecycle.
type Repository interface {
	Name() string
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) (bool, error)
	Mapping(ctx context.Context) (json.RawMessage, error)
	PutMapping(ctx context.Context, body json.RawMessage) error
	Refresh(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
