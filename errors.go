package memodex

import "github.com/kailas-cloud/memodex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrInvalidRequest    = domain.ErrInvalidRequest
	ErrBulkRejected      = domain.ErrBulkRejected
	ErrEngineUnavailable = domain.ErrEngineUnavailable
	ErrScrollExpired     = domain.ErrScrollExpired
)

// BulkVerificationError is returned by MemoService.Verify when the engine
// rejected any item. Sample holds up to three item error payloads.
type BulkVerificationError = domain.BulkVerificationError
