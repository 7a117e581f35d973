package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed search or write request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrBulkRejected signals that a strict bulk load had item failures.
	ErrBulkRejected = errors.New("bulk rejected")
	// ErrEngineUnavailable signals a transient engine failure.
	ErrEngineUnavailable = errors.New("search engine unavailable")
	// ErrScrollExpired signals an unknown or expired scroll cursor.
	ErrScrollExpired = errors.New("scroll expired")
)

// MaxBulkErrorSamples caps the item errors carried by BulkVerificationError.
const MaxBulkErrorSamples = 3

// BulkVerificationError wraps ErrBulkRejected with sample item error payloads.
type BulkVerificationError struct {
	Sample []json.RawMessage
}

func (e *BulkVerificationError) Error() string {
	parts := make([]string, len(e.Sample))
	for i, s := range e.Sample {
		parts[i] = string(s)
	}
	return fmt.Sprintf("%s: sample [%s]", ErrBulkRejected.Error(), strings.Join(parts, ", "))
}

func (e *BulkVerificationError) Unwrap() error { return ErrBulkRejected }

// NewBulkVerificationError creates a verification error, keeping at most
// MaxBulkErrorSamples payloads.
func NewBulkVerificationError(sample []json.RawMessage) error {
	if len(sample) > MaxBulkErrorSamples {
		sample = sample[:MaxBulkErrorSamples]
	}
	return &BulkVerificationError{Sample: sample}
}

// InvalidRequestError wraps ErrInvalidRequest with a reason.
func InvalidRequestError(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}
