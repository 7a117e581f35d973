package db

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kailas-cloud/memodex/internal/domain"
)

// Sentinel errors for engine and cache operations.
var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrDocumentNotFound = errors.New("db: document not found")
	ErrIndexNotFound    = errors.New("db: index not found")
	ErrIndexExists      = errors.New("db: index already exists")
	ErrScrollNotFound   = errors.New("db: scroll context not found")
)

// Op constants name engine endpoints and cache commands for error context.
const (
	OpPing        = "PING"
	OpSearch      = "_search"
	OpScroll      = "_search/scroll"
	OpClearScroll = "DELETE _search/scroll"
	OpMsearch     = "_msearch"
	OpCount       = "_count"
	OpBulk        = "_bulk"
	OpIndex       = "PUT _doc"
	OpGet         = "GET _doc"
	OpDelete      = "DELETE _doc"
	OpUpdate      = "_update"
	OpIndexExists = "HEAD index"
	OpCreateIndex = "PUT index"
	OpGetMapping  = "GET _mapping"
	OpPutMapping  = "PUT _mapping"
	OpRefresh     = "_refresh"

	OpCacheGet  = "GET"
	OpCacheSet  = "SET"
	OpCacheIncr = "INCR"
)

// Error wraps an underlying error with the operation name and HTTP status
// for diagnostics. Status is 0 when no response was received.
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches domain.ErrEngineUnavailable for retryable failures.
func (e *Error) Is(target error) bool {
	return target == domain.ErrEngineUnavailable && e.Retryable()
}

// Retryable reports whether the failure is transient: network timeouts,
// throttling and gateway errors.
func (e *Error) Retryable() bool {
	switch e.Status {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	var ne net.Error
	if errors.As(e.Err, &ne) && ne.Timeout() {
		return true
	}
	var oe *net.OpError
	return errors.As(e.Err, &oe)
}
