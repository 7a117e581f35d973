package opensearch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/kailas-cloud/memodex/internal/db"
	"github.com/kailas-cloud/memodex/internal/metrics"
)

// Compile-time check: Store implements db.Engine.
var _ db.Engine = (*Store)(nil)

// Config holds connection parameters for an OpenSearch cluster.
type Config struct {
	Addrs              []string
	Username           string
	Password           string
	InsecureSkipVerify bool
	// Timeout bounds a single HTTP round trip. Zero means no limit.
	Timeout    time.Duration
	MaxRetries int
	// DisableRetry turns off transport-level retries; Retryable errors are
	// still reported to the caller.
	DisableRetry bool
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Store implements db.Engine via opensearch-go.
type Store struct {
	client    *opensearch.Client
	transport *http.Transport
}

// NewStore creates an OpenSearch store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	rt := cfg.Transport
	var owned *http.Transport
	if rt == nil {
		owned = http.DefaultTransport.(*http.Transport).Clone()
		owned.ResponseHeaderTimeout = cfg.Timeout
		if cfg.InsecureSkipVerify {
			owned.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed dev clusters
		}
		rt = owned
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    rt,
		MaxRetries:   cfg.MaxRetries,
		DisableRetry: cfg.DisableRetry,
		RetryOnStatus: []int{
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, transport: owned}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if _, _, err := s.do(ctx, db.OpPing, opensearchapi.PingRequest{}); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases idle connections of the owned transport.
func (s *Store) Close() {
	if s.transport != nil {
		s.transport.CloseIdleConnections()
	}
}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search engine: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// do executes req, records metrics and returns the body of a 2xx response.
// Non-2xx responses become *db.Error carrying the status and engine reason.
func (s *Store) do(ctx context.Context, op string, req opensearchapi.Request) ([]byte, int, error) {
	start := time.Now()
	defer func() {
		metrics.EngineRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	res, err := req.Do(ctx, s.client)
	if err != nil {
		metrics.EngineRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, 0, &db.Error{Op: op, Err: err}
	}
	defer res.Body.Close()

	metrics.EngineRequestsTotal.WithLabelValues(op, strconv.Itoa(res.StatusCode)).Inc()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, &db.Error{Op: op, Status: res.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if res.IsError() {
		return data, res.StatusCode, &db.Error{Op: op, Status: res.StatusCode, Err: engineError(res.StatusCode, data)}
	}
	return data, res.StatusCode, nil
}

type errorBody struct {
	Error json.RawMessage `json:"error"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// engineError extracts "type: reason" from an engine error body and maps
// well-known missing-resource types to db sentinels.
func engineError(status int, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || len(body.Error) == 0 {
		return fmt.Errorf("%s", http.StatusText(status))
	}

	var cause errorCause
	if err := json.Unmarshal(body.Error, &cause); err != nil {
		// Older engines report error as a plain string.
		var msg string
		if json.Unmarshal(body.Error, &msg) == nil {
			return errors.New(msg)
		}
		return fmt.Errorf("%s", http.StatusText(status))
	}

	err := fmt.Errorf("%s: %s", cause.Type, cause.Reason)
	switch cause.Type {
	case "index_not_found_exception":
		return fmt.Errorf("%w: %w", db.ErrIndexNotFound, err)
	case "resource_already_exists_exception":
		return fmt.Errorf("%w: %w", db.ErrIndexExists, err)
	case "search_context_missing_exception":
		return fmt.Errorf("%w: %w", db.ErrScrollNotFound, err)
	case "document_missing_exception":
		return fmt.Errorf("%w: %w", db.ErrDocumentNotFound, err)
	}
	return err
}
