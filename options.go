package memodex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultIndex is the index used when WithIndex is not given.
const DefaultIndex = "memos"

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	insecure bool
	index    string
	timeout  time.Duration

	readinessTimeout time.Duration
	chunkSize        int
	concurrency      int
	contentIDs       bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithOpenSearch sets the cluster node URLs.
func WithOpenSearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = append(c.addrs, addrs...)
	})
}

// WithBasicAuth sets HTTP basic credentials sent with every request.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithIndex sets the memo index name. Default: "memos".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithTimeout bounds how long the client waits for response headers.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithReadinessTimeout bounds the connectivity check done by New.
// Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithInsecureTLS skips certificate verification. For self-signed dev clusters only.
func WithInsecureTLS() Option {
	return optionFunc(func(c *clientConfig) {
		c.insecure = true
	})
}

// WithChunkSize sets the number of memos sent per bulk call. Default: 500.
func WithChunkSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = n
	})
}

// WithConcurrency sets how many bulk chunks may be in flight. Default: 1.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = n
	})
}

// WithContentIDs derives ids from memo content for memos without a memoId,
// so re-sending the same memo overwrites instead of duplicating.
func WithContentIDs() Option {
	return optionFunc(func(c *clientConfig) {
		c.contentIDs = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
