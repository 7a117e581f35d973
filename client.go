package memodex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/db"
	dbOpenSearch "github.com/kailas-cloud/memodex/internal/db/opensearch"
	dombatch "github.com/kailas-cloud/memodex/internal/domain/batch"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	"github.com/kailas-cloud/memodex/internal/domain/search/result"
	indexrepo "github.com/kailas-cloud/memodex/internal/repository/index"
	memorepo "github.com/kailas-cloud/memodex/internal/repository/memo"
	searchrepo "github.com/kailas-cloud/memodex/internal/repository/search"
	batchuc "github.com/kailas-cloud/memodex/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/memodex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/memodex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/memodex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/memodex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped out in tests.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request, facets searchuc.FacetOptions) (result.Envelope, error)
	OpenScroll(ctx context.Context, req *request.Request, keepAlive time.Duration) (result.Page, error)
	ScrollNext(ctx context.Context, scrollID string, keepAlive time.Duration) (result.Page, error)
	ClearScroll(ctx context.Context, scrollID string) error
	MultiSearch(ctx context.Context, entries []request.MultiSearchEntry) ([]json.RawMessage, error)
	Count(ctx context.Context, req *request.Request) (int, error)
	RawSearch(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
}

type documentUseCase interface {
	Upsert(ctx context.Context, id string, src memo.Source) (string, error)
	Get(ctx context.Context, id string, includes []string) (memo.Source, bool, error)
	Delete(ctx context.Context, id string) error
	Patch(ctx context.Context, id string, fields map[string]any) error
}

type batchUseCase interface {
	Upsert(ctx context.Context, docs []memo.Keyed) dombatch.Outcome
	Verify(ctx context.Context, lines []string) error
	UpsertStrict(ctx context.Context, docs []memo.Keyed) error
}

type indexUseCase interface {
	Name() string
	Ensure(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the memodex entry point. It owns one engine connection; call
// Close when done.
type Client struct {
	engine    db.Engine
	searchSvc searchUseCase
	docSvc    documentUseCase
	batchSvc  batchUseCase
	indexSvc  indexUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and waits for the cluster to answer a ping.
// The provided context bounds the readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		index:            DefaultIndex,
		readinessTimeout: defaultReadinessTimeout,
		chunkSize:        batchuc.DefaultChunkSize,
		concurrency:      batchuc.DefaultConcurrency,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("memodex: cluster address required (use WithOpenSearch)")
	}

	engine, err := dbOpenSearch.NewStore(dbOpenSearch.Config{
		Addrs:              cfg.addrs,
		Username:           cfg.username,
		Password:           cfg.password,
		InsecureSkipVerify: cfg.insecure,
		Timeout:            cfg.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("memodex: create engine store: %w", err)
	}

	if err := engine.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		engine.Close()
		return nil, fmt.Errorf("memodex: search engine not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		engine.Close()
		return nil, err
	}
	return wireClient(engine, cfg, obs), nil
}

func wireClient(engine db.Engine, cfg *clientConfig, obs *observer) *Client {
	// Internal services log through zap; SDK callers see slog via the observer.
	logger := zap.NewNop()

	memoRepo := memorepo.New(engine, cfg.index)

	batchSvc := batchuc.New(memoRepo, memoRepo, logger).
		WithChunkSize(cfg.chunkSize).
		WithConcurrency(cfg.concurrency)
	if cfg.contentIDs {
		batchSvc = batchSvc.WithIDFunc(batchuc.IDFromContent)
	}

	return &Client{
		engine:    engine,
		searchSvc: searchuc.New(searchrepo.New(engine, cfg.index), logger).WithFacetFields(memo.FacetFields()),
		docSvc:    documentuc.New(memoRepo),
		batchSvc:  batchSvc,
		indexSvc:  indexuc.New(indexrepo.New(engine, cfg.index), logger),
		healthSvc: healthuc.New(engine, nil),
		obs:       obs,
	}
}

// Close releases the engine connection.
func (c *Client) Close() {
	if c.engine != nil {
		c.engine.Close()
	}
}

// Ping checks cluster connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.engine.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Healthy reports whether the cluster answered a health probe.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.healthSvc.Check(ctx).Status == healthuc.Healthy
}

// Search returns the search service.
func (c *Client) Search() *SearchService {
	return &SearchService{svc: c.searchSvc, obs: c.obs}
}

// Memos returns the memo write/read service.
func (c *Client) Memos() *MemoService {
	return &MemoService{docSvc: c.docSvc, batchSvc: c.batchSvc, obs: c.obs}
}

// Index returns the index management service.
func (c *Client) Index() *IndexService {
	return &IndexService{svc: c.indexSvc, obs: c.obs}
}
