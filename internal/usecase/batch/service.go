package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/memodex/internal/domain"
	dombatch "github.com/kailas-cloud/memodex/internal/domain/batch"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
)

// Bulk defaults.
const (
	DefaultChunkSize   = 500
	DefaultConcurrency = 1
)

var errMissingID = errors.New("memo id is required")

// Service handles bulk memo ingestion with per-item error reporting.
type Service struct {
	bulk        BulkIndexer
	lines       LineSubmitter
	logger      *zap.Logger
	idFunc      IDFunc
	chunkSize   int
	concurrency int
	itemsTotal  *prometheus.CounterVec
	chunksTotal *prometheus.CounterVec
}

// New creates a batch service.
func New(bulk BulkIndexer, lines LineSubmitter, logger *zap.Logger) *Service {
	return &Service{
		bulk:        bulk,
		lines:       lines,
		logger:      logger,
		idFunc:      IDFromField,
		chunkSize:   DefaultChunkSize,
		concurrency: DefaultConcurrency,
	}
}

// WithChunkSize configures the number of memos per bulk call.
func (s *Service) WithChunkSize(n int) *Service {
	if n > 0 {
		s.chunkSize = n
	}
	return s
}

// WithConcurrency configures how many chunks may be in flight at once.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// WithIDFunc configures id derivation for memos submitted without an id.
func (s *Service) WithIDFunc(fn IDFunc) *Service {
	if fn != nil {
		s.idFunc = fn
	}
	return s
}

// WithMetrics sets counter vecs labelled "result" ("ok"/"error") for items and chunks.
func (s *Service) WithMetrics(items, chunks *prometheus.CounterVec) *Service {
	s.itemsTotal, s.chunksTotal = items, chunks
	return s
}

type pending struct {
	position int
	doc      dombatch.Doc
}

// Upsert writes docs leniently: every doc gets an outcome, a failed chunk
// never stops other chunks, and errors are ordered by input position.
func (s *Service) Upsert(ctx context.Context, docs []memo.Keyed) dombatch.Outcome {
	results := make([]dombatch.Result, len(docs))
	ready := make([]pending, 0, len(docs))

	for i, d := range docs {
		doc, err := s.prepare(d)
		if err != nil {
			results[i] = dombatch.NewError(i, doc.ID, err, nil)
			continue
		}
		ready = append(ready, pending{position: i, doc: doc})
	}

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for start := 0; start < len(ready); start += s.chunkSize {
		chunk := ready[start:min(start+s.chunkSize, len(ready))]
		g.Go(func() error {
			s.submitChunk(ctx, chunk, results)
			return nil
		})
	}
	_ = g.Wait()

	outcome := dombatch.NewOutcome(results)
	s.count(s.itemsTotal, "ok", outcome.Succeeded)
	s.count(s.itemsTotal, "error", outcome.Failed())

	s.logger.Info("Bulk upsert finished",
		zap.Int("docs", len(docs)),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed()),
	)
	return outcome
}

func (s *Service) prepare(d memo.Keyed) (dombatch.Doc, error) {
	id := d.ID
	if id == "" {
		derived, err := s.idFunc(d.Source)
		if err != nil {
			return dombatch.Doc{}, fmt.Errorf("derive id: %w", err)
		}
		id = derived
	}
	if id == "" {
		return dombatch.Doc{}, domain.InvalidRequestError(errMissingID)
	}
	data, err := json.Marshal(d.Source)
	if err != nil {
		return dombatch.Doc{ID: id}, domain.InvalidRequestError(fmt.Errorf("serialize memo: %w", err))
	}
	return dombatch.Doc{ID: id, Source: data}, nil
}

// submitChunk writes one chunk and records an outcome for each of its
// positions. Chunks own disjoint positions of results.
func (s *Service) submitChunk(ctx context.Context, chunk []pending, results []dombatch.Result) {
	docs := make([]dombatch.Doc, len(chunk))
	for i, p := range chunk {
		docs[i] = p.doc
	}

	acks, err := s.bulk.BulkIndex(ctx, docs)
	if err == nil && len(acks) != len(chunk) {
		err = fmt.Errorf("engine acknowledged %d of %d memos", len(acks), len(chunk))
	}
	if err != nil {
		s.count(s.chunksTotal, "error", 1)
		s.logger.Warn("Bulk chunk failed", zap.Int("docs", len(chunk)), zap.Error(err))
		for _, p := range chunk {
			results[p.position] = dombatch.NewError(p.position, p.doc.ID, fmt.Errorf("bulk chunk: %w", err), nil)
		}
		return
	}
	s.count(s.chunksTotal, "ok", 1)

	for i, p := range chunk {
		ack := acks[i]
		if ack.Failed() {
			results[p.position] = dombatch.NewError(
				p.position, p.doc.ID,
				fmt.Errorf("engine rejected memo: status %d", ack.Status),
				ack.Error,
			)
			continue
		}
		results[p.position] = dombatch.NewOK(p.position, p.doc.ID)
	}
}

// Verify submits NDJSON lines as one bulk call and fails if any item was
// rejected. The returned *domain.BulkVerificationError carries up to
// domain.MaxBulkErrorSamples item error payloads.
func (s *Service) Verify(ctx context.Context, lines []string) error {
	if len(lines) == 0 {
		return domain.InvalidRequestError(errors.New("at least one bulk line is required"))
	}
	resp, err := s.lines.BulkLines(ctx, lines)
	if err != nil {
		return fmt.Errorf("strict bulk: %w", err)
	}
	if resp.Errors {
		sample := resp.ErrorSample(domain.MaxBulkErrorSamples)
		s.logger.Warn("Strict bulk rejected", zap.Int("lines", len(lines)), zap.Int("sample", len(sample)))
		return domain.NewBulkVerificationError(sample)
	}
	return nil
}

// UpsertStrict renders docs as NDJSON and verifies them in a single bulk
// call. Any doc without an id or a serializable body aborts the load before
// anything is sent.
func (s *Service) UpsertStrict(ctx context.Context, docs []memo.Keyed) error {
	if len(docs) == 0 {
		return domain.InvalidRequestError(errors.New("at least one memo is required"))
	}
	prepared := make([]dombatch.Doc, len(docs))
	for i, d := range docs {
		doc, err := s.prepare(d)
		if err != nil {
			return fmt.Errorf("memo %d: %w", i, err)
		}
		prepared[i] = doc
	}
	lines, err := s.lines.Lines(prepared)
	if err != nil {
		return domain.InvalidRequestError(err)
	}
	return s.Verify(ctx, lines)
}

func (s *Service) count(vec *prometheus.CounterVec, result string, n int) {
	if vec != nil && n > 0 {
		vec.WithLabelValues(result).Add(float64(n))
	}
}
