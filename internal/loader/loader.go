// Package loader performs strict one-shot loads of memo files into the index.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/domain/memo"
)

// Indexer manages the target index.
type Indexer interface {
	Name() string
	Ensure(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// Ingester verifies a whole load in one bulk call.
type Ingester interface {
	UpsertStrict(ctx context.Context, docs []memo.Keyed) error
}

// Report summarizes one load.
type Report struct {
	Index   string
	Created bool
	Loaded  int
	// Count is the index document count after the refresh.
	Count int
}

// Loader reads a JSON array of memos and loads it.
type Loader struct {
	index  Indexer
	ingest Ingester
	logger *zap.Logger
}

// New creates a loader.
func New(index Indexer, ingest Ingester, logger *zap.Logger) *Loader {
	return &Loader{index: index, ingest: ingest, logger: logger}
}

// LoadFile ensures the index, loads every memo in path, refreshes and
// reports the resulting document count. Any rejected memo fails the load.
func (l *Loader) LoadFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Report{}, fmt.Errorf("open memo file: %w", err)
	}
	defer func() { _ = f.Close() }()

	memos, err := ReadMemos(f)
	if err != nil {
		return Report{}, fmt.Errorf("read %s: %w", path, err)
	}
	l.logger.Info("Loaded memos from file", zap.String("file", path), zap.Int("memos", len(memos)))

	return l.Load(ctx, memos)
}

// Load ensures the index and writes memos strictly. An empty list only
// ensures the index.
func (l *Loader) Load(ctx context.Context, memos []memo.Source) (Report, error) {
	rep := Report{Index: l.index.Name()}

	created, err := l.index.Ensure(ctx)
	if err != nil {
		return rep, err
	}
	rep.Created = created
	if created {
		l.logger.Info("Created index", zap.String("index", rep.Index))
	} else {
		l.logger.Info("Index exists", zap.String("index", rep.Index))
	}

	if len(memos) == 0 {
		return rep, nil
	}

	docs := make([]memo.Keyed, len(memos))
	for i, m := range memos {
		docs[i] = memo.Keyed{Source: m}
		l.logger.Debug("Prepared memo",
			zap.String("memo_id", m.String(memo.IDField)),
			zap.String("client", m.String(memo.FieldClientName)),
		)
	}

	l.logger.Info("Indexing memos", zap.Int("memos", len(docs)), zap.String("index", rep.Index))
	if err := l.ingest.UpsertStrict(ctx, docs); err != nil {
		return rep, err
	}
	rep.Loaded = len(docs)

	if err := l.index.Refresh(ctx); err != nil {
		return rep, fmt.Errorf("refresh: %w", err)
	}
	n, err := l.index.Count(ctx)
	if err != nil {
		return rep, fmt.Errorf("count: %w", err)
	}
	rep.Count = n

	l.logger.Info("Load complete",
		zap.String("index", rep.Index),
		zap.Int("loaded", rep.Loaded),
		zap.Int("count", rep.Count),
	)
	return rep, nil
}

// ReadMemos decodes a JSON array of memo objects.
func ReadMemos(r io.Reader) ([]memo.Source, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var memos []memo.Source
	if err := dec.Decode(&memos); err != nil {
		return nil, fmt.Errorf("decode memo array: %w", err)
	}
	if dec.More() {
		return nil, errors.New("trailing data after memo array")
	}
	for i, m := range memos {
		if m == nil {
			return nil, fmt.Errorf("memo %d is null", i)
		}
	}
	return memos, nil
}
