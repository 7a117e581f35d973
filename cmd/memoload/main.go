package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/config"
	dbOpenSearch "github.com/kailas-cloud/memodex/internal/db/opensearch"
	"github.com/kailas-cloud/memodex/internal/loader"
	logpkg "github.com/kailas-cloud/memodex/internal/logger"
	"github.com/kailas-cloud/memodex/internal/metrics"
	indexrepo "github.com/kailas-cloud/memodex/internal/repository/index"
	memorepo "github.com/kailas-cloud/memodex/internal/repository/memo"
	batchuc "github.com/kailas-cloud/memodex/internal/usecase/batch"
	indexuc "github.com/kailas-cloud/memodex/internal/usecase/index"
	"github.com/kailas-cloud/memodex/internal/version"
)

func main() {
	file := flag.String("file", "memo.json", "JSON array of memos to load")
	watch := flag.Bool("watch", false, "reload whenever the file changes")
	debounce := flag.Duration("debounce", loader.DefaultDebounce, "quiet period before a reload in -watch mode")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "memoload")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterEngineMetrics()

	engine, err := dbOpenSearch.NewStore(dbOpenSearch.Config{
		Addrs:              cfg.Engine.Addrs,
		Username:           cfg.Engine.Username,
		Password:           cfg.Engine.Password,
		InsecureSkipVerify: cfg.Engine.InsecureSkipVerify,
		Timeout:            time.Duration(cfg.Engine.TimeoutSec) * time.Second,
		MaxRetries:         cfg.Engine.MaxRetries,
	})
	if err != nil {
		logger.Fatal("Failed to create engine store", zap.Error(err))
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.WaitForReady(ctx, time.Duration(cfg.Engine.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Search engine not ready", zap.Error(err))
	}

	memoRepo := memorepo.New(engine, cfg.Engine.Index)
	indexSvc := indexuc.New(indexrepo.New(engine, cfg.Engine.Index), logger)
	batchSvc := batchuc.New(memoRepo, memoRepo, logger).
		WithMetrics(metrics.BulkItemsTotal, metrics.BulkChunksTotal)
	if cfg.Ingest.IDStrategy == config.IDStrategyContent {
		batchSvc = batchSvc.WithIDFunc(batchuc.IDFromContent)
	}

	l := loader.New(indexSvc, batchSvc, logger)

	rep, err := l.LoadFile(ctx, *file)
	if err != nil {
		logger.Error("Load failed", zap.String("file", *file), zap.Error(err))
		if !*watch {
			os.Exit(1)
		}
	} else {
		fmt.Printf("Index %s now holds %d memos\n", rep.Index, rep.Count)
	}

	if !*watch {
		return
	}
	err = l.Watch(ctx, *file, *debounce, func(rep loader.Report, err error) {
		if err == nil {
			fmt.Printf("Index %s now holds %d memos\n", rep.Index, rep.Count)
		}
	})
	if err != nil {
		logger.Fatal("Watch failed", zap.Error(err))
	}
	logger.Info("Watch stopped")
}
