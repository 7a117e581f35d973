package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/config"
	"github.com/kailas-cloud/memodex/internal/db"
	dbOpenSearch "github.com/kailas-cloud/memodex/internal/db/opensearch"
	dbRedis "github.com/kailas-cloud/memodex/internal/db/redis"
	logpkg "github.com/kailas-cloud/memodex/internal/logger"
	"github.com/kailas-cloud/memodex/internal/metrics"
	indexrepo "github.com/kailas-cloud/memodex/internal/repository/index"
	memorepo "github.com/kailas-cloud/memodex/internal/repository/memo"
	searchrepo "github.com/kailas-cloud/memodex/internal/repository/search"
	"github.com/kailas-cloud/memodex/internal/repository/searchcache"
	chiTransport "github.com/kailas-cloud/memodex/internal/transport/chi"
	batchuc "github.com/kailas-cloud/memodex/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/memodex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/memodex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/memodex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/memodex/internal/usecase/search"
	"github.com/kailas-cloud/memodex/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "memodex")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting memodex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("engine_addrs", cfg.Engine.Addrs),
		zap.String("index", cfg.Engine.Index),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

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

	ctx := context.Background()
	if err := engine.WaitForReady(ctx, time.Duration(cfg.Engine.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Search engine not ready", zap.Error(err))
	}
	logger.Info("Connected to search engine")

	// Pass a nil interface (not a typed nil pointer) when the cache is off:
	// (*dbRedis.Store)(nil) wrapped in healthuc.Pinger != nil.
	var cachePinger healthuc.Pinger
	// All repositories share one engine; with the cache on, its writes
	// invalidate cached searches.
	var store db.Engine = engine
	if cfg.Cache.Enabled {
		cache, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Cache.Addrs,
			Username:  cfg.Cache.Username,
			Password:  cfg.Cache.Password,
			DB:        cfg.Cache.DB,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()

		cached := searchcache.New(
			engine, cache, time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.SearchCacheTotal, logger,
		)
		cachedEngine := searchcache.NewEngine(engine, cached, searchcache.DefaultSettle)
		defer cachedEngine.Close()
		store = cachedEngine
		cachePinger = cache
		logger.Info("Search response cache enabled", zap.Int("ttl_sec", cfg.Cache.TTLSec))
	}

	// Repositories
	idxRepo := indexrepo.New(store, cfg.Engine.Index)
	memoRepo := memorepo.New(store, cfg.Engine.Index)
	srchRepo := searchrepo.New(store, cfg.Engine.Index)

	// Use case services
	indexSvc := indexuc.New(idxRepo, logger)
	if cfg.Engine.EnsureIndex {
		if _, err := indexSvc.Ensure(ctx); err != nil {
			logger.Fatal("Failed to ensure index", zap.Error(err))
		}
	}

	searchSvc := searchuc.New(srchRepo, logger).
		WithKeepAlive(time.Duration(cfg.Search.ScrollKeepAliveSec) * time.Second).
		WithFacetFields(cfg.Search.FacetFields)
	docSvc := documentuc.New(memoRepo)
	batchSvc := batchuc.New(memoRepo, memoRepo, logger).
		WithChunkSize(cfg.Ingest.ChunkSize).
		WithConcurrency(cfg.Ingest.Concurrency).
		WithMetrics(metrics.BulkItemsTotal, metrics.BulkChunksTotal)
	if cfg.Ingest.IDStrategy == config.IDStrategyContent {
		batchSvc = batchSvc.WithIDFunc(batchuc.IDFromContent)
	}
	healthSvc := healthuc.New(engine, cachePinger)

	server := chiTransport.NewServer(searchSvc, docSvc, batchSvc, indexSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:      cfg.Auth.APIKeys,
		MaxBodyBytes: int64(cfg.HTTP.MaxBodyMB) << 20,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
