package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geocatalog/internal/config"
	"github.com/kailas-cloud/geocatalog/internal/db"
	"github.com/kailas-cloud/geocatalog/internal/db/memory"
	dbRedis "github.com/kailas-cloud/geocatalog/internal/db/redis"
	logpkg "github.com/kailas-cloud/geocatalog/internal/logger"
	"github.com/kailas-cloud/geocatalog/internal/metrics"
	"github.com/kailas-cloud/geocatalog/internal/proxy"
	catalogrepo "github.com/kailas-cloud/geocatalog/internal/repository/catalog"
	"github.com/kailas-cloud/geocatalog/internal/repository/probecache"
	"github.com/kailas-cloud/geocatalog/internal/transport/arches"
	chiTransport "github.com/kailas-cloud/geocatalog/internal/transport/chi"
	"github.com/kailas-cloud/geocatalog/internal/transport/sensorthings"
	cataloguc "github.com/kailas-cloud/geocatalog/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/geocatalog/internal/usecase/health"
	loaduc "github.com/kailas-cloud/geocatalog/internal/usecase/load"
	"github.com/kailas-cloud/geocatalog/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Service: "geocatalog",
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting geocatalog API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Int("groups", len(cfg.Groups)),
	)

	store, err := newStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register loader metrics explicitly (no init())
	metrics.RegisterLoaderMetrics()

	groups, err := cfg.Adapters()
	if err != nil {
		logger.Fatal("Invalid group configuration", zap.Error(err))
	}

	// Outbound transport: one shared client, timeouts are applied per request
	httpClient := &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	urlProxy := proxy.New(proxy.Config{
		BaseURL:         cfg.Proxy.BaseURL,
		ProxyAllDomains: cfg.Proxy.ProxyAllDomains,
		Domains:         cfg.Proxy.Domains,
	})

	archesClient := arches.NewClient(&arches.Config{
		HTTPClient:   httpClient,
		FetchTimeout: time.Duration(cfg.Loader.FetchTimeoutSec) * time.Second,
		ProbeTimeout: time.Duration(cfg.Loader.ProbeTimeoutSec) * time.Second,
		Logger:       logger,
	})
	staClient := sensorthings.NewClient(&sensorthings.Config{
		HTTPClient:   httpClient,
		Proxy:        urlProxy,
		FetchTimeout: time.Duration(cfg.Loader.FetchTimeoutSec) * time.Second,
		Logger:       logger,
	})

	// Prober chain: Arches HEAD -> KV cache
	var prober loaduc.Prober = archesClient
	if cfg.Loader.ProbeCacheTTLSec > 0 {
		prober = probecache.New(archesClient, store, cfg.Storage.KeyPrefix,
			time.Duration(cfg.Loader.ProbeCacheTTLSec)*time.Second, metrics.ProbeCacheTotal, logger)
	}

	loader := loaduc.New(archesClient, prober, staClient, urlProxy).
		WithConcurrency(cfg.Loader.MaxConcurrentProbes).
		WithProbeRate(cfg.Loader.ProbesPerSecond)

	repo := catalogrepo.New(store, cfg.Storage.KeyPrefix)
	catalogSvc, err := cataloguc.New(groups, loader, repo, logger)
	if err != nil {
		logger.Fatal("Failed to create catalog service", zap.Error(err))
	}

	if cfg.Loader.LoadOnStart {
		for _, g := range groups {
			id, err := catalogSvc.Start(ctx, g.Group)
			if err != nil {
				logger.Error("Failed to start initial load", zap.String("group", g.Group), zap.Error(err))
				continue
			}
			logger.Info("Initial load started", zap.String("group", g.Group), zap.String("load_id", id))
		}
	}

	healthSvc := healthuc.New(store, catalogSvc)

	server := chiTransport.NewServer(catalogSvc, healthSvc, logger).
		WithPagination(cfg.HTTP.DefaultPageSize, cfg.HTTP.MaxPageSize)

	r := chi.NewRouter()
	r.Use(chiTransport.Recoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.RequestLog(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware("/health"))
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.WriteBindError,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Loads still running are cancelled; their partial items stay stored
	catalogSvc.Close()

	logger.Info("Server stopped gracefully")
}

// newStore creates the database store for the configured driver.
// Valkey and Redis share the rueidis store.
func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("%s store: %w", cfg.Driver, err)
		}
		return s, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
