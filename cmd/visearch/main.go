package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/roomscout/visearch/internal/config"
	dbRedis "github.com/roomscout/visearch/internal/db/redis"
	"github.com/roomscout/visearch/internal/domain"
	logpkg "github.com/roomscout/visearch/internal/logger"
	"github.com/roomscout/visearch/internal/metrics"
	catalogrepo "github.com/roomscout/visearch/internal/repository/catalog"
	"github.com/roomscout/visearch/internal/repository/feedback"
	settingsrepo "github.com/roomscout/visearch/internal/repository/settings"
	"github.com/roomscout/visearch/internal/taxonomy"
	chiTransport "github.com/roomscout/visearch/internal/transport/chi"
	openaiVision "github.com/roomscout/visearch/internal/transport/openai"
	extractuc "github.com/roomscout/visearch/internal/usecase/extract"
	pipelineuc "github.com/roomscout/visearch/internal/usecase/pipeline"
	rerankuc "github.com/roomscout/visearch/internal/usecase/rerank"
	retrieveuc "github.com/roomscout/visearch/internal/usecase/retrieve"
	"github.com/roomscout/visearch/internal/version"
)

func main() {
	seedFile := flag.String("seed", "", "seed the catalog from a JSON file and exit")
	flag.Parse()

	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting visearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("model", cfg.Provider.Model),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	catalog := catalogrepo.New(store).WithKeyPrefix(cfg.Storage.KeyPrefix)
	if err := catalog.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure catalog index", zap.Error(err))
	}

	if *seedFile != "" {
		if err := seedCatalog(ctx, catalog, *seedFile); err != nil {
			logger.Fatal("Seeding failed", zap.String("file", *seedFile), zap.Error(err))
		}
		logger.Info("Catalog seeded", zap.String("file", *seedFile))
		return
	}

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	provider := openaiVision.NewClient(&openaiVision.Config{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
		Timeout: time.Duration(cfg.Provider.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	taxIndex := taxonomy.New(catalog).
		WithTTL(time.Duration(cfg.Search.TaxonomyTTLSec) * time.Second)
	settingsStore := settingsrepo.New(store)
	tally := feedback.New()

	// Use case services — composition root
	extractSvc := extractuc.New(provider, taxIndex, logger)
	retrieveSvc := retrieveuc.New(catalog, logger)
	rerankSvc := rerankuc.New(provider, logger)
	searchPipeline := pipelineuc.New(settingsStore, extractSvc, retrieveSvc, rerankSvc, logger)

	server := chiTransport.NewServer(searchPipeline, settingsStore, taxIndex, tally, store, logger).
		WithMaxImageBytes(cfg.Search.MaxImageBytes)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		// WriteTimeout stays zero by default: search responses stream
		// while the model provider works.
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// seedCatalog loads items from a JSON array file into the catalog.
func seedCatalog(ctx context.Context, catalog *catalogrepo.Repo, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var items []domain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("seed file contains no items")
	}

	if err := catalog.Put(ctx, items); err != nil {
		return fmt.Errorf("store %d items: %w", len(items), err)
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
