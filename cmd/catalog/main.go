package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/winthrop-cdh/catalog/internal/config"
	dbRedis "github.com/winthrop-cdh/catalog/internal/db/redis"
	"github.com/winthrop-cdh/catalog/internal/domain"
	logpkg "github.com/winthrop-cdh/catalog/internal/logger"
	"github.com/winthrop-cdh/catalog/internal/metrics"
	annotationrepo "github.com/winthrop-cdh/catalog/internal/repository/annotation"
	bookrepo "github.com/winthrop-cdh/catalog/internal/repository/book"
	editionrepo "github.com/winthrop-cdh/catalog/internal/repository/edition"
	footnoterepo "github.com/winthrop-cdh/catalog/internal/repository/footnote"
	indexrepo "github.com/winthrop-cdh/catalog/internal/repository/index"
	personrepo "github.com/winthrop-cdh/catalog/internal/repository/person"
	placerepo "github.com/winthrop-cdh/catalog/internal/repository/place"
	searchrepo "github.com/winthrop-cdh/catalog/internal/repository/search"
	chiTransport "github.com/winthrop-cdh/catalog/internal/transport/chi"
	annotationuc "github.com/winthrop-cdh/catalog/internal/usecase/annotation"
	bookuc "github.com/winthrop-cdh/catalog/internal/usecase/book"
	footnoteuc "github.com/winthrop-cdh/catalog/internal/usecase/footnote"
	healthuc "github.com/winthrop-cdh/catalog/internal/usecase/health"
	indexuc "github.com/winthrop-cdh/catalog/internal/usecase/index"
	peopleuc "github.com/winthrop-cdh/catalog/internal/usecase/people"
	placesuc "github.com/winthrop-cdh/catalog/internal/usecase/places"
	searchuc "github.com/winthrop-cdh/catalog/internal/usecase/search"
	"github.com/winthrop-cdh/catalog/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting catalog API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register catalog metrics explicitly (no init())
	metrics.RegisterCatalogMetrics()

	// Create repositories
	bookRepo := bookrepo.New(store)
	personRepo := personrepo.New(store)
	placeRepo := placerepo.New(store)
	editionRepo := editionrepo.New(store)
	annotationRepo := annotationrepo.New(store)
	footnoteRepo := footnoterepo.New(store)
	indexRepo := indexrepo.New(store)
	searchRepo := searchrepo.New(store)

	// Projector queues document submissions and coalesces bursts.
	projector := indexuc.New(
		bookRepo, personRepo, placeRepo, annotationRepo, editionRepo,
		indexRepo, time.Duration(cfg.Search.CommitWithinSec)*time.Second, logger,
	)

	searchSvc := searchuc.New(searchRepo, searchuc.Config{
		PageSize:         cfg.Search.PageSize,
		FacetLimit:       cfg.Search.FacetLimit,
		HistogramBuckets: cfg.Search.HistogramBuckets,
		YearCacheTTL:     time.Duration(cfg.Search.YearCacheTTLSec) * time.Second,
	})
	// Index writes can change the global publication year span.
	projector.SetFlushHook(searchSvc.InvalidateYearBounds)

	bookSvc := bookuc.New(bookRepo, personRepo, placeRepo, editionRepo, projector)
	peopleSvc := peopleuc.New(personRepo, projector)
	placesSvc := placesuc.New(placeRepo, projector)
	annotationSvc := annotationuc.New(annotationRepo, editionRepo, personRepo, bookRepo, projector)

	footnoteSvc := footnoteuc.New(footnoteRepo, newContentResolver(bookRepo, personRepo, annotationRepo))

	healthSvc := healthuc.New(store, store)

	if err := projector.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}

	server := chiTransport.NewServer(
		searchSvc, bookSvc, peopleSvc, placesSvc,
		annotationSvc, footnoteSvc, projector, healthSvc, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
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
	// Drain queued index submissions before exiting.
	if err := projector.Close(shutdownCtx); err != nil {
		logger.Error("Error closing projector", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newContentResolver registers display resolvers for the entity kinds
// footnotes may cite.
func newContentResolver(
	books *bookrepo.Repo, people *personrepo.Repo, annotations *annotationrepo.Repo,
) *domain.ContentResolver {
	resolver := domain.NewContentResolver()
	resolver.Register(domain.KindBook, func(ctx context.Context, id string) (string, error) {
		b, err := books.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return b.Title, nil
	})
	resolver.Register(domain.KindPerson, func(ctx context.Context, id string) (string, error) {
		pid, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return "", fmt.Errorf("person id %q: %w", id, domain.ErrInvalidInput)
		}
		p, err := people.Get(ctx, pid)
		if err != nil {
			return "", err
		}
		return p.AuthorizedName, nil
	})
	resolver.Register(domain.KindAnnotation, func(ctx context.Context, id string) (string, error) {
		a, err := annotations.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return a.Text, nil
	})
	return resolver
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
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
