// Command reindex rebuilds every projected search document from the
// stored entity records.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/winthrop-cdh/catalog/internal/config"
	dbRedis "github.com/winthrop-cdh/catalog/internal/db/redis"
	logpkg "github.com/winthrop-cdh/catalog/internal/logger"
	"github.com/winthrop-cdh/catalog/internal/metrics"
	annotationrepo "github.com/winthrop-cdh/catalog/internal/repository/annotation"
	bookrepo "github.com/winthrop-cdh/catalog/internal/repository/book"
	editionrepo "github.com/winthrop-cdh/catalog/internal/repository/edition"
	indexrepo "github.com/winthrop-cdh/catalog/internal/repository/index"
	personrepo "github.com/winthrop-cdh/catalog/internal/repository/person"
	placerepo "github.com/winthrop-cdh/catalog/internal/repository/place"
	indexuc "github.com/winthrop-cdh/catalog/internal/usecase/index"
)

func main() {
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

	metrics.RegisterCatalogMetrics()

	projector := indexuc.New(
		bookrepo.New(store), personrepo.New(store), placerepo.New(store),
		annotationrepo.New(store), editionrepo.New(store),
		indexrepo.New(store), time.Duration(cfg.Search.CommitWithinSec)*time.Second, logger,
	)

	start := time.Now()
	n, err := projector.ReindexAll(ctx)
	if err != nil {
		logger.Fatal("Reindex failed", zap.Error(err))
	}

	logger.Info("Reindex finished",
		zap.Int("documents", n),
		zap.Duration("took", time.Since(start)),
	)
}
