// Command import-digitaleds caches IIIF manifests as digital editions
// and links them to catalog books.
package main

import (
	"context"
	"flag"
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
	"github.com/winthrop-cdh/catalog/internal/transport/iiif"
	importsuc "github.com/winthrop-cdh/catalog/internal/usecase/imports"
	indexuc "github.com/winthrop-cdh/catalog/internal/usecase/index"
)

func main() {
	flag.Parse()

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

	paths := flag.Args()
	if len(paths) == 0 {
		logger.Fatal("no manifest or collection URIs given")
	}

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

	bookRepo := bookrepo.New(store)
	editionRepo := editionrepo.New(store)

	projector := indexuc.New(
		bookRepo, personrepo.New(store), placerepo.New(store),
		annotationrepo.New(store), editionRepo,
		indexrepo.New(store), time.Duration(cfg.Search.CommitWithinSec)*time.Second, logger,
	)

	source := &iiifSource{client: iiif.NewClient(&iiif.Config{Logger: logger})}

	importer := importsuc.NewDigitalEds(bookRepo, editionRepo, source, projector, logger)

	stats, err := importer.Run(ctx, paths)
	if err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}

	logger.Info("Import finished",
		zap.Int("editions", stats.Editions),
		zap.Int("canvases", stats.Canvases),
		zap.Int("linked", stats.Linked),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
	)
}

// iiifSource adapts the IIIF client to the import manifest source.
type iiifSource struct {
	client *iiif.Client
}

func (s *iiifSource) Fetch(ctx context.Context, path string) ([]importsuc.ManifestBundle, error) {
	bundles, err := s.client.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]importsuc.ManifestBundle, 0, len(bundles))
	for _, b := range bundles {
		out = append(out, importsuc.ManifestBundle{Edition: b.Edition, Canvases: b.Canvases})
	}
	return out, nil
}
