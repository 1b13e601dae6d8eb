// Command import-nysl loads the New York Society Library spreadsheet
// export into the catalog.
package main

import (
	"context"
	"flag"
	"os"
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
	"github.com/winthrop-cdh/catalog/internal/transport/geonames"
	"github.com/winthrop-cdh/catalog/internal/transport/viaf"
	importsuc "github.com/winthrop-cdh/catalog/internal/usecase/imports"
	indexuc "github.com/winthrop-cdh/catalog/internal/usecase/index"
)

func main() {
	var (
		file           = flag.String("file", "", "path to the NYSL CSV export")
		justSammelband = flag.Bool("just-sammelband", false, "only rebuild bound-volume flags from stored catalogues")
	)
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

	if *file == "" && !*justSammelband {
		logger.Fatal("missing -file argument")
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
	personRepo := personrepo.New(store)
	placeRepo := placerepo.New(store)

	projector := indexuc.New(
		bookRepo, personRepo, placeRepo,
		annotationrepo.New(store), editionrepo.New(store),
		indexrepo.New(store), time.Duration(cfg.Search.CommitWithinSec)*time.Second, logger,
	)

	authority := &viafAuthority{client: viaf.NewClient(&viaf.Config{
		BaseURL: cfg.Import.ViafBaseURL,
		Logger:  logger,
	})}
	gazetteer := &geonamesGazetteer{client: geonames.NewClient(&geonames.Config{
		BaseURL:  cfg.Import.GeoNamesBaseURL,
		Username: cfg.Import.GeoNamesUsername,
		Logger:   logger,
	})}

	importer := importsuc.NewNYSL(
		bookRepo, personRepo, placeRepo, authority, gazetteer, projector, logger,
	)

	var input *os.File
	if *file != "" {
		input, err = os.Open(*file)
		if err != nil {
			logger.Fatal("Failed to open input", zap.Error(err))
		}
		defer func() { _ = input.Close() }()
	}

	stats, err := importer.Run(ctx, input, *justSammelband)
	if err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}

	logger.Info("Import finished",
		zap.Int("books", stats.Books),
		zap.Int("people", stats.People),
		zap.Int("places", stats.Places),
		zap.Int("publishers", stats.Publishers),
		zap.Int("sammelband", stats.Sammelband),
		zap.Int("errors", stats.Errors),
	)
}

// viafAuthority adapts the VIAF client to the import name authority,
// keeping only confident personal-name matches.
type viafAuthority struct {
	client *viaf.Client
}

func (v *viafAuthority) LookupPerson(ctx context.Context, name string) (string, error) {
	suggestions, err := v.client.Suggest(ctx, name)
	if err != nil {
		return "", err
	}
	for _, s := range suggestions {
		if s.NameType == viaf.NameTypePersonal {
			return viaf.URIFromID(s.ViafID), nil
		}
	}
	return "", nil
}

// geonamesGazetteer adapts the GeoNames client to the import gazetteer,
// taking the top-ranked search hit.
type geonamesGazetteer struct {
	client *geonames.Client
}

func (g *geonamesGazetteer) LookupPlace(ctx context.Context, name string) (*importsuc.GazetteerHit, error) {
	places, err := g.client.Search(ctx, name, 1)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}
	top := places[0]
	return &importsuc.GazetteerHit{
		URI:       geonames.URIFromID(top.GeoNameID),
		Latitude:  top.Latitude(),
		Longitude: top.Longitude(),
	}, nil
}
