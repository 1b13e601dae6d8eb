package imports

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/winthrop-cdh/catalog/internal/domain"
	"github.com/winthrop-cdh/catalog/internal/metrics"
)

// localIdentifierField is the manifest metadata entry carrying the
// catalogued call number of the digitized volume.
const localIdentifierField = "Local identifier"

// manifestShorthand expands preset names to known collection URIs.
var manifestShorthand = map[string]string{
	"NYSL": "https://plum.princeton.edu/collections/p4j03fz143/manifest",
}

// DigitalEds imports IIIF manifests as digital editions and links each
// to its book by the local identifier.
type DigitalEds struct {
	books     BookStore
	editions  EditionStore
	source    ManifestSource
	projector Projector
	log       *zap.Logger
}

// NewDigitalEds creates the IIIF importer.
func NewDigitalEds(
	books BookStore, editions EditionStore, source ManifestSource,
	projector Projector, log *zap.Logger,
) *DigitalEds {
	return &DigitalEds{
		books:     books,
		editions:  editions,
		source:    source,
		projector: projector,
		log:       log,
	}
}

// EditionStats summarizes one IIIF import run.
type EditionStats struct {
	Editions int
	Canvases int
	Linked   int
	Skipped  int
	Errors   int
}

// Run fetches every path (file, manifest URI, collection URI, or a
// shorthand preset) and imports the manifests it yields. Already
// cached manifests are skipped; updates are not supported.
func (s *DigitalEds) Run(ctx context.Context, paths []string) (*EditionStats, error) {
	if err := s.projector.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	stats := &EditionStats{}
	for _, path := range paths {
		if uri, ok := manifestShorthand[path]; ok {
			path = uri
		}
		bundles, err := s.source.Fetch(ctx, path)
		if err != nil {
			return stats, fmt.Errorf("fetch %s: %w", path, err)
		}
		for _, bundle := range bundles {
			if err := s.importBundle(ctx, bundle, stats); err != nil {
				s.log.Warn("manifest import failed",
					zap.String("uri", bundle.Edition.URI), zap.Error(err))
				stats.Errors++
				metrics.ImportRowsTotal.WithLabelValues("digitaleds", "error").Inc()
				continue
			}
			metrics.ImportRowsTotal.WithLabelValues("digitaleds", "ok").Inc()
		}
	}

	if err := s.projector.Flush(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *DigitalEds) importBundle(ctx context.Context, bundle ManifestBundle, stats *EditionStats) error {
	ed := bundle.Edition

	_, err := s.editions.FindEditionByURI(ctx, ed.URI)
	if err == nil {
		stats.Skipped++
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if err := s.editions.SaveEdition(ctx, ed); err != nil {
		return err
	}
	stats.Editions++
	for _, c := range bundle.Canvases {
		if err := s.editions.SaveCanvas(ctx, ed.ShortID, c); err != nil {
			return err
		}
		stats.Canvases++
	}

	return s.linkBook(ctx, ed, stats)
}

// linkBook associates the edition with a book only when the local
// identifier matches exactly one catalogued call number.
func (s *DigitalEds) linkBook(ctx context.Context, ed *domain.DigitalEdition, stats *EditionStats) error {
	ids := ed.Metadata[localIdentifierField]
	if len(ids) == 0 {
		s.log.Warn("no local identifier found", zap.String("uri", ed.URI))
		return nil
	}
	callNumber := ids[0]

	slugs, err := s.books.SlugsByCallNumber(ctx, callNumber)
	if err != nil {
		return err
	}
	if len(slugs) != 1 {
		s.log.Warn("no unique match for local identifier",
			zap.String("call_number", callNumber), zap.Int("matches", len(slugs)))
		return nil
	}

	b, err := s.books.Get(ctx, slugs[0])
	if err != nil {
		return err
	}
	b.DigitalEditionURI = ed.URI
	b.IsDigitized = true
	if err := s.books.Save(ctx, b); err != nil {
		return err
	}
	stats.Linked++
	return s.projector.IndexBooks(ctx, b.Slug)
}
