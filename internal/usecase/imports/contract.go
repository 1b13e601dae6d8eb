package imports

import (
	"context"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// BookStore is the book persistence surface the importers need.
type BookStore interface {
	Exists(ctx context.Context, slug string) (bool, error)
	Get(ctx context.Context, slug string) (*domain.Book, error)
	Save(ctx context.Context, b *domain.Book) error
	AddCreator(ctx context.Context, c *domain.Creator) error
	AddCatalogue(ctx context.Context, c *domain.Catalogue) error
	AllCatalogues(ctx context.Context) ([]*domain.Catalogue, error)
	SlugsByCallNumber(ctx context.Context, callNumber string) ([]string, error)
	GetOrCreatePublisher(ctx context.Context, name string) (*domain.Publisher, bool, error)
	GetOrCreateInstitution(ctx context.Context, name string) (*domain.OwningInstitution, bool, error)
}

// PersonStore resolves and creates people during import.
type PersonStore interface {
	FindByName(ctx context.Context, name string) (*domain.Person, error)
	Create(ctx context.Context, p *domain.Person) error
}

// PlaceStore resolves and creates places during import.
type PlaceStore interface {
	FindByName(ctx context.Context, name string) (*domain.Place, error)
	Create(ctx context.Context, p *domain.Place) error
}

// NameAuthority looks up a personal name in an external authority
// file. An empty URI with a nil error means no confident match.
type NameAuthority interface {
	LookupPerson(ctx context.Context, name string) (string, error)
}

// GazetteerHit is the best candidate for a place name lookup.
type GazetteerHit struct {
	URI       string
	Latitude  float64
	Longitude float64
}

// Gazetteer looks up a place name in an external gazetteer. A nil hit
// with a nil error means no candidate.
type Gazetteer interface {
	LookupPlace(ctx context.Context, name string) (*GazetteerHit, error)
}

// EditionStore persists cached IIIF manifests.
type EditionStore interface {
	FindEditionByURI(ctx context.Context, uri string) (*domain.DigitalEdition, error)
	SaveEdition(ctx context.Context, ed *domain.DigitalEdition) error
	SaveCanvas(ctx context.Context, editionShortID string, c *domain.Canvas) error
}

// ManifestBundle is one fetched manifest with its canvases.
type ManifestBundle struct {
	Edition  *domain.DigitalEdition
	Canvases []*domain.Canvas
}

// ManifestSource fetches IIIF content. A collection path expands to
// every supported manifest it references.
type ManifestSource interface {
	Fetch(ctx context.Context, path string) ([]ManifestBundle, error)
}

// Projector re-submits affected book documents after import.
type Projector interface {
	EnsureIndex(ctx context.Context) error
	IndexBooks(ctx context.Context, slugs ...string) error
	Flush(ctx context.Context) error
}
