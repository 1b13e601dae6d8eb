package index

import (
	"context"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// BookReader reads books and their joins for projection and reverse
// dependency lookups.
type BookReader interface {
	Get(ctx context.Context, slug string) (*domain.Book, error)
	List(ctx context.Context) ([]*domain.Book, error)
	Creators(ctx context.Context, slug string) ([]*domain.Creator, error)
	Subjects(ctx context.Context, slug string) ([]*domain.Subject, error)
	Languages(ctx context.Context, slug string) ([]*domain.Language, error)
	Catalogues(ctx context.Context, slug string) ([]*domain.Catalogue, error)
	GetPublisher(ctx context.Context, id int64) (*domain.Publisher, error)

	SlugsByPerson(ctx context.Context, personID int64) ([]string, error)
	SlugsBySubject(ctx context.Context, subjectID int64) ([]string, error)
	SlugsByLanguage(ctx context.Context, languageID int64) ([]string, error)
	SlugsByPublisher(ctx context.Context, publisherID int64) ([]string, error)
	SlugsByPlace(ctx context.Context, placeID int64) ([]string, error)
	SlugsByEdition(ctx context.Context, manifestURI string) ([]string, error)
}

// PersonReader resolves people for creator and annotator names.
type PersonReader interface {
	Get(ctx context.Context, id int64) (*domain.Person, error)
	GetMulti(ctx context.Context, ids []int64) ([]*domain.Person, error)
}

// PlaceReader resolves publication places for the text projection.
type PlaceReader interface {
	Get(ctx context.Context, id int64) (*domain.Place, error)
}

// AnnotationReader reads annotations for projection and annotator
// derivation.
type AnnotationReader interface {
	Get(ctx context.Context, id string) (*domain.Annotation, error)
	List(ctx context.Context) ([]*domain.Annotation, error)
}

// EditionReader resolves canvases and manifests to books.
type EditionReader interface {
	FindCanvasByURI(ctx context.Context, uri string) (*domain.Canvas, error)
	Canvases(ctx context.Context, editionShortID string) ([]*domain.Canvas, error)
	FindEditionByURI(ctx context.Context, uri string) (*domain.DigitalEdition, error)
}

// Writer maintains the search index and its projected documents.
type Writer interface {
	Ensure(ctx context.Context) error
	Reset(ctx context.Context) error
	Submit(ctx context.Context, docs map[string]map[string]string) error
	Remove(ctx context.Context, id string) error
}
