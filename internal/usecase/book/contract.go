package book

import (
	"context"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Repository defines the book persistence contract.
type Repository interface {
	Get(ctx context.Context, slug string) (*domain.Book, error)
	Exists(ctx context.Context, slug string) (bool, error)
	Save(ctx context.Context, b *domain.Book) error
	Delete(ctx context.Context, slug string) error
	Creators(ctx context.Context, slug string) ([]*domain.Creator, error)
	AddCreator(ctx context.Context, c *domain.Creator) error
	RemoveCreator(ctx context.Context, c *domain.Creator) error
	AddPersonBook(ctx context.Context, pb *domain.PersonBook) error
	Subjects(ctx context.Context, slug string) ([]*domain.Subject, error)
	Languages(ctx context.Context, slug string) ([]*domain.Language, error)
	Catalogues(ctx context.Context, slug string) ([]*domain.Catalogue, error)
	GetPublisher(ctx context.Context, id int64) (*domain.Publisher, error)
	ListNames(ctx context.Context, kind domain.Kind) ([]string, error)
}

// PersonReader resolves creator credits to people.
type PersonReader interface {
	Get(ctx context.Context, id int64) (*domain.Person, error)
}

// PlaceReader resolves the publication place.
type PlaceReader interface {
	Get(ctx context.Context, id int64) (*domain.Place, error)
}

// EditionReader resolves the linked digital edition and its pages.
type EditionReader interface {
	FindEditionByURI(ctx context.Context, uri string) (*domain.DigitalEdition, error)
	Canvases(ctx context.Context, editionShortID string) ([]*domain.Canvas, error)
}

// Projector keeps the search index current with book mutations.
type Projector interface {
	IndexBooks(ctx context.Context, slugs ...string) error
	RemoveBook(ctx context.Context, slug string) error
}
