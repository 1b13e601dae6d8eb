package people

import (
	"context"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Repository defines the person persistence contract.
type Repository interface {
	Get(ctx context.Context, id int64) (*domain.Person, error)
	FindByName(ctx context.Context, name string) (*domain.Person, error)
	Create(ctx context.Context, p *domain.Person) error
	Save(ctx context.Context, p *domain.Person) error
	Delete(ctx context.Context, id int64) error
	ListNames(ctx context.Context) ([]string, error)
	AddResidence(ctx context.Context, res *domain.Residence) error
	AddRelationship(ctx context.Context, rel *domain.Relationship) error
}

// Projector resolves and refreshes the book documents a person feeds
// into.
type Projector interface {
	DependentBooks(ctx context.Context, kind domain.Kind, pk string) ([]string, error)
	IndexBooks(ctx context.Context, slugs ...string) error
}
