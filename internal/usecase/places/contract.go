package places

import (
	"context"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Repository defines the place persistence contract.
type Repository interface {
	Create(ctx context.Context, p *domain.Place) error
	Save(ctx context.Context, p *domain.Place) error
	Get(ctx context.Context, id int64) (*domain.Place, error)
	FindByName(ctx context.Context, name string) (*domain.Place, error)
	ListNames(ctx context.Context) ([]string, error)
}

// Projector refreshes book documents that display a changed place name.
type Projector interface {
	DependentBooks(ctx context.Context, kind domain.Kind, pk string) ([]string, error)
	IndexBooks(ctx context.Context, slugs ...string) error
}
