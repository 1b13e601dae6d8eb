package footnote

import (
	"context"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Repository defines the footnote persistence contract.
type Repository interface {
	GetOrCreateSourceType(ctx context.Context, name string) (*domain.SourceType, bool, error)
	CreateBibliography(ctx context.Context, b *domain.Bibliography) error
	GetBibliography(ctx context.Context, id int64) (*domain.Bibliography, error)
	CreateFootnote(ctx context.Context, f *domain.Footnote) error
	FootnotesFor(ctx context.Context, ref domain.ContentRef) ([]*domain.Footnote, error)
}
