// Package places handles place records and keeps books that display a
// place name current in the search index.
package places

import (
	"context"
	"strconv"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Service handles place operations.
type Service struct {
	repo      Repository
	projector Projector
}

// New creates a places service.
func New(repo Repository, projector Projector) *Service {
	return &Service{repo: repo, projector: projector}
}

// Get returns a place by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Place, error) {
	return s.repo.Get(ctx, id)
}

// FindByName returns a place by exact name.
func (s *Service) FindByName(ctx context.Context, name string) (*domain.Place, error) {
	return s.repo.FindByName(ctx, name)
}

// Create stores a new place and assigns its id.
func (s *Service) Create(ctx context.Context, p *domain.Place) error {
	return s.repo.Create(ctx, p)
}

// Update overwrites a place and reprojects the books published there.
func (s *Service) Update(ctx context.Context, p *domain.Place) error {
	if err := s.repo.Save(ctx, p); err != nil {
		return err
	}
	slugs, err := s.projector.DependentBooks(ctx, domain.KindPlace, strconv.FormatInt(p.ID, 10))
	if err != nil {
		return err
	}
	return s.projector.IndexBooks(ctx, slugs...)
}

// ListNames lists all place names for autocomplete.
func (s *Service) ListNames(ctx context.Context) ([]string, error) {
	return s.repo.ListNames(ctx)
}
