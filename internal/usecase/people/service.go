// Package people coordinates person mutations with reindexing of the
// books that display their names.
package people

import (
	"context"
	"fmt"
	"strconv"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Service handles person operations.
type Service struct {
	repo      Repository
	projector Projector
}

// New creates a people service.
func New(repo Repository, projector Projector) *Service {
	return &Service{repo: repo, projector: projector}
}

// Get returns a person by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Person, error) {
	return s.repo.Get(ctx, id)
}

// FindByName returns a person by exact authorized name.
func (s *Service) FindByName(ctx context.Context, name string) (*domain.Person, error) {
	return s.repo.FindByName(ctx, name)
}

// Create stores a new person.
func (s *Service) Create(ctx context.Context, p *domain.Person) error {
	return s.repo.Create(ctx, p)
}

// Update saves a person and reprojects every book carrying their name.
func (s *Service) Update(ctx context.Context, p *domain.Person) error {
	if err := s.repo.Save(ctx, p); err != nil {
		return err
	}
	slugs, err := s.projector.DependentBooks(ctx, domain.KindPerson, strconv.FormatInt(p.ID, 10))
	if err != nil {
		return err
	}
	return s.projector.IndexBooks(ctx, slugs...)
}

// Delete removes a person. Dependent books are resolved before the
// record disappears, then reprojected without the deleted name.
func (s *Service) Delete(ctx context.Context, id int64) error {
	slugs, err := s.projector.DependentBooks(ctx, domain.KindPerson, strconv.FormatInt(id, 10))
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.projector.IndexBooks(ctx, slugs...)
}

// ListNames returns every authorized name for autocomplete.
func (s *Service) ListNames(ctx context.Context) ([]string, error) {
	return s.repo.ListNames(ctx)
}

// AddResidence places a person at a place for a date range. The person
// must exist; the place id is taken on trust from the caller.
func (s *Service) AddResidence(ctx context.Context, res *domain.Residence) error {
	if res.PlaceID <= 0 {
		return fmt.Errorf("%w: residence requires a place", domain.ErrInvalidInput)
	}
	if _, err := s.repo.Get(ctx, res.PersonID); err != nil {
		return err
	}
	return s.repo.AddResidence(ctx, res)
}

// AddRelationship records a typed directed connection between two
// existing people.
func (s *Service) AddRelationship(ctx context.Context, rel *domain.Relationship) error {
	if rel.FromPersonID == rel.ToPersonID {
		return fmt.Errorf("%w: relationship requires two distinct people", domain.ErrInvalidInput)
	}
	if _, err := s.repo.Get(ctx, rel.FromPersonID); err != nil {
		return err
	}
	if _, err := s.repo.Get(ctx, rel.ToPersonID); err != nil {
		return err
	}
	return s.repo.AddRelationship(ctx, rel)
}
