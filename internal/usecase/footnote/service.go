// Package footnote manages bibliographic citations attached to catalog
// entities.
package footnote

import (
	"context"
	"fmt"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Service handles footnote and bibliography operations.
type Service struct {
	repo     Repository
	resolver *domain.ContentResolver
}

// New creates a footnote service.
func New(repo Repository, resolver *domain.ContentResolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// CreateBibliography records a citation source under its source type.
func (s *Service) CreateBibliography(ctx context.Context, note, sourceType string) (*domain.Bibliography, error) {
	if note == "" {
		return nil, fmt.Errorf("bibliographic note: %w", domain.ErrInvalidInput)
	}
	st, _, err := s.repo.GetOrCreateSourceType(ctx, sourceType)
	if err != nil {
		return nil, err
	}
	bib := &domain.Bibliography{BibliographicNote: note, SourceTypeID: st.ID}
	if err := s.repo.CreateBibliography(ctx, bib); err != nil {
		return nil, err
	}
	return bib, nil
}

// Attach creates a footnote citing a bibliography against any catalog
// entity. The reference must resolve to a live entity.
func (s *Service) Attach(ctx context.Context, f *domain.Footnote) error {
	if _, err := s.repo.GetBibliography(ctx, f.BibliographyID); err != nil {
		return fmt.Errorf("bibliography %d: %w", f.BibliographyID, err)
	}
	if _, err := s.resolver.Resolve(ctx, f.ContentRef); err != nil {
		return fmt.Errorf("footnote target %s: %w", f.ContentRef, err)
	}
	return s.repo.CreateFootnote(ctx, f)
}

// Citation is a footnote joined with its bibliography and the display
// string of the entity it annotates.
type Citation struct {
	Footnote     *domain.Footnote     `json:"footnote"`
	Bibliography *domain.Bibliography `json:"bibliography"`
	Target       string               `json:"target"`
}

// For returns the citations attached to an entity, oldest first.
func (s *Service) For(ctx context.Context, ref domain.ContentRef) ([]Citation, error) {
	notes, err := s.repo.FootnotesFor(ctx, ref)
	if err != nil {
		return nil, err
	}
	target, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	out := make([]Citation, 0, len(notes))
	for _, f := range notes {
		bib, err := s.repo.GetBibliography(ctx, f.BibliographyID)
		if err != nil {
			return nil, err
		}
		out = append(out, Citation{Footnote: f, Bibliography: bib, Target: target})
	}
	return out, nil
}
