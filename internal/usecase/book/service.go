// Package book coordinates book reads and writes with index projection.
package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Service handles book operations.
type Service struct {
	repo      Repository
	people    PersonReader
	places    PlaceReader
	editions  EditionReader
	projector Projector
}

// New creates a book service.
func New(
	repo Repository, people PersonReader, places PlaceReader,
	editions EditionReader, projector Projector,
) *Service {
	return &Service{
		repo:      repo,
		people:    people,
		places:    places,
		editions:  editions,
		projector: projector,
	}
}

// CreditRef is a resolved creator credit.
type CreditRef struct {
	PersonID int64  `json:"person_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Detail is a book with its relations resolved for display.
type Detail struct {
	Book       *domain.Book        `json:"book"`
	Credits    []CreditRef         `json:"credits"`
	Publisher  string              `json:"publisher,omitempty"`
	PubPlace   string              `json:"pub_place,omitempty"`
	Subjects   []string            `json:"subjects"`
	Languages  []string            `json:"languages"`
	Catalogues []*domain.Catalogue `json:"catalogues"`
}

// PageInfo is one digitized page of a book.
type PageInfo struct {
	URI       string `json:"uri"`
	Label     string `json:"label"`
	Order     int    `json:"order"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Get assembles a book detail view.
func (s *Service) Get(ctx context.Context, slug string) (*Detail, error) {
	b, err := s.repo.Get(ctx, slug)
	if err != nil {
		return nil, err
	}

	d := &Detail{Book: b, Subjects: []string{}, Languages: []string{}}

	creators, err := s.repo.Creators(ctx, slug)
	if err != nil {
		return nil, err
	}
	for _, c := range creators {
		p, err := s.people.Get(ctx, c.PersonID)
		if err != nil {
			continue
		}
		d.Credits = append(d.Credits, CreditRef{
			PersonID: p.ID,
			Name:     p.AuthorizedName,
			Role:     c.CreatorType,
		})
	}

	if b.PublisherID != 0 {
		if pub, err := s.repo.GetPublisher(ctx, b.PublisherID); err == nil {
			d.Publisher = pub.Name
		}
	}
	if b.PubPlaceID != 0 {
		if pl, err := s.places.Get(ctx, b.PubPlaceID); err == nil {
			d.PubPlace = pl.Name
		}
	}

	subjects, err := s.repo.Subjects(ctx, slug)
	if err != nil {
		return nil, err
	}
	for _, sub := range subjects {
		d.Subjects = append(d.Subjects, sub.Name)
	}

	languages, err := s.repo.Languages(ctx, slug)
	if err != nil {
		return nil, err
	}
	for _, l := range languages {
		d.Languages = append(d.Languages, l.Name)
	}

	d.Catalogues, err = s.repo.Catalogues(ctx, slug)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Pages returns the digitized pages of a book in reading order.
const pageThumbnailWidth = 300

func (s *Service) Pages(ctx context.Context, slug string) ([]PageInfo, error) {
	b, err := s.repo.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if b.DigitalEditionURI == "" {
		return []PageInfo{}, nil
	}
	ed, err := s.editions.FindEditionByURI(ctx, b.DigitalEditionURI)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []PageInfo{}, nil
		}
		return nil, err
	}
	canvases, err := s.editions.Canvases(ctx, ed.ShortID)
	if err != nil {
		return nil, err
	}
	pages := make([]PageInfo, 0, len(canvases))
	for _, c := range canvases {
		pages = append(pages, PageInfo{
			URI:       c.URI,
			Label:     c.Label,
			Order:     c.Order,
			Thumbnail: c.Thumbnail(pageThumbnailWidth),
		})
	}
	return pages, nil
}

// Create stores a new book. The slug derives from the first author,
// short title, and year, and never changes afterwards.
func (s *Service) Create(ctx context.Context, b *domain.Book, firstAuthor string) error {
	if b.Slug == "" {
		b.Slug = domain.DeriveSlug(firstAuthor, b.ShortTitle, b.PubYear)
	}
	exists, err := s.repo.Exists(ctx, b.Slug)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("book %s: %w", b.Slug, domain.ErrAlreadyExists)
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return err
	}
	return s.projector.IndexBooks(ctx, b.Slug)
}

// Update overwrites a book's fields. The slug is immutable.
func (s *Service) Update(ctx context.Context, b *domain.Book) error {
	exists, err := s.repo.Exists(ctx, b.Slug)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("book %s: %w", b.Slug, domain.ErrNotFound)
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return err
	}
	return s.projector.IndexBooks(ctx, b.Slug)
}

// Delete removes a book and its search document.
func (s *Service) Delete(ctx context.Context, slug string) error {
	if err := s.repo.Delete(ctx, slug); err != nil {
		return err
	}
	return s.projector.RemoveBook(ctx, slug)
}

// AddCreator credits a person on a book and reprojects it.
func (s *Service) AddCreator(ctx context.Context, c *domain.Creator) error {
	if err := s.repo.AddCreator(ctx, c); err != nil {
		return err
	}
	return s.projector.IndexBooks(ctx, c.BookSlug)
}

// RemoveCreator drops a credit and reprojects the book.
func (s *Service) RemoveCreator(ctx context.Context, c *domain.Creator) error {
	if err := s.repo.RemoveCreator(ctx, c); err != nil {
		return err
	}
	return s.projector.IndexBooks(ctx, c.BookSlug)
}

// AddPersonBook records a non-authorial interaction (ownership,
// annotation, provenance) between an existing person and book, then
// reprojects the book.
func (s *Service) AddPersonBook(ctx context.Context, pb *domain.PersonBook) error {
	if _, err := s.people.Get(ctx, pb.PersonID); err != nil {
		return fmt.Errorf("person %d: %w", pb.PersonID, err)
	}
	ok, err := s.repo.Exists(ctx, pb.BookSlug)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("book %s: %w", pb.BookSlug, domain.ErrNotFound)
	}
	if err := s.repo.AddPersonBook(ctx, pb); err != nil {
		return err
	}
	return s.projector.IndexBooks(ctx, pb.BookSlug)
}

// VocabNames lists the stored names for a vocabulary kind.
func (s *Service) VocabNames(ctx context.Context, kind domain.Kind) ([]string, error) {
	return s.repo.ListNames(ctx, kind)
}
