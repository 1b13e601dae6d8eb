package index

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// thumbnailWidth constrains projected page thumbnails.
const thumbnailWidth = 300

// projectBook flattens a book and its relations into one indexable
// document.
func (s *Service) projectBook(ctx context.Context, b *domain.Book) (map[string]string, error) {
	doc := map[string]string{
		"kind":        string(domain.KindBook),
		"slug":        b.Slug,
		"title":       b.Title,
		"short_title": b.ShortTitle,
	}
	if b.PubYear > 0 {
		doc["pub_year"] = strconv.Itoa(b.PubYear)
	}

	byRole, authorSort, err := s.creatorNames(ctx, b.Slug)
	if err != nil {
		return nil, err
	}
	doc["author"] = strings.Join(byRole[domain.RoleAuthor], domain.TagSeparator)
	doc["editor"] = strings.Join(byRole[domain.RoleEditor], domain.TagSeparator)
	doc["translator"] = strings.Join(byRole[domain.RoleTranslator], domain.TagSeparator)
	doc["author_sort"] = strings.ToLower(authorSort)

	subjects, err := s.books.Subjects(ctx, b.Slug)
	if err != nil {
		return nil, fmt.Errorf("project subjects %s: %w", b.Slug, err)
	}
	subjectNames := make([]string, 0, len(subjects))
	for _, sub := range subjects {
		subjectNames = append(subjectNames, sub.Name)
	}
	doc["subject"] = strings.Join(subjectNames, domain.TagSeparator)

	languages, err := s.books.Languages(ctx, b.Slug)
	if err != nil {
		return nil, fmt.Errorf("project languages %s: %w", b.Slug, err)
	}
	languageNames := make([]string, 0, len(languages))
	for _, l := range languages {
		languageNames = append(languageNames, l.Name)
	}
	doc["language"] = strings.Join(languageNames, domain.TagSeparator)

	annotators, err := s.annotatorNames(ctx, b)
	if err != nil {
		return nil, err
	}
	doc["annotator"] = strings.Join(annotators, domain.TagSeparator)

	if thumb, err := s.bookThumbnail(ctx, b); err == nil && thumb != "" {
		doc["thumbnail"] = thumb
	}

	doc["text"] = s.bookText(ctx, b, byRole, subjectNames, languageNames, annotators)
	return doc, nil
}

// creatorNames groups creator display names by role and picks the sort
// key: the first author's sort name, by credit order.
func (s *Service) creatorNames(ctx context.Context, slug string) (map[string][]string, string, error) {
	creators, err := s.books.Creators(ctx, slug)
	if err != nil {
		return nil, "", fmt.Errorf("project creators %s: %w", slug, err)
	}

	byRole := make(map[string][]string)
	authorSort := ""
	for _, c := range creators {
		p, err := s.people.Get(ctx, c.PersonID)
		if err != nil {
			continue
		}
		byRole[c.CreatorType] = append(byRole[c.CreatorType], p.AuthorizedName)
		if c.CreatorType == domain.RoleAuthor && authorSort == "" {
			authorSort = p.Sort()
		}
	}
	for role := range byRole {
		sort.Strings(byRole[role])
	}
	return byRole, authorSort, nil
}

// annotatorNames resolves the people whose annotations land on the
// book's digitized pages.
func (s *Service) annotatorNames(ctx context.Context, b *domain.Book) ([]string, error) {
	if b.DigitalEditionURI == "" {
		return nil, nil
	}
	all, err := s.annotations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("project annotators %s: %w", b.Slug, err)
	}

	seen := make(map[int64]bool)
	var names []string
	for _, a := range all {
		if a.AuthorID == 0 || seen[a.AuthorID] {
			continue
		}
		canvas, err := s.editions.FindCanvasByURI(ctx, a.TargetURI())
		if err != nil {
			continue
		}
		if canvas.ManifestURI != b.DigitalEditionURI {
			continue
		}
		p, err := s.people.Get(ctx, a.AuthorID)
		if err != nil {
			continue
		}
		seen[a.AuthorID] = true
		names = append(names, p.AuthorizedName)
	}
	sort.Strings(names)
	return names, nil
}

// bookThumbnail derives a thumbnail URL from the first page of the
// linked digital edition.
func (s *Service) bookThumbnail(ctx context.Context, b *domain.Book) (string, error) {
	if b.DigitalEditionURI == "" {
		return "", nil
	}
	ed, err := s.editions.FindEditionByURI(ctx, b.DigitalEditionURI)
	if err != nil {
		return "", err
	}
	canvases, err := s.editions.Canvases(ctx, ed.ShortID)
	if err != nil || len(canvases) == 0 {
		return "", err
	}
	return canvases[0].Thumbnail(thumbnailWidth), nil
}

// bookText builds the catch-all keyword field.
func (s *Service) bookText(
	ctx context.Context, b *domain.Book,
	byRole map[string][]string, subjects, languages, annotators []string,
) string {
	parts := []string{b.Title, b.ShortTitle, b.OriginalPubInfo, b.Notes}
	parts = append(parts, byRole[domain.RoleAuthor]...)
	parts = append(parts, byRole[domain.RoleEditor]...)
	parts = append(parts, byRole[domain.RoleTranslator]...)
	parts = append(parts, subjects...)
	parts = append(parts, languages...)
	parts = append(parts, annotators...)
	parts = append(parts, b.RedCatalogNumber, b.InkCatalogNumber, b.PencilCatalogNumber)

	if b.PublisherID != 0 {
		if pub, err := s.books.GetPublisher(ctx, b.PublisherID); err == nil {
			parts = append(parts, pub.Name)
		}
	}
	if b.PubPlaceID != 0 {
		if pl, err := s.places.Get(ctx, b.PubPlaceID); err == nil {
			parts = append(parts, pl.Name)
		}
	}
	if cats, err := s.books.Catalogues(ctx, b.Slug); err == nil {
		for _, c := range cats {
			parts = append(parts, c.CallNumber)
		}
	}

	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// projectAnnotation flattens an annotation into one indexable document.
func (s *Service) projectAnnotation(ctx context.Context, a *domain.Annotation) map[string]string {
	doc := map[string]string{
		"kind":   string(domain.KindAnnotation),
		"text":   strings.TrimSpace(a.Text + " " + a.Quote),
		"canvas": a.TargetURI(),
	}
	if a.AuthorID != 0 {
		if p, err := s.people.Get(ctx, a.AuthorID); err == nil {
			doc["author"] = p.AuthorizedName
		}
	}
	return doc
}
