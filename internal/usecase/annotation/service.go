// Package annotation handles page annotation CRUD for the annotator
// client, keeping canvas links and extra-data vocabularies consistent.
package annotation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Canonical extra-data keys understood on save.
const (
	extraLanguages       = "languages"
	extraAnchorLanguages = "anchor_languages"
	extraTags            = "tags"
	extraSubjects        = "subjects"
	extraImageSelection  = "image_selection"
)

// Service handles annotation operations.
type Service struct {
	repo      Repository
	editions  EditionReader
	people    PersonReader
	vocab     VocabStore
	projector Projector
	now       func() time.Time
}

// New creates an annotation service.
func New(
	repo Repository, editions EditionReader, people PersonReader,
	vocab VocabStore, projector Projector,
) *Service {
	return &Service{
		repo:      repo,
		editions:  editions,
		people:    people,
		vocab:     vocab,
		projector: projector,
		now:       time.Now,
	}
}

// Save creates or updates an annotation. The canvas link is re-derived
// from the target URI on every save, and vocabulary entries named in
// extra data become join records.
func (s *Service) Save(ctx context.Context, a *domain.Annotation) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
		a.Created = s.now()
	}
	if a.Created.IsZero() {
		a.Created = s.now()
	}
	a.Updated = s.now()

	canvas, err := s.editions.FindCanvasByURI(ctx, a.URI)
	switch {
	case err == nil:
		a.CanvasURI = canvas.URI
	case errors.Is(err, domain.ErrNotFound):
		a.CanvasURI = ""
	default:
		return err
	}

	if err := s.applyExtraData(ctx, a); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, a); err != nil {
		return err
	}
	if err := s.projector.IndexAnnotation(ctx, a.ID); err != nil {
		return err
	}
	return s.reindexDependents(ctx, a.ID)
}

// Get returns an annotation by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Annotation, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes an annotation and refreshes the book document whose
// annotator list may have included its author.
func (s *Service) Delete(ctx context.Context, id string) error {
	slugs, err := s.projector.DependentBooks(ctx, domain.KindAnnotation, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.projector.RemoveAnnotation(ctx, id); err != nil {
		return err
	}
	return s.projector.IndexBooks(ctx, slugs...)
}

// Search returns annotations filtered by target canvas and author.
// Zero values leave the dimension unconstrained.
func (s *Service) Search(ctx context.Context, canvasURI string, authorID int64) ([]*domain.Annotation, error) {
	switch {
	case canvasURI != "":
		anns, err := s.repo.ByCanvas(ctx, canvasURI)
		if err != nil {
			return nil, err
		}
		if authorID == 0 {
			return anns, nil
		}
		filtered := make([]*domain.Annotation, 0, len(anns))
		for _, a := range anns {
			if a.AuthorID == authorID {
				filtered = append(filtered, a)
			}
		}
		return filtered, nil
	case authorID != 0:
		return s.repo.ByAuthor(ctx, authorID)
	default:
		return s.repo.List(ctx)
	}
}

// Info is the denormalized annotation payload for the annotator client.
type Info struct {
	ID              string         `json:"id"`
	Text            string         `json:"text"`
	Quote           string         `json:"quote,omitempty"`
	URI             string         `json:"uri"`
	CanvasURI       string         `json:"canvas_uri,omitempty"`
	CanvasLabel     string         `json:"canvas_label,omitempty"`
	Author          string         `json:"author,omitempty"`
	AuthorID        int64          `json:"author_id,omitempty"`
	ExtraData       map[string]any `json:"extra_data,omitempty"`
	RegionThumbnail string         `json:"region_thumbnail,omitempty"`
	Created         time.Time      `json:"created"`
	Updated         time.Time      `json:"updated"`
}

const regionThumbnailWidth = 250

// Info assembles the denormalized payload for one annotation.
func (s *Service) Info(ctx context.Context, id string) (*Info, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	info := &Info{
		ID:        a.ID,
		Text:      a.Text,
		Quote:     a.Quote,
		URI:       a.URI,
		CanvasURI: a.CanvasURI,
		AuthorID:  a.AuthorID,
		ExtraData: a.ExtraData,
		Created:   a.Created,
		Updated:   a.Updated,
	}

	if a.AuthorID != 0 {
		if p, err := s.people.Get(ctx, a.AuthorID); err == nil {
			info.Author = p.AuthorizedName
		}
	}

	canvas, err := s.editions.FindCanvasByURI(ctx, a.TargetURI())
	if err == nil {
		info.CanvasLabel = canvas.Label
		if sel, ok := imageSelection(a.ExtraData); ok {
			info.RegionThumbnail = canvas.RegionThumbnail(sel.X, sel.Y, sel.W, sel.H, regionThumbnailWidth)
		}
	}
	return info, nil
}

// applyExtraData turns vocabulary names in extra data into join
// records. Unknown keys pass through untouched.
func (s *Service) applyExtraData(ctx context.Context, a *domain.Annotation) error {
	for _, name := range stringList(a.ExtraData, extraLanguages) {
		lang, _, err := s.vocab.GetOrCreateLanguage(ctx, name)
		if err != nil {
			return err
		}
		al := &domain.AnnotationLanguage{
			AnnotationID:     a.ID,
			LanguageID:       lang.ID,
			IsAnnotationLang: true,
		}
		if err := s.repo.AddLanguage(ctx, al); err != nil {
			return err
		}
	}
	for _, name := range stringList(a.ExtraData, extraAnchorLanguages) {
		lang, _, err := s.vocab.GetOrCreateLanguage(ctx, name)
		if err != nil {
			return err
		}
		al := &domain.AnnotationLanguage{
			AnnotationID: a.ID,
			LanguageID:   lang.ID,
			IsAnchorLang: true,
		}
		if err := s.repo.AddLanguage(ctx, al); err != nil {
			return err
		}
	}
	for _, name := range stringList(a.ExtraData, extraTags) {
		tag, err := s.repo.GetOrCreateTag(ctx, name)
		if err != nil {
			return err
		}
		if err := s.repo.AddTag(ctx, &domain.AnnotationTag{AnnotationID: a.ID, TagID: tag.ID}); err != nil {
			return err
		}
	}
	for _, name := range stringList(a.ExtraData, extraSubjects) {
		sub, _, err := s.vocab.GetOrCreateSubject(ctx, name)
		if err != nil {
			return err
		}
		as := &domain.AnnotationSubject{AnnotationID: a.ID, SubjectID: sub.ID}
		if err := s.repo.AddSubject(ctx, as); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) reindexDependents(ctx context.Context, id string) error {
	slugs, err := s.projector.DependentBooks(ctx, domain.KindAnnotation, id)
	if err != nil {
		return err
	}
	return s.projector.IndexBooks(ctx, slugs...)
}

// stringList reads a []string-ish extra data value.
func stringList(extra map[string]any, key string) []string {
	if extra == nil {
		return nil
	}
	raw, ok := extra[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// imageSelection reads the percent-based page region from extra data.
func imageSelection(extra map[string]any) (domain.ImageSelection, bool) {
	raw, ok := extra[extraImageSelection]
	if !ok {
		return domain.ImageSelection{}, false
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return domain.ImageSelection{}, false
	}
	sel := domain.ImageSelection{
		X: floatValue(m["x"]),
		Y: floatValue(m["y"]),
		W: floatValue(m["w"]),
		H: floatValue(m["h"]),
	}
	if sel.W == 0 || sel.H == 0 {
		return domain.ImageSelection{}, false
	}
	return sel, true
}

func floatValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
