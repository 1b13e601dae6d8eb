package annotation

import (
	"context"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Repository defines the annotation persistence contract.
type Repository interface {
	Save(ctx context.Context, a *domain.Annotation) error
	Get(ctx context.Context, id string) (*domain.Annotation, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.Annotation, error)
	ByCanvas(ctx context.Context, canvasURI string) ([]*domain.Annotation, error)
	ByAuthor(ctx context.Context, personID int64) ([]*domain.Annotation, error)
	GetOrCreateTag(ctx context.Context, name string) (*domain.Tag, error)
	AddTag(ctx context.Context, at *domain.AnnotationTag) error
	AddLanguage(ctx context.Context, al *domain.AnnotationLanguage) error
	AddSubject(ctx context.Context, as *domain.AnnotationSubject) error
}

// EditionReader resolves annotation targets to canvases.
type EditionReader interface {
	FindCanvasByURI(ctx context.Context, uri string) (*domain.Canvas, error)
}

// PersonReader resolves annotation authors.
type PersonReader interface {
	Get(ctx context.Context, id int64) (*domain.Person, error)
}

// VocabStore resolves language and subject names from extra data.
type VocabStore interface {
	GetOrCreateLanguage(ctx context.Context, name string) (*domain.Language, bool, error)
	GetOrCreateSubject(ctx context.Context, name string) (*domain.Subject, bool, error)
}

// Projector keeps annotation documents and dependent book documents
// current.
type Projector interface {
	IndexAnnotation(ctx context.Context, id string) error
	RemoveAnnotation(ctx context.Context, id string) error
	DependentBooks(ctx context.Context, kind domain.Kind, pk string) ([]string, error)
	IndexBooks(ctx context.Context, slugs ...string) error
}
