package domain

import (
	"context"
	"fmt"
)

// SourceType categorizes bibliographies (monograph, letter, inventory).
type SourceType struct {
	ID    int64
	Name  string
	Notes string
}

// Bibliography is a full citation that footnotes draw on.
type Bibliography struct {
	ID                int64
	BibliographicNote string
	SourceTypeID      int64
	Notes             string
}

// ContentRef is a tagged reference to any citable catalog entity,
// resolved through the ContentResolver registry rather than reflection.
type ContentRef struct {
	Kind Kind
	ID   string
}

func (r ContentRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// Footnote is an evidentiary citation attachable to any entity.
type Footnote struct {
	ID             int64
	BibliographyID int64
	Location       string
	SnippetText    string
	ContentRef     ContentRef
	IsAgree        bool
	Notes          string
}

// ContentResolveFunc resolves a referenced entity to a display string.
type ContentResolveFunc func(ctx context.Context, id string) (string, error)

// ContentResolver maps entity kinds to resolvers for footnote references.
type ContentResolver struct {
	resolvers map[Kind]ContentResolveFunc
}

// NewContentResolver creates an empty resolver registry.
func NewContentResolver() *ContentResolver {
	return &ContentResolver{resolvers: make(map[Kind]ContentResolveFunc)}
}

// Register binds a resolver for a kind. Later registrations win.
func (c *ContentResolver) Register(kind Kind, fn ContentResolveFunc) {
	c.resolvers[kind] = fn
}

// Resolve looks up the referenced entity's display string.
func (c *ContentResolver) Resolve(ctx context.Context, ref ContentRef) (string, error) {
	fn, ok := c.resolvers[ref.Kind]
	if !ok {
		return "", fmt.Errorf("no resolver registered for kind %q", ref.Kind)
	}
	return fn(ctx, ref.ID)
}
