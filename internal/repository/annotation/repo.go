// Package annotation persists page annotations as JSON documents plus
// their tag, language, and subject joins.
package annotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/winthrop-cdh/catalog/internal/db"
	"github.com/winthrop-cdh/catalog/internal/domain"
)

// store is the consumer interface for annotation persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// Repo implements annotation persistence over the JSON store.
type Repo struct {
	store store
}

// New creates an annotation repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func annKey(id string) string {
	return fmt.Sprintf("%sannotation:%s", domain.KeyPrefix, id)
}

// Save writes an annotation document, creating or overwriting.
func (r *Repo) Save(ctx context.Context, a *domain.Annotation) error {
	if a.ID == "" {
		return fmt.Errorf("save annotation: missing id")
	}
	data, err := json.Marshal(docFromAnnotation(a))
	if err != nil {
		return fmt.Errorf("marshal annotation: %w", err)
	}
	if err := r.store.JSONSet(ctx, annKey(a.ID), "$", data); err != nil {
		return fmt.Errorf("json.set annotation %s: %w", a.ID, err)
	}
	return nil
}

// Get returns an annotation by id.
func (r *Repo) Get(ctx context.Context, id string) (*domain.Annotation, error) {
	raw, err := r.store.JSONGet(ctx, annKey(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("annotation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("json.get annotation %s: %w", id, err)
	}
	return parseDoc(id, raw)
}

// Delete removes an annotation document and its join records.
func (r *Repo) Delete(ctx context.Context, id string) error {
	ok, err := r.store.Exists(ctx, annKey(id))
	if err != nil {
		return fmt.Errorf("exists annotation %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("annotation %s: %w", id, domain.ErrNotFound)
	}
	for _, join := range []string{"anntag", "annlang", "annsubject"} {
		keys, err := r.store.Scan(ctx, fmt.Sprintf("%s%s:%s:*", domain.KeyPrefix, join, id))
		if err != nil {
			return fmt.Errorf("scan %s: %w", join, err)
		}
		for _, k := range keys {
			if err := r.store.Del(ctx, k); err != nil {
				return fmt.Errorf("del %s: %w", k, err)
			}
		}
	}
	if err := r.store.Del(ctx, annKey(id)); err != nil {
		return fmt.Errorf("del annotation %s: %w", id, err)
	}
	return nil
}

// List returns every annotation, newest first.
func (r *Repo) List(ctx context.Context) ([]*domain.Annotation, error) {
	keys, err := r.store.Scan(ctx, domain.KeyPrefix+"annotation:*")
	if err != nil {
		return nil, fmt.Errorf("scan annotations: %w", err)
	}
	out := make([]*domain.Annotation, 0, len(keys))
	for _, k := range keys {
		raw, err := r.store.JSONGet(ctx, k, "$")
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("json.get %s: %w", k, err)
		}
		a, err := parseDoc(strings.TrimPrefix(k, domain.KeyPrefix+"annotation:"), raw)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out, nil
}

// ByCanvas returns annotations anchored to a canvas URI, newest first.
func (r *Repo) ByCanvas(ctx context.Context, canvasURI string) ([]*domain.Annotation, error) {
	return r.filtered(ctx, func(a *domain.Annotation) bool {
		return a.CanvasURI == canvasURI || a.URI == canvasURI
	})
}

// ByAuthor returns annotations attributed to a person, newest first.
func (r *Repo) ByAuthor(ctx context.Context, personID int64) ([]*domain.Annotation, error) {
	return r.filtered(ctx, func(a *domain.Annotation) bool { return a.AuthorID == personID })
}

func (r *Repo) filtered(ctx context.Context, match func(*domain.Annotation) bool) ([]*domain.Annotation, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Annotation, 0, len(all))
	for _, a := range all {
		if match(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func parseDoc(id string, raw []byte) (*domain.Annotation, error) {
	// JSON.GET with a "$" path wraps the document in an array.
	var docs []annotationDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		var single annotationDoc
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("unmarshal annotation %s: %w", id, err)
		}
		return single.toAnnotation(), nil
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("annotation %s: %w", id, domain.ErrNotFound)
	}
	return docs[0].toAnnotation(), nil
}

// GetOrCreateTag resolves a vocabulary tag by exact name.
func (r *Repo) GetOrCreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	nameK := fmt.Sprintf("%sname:tag:%s", domain.KeyPrefix, domain.Slugify(name))
	raw, err := r.store.Get(ctx, nameK)
	if err == nil {
		id, perr := strconv.ParseInt(string(raw), 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("corrupt tag name entry %q: %w", name, perr)
		}
		return &domain.Tag{ID: id, Name: name}, nil
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		return nil, fmt.Errorf("lookup tag %q: %w", name, err)
	}
	id, err := r.store.IncrBy(ctx, domain.KeyPrefix+"seq:tag", 1)
	if err != nil {
		return nil, fmt.Errorf("next tag id: %w", err)
	}
	fields := map[string]string{"id": strconv.FormatInt(id, 10), "name": name}
	if err := r.store.HSet(ctx, fmt.Sprintf("%stag:%d", domain.KeyPrefix, id), fields); err != nil {
		return nil, fmt.Errorf("hset tag %d: %w", id, err)
	}
	if err := r.store.Set(ctx, nameK, []byte(strconv.FormatInt(id, 10))); err != nil {
		return nil, fmt.Errorf("set tag name entry: %w", err)
	}
	return &domain.Tag{ID: id, Name: name}, nil
}

// AddTag links an annotation to a vocabulary tag.
func (r *Repo) AddTag(ctx context.Context, at *domain.AnnotationTag) error {
	key := fmt.Sprintf("%sanntag:%s:%d", domain.KeyPrefix, at.AnnotationID, at.TagID)
	fields := map[string]string{
		"annotation_id": at.AnnotationID,
		"tag_id":        strconv.FormatInt(at.TagID, 10),
		"notes":         at.Notes,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset annotation tag: %w", err)
	}
	return nil
}

// AddLanguage links an annotation to a language with anchor flags.
func (r *Repo) AddLanguage(ctx context.Context, al *domain.AnnotationLanguage) error {
	key := fmt.Sprintf("%sannlang:%s:%d:%s%s", domain.KeyPrefix,
		al.AnnotationID, al.LanguageID, flag(al.IsAnnotationLang), flag(al.IsAnchorLang))
	fields := map[string]string{
		"annotation_id":      al.AnnotationID,
		"language_id":        strconv.FormatInt(al.LanguageID, 10),
		"is_annotation_lang": flag(al.IsAnnotationLang),
		"is_anchor_lang":     flag(al.IsAnchorLang),
		"notes":              al.Notes,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset annotation language: %w", err)
	}
	return nil
}

// AddSubject links an annotation to a subject.
func (r *Repo) AddSubject(ctx context.Context, as *domain.AnnotationSubject) error {
	key := fmt.Sprintf("%sannsubject:%s:%d", domain.KeyPrefix, as.AnnotationID, as.SubjectID)
	fields := map[string]string{
		"annotation_id": as.AnnotationID,
		"subject_id":    strconv.FormatInt(as.SubjectID, 10),
		"is_primary":    flag(as.IsPrimary),
		"notes":         as.Notes,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset annotation subject: %w", err)
	}
	return nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
