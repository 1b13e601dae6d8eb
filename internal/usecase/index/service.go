// Package index projects catalog entities into flat search documents
// and keeps them current as related entities change.
package index

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/winthrop-cdh/catalog/internal/domain"
	"github.com/winthrop-cdh/catalog/internal/metrics"
)

// Service is the search index projector. Submissions coalesce in a
// pending set and are flushed within the commit window rather than
// committed synchronously per mutation.
type Service struct {
	books       BookReader
	people      PersonReader
	places      PlaceReader
	annotations AnnotationReader
	editions    EditionReader
	writer      Writer
	log         *zap.Logger

	commitWithin time.Duration
	onFlush      func() // invalidation hook, e.g. the year bounds cache

	mu      sync.Mutex
	pending map[string]map[string]string
	timer   *time.Timer
	closed  bool
}

// New creates the projector. commitWithin bounds how long a queued
// document may wait before it is written.
func New(
	books BookReader, people PersonReader, places PlaceReader,
	annotations AnnotationReader, editions EditionReader,
	writer Writer, commitWithin time.Duration, log *zap.Logger,
) *Service {
	if commitWithin <= 0 {
		commitWithin = 3 * time.Second
	}
	return &Service{
		books:        books,
		people:       people,
		places:       places,
		annotations:  annotations,
		editions:     editions,
		writer:       writer,
		log:          log,
		commitWithin: commitWithin,
		pending:      make(map[string]map[string]string),
	}
}

// SetFlushHook registers a callback invoked after every flush.
func (s *Service) SetFlushHook(fn func()) {
	s.onFlush = fn
}

// EnsureIndex creates the search index if missing.
func (s *Service) EnsureIndex(ctx context.Context) error {
	return s.writer.Ensure(ctx)
}

// IndexBooks projects the given books and queues them for submission.
// Missing books are skipped: a deleted book may still be listed by a
// stale dependency resolution.
func (s *Service) IndexBooks(ctx context.Context, slugs ...string) error {
	for _, slug := range slugs {
		b, err := s.books.Get(ctx, slug)
		if err != nil {
			continue
		}
		doc, err := s.projectBook(ctx, b)
		if err != nil {
			return fmt.Errorf("project book %s: %w", slug, err)
		}
		s.enqueue(b.IndexID(), doc)
		metrics.IndexSubmissionsTotal.WithLabelValues(string(domain.KindBook)).Inc()
	}
	return nil
}

// RemoveBook deletes a book's document immediately.
func (s *Service) RemoveBook(ctx context.Context, slug string) error {
	id := fmt.Sprintf("%s:%s", domain.KindBook, slug)
	s.drop(id)
	if err := s.writer.Remove(ctx, id); err != nil {
		return err
	}
	metrics.IndexRemovalsTotal.WithLabelValues(string(domain.KindBook)).Inc()
	s.notify()
	return nil
}

// IndexAnnotation projects one annotation and queues it.
func (s *Service) IndexAnnotation(ctx context.Context, id string) error {
	a, err := s.annotations.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load annotation %s: %w", id, err)
	}
	s.enqueue(a.IndexID(), s.projectAnnotation(ctx, a))
	metrics.IndexSubmissionsTotal.WithLabelValues(string(domain.KindAnnotation)).Inc()
	return nil
}

// RemoveAnnotation deletes an annotation's document immediately.
func (s *Service) RemoveAnnotation(ctx context.Context, id string) error {
	docID := string(domain.KindAnnotation) + ":" + id
	s.drop(docID)
	if err := s.writer.Remove(ctx, docID); err != nil {
		return err
	}
	metrics.IndexRemovalsTotal.WithLabelValues(string(domain.KindAnnotation)).Inc()
	return nil
}

// DependentBooks resolves which book documents a related entity feeds
// into. Mutation boundaries call this BEFORE changing or deleting the
// entity, then reindex the returned slugs afterwards.
func (s *Service) DependentBooks(ctx context.Context, kind domain.Kind, pk string) ([]string, error) {
	switch kind {
	case domain.KindPerson:
		id, err := strconv.ParseInt(pk, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad person id %q: %w", pk, err)
		}
		slugs, err := s.books.SlugsByPerson(ctx, id)
		if err != nil {
			return nil, err
		}
		annotated, err := s.slugsAnnotatedBy(ctx, id)
		if err != nil {
			return nil, err
		}
		return mergeSlugs(slugs, annotated), nil
	case domain.KindSubject:
		return s.slugsByInt(ctx, pk, s.books.SlugsBySubject)
	case domain.KindLanguage:
		return s.slugsByInt(ctx, pk, s.books.SlugsByLanguage)
	case domain.KindPublisher:
		return s.slugsByInt(ctx, pk, s.books.SlugsByPublisher)
	case domain.KindPlace:
		return s.slugsByInt(ctx, pk, s.books.SlugsByPlace)
	case domain.KindManifest:
		return s.books.SlugsByEdition(ctx, pk)
	case domain.KindAnnotation:
		a, err := s.annotations.Get(ctx, pk)
		if err != nil {
			return nil, nil
		}
		canvas, err := s.editions.FindCanvasByURI(ctx, a.TargetURI())
		if err != nil {
			return nil, nil
		}
		return s.books.SlugsByEdition(ctx, canvas.ManifestURI)
	default:
		return nil, nil
	}
}

// ReindexAll rebuilds the index from scratch: drop, recreate, project
// every book and annotation, flush synchronously.
func (s *Service) ReindexAll(ctx context.Context) (int, error) {
	if err := s.writer.Reset(ctx); err != nil {
		return 0, fmt.Errorf("reset index: %w", err)
	}

	books, err := s.books.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list books: %w", err)
	}
	count := 0
	for _, b := range books {
		doc, err := s.projectBook(ctx, b)
		if err != nil {
			return count, fmt.Errorf("project book %s: %w", b.Slug, err)
		}
		s.enqueue(b.IndexID(), doc)
		count++
	}

	anns, err := s.annotations.List(ctx)
	if err != nil {
		return count, fmt.Errorf("list annotations: %w", err)
	}
	for _, a := range anns {
		s.enqueue(a.IndexID(), s.projectAnnotation(ctx, a))
		count++
	}

	if err := s.Flush(ctx); err != nil {
		return count, err
	}
	return count, nil
}

// Flush writes every pending document now.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	docs := s.pending
	s.pending = make(map[string]map[string]string)
	s.mu.Unlock()

	if len(docs) == 0 {
		return nil
	}
	if err := s.writer.Submit(ctx, docs); err != nil {
		return fmt.Errorf("flush %d documents: %w", len(docs), err)
	}
	s.log.Debug("index flush", zap.Int("documents", len(docs)))
	s.notify()
	return nil
}

// Close flushes outstanding work before shutdown.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}

func (s *Service) enqueue(id string, doc map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = doc
	if s.timer == nil && !s.closed {
		s.timer = time.AfterFunc(s.commitWithin, func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.commitWithin)
			defer cancel()
			if err := s.Flush(ctx); err != nil {
				s.log.Error("deferred index flush failed", zap.Error(err))
			}
		})
	}
}

func (s *Service) drop(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *Service) notify() {
	if s.onFlush != nil {
		s.onFlush()
	}
}

// slugsAnnotatedBy finds books whose digitized pages carry annotations
// by the person.
func (s *Service) slugsAnnotatedBy(ctx context.Context, personID int64) ([]string, error) {
	all, err := s.annotations.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var slugs []string
	for _, a := range all {
		if a.AuthorID != personID {
			continue
		}
		canvas, err := s.editions.FindCanvasByURI(ctx, a.TargetURI())
		if err != nil {
			continue
		}
		booked, err := s.books.SlugsByEdition(ctx, canvas.ManifestURI)
		if err != nil {
			return nil, err
		}
		for _, slug := range booked {
			if !seen[slug] {
				seen[slug] = true
				slugs = append(slugs, slug)
			}
		}
	}
	return slugs, nil
}

func (s *Service) slugsByInt(
	ctx context.Context, pk string,
	lookup func(context.Context, int64) ([]string, error),
) ([]string, error) {
	id, err := strconv.ParseInt(pk, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad entity id %q: %w", pk, err)
	}
	return lookup(ctx, id)
}

func mergeSlugs(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
