// Package index manages the search index lifecycle and projected
// document writes.
package index

import (
	"context"
	"fmt"

	"github.com/winthrop-cdh/catalog/internal/db"
	"github.com/winthrop-cdh/catalog/internal/domain"
)

// store is the consumer interface for index maintenance (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements index maintenance for projected documents.
type Repo struct {
	store store
}

// New creates an index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Definition is the search schema for projected documents.
func Definition() *db.IndexDefinition {
	return db.NewIndex(domain.DocIndexName).
		Prefix(domain.DocKeyPrefix).
		Tag("kind").
		Text("text").
		TagWithOpts("author", domain.TagSeparator, false).
		TagWithOpts("editor", domain.TagSeparator, false).
		TagWithOpts("translator", domain.TagSeparator, false).
		TagWithOpts("language", domain.TagSeparator, false).
		TagWithOpts("subject", domain.TagSeparator, false).
		TagWithOpts("annotator", domain.TagSeparator, false).
		TagSortable("author_sort", domain.TagSeparator).
		NumericSortable("pub_year").
		TagWithOpts("canvas", domain.TagSeparator, true).
		MustBuild()
}

// Ensure creates the document index if it does not exist yet.
func (r *Repo) Ensure(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, domain.DocIndexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}
	if err := r.store.CreateIndex(ctx, Definition()); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Reset drops the index and every projected document, then recreates
// the index empty. Used by full reindex runs.
func (r *Repo) Reset(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, domain.DocIndexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		if err := r.store.DropIndex(ctx, domain.DocIndexName); err != nil {
			return fmt.Errorf("drop index: %w", err)
		}
	}
	keys, err := r.store.Scan(ctx, domain.DocKeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan documents: %w", err)
	}
	for _, k := range keys {
		if err := r.store.Del(ctx, k); err != nil {
			return fmt.Errorf("del %s: %w", k, err)
		}
	}
	if err := r.store.CreateIndex(ctx, Definition()); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Submit writes projected documents keyed by stable document id
// (<kind>:<pk>) in a single pipelined round-trip.
func (r *Repo) Submit(ctx context.Context, docs map[string]map[string]string) error {
	if len(docs) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, 0, len(docs))
	for id, fields := range docs {
		items = append(items, db.HashSetItem{Key: domain.DocKeyPrefix + id, Fields: fields})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("submit documents: %w", err)
	}
	return nil
}

// Remove deletes a projected document by its stable id.
func (r *Repo) Remove(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, domain.DocKeyPrefix+id); err != nil {
		return fmt.Errorf("remove document %s: %w", id, err)
	}
	return nil
}
