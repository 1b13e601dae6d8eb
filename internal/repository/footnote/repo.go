// Package footnote persists bibliographies, source types, and the
// footnotes citing them.
package footnote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/winthrop-cdh/catalog/internal/db"
	"github.com/winthrop-cdh/catalog/internal/domain"
)

// store is the consumer interface for footnote persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// Repo implements footnote persistence over the hash store.
type Repo struct {
	store store
}

// New creates a footnote repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// GetOrCreateSourceType resolves a source type by exact name.
func (r *Repo) GetOrCreateSourceType(ctx context.Context, name string) (*domain.SourceType, bool, error) {
	nameK := fmt.Sprintf("%sname:sourcetype:%s", domain.KeyPrefix, domain.Slugify(name))
	raw, err := r.store.Get(ctx, nameK)
	if err == nil {
		id, perr := strconv.ParseInt(string(raw), 10, 64)
		if perr != nil {
			return nil, false, fmt.Errorf("corrupt source type entry %q: %w", name, perr)
		}
		return &domain.SourceType{ID: id, Name: name}, false, nil
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		return nil, false, fmt.Errorf("lookup source type %q: %w", name, err)
	}
	id, err := r.store.IncrBy(ctx, domain.KeyPrefix+"seq:sourcetype", 1)
	if err != nil {
		return nil, false, fmt.Errorf("next source type id: %w", err)
	}
	fields := map[string]string{"id": strconv.FormatInt(id, 10), "name": name}
	if err := r.store.HSet(ctx, fmt.Sprintf("%ssourcetype:%d", domain.KeyPrefix, id), fields); err != nil {
		return nil, false, fmt.Errorf("hset source type %d: %w", id, err)
	}
	if err := r.store.Set(ctx, nameK, []byte(strconv.FormatInt(id, 10))); err != nil {
		return nil, false, fmt.Errorf("set source type entry: %w", err)
	}
	return &domain.SourceType{ID: id, Name: name}, true, nil
}

// CreateBibliography stores a new bibliography under a fresh id.
func (r *Repo) CreateBibliography(ctx context.Context, b *domain.Bibliography) error {
	id, err := r.store.IncrBy(ctx, domain.KeyPrefix+"seq:bibliography", 1)
	if err != nil {
		return fmt.Errorf("next bibliography id: %w", err)
	}
	b.ID = id
	fields := map[string]string{
		"id":                 strconv.FormatInt(id, 10),
		"bibliographic_note": b.BibliographicNote,
		"source_type_id":     strconv.FormatInt(b.SourceTypeID, 10),
		"notes":              b.Notes,
	}
	if err := r.store.HSet(ctx, fmt.Sprintf("%sbibliography:%d", domain.KeyPrefix, id), fields); err != nil {
		return fmt.Errorf("hset bibliography %d: %w", id, err)
	}
	return nil
}

// GetBibliography returns a bibliography by id.
func (r *Repo) GetBibliography(ctx context.Context, id int64) (*domain.Bibliography, error) {
	f, err := r.store.HGetAll(ctx, fmt.Sprintf("%sbibliography:%d", domain.KeyPrefix, id))
	if err != nil {
		return nil, fmt.Errorf("hgetall bibliography %d: %w", id, err)
	}
	if len(f) == 0 {
		return nil, fmt.Errorf("bibliography %d: %w", id, domain.ErrNotFound)
	}
	stID, _ := strconv.ParseInt(f["source_type_id"], 10, 64)
	return &domain.Bibliography{
		ID:                id,
		BibliographicNote: f["bibliographic_note"],
		SourceTypeID:      stID,
		Notes:             f["notes"],
	}, nil
}

// CreateFootnote stores a new footnote under a fresh id.
func (r *Repo) CreateFootnote(ctx context.Context, fn *domain.Footnote) error {
	id, err := r.store.IncrBy(ctx, domain.KeyPrefix+"seq:footnote", 1)
	if err != nil {
		return fmt.Errorf("next footnote id: %w", err)
	}
	fn.ID = id
	fields := map[string]string{
		"id":              strconv.FormatInt(id, 10),
		"bibliography_id": strconv.FormatInt(fn.BibliographyID, 10),
		"location":        fn.Location,
		"snippet_text":    fn.SnippetText,
		"ref_kind":        string(fn.ContentRef.Kind),
		"ref_id":          fn.ContentRef.ID,
		"is_agree":        flag(fn.IsAgree),
		"notes":           fn.Notes,
	}
	if err := r.store.HSet(ctx, fmt.Sprintf("%sfootnote:%d", domain.KeyPrefix, id), fields); err != nil {
		return fmt.Errorf("hset footnote %d: %w", id, err)
	}
	return nil
}

// FootnotesFor returns footnotes citing the referenced entity, by id.
func (r *Repo) FootnotesFor(ctx context.Context, ref domain.ContentRef) ([]*domain.Footnote, error) {
	keys, err := r.store.Scan(ctx, domain.KeyPrefix+"footnote:*")
	if err != nil {
		return nil, fmt.Errorf("scan footnotes: %w", err)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch footnotes: %w", err)
	}
	var out []*domain.Footnote
	for _, f := range maps {
		if f["ref_kind"] != string(ref.Kind) || f["ref_id"] != ref.ID {
			continue
		}
		id, _ := strconv.ParseInt(f["id"], 10, 64)
		bibID, _ := strconv.ParseInt(f["bibliography_id"], 10, 64)
		out = append(out, &domain.Footnote{
			ID:             id,
			BibliographyID: bibID,
			Location:       f["location"],
			SnippetText:    f["snippet_text"],
			ContentRef:     domain.ContentRef{Kind: domain.Kind(f["ref_kind"]), ID: f["ref_id"]},
			IsAgree:        f["is_agree"] == "1",
			Notes:          f["notes"],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
