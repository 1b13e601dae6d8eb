// Package edition persists cached IIIF manifests and their canvases.
package edition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/winthrop-cdh/catalog/internal/db"
	"github.com/winthrop-cdh/catalog/internal/domain"
)

// store is the consumer interface for edition persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements digital edition persistence over the hash store.
type Repo struct {
	store store
}

// New creates an edition repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func editionKey(shortID string) string {
	return fmt.Sprintf("%sedition:%s", domain.KeyPrefix, shortID)
}

func canvasKey(editionShortID, canvasShortID string) string {
	return fmt.Sprintf("%scanvas:%s:%s", domain.KeyPrefix, editionShortID, canvasShortID)
}

func manifestURIKey(uri string) string {
	return fmt.Sprintf("%suri:manifest:%s", domain.KeyPrefix, domain.Slugify(uri))
}

func canvasURIKey(uri string) string {
	return fmt.Sprintf("%suri:canvas:%s", domain.KeyPrefix, domain.Slugify(uri))
}

// SaveEdition stores a digital edition and registers its URI.
func (r *Repo) SaveEdition(ctx context.Context, ed *domain.DigitalEdition) error {
	if ed.ShortID == "" {
		return fmt.Errorf("save edition: missing short id")
	}
	meta, err := json.Marshal(ed.Metadata)
	if err != nil {
		return fmt.Errorf("marshal edition metadata: %w", err)
	}
	fields := map[string]string{
		"uri":      ed.URI,
		"short_id": ed.ShortID,
		"label":    ed.Label,
		"metadata": string(meta),
	}
	if err := r.store.HSet(ctx, editionKey(ed.ShortID), fields); err != nil {
		return fmt.Errorf("hset edition %s: %w", ed.ShortID, err)
	}
	if err := r.store.Set(ctx, manifestURIKey(ed.URI), []byte(ed.ShortID)); err != nil {
		return fmt.Errorf("set edition uri entry: %w", err)
	}
	return nil
}

// GetEdition returns an edition by short id.
func (r *Repo) GetEdition(ctx context.Context, shortID string) (*domain.DigitalEdition, error) {
	f, err := r.store.HGetAll(ctx, editionKey(shortID))
	if err != nil {
		return nil, fmt.Errorf("hgetall edition %s: %w", shortID, err)
	}
	if len(f) == 0 {
		return nil, fmt.Errorf("edition %s: %w", shortID, domain.ErrNotFound)
	}
	return editionFromFields(f)
}

// FindEditionByURI resolves an edition from its manifest URI.
func (r *Repo) FindEditionByURI(ctx context.Context, uri string) (*domain.DigitalEdition, error) {
	raw, err := r.store.Get(ctx, manifestURIKey(uri))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("edition %s: %w", uri, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("lookup edition %s: %w", uri, err)
	}
	return r.GetEdition(ctx, string(raw))
}

// SaveCanvas stores one canvas of an edition and registers its URI.
func (r *Repo) SaveCanvas(ctx context.Context, editionShortID string, c *domain.Canvas) error {
	if c.ShortID == "" {
		return fmt.Errorf("save canvas: missing short id")
	}
	fields := map[string]string{
		"uri":          c.URI,
		"short_id":     c.ShortID,
		"label":        c.Label,
		"manifest_uri": c.ManifestURI,
		"order":        strconv.Itoa(c.Order),
		"image_uri":    c.ImageURI,
	}
	if err := r.store.HSet(ctx, canvasKey(editionShortID, c.ShortID), fields); err != nil {
		return fmt.Errorf("hset canvas %s: %w", c.ShortID, err)
	}
	ref := editionShortID + ":" + c.ShortID
	if err := r.store.Set(ctx, canvasURIKey(c.URI), []byte(ref)); err != nil {
		return fmt.Errorf("set canvas uri entry: %w", err)
	}
	return nil
}

// Canvases returns an edition's canvases in page order.
func (r *Repo) Canvases(ctx context.Context, editionShortID string) ([]*domain.Canvas, error) {
	keys, err := r.store.Scan(ctx, fmt.Sprintf("%scanvas:%s:*", domain.KeyPrefix, editionShortID))
	if err != nil {
		return nil, fmt.Errorf("scan canvases: %w", err)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch canvases: %w", err)
	}
	out := make([]*domain.Canvas, 0, len(maps))
	for _, f := range maps {
		if len(f) == 0 {
			continue
		}
		out = append(out, canvasFromFields(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// FindCanvasByURI resolves a canvas from its URI.
func (r *Repo) FindCanvasByURI(ctx context.Context, uri string) (*domain.Canvas, error) {
	raw, err := r.store.Get(ctx, canvasURIKey(uri))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("canvas %s: %w", uri, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("lookup canvas %s: %w", uri, err)
	}
	f, err := r.store.HGetAll(ctx, domain.KeyPrefix+"canvas:"+string(raw))
	if err != nil {
		return nil, fmt.Errorf("hgetall canvas %s: %w", raw, err)
	}
	if len(f) == 0 {
		return nil, fmt.Errorf("canvas %s: %w", uri, domain.ErrNotFound)
	}
	return canvasFromFields(f), nil
}

func editionFromFields(f map[string]string) (*domain.DigitalEdition, error) {
	ed := &domain.DigitalEdition{
		URI:     f["uri"],
		ShortID: f["short_id"],
		Label:   f["label"],
	}
	if raw := f["metadata"]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &ed.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal edition metadata: %w", err)
		}
	}
	return ed, nil
}

func canvasFromFields(f map[string]string) *domain.Canvas {
	order, _ := strconv.Atoi(f["order"])
	return &domain.Canvas{
		URI:         f["uri"],
		ShortID:     f["short_id"],
		Label:       f["label"],
		ManifestURI: f["manifest_uri"],
		Order:       order,
		ImageURI:    f["image_uri"],
	}
}
