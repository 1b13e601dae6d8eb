// Package place persists geographic places.
package place

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/winthrop-cdh/catalog/internal/db"
	"github.com/winthrop-cdh/catalog/internal/domain"
)

// store is the consumer interface for place persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// Repo implements place persistence over the hash store.
type Repo struct {
	store store
}

// New creates a place repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func placeKey(id int64) string {
	return fmt.Sprintf("%splace:%d", domain.KeyPrefix, id)
}

func nameKey(name string) string {
	return fmt.Sprintf("%sname:place:%s", domain.KeyPrefix, domain.Slugify(name))
}

// Create stores a new place under a fresh sequence id and registers
// the name for exact-name lookup. The id is written back.
func (r *Repo) Create(ctx context.Context, p *domain.Place) error {
	id, err := r.store.IncrBy(ctx, domain.KeyPrefix+"seq:place", 1)
	if err != nil {
		return fmt.Errorf("next place id: %w", err)
	}
	p.ID = id
	if err := r.Save(ctx, p); err != nil {
		return err
	}
	if err := r.store.Set(ctx, nameKey(p.Name), []byte(strconv.FormatInt(id, 10))); err != nil {
		return fmt.Errorf("set place name entry: %w", err)
	}
	return nil
}

// Save overwrites an existing place record.
func (r *Repo) Save(ctx context.Context, p *domain.Place) error {
	if p.ID == 0 {
		return fmt.Errorf("save place: missing id")
	}
	fields := map[string]string{
		"id":           strconv.FormatInt(p.ID, 10),
		"name":         p.Name,
		"geonames_uri": p.GeoNamesURI,
		"latitude":     strconv.FormatFloat(p.Latitude, 'f', -1, 64),
		"longitude":    strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		"notes":        p.Notes,
	}
	if err := r.store.HSet(ctx, placeKey(p.ID), fields); err != nil {
		return fmt.Errorf("hset place %d: %w", p.ID, err)
	}
	return nil
}

// Get returns a place by id.
func (r *Repo) Get(ctx context.Context, id int64) (*domain.Place, error) {
	f, err := r.store.HGetAll(ctx, placeKey(id))
	if err != nil {
		return nil, fmt.Errorf("hgetall place %d: %w", id, err)
	}
	if len(f) == 0 {
		return nil, fmt.Errorf("place %d: %w", id, domain.ErrNotFound)
	}
	return placeFromFields(f), nil
}

// FindByName returns the place registered under the exact name, or
// ErrNotFound.
func (r *Repo) FindByName(ctx context.Context, name string) (*domain.Place, error) {
	raw, err := r.store.Get(ctx, nameKey(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("place %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("lookup place %q: %w", name, err)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt place name entry %q: %w", name, err)
	}
	return r.Get(ctx, id)
}

// ListNames returns every place name, sorted. Backs autocomplete.
func (r *Repo) ListNames(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, domain.KeyPrefix+"place:*")
	if err != nil {
		return nil, fmt.Errorf("scan places: %w", err)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch places: %w", err)
	}
	names := make([]string, 0, len(maps))
	for _, f := range maps {
		if f["name"] != "" {
			names = append(names, f["name"])
		}
	}
	sort.Strings(names)
	return names, nil
}

func placeFromFields(f map[string]string) *domain.Place {
	id, _ := strconv.ParseInt(f["id"], 10, 64)
	lat, _ := strconv.ParseFloat(f["latitude"], 64)
	lon, _ := strconv.ParseFloat(f["longitude"], 64)
	return &domain.Place{
		ID:          id,
		Name:        f["name"],
		GeoNamesURI: f["geonames_uri"],
		Latitude:    lat,
		Longitude:   lon,
		Notes:       f["notes"],
	}
}
