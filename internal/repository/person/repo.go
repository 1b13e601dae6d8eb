// Package person persists people and their relationship and residence
// records.
package person

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/winthrop-cdh/catalog/internal/db"
	"github.com/winthrop-cdh/catalog/internal/domain"
)

// store is the consumer interface for person persistence (ISP).
type store interface {
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

// Repo implements person persistence over the hash store.
type Repo struct {
	store store
}

// New creates a person repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func personKey(id int64) string {
	return fmt.Sprintf("%sperson:%d", domain.KeyPrefix, id)
}

func nameKey(name string) string {
	return fmt.Sprintf("%sname:person:%s", domain.KeyPrefix, domain.Slugify(name))
}

func fieldsFromPerson(p *domain.Person) map[string]string {
	return map[string]string{
		"id":              strconv.FormatInt(p.ID, 10),
		"authorized_name": p.AuthorizedName,
		"sort_name":       p.SortName,
		"viaf_uri":        p.ViafURI,
		"birth_year":      yearField(p.BirthYear),
		"death_year":      yearField(p.DeathYear),
		"family_group":    p.FamilyGroup,
		"notes":           p.Notes,
	}
}

func personFromFields(f map[string]string) *domain.Person {
	id, _ := strconv.ParseInt(f["id"], 10, 64)
	birth, _ := strconv.Atoi(f["birth_year"])
	death, _ := strconv.Atoi(f["death_year"])
	return &domain.Person{
		ID:             id,
		AuthorizedName: f["authorized_name"],
		SortName:       f["sort_name"],
		ViafURI:        f["viaf_uri"],
		BirthYear:      birth,
		DeathYear:      death,
		FamilyGroup:    f["family_group"],
		Notes:          f["notes"],
	}
}

func yearField(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

// Create stores a new person under a fresh sequence id and registers
// the authorized name for exact-name lookup. The id is written back.
func (r *Repo) Create(ctx context.Context, p *domain.Person) error {
	id, err := r.store.IncrBy(ctx, domain.KeyPrefix+"seq:person", 1)
	if err != nil {
		return fmt.Errorf("next person id: %w", err)
	}
	p.ID = id
	if err := r.Save(ctx, p); err != nil {
		return err
	}
	if err := r.store.Set(ctx, nameKey(p.AuthorizedName), []byte(strconv.FormatInt(id, 10))); err != nil {
		return fmt.Errorf("set person name entry: %w", err)
	}
	return nil
}

// Save overwrites an existing person record.
func (r *Repo) Save(ctx context.Context, p *domain.Person) error {
	if p.ID == 0 {
		return fmt.Errorf("save person: missing id")
	}
	if err := r.store.HSet(ctx, personKey(p.ID), fieldsFromPerson(p)); err != nil {
		return fmt.Errorf("hset person %d: %w", p.ID, err)
	}
	return nil
}

// Get returns a person by id.
func (r *Repo) Get(ctx context.Context, id int64) (*domain.Person, error) {
	f, err := r.store.HGetAll(ctx, personKey(id))
	if err != nil {
		return nil, fmt.Errorf("hgetall person %d: %w", id, err)
	}
	if len(f) == 0 {
		return nil, fmt.Errorf("person %d: %w", id, domain.ErrNotFound)
	}
	return personFromFields(f), nil
}

// GetMulti returns people by id, skipping missing records.
func (r *Repo) GetMulti(ctx context.Context, ids []int64) ([]*domain.Person, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = personKey(id)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch people: %w", err)
	}
	out := make([]*domain.Person, 0, len(maps))
	for _, f := range maps {
		if len(f) == 0 {
			continue
		}
		out = append(out, personFromFields(f))
	}
	return out, nil
}

// FindByName returns the person registered under the exact authorized
// name, or ErrNotFound.
func (r *Repo) FindByName(ctx context.Context, name string) (*domain.Person, error) {
	raw, err := r.store.Get(ctx, nameKey(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("person %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("lookup person %q: %w", name, err)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt person name entry %q: %w", name, err)
	}
	return r.Get(ctx, id)
}

// Delete removes a person and the name lookup entry. Credits on books
// are resolved by the caller before deletion so dependent documents can
// be reindexed.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, nameKey(p.AuthorizedName)); err != nil {
		return fmt.Errorf("del person name entry: %w", err)
	}
	if err := r.store.Del(ctx, personKey(id)); err != nil {
		return fmt.Errorf("del person %d: %w", id, err)
	}
	return nil
}

// ListNames returns every authorized name, sorted. Backs autocomplete.
func (r *Repo) ListNames(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, domain.KeyPrefix+"person:*")
	if err != nil {
		return nil, fmt.Errorf("scan people: %w", err)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch people: %w", err)
	}
	names := make([]string, 0, len(maps))
	for _, f := range maps {
		if f["authorized_name"] != "" {
			names = append(names, f["authorized_name"])
		}
	}
	sort.Strings(names)
	return names, nil
}

// AddResidence places a person at a place for a date range.
func (r *Repo) AddResidence(ctx context.Context, res *domain.Residence) error {
	key := fmt.Sprintf("%sresidence:%d:%d", domain.KeyPrefix, res.PersonID, res.PlaceID)
	fields := map[string]string{
		"person_id":  strconv.FormatInt(res.PersonID, 10),
		"place_id":   strconv.FormatInt(res.PlaceID, 10),
		"start_year": yearField(res.StartYear),
		"end_year":   yearField(res.EndYear),
		"notes":      res.Notes,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset residence: %w", err)
	}
	return nil
}

// AddRelationship records a typed directed connection between people.
func (r *Repo) AddRelationship(ctx context.Context, rel *domain.Relationship) error {
	key := fmt.Sprintf("%srelationship:%d:%d:%d", domain.KeyPrefix, rel.FromPersonID, rel.ToPersonID, rel.TypeID)
	fields := map[string]string{
		"from_person_id": strconv.FormatInt(rel.FromPersonID, 10),
		"to_person_id":   strconv.FormatInt(rel.ToPersonID, 10),
		"type_id":        strconv.FormatInt(rel.TypeID, 10),
		"start_year":     yearField(rel.StartYear),
		"end_year":       yearField(rel.EndYear),
		"notes":          rel.Notes,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset relationship: %w", err)
	}
	return nil
}
