// Package book persists books, their controlled vocabularies
// (publisher, subject, language, owning institution), and the join
// records tying people and vocabularies to books.
package book

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/winthrop-cdh/catalog/internal/db"
	"github.com/winthrop-cdh/catalog/internal/domain"
)

// store is the consumer interface for book persistence (ISP).
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

// Repo implements book persistence over the hash store.
type Repo struct {
	store store
}

// New creates a book repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func bookKey(slug string) string {
	return fmt.Sprintf("%sbook:%s", domain.KeyPrefix, slug)
}

func vocabKey(kind domain.Kind, id int64) string {
	return fmt.Sprintf("%s%s:%d", domain.KeyPrefix, kind, id)
}

func nameKey(kind domain.Kind, name string) string {
	return fmt.Sprintf("%sname:%s:%s", domain.KeyPrefix, kind, domain.Slugify(name))
}

func seqKey(kind domain.Kind) string {
	return fmt.Sprintf("%sseq:%s", domain.KeyPrefix, kind)
}

// Save writes a book under its slug, creating or overwriting.
func (r *Repo) Save(ctx context.Context, b *domain.Book) error {
	if b.Slug == "" {
		return fmt.Errorf("save book: empty slug")
	}
	if err := r.store.HSet(ctx, bookKey(b.Slug), fieldsFromBook(b)); err != nil {
		return fmt.Errorf("hset book %s: %w", b.Slug, err)
	}
	return nil
}

// Get returns a book by slug.
func (r *Repo) Get(ctx context.Context, slug string) (*domain.Book, error) {
	f, err := r.store.HGetAll(ctx, bookKey(slug))
	if err != nil {
		return nil, fmt.Errorf("hgetall book %s: %w", slug, err)
	}
	if len(f) == 0 {
		return nil, fmt.Errorf("book %s: %w", slug, domain.ErrNotFound)
	}
	return bookFromFields(f), nil
}

// Exists reports whether a book with the slug is stored.
func (r *Repo) Exists(ctx context.Context, slug string) (bool, error) {
	ok, err := r.store.Exists(ctx, bookKey(slug))
	if err != nil {
		return false, fmt.Errorf("exists book %s: %w", slug, err)
	}
	return ok, nil
}

// Delete removes a book record. Join records are cleaned up separately
// by the owning usecase.
func (r *Repo) Delete(ctx context.Context, slug string) error {
	ok, err := r.store.Exists(ctx, bookKey(slug))
	if err != nil {
		return fmt.Errorf("exists book %s: %w", slug, err)
	}
	if !ok {
		return fmt.Errorf("book %s: %w", slug, domain.ErrNotFound)
	}
	if err := r.store.Del(ctx, bookKey(slug)); err != nil {
		return fmt.Errorf("del book %s: %w", slug, err)
	}
	return nil
}

// List returns every stored book, ordered by slug.
func (r *Repo) List(ctx context.Context) ([]*domain.Book, error) {
	keys, err := r.store.Scan(ctx, domain.KeyPrefix+"book:*")
	if err != nil {
		return nil, fmt.Errorf("scan books: %w", err)
	}
	sort.Strings(keys)
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch books: %w", err)
	}
	books := make([]*domain.Book, 0, len(maps))
	for _, f := range maps {
		if len(f) == 0 {
			continue
		}
		books = append(books, bookFromFields(f))
	}
	return books, nil
}

// getOrCreateNamed resolves a vocabulary entity by exact name, creating
// it with a fresh sequence id on first sight. created reports whether a
// new record was written.
func (r *Repo) getOrCreateNamed(ctx context.Context, kind domain.Kind, name string) (int64, bool, error) {
	raw, err := r.store.Get(ctx, nameKey(kind, name))
	if err == nil {
		id, perr := strconv.ParseInt(string(raw), 10, 64)
		if perr != nil {
			return 0, false, fmt.Errorf("corrupt %s name entry %q: %w", kind, name, perr)
		}
		return id, false, nil
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		return 0, false, fmt.Errorf("lookup %s %q: %w", kind, name, err)
	}

	id, err := r.store.IncrBy(ctx, seqKey(kind), 1)
	if err != nil {
		return 0, false, fmt.Errorf("next %s id: %w", kind, err)
	}
	fields := map[string]string{"id": strconv.FormatInt(id, 10), "name": name}
	if err := r.store.HSet(ctx, vocabKey(kind, id), fields); err != nil {
		return 0, false, fmt.Errorf("hset %s %d: %w", kind, id, err)
	}
	if err := r.store.Set(ctx, nameKey(kind, name), []byte(strconv.FormatInt(id, 10))); err != nil {
		return 0, false, fmt.Errorf("set %s name entry: %w", kind, err)
	}
	return id, true, nil
}

func (r *Repo) getNamed(ctx context.Context, kind domain.Kind, id int64) (map[string]string, error) {
	f, err := r.store.HGetAll(ctx, vocabKey(kind, id))
	if err != nil {
		return nil, fmt.Errorf("hgetall %s %d: %w", kind, id, err)
	}
	if len(f) == 0 {
		return nil, fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return f, nil
}

// GetOrCreatePublisher resolves a publisher by exact name.
func (r *Repo) GetOrCreatePublisher(ctx context.Context, name string) (*domain.Publisher, bool, error) {
	id, created, err := r.getOrCreateNamed(ctx, domain.KindPublisher, name)
	if err != nil {
		return nil, false, err
	}
	return &domain.Publisher{ID: id, Name: name}, created, nil
}

// GetOrCreateSubject resolves a subject by exact name.
func (r *Repo) GetOrCreateSubject(ctx context.Context, name string) (*domain.Subject, bool, error) {
	id, created, err := r.getOrCreateNamed(ctx, domain.KindSubject, name)
	if err != nil {
		return nil, false, err
	}
	return &domain.Subject{ID: id, Name: name}, created, nil
}

// GetOrCreateLanguage resolves a language by exact name.
func (r *Repo) GetOrCreateLanguage(ctx context.Context, name string) (*domain.Language, bool, error) {
	id, created, err := r.getOrCreateNamed(ctx, domain.KindLanguage, name)
	if err != nil {
		return nil, false, err
	}
	return &domain.Language{ID: id, Name: name}, created, nil
}

// GetOrCreateInstitution resolves an owning institution by exact name.
func (r *Repo) GetOrCreateInstitution(ctx context.Context, name string) (*domain.OwningInstitution, bool, error) {
	id, created, err := r.getOrCreateNamed(ctx, kindInstitution, name)
	if err != nil {
		return nil, false, err
	}
	return &domain.OwningInstitution{ID: id, Name: name}, created, nil
}

// GetPublisher returns a publisher by id.
func (r *Repo) GetPublisher(ctx context.Context, id int64) (*domain.Publisher, error) {
	f, err := r.getNamed(ctx, domain.KindPublisher, id)
	if err != nil {
		return nil, err
	}
	return &domain.Publisher{ID: id, Name: f["name"], Notes: f["notes"]}, nil
}

// GetSubject returns a subject by id.
func (r *Repo) GetSubject(ctx context.Context, id int64) (*domain.Subject, error) {
	f, err := r.getNamed(ctx, domain.KindSubject, id)
	if err != nil {
		return nil, err
	}
	return &domain.Subject{ID: id, Name: f["name"], Notes: f["notes"]}, nil
}

// GetLanguage returns a language by id.
func (r *Repo) GetLanguage(ctx context.Context, id int64) (*domain.Language, error) {
	f, err := r.getNamed(ctx, domain.KindLanguage, id)
	if err != nil {
		return nil, err
	}
	return &domain.Language{ID: id, Name: f["name"], Notes: f["notes"]}, nil
}

// ListNames returns every stored name for a vocabulary kind, sorted.
// Backs the autocomplete endpoints.
func (r *Repo) ListNames(ctx context.Context, kind domain.Kind) ([]string, error) {
	keys, err := r.store.Scan(ctx, fmt.Sprintf("%s%s:*", domain.KeyPrefix, kind))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", kind, err)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
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

const kindInstitution domain.Kind = "institution"

// Join record keys embed the natural key, so re-adding the same link
// overwrites rather than duplicates.

func creatorKey(slug string, personID int64, creatorType string) string {
	return fmt.Sprintf("%screator:%s:%d:%s", domain.KeyPrefix, slug, personID, creatorType)
}

// AddCreator links a person to a book in a typed role.
func (r *Repo) AddCreator(ctx context.Context, c *domain.Creator) error {
	fields := map[string]string{
		"creator_type": c.CreatorType,
		"person_id":    strconv.FormatInt(c.PersonID, 10),
		"book_slug":    c.BookSlug,
		"notes":        c.Notes,
	}
	if err := r.store.HSet(ctx, creatorKey(c.BookSlug, c.PersonID, c.CreatorType), fields); err != nil {
		return fmt.Errorf("hset creator: %w", err)
	}
	return nil
}

// RemoveCreator deletes a typed person-book credit.
func (r *Repo) RemoveCreator(ctx context.Context, c *domain.Creator) error {
	if err := r.store.Del(ctx, creatorKey(c.BookSlug, c.PersonID, c.CreatorType)); err != nil {
		return fmt.Errorf("del creator: %w", err)
	}
	return nil
}

// Creators returns every creator credit on a book.
func (r *Repo) Creators(ctx context.Context, slug string) ([]*domain.Creator, error) {
	return r.creatorsByPattern(ctx, fmt.Sprintf("%screator:%s:*", domain.KeyPrefix, slug))
}

// CreatorsByPerson returns every credit held by a person, across books.
func (r *Repo) CreatorsByPerson(ctx context.Context, personID int64) ([]*domain.Creator, error) {
	return r.creatorsByPattern(ctx, fmt.Sprintf("%screator:*:%d:*", domain.KeyPrefix, personID))
}

func (r *Repo) creatorsByPattern(ctx context.Context, pattern string) ([]*domain.Creator, error) {
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan creators: %w", err)
	}
	sort.Strings(keys)
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch creators: %w", err)
	}
	out := make([]*domain.Creator, 0, len(maps))
	for _, f := range maps {
		if len(f) == 0 {
			continue
		}
		out = append(out, &domain.Creator{
			CreatorType: f["creator_type"],
			PersonID:    atoi64(f["person_id"]),
			BookSlug:    f["book_slug"],
			Notes:       f["notes"],
		})
	}
	return out, nil
}

// AddSubject links a subject to a book.
func (r *Repo) AddSubject(ctx context.Context, bs *domain.BookSubject) error {
	key := fmt.Sprintf("%sbooksubject:%s:%d", domain.KeyPrefix, bs.BookSlug, bs.SubjectID)
	fields := map[string]string{
		"subject_id": strconv.FormatInt(bs.SubjectID, 10),
		"book_slug":  bs.BookSlug,
		"is_primary": btoa(bs.IsPrimary),
		"notes":      bs.Notes,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset book subject: %w", err)
	}
	return nil
}

// Subjects returns the resolved subjects linked to a book.
func (r *Repo) Subjects(ctx context.Context, slug string) ([]*domain.Subject, error) {
	ids, err := r.joinIDs(ctx, fmt.Sprintf("%sbooksubject:%s:*", domain.KeyPrefix, slug), "subject_id")
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Subject, 0, len(ids))
	for _, id := range ids {
		s, err := r.GetSubject(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// AddLanguage links a language to a book.
func (r *Repo) AddLanguage(ctx context.Context, bl *domain.BookLanguage) error {
	key := fmt.Sprintf("%sbooklang:%s:%d", domain.KeyPrefix, bl.BookSlug, bl.LanguageID)
	fields := map[string]string{
		"language_id": strconv.FormatInt(bl.LanguageID, 10),
		"book_slug":   bl.BookSlug,
		"is_primary":  btoa(bl.IsPrimary),
		"notes":       bl.Notes,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset book language: %w", err)
	}
	return nil
}

// Languages returns the resolved languages linked to a book.
func (r *Repo) Languages(ctx context.Context, slug string) ([]*domain.Language, error) {
	ids, err := r.joinIDs(ctx, fmt.Sprintf("%sbooklang:%s:*", domain.KeyPrefix, slug), "language_id")
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Language, 0, len(ids))
	for _, id := range ids {
		l, err := r.GetLanguage(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// AddPersonBook records a non-authorial person-book interaction.
func (r *Repo) AddPersonBook(ctx context.Context, pb *domain.PersonBook) error {
	key := fmt.Sprintf("%spersonbook:%d:%s", domain.KeyPrefix, pb.PersonID, pb.BookSlug)
	fields := map[string]string{
		"person_id":  strconv.FormatInt(pb.PersonID, 10),
		"book_slug":  pb.BookSlug,
		"start_year": itoa(pb.StartYear),
		"end_year":   itoa(pb.EndYear),
		"notes":      pb.Notes,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset person book: %w", err)
	}
	return nil
}

// AddCatalogue records a book's placement at an owning institution.
func (r *Repo) AddCatalogue(ctx context.Context, c *domain.Catalogue) error {
	key := fmt.Sprintf("%scatalogue:%s:%d", domain.KeyPrefix, c.BookSlug, c.InstitutionID)
	if err := r.store.HSet(ctx, key, fieldsFromCatalogue(c)); err != nil {
		return fmt.Errorf("hset catalogue: %w", err)
	}
	return nil
}

// Catalogues returns a book's institutional placements.
func (r *Repo) Catalogues(ctx context.Context, slug string) ([]*domain.Catalogue, error) {
	return r.cataloguesByPattern(ctx, fmt.Sprintf("%scatalogue:%s:*", domain.KeyPrefix, slug))
}

// AllCatalogues returns every catalogue record. Backs the sammelband
// detection pass, which groups call numbers across the whole collection.
func (r *Repo) AllCatalogues(ctx context.Context) ([]*domain.Catalogue, error) {
	return r.cataloguesByPattern(ctx, domain.KeyPrefix+"catalogue:*")
}

func (r *Repo) cataloguesByPattern(ctx context.Context, pattern string) ([]*domain.Catalogue, error) {
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan catalogues: %w", err)
	}
	sort.Strings(keys)
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch catalogues: %w", err)
	}
	out := make([]*domain.Catalogue, 0, len(maps))
	for _, f := range maps {
		if len(f) == 0 {
			continue
		}
		out = append(out, catalogueFromFields(f))
	}
	return out, nil
}

// SlugsByCallNumber returns slugs of books catalogued under the exact
// call number. Used to link IIIF manifests by local identifier.
func (r *Repo) SlugsByCallNumber(ctx context.Context, callNumber string) ([]string, error) {
	all, err := r.AllCatalogues(ctx)
	if err != nil {
		return nil, err
	}
	var slugs []string
	for _, c := range all {
		if c.CallNumber == callNumber {
			slugs = append(slugs, c.BookSlug)
		}
	}
	return slugs, nil
}

// Reverse lookups used by the index projector to find books affected by
// a related-entity change.

// SlugsByPerson returns slugs of books a person is credited on or
// otherwise linked to.
func (r *Repo) SlugsByPerson(ctx context.Context, personID int64) ([]string, error) {
	creators, err := r.CreatorsByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var slugs []string
	for _, c := range creators {
		if !seen[c.BookSlug] {
			seen[c.BookSlug] = true
			slugs = append(slugs, c.BookSlug)
		}
	}
	keys, err := r.store.Scan(ctx, fmt.Sprintf("%spersonbook:%d:*", domain.KeyPrefix, personID))
	if err != nil {
		return nil, fmt.Errorf("scan person books: %w", err)
	}
	prefix := fmt.Sprintf("%spersonbook:%d:", domain.KeyPrefix, personID)
	for _, k := range keys {
		slug := strings.TrimPrefix(k, prefix)
		if slug != "" && !seen[slug] {
			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// SlugsBySubject returns slugs of books linked to a subject.
func (r *Repo) SlugsBySubject(ctx context.Context, subjectID int64) ([]string, error) {
	return r.slugsByJoinSuffix(ctx, "booksubject", subjectID)
}

// SlugsByLanguage returns slugs of books linked to a language.
func (r *Repo) SlugsByLanguage(ctx context.Context, languageID int64) ([]string, error) {
	return r.slugsByJoinSuffix(ctx, "booklang", languageID)
}

func (r *Repo) slugsByJoinSuffix(ctx context.Context, join string, id int64) ([]string, error) {
	keys, err := r.store.Scan(ctx, fmt.Sprintf("%s%s:*:%d", domain.KeyPrefix, join, id))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", join, err)
	}
	prefix := fmt.Sprintf("%s%s:", domain.KeyPrefix, join)
	suffix := fmt.Sprintf(":%d", id)
	slugs := make([]string, 0, len(keys))
	for _, k := range keys {
		slug := strings.TrimSuffix(strings.TrimPrefix(k, prefix), suffix)
		if slug != "" {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// SlugsByPublisher returns slugs of books published by the publisher.
func (r *Repo) SlugsByPublisher(ctx context.Context, publisherID int64) ([]string, error) {
	return r.slugsByBookField(ctx, func(b *domain.Book) bool { return b.PublisherID == publisherID })
}

// SlugsByPlace returns slugs of books published at the place.
func (r *Repo) SlugsByPlace(ctx context.Context, placeID int64) ([]string, error) {
	return r.slugsByBookField(ctx, func(b *domain.Book) bool { return b.PubPlaceID == placeID })
}

// SlugsByEdition returns slugs of books linked to a digital edition.
func (r *Repo) SlugsByEdition(ctx context.Context, manifestURI string) ([]string, error) {
	return r.slugsByBookField(ctx, func(b *domain.Book) bool { return b.DigitalEditionURI == manifestURI })
}

func (r *Repo) slugsByBookField(ctx context.Context, match func(*domain.Book) bool) ([]string, error) {
	books, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var slugs []string
	for _, b := range books {
		if match(b) {
			slugs = append(slugs, b.Slug)
		}
	}
	return slugs, nil
}

func (r *Repo) joinIDs(ctx context.Context, pattern, field string) ([]int64, error) {
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan joins: %w", err)
	}
	sort.Strings(keys)
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch joins: %w", err)
	}
	ids := make([]int64, 0, len(maps))
	for _, f := range maps {
		if v := f[field]; v != "" {
			ids = append(ids, atoi64(v))
		}
	}
	return ids, nil
}
