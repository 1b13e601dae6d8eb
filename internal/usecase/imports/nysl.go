// Package imports loads the collection from the curators' spreadsheet
// and from IIIF manifests of the digitized volumes.
package imports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/winthrop-cdh/catalog/internal/domain"
	"github.com/winthrop-cdh/catalog/internal/metrics"
)

// Institution every spreadsheet book is catalogued under.
const nyslName = "NYSL"

// Spreadsheet column names.
const (
	colTitle         = "Title"
	colShortTitle    = "Short Title"
	colRedCatalog    = "RED catalogue number at the front"
	colInkCatalog    = "INK catalogue number at the front"
	colPencilCatalog = "PENCIL catalogue number at the front"
	colOrigPubInfo   = "PUB INFO - Original"
	colNotes         = "Notes"
	colPubYear       = "Year of Publication"
	colAnnotated     = "Annotated?"
	colFlaggedPages  = "FLAGGED PAGES FOR REPRODUCTION"
	colPubPlace      = "Modern Place of Publication"
	colPublisher     = "Standardized Name of Publisher"
	colCallNumber    = "NYSL CALL NUMBER"
	colNYSLNotes     = "NYSL -- NOTES"
	colAuthor        = "AUTHOR, Standarized"
	colTranslator    = "Translator"
	colEditor        = "Editor"
)

var creatorColumns = map[string]string{
	domain.RoleAuthor:     colAuthor,
	domain.RoleTranslator: colTranslator,
	domain.RoleEditor:     colEditor,
}

// Stats summarizes one import run.
type Stats struct {
	Books      int
	People     int
	Places     int
	Publishers int
	Sammelband int
	Errors     int
}

// NYSL imports the spreadsheet: one book per row with lookup-or-create
// for people, places, and publishers.
type NYSL struct {
	books     BookStore
	people    PersonStore
	places    PlaceStore
	authority NameAuthority
	gazetteer Gazetteer
	projector Projector
	log       *zap.Logger
}

// NewNYSL creates the spreadsheet importer.
func NewNYSL(
	books BookStore, people PersonStore, places PlaceStore,
	authority NameAuthority, gazetteer Gazetteer,
	projector Projector, log *zap.Logger,
) *NYSL {
	return &NYSL{
		books:     books,
		people:    people,
		places:    places,
		authority: authority,
		gazetteer: gazetteer,
		projector: projector,
		log:       log,
	}
}

// Run imports every row, then rebuilds the sammelband flags. With
// justSammelband only the bound-volume pass runs, so a re-run does not
// duplicate records. Row failures are counted, not fatal.
func (s *NYSL) Run(ctx context.Context, input io.Reader, justSammelband bool) (*Stats, error) {
	if err := s.projector.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	stats := &Stats{}
	if !justSammelband {
		if err := s.importRows(ctx, input, stats); err != nil {
			return stats, err
		}
	}
	if err := s.buildSammelband(ctx, stats); err != nil {
		return stats, err
	}
	if err := s.projector.Flush(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *NYSL) importRows(ctx context.Context, input io.Reader, stats *Stats) error {
	r := csv.NewReader(input)
	r.FieldsPerRecord = -1

	headerRow, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	header := make(map[string]int, len(headerRow))
	for i, name := range headerRow {
		header[strings.TrimSpace(name)] = i
	}

	var slugs []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		row := func(col string) string {
			idx, ok := header[col]
			if !ok || idx >= len(record) {
				return ""
			}
			return record[idx]
		}

		slug, err := s.createBook(ctx, row, stats)
		if err != nil {
			s.log.Warn("row import failed",
				zap.String("short_title", truncate(row(colShortTitle), 30)),
				zap.Error(err))
			stats.Errors++
			metrics.ImportRowsTotal.WithLabelValues("nysl", "error").Inc()
			continue
		}
		slugs = append(slugs, slug)
		metrics.ImportRowsTotal.WithLabelValues("nysl", "ok").Inc()
	}

	return s.projector.IndexBooks(ctx, slugs...)
}

var yearNoteRe = regexp.MustCompile(`-|i\.e\.`)

// createBook builds one book and its relations from a spreadsheet row.
func (s *NYSL) createBook(ctx context.Context, row func(string) string, stats *Stats) (string, error) {
	// Spreadsheet books are the extant NYSL copies.
	b := &domain.Book{IsExtant: true}

	b.Title = strings.Trim(row(colTitle), ". ")
	b.ShortTitle = row(colShortTitle)
	if b.ShortTitle == "" {
		b.ShortTitle = shortTitleFromTitle(b.Title)
	}
	b.OriginalPubInfo = row(colOrigPubInfo)
	b.Notes = row(colNotes)

	// Some catalog numbers were entered as "NA"; leave those unset.
	if v := row(colRedCatalog); v != "NA" {
		b.RedCatalogNumber = v
	}
	if v := row(colInkCatalog); v != "NA" {
		b.InkCatalogNumber = v
	}
	if v := row(colPencilCatalog); v != "NA" {
		b.PencilCatalogNumber = v
	}

	s.applyPubYear(b, row(colPubYear))

	annotated := strings.Trim(strings.ToLower(row(colAnnotated)), ". ")
	b.IsAnnotated = annotated == "yes"
	if b.IsAnnotated {
		if flagged := strings.TrimSpace(row(colFlaggedPages)); flagged != "" {
			appendNote(b, "Reproduction Recommendation: "+flagged)
		}
	}

	if err := s.applyPlace(ctx, b, row(colPubPlace), stats); err != nil {
		return "", err
	}
	if err := s.applyPublisher(ctx, b, row(colPublisher), stats); err != nil {
		return "", err
	}

	creators, created, err := s.resolveCreators(ctx, row)
	if err != nil {
		return "", err
	}
	stats.People += created

	b.Slug = s.uniqueSlug(ctx, firstAuthorName(creators), b.ShortTitle, b.PubYear)
	if err := s.books.Save(ctx, b); err != nil {
		return "", err
	}
	for _, c := range creators {
		c.Creator.BookSlug = b.Slug
		if err := s.books.AddCreator(ctx, c.Creator); err != nil {
			return "", err
		}
	}

	nysl, _, err := s.books.GetOrCreateInstitution(ctx, nyslName)
	if err != nil {
		return "", err
	}
	cat := &domain.Catalogue{
		InstitutionID: nysl.ID,
		BookSlug:      b.Slug,
		IsCurrent:     true,
		CallNumber:    row(colCallNumber),
		Notes:         row(colNYSLNotes),
	}
	if err := s.books.AddCatalogue(ctx, cat); err != nil {
		return "", err
	}

	stats.Books++
	return b.Slug, nil
}

// applyPubYear parses the publication year column. Bracketed years are
// unwrapped; ranges and "i.e." corrections keep only the leading year
// and preserve the original text in the notes.
func (s *NYSL) applyPubYear(b *domain.Book, raw string) {
	original := strings.TrimSpace(raw)
	year := strings.Trim(raw, "[]?.nd ")
	if yearNoteRe.MatchString(year) {
		appendNote(b, "Additional Publication Year Info: "+original)
		year = leadingDigits(year)
	}
	if year == "" {
		return
	}
	if n, err := strconv.Atoi(year); err == nil {
		b.PubYear = n
	}
}

func (s *NYSL) applyPlace(ctx context.Context, b *domain.Book, raw string, stats *Stats) error {
	name := strings.Trim(raw, " ?[]()")
	// Length check after dropping punctuation filters out noise like
	// "n.p." variants.
	if len(strings.NewReplacer(".", "", ",", "").Replace(name)) < 3 {
		return nil
	}

	place, err := s.places.FindByName(ctx, name)
	if err == nil {
		b.PubPlaceID = place.ID
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	place = &domain.Place{Name: name}
	hit, err := s.gazetteer.LookupPlace(ctx, name)
	if err != nil {
		s.log.Warn("gazetteer lookup failed", zap.String("place", name), zap.Error(err))
	} else if hit != nil {
		place.GeoNamesURI = hit.URI
		place.Latitude = hit.Latitude
		place.Longitude = hit.Longitude
	}
	if err := s.places.Create(ctx, place); err != nil {
		return err
	}
	stats.Places++
	b.PubPlaceID = place.ID
	return nil
}

func (s *NYSL) applyPublisher(ctx context.Context, b *domain.Book, raw string, stats *Stats) error {
	name := strings.Trim(raw, "?. ")
	// Four characters catches the "np"/"sn" placeholders.
	if len(name) < 4 {
		return nil
	}
	pub, created, err := s.books.GetOrCreatePublisher(ctx, name)
	if err != nil {
		return err
	}
	if created {
		stats.Publishers++
	}
	b.PublisherID = pub.ID
	return nil
}

// resolvedCreator pairs a credit with the person's display name.
type resolvedCreator struct {
	Creator *domain.Creator
	Name    string
}

var rejectNameRe = regexp.MustCompile(`[Vv]arious|[Aa]nonymous|[Nn]one [Gg]iven`)

func (s *NYSL) resolveCreators(ctx context.Context, row func(string) string) ([]resolvedCreator, int, error) {
	var out []resolvedCreator
	created := 0
	for _, role := range []string{domain.RoleAuthor, domain.RoleTranslator, domain.RoleEditor} {
		name := strings.Trim(row(creatorColumns[role]), "?. []")
		if rejectNameRe.MatchString(name) {
			continue
		}
		// Four characters as a dumb filter for stray "np"/"sn".
		if len(name) <= 4 {
			continue
		}

		person, err := s.people.FindByName(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			person = &domain.Person{AuthorizedName: name}
			uri, lerr := s.authority.LookupPerson(ctx, name)
			if lerr != nil {
				s.log.Warn("authority lookup failed", zap.String("name", name), zap.Error(lerr))
			} else {
				person.ViafURI = uri
			}
			if err := s.people.Create(ctx, person); err != nil {
				return nil, created, err
			}
			created++
		} else if err != nil {
			return nil, created, err
		}

		out = append(out, resolvedCreator{
			Creator: &domain.Creator{CreatorType: role, PersonID: person.ID},
			Name:    person.AuthorizedName,
		})
	}
	return out, created, nil
}

// uniqueSlug derives the stable slug and de-collides re-imported rows
// with a numeric suffix.
func (s *NYSL) uniqueSlug(ctx context.Context, author, shortTitle string, year int) string {
	base := domain.DeriveSlug(author, shortTitle, year)
	slug := base
	for n := 2; ; n++ {
		exists, err := s.books.Exists(ctx, slug)
		if err != nil || !exists {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// buildSammelband flags books sharing a call number modulo trailing
// letter suffixes as parts of one bound volume.
func (s *NYSL) buildSammelband(ctx context.Context, stats *Stats) error {
	catalogues, err := s.books.AllCatalogues(ctx)
	if err != nil {
		return err
	}

	groups := make(map[string][]*domain.Catalogue)
	for _, c := range catalogues {
		stripped := strings.TrimRight(c.CallNumber, "abcdefgh")
		groups[stripped] = append(groups[stripped], c)
	}

	var reindex []string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		for _, c := range group {
			if !c.IsSammelband {
				c.IsSammelband = true
				if err := s.books.AddCatalogue(ctx, c); err != nil {
					return err
				}
			}
			stats.Sammelband++
			reindex = append(reindex, c.BookSlug)
			s.log.Info("sammelband member",
				zap.String("slug", c.BookSlug),
				zap.String("call_number", c.CallNumber))
		}
	}
	return s.projector.IndexBooks(ctx, reindex...)
}

func firstAuthorName(creators []resolvedCreator) string {
	for _, c := range creators {
		if c.Creator.CreatorType == domain.RoleAuthor {
			return c.Name
		}
	}
	return ""
}

// shortTitleFromTitle falls back to the first three words of the title.
func shortTitleFromTitle(title string) string {
	words := strings.Fields(strings.Trim(title, ". "))
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.TrimRight(strings.Join(words, " "), ".")
}

func leadingDigits(s string) string {
	for i, r := range s {
		if r < '0' || r > '9' {
			return s[:i]
		}
	}
	return s
}

func appendNote(b *domain.Book, note string) {
	if b.Notes != "" {
		b.Notes += "\n\n" + note
		return
	}
	b.Notes = note
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
