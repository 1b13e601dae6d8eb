package domain

import (
	"fmt"
	"strings"
)

// Book is an individual book or volume in the collection.
type Book struct {
	Slug            string
	Title           string
	ShortTitle      string
	OriginalPubInfo string
	PublisherID     int64
	PubPlaceID      int64
	PubYear         int
	IsExtant        bool
	IsAnnotated     bool
	IsDigitized     bool

	// catalog numbers noted inside the physical volume
	RedCatalogNumber    string
	InkCatalogNumber    string
	PencilCatalogNumber string

	Dimensions string
	Notes      string

	// URI of the linked digitized edition manifest, if any
	DigitalEditionURI string
}

// IndexID returns the stable search index identifier for the book.
func (b *Book) IndexID() string {
	return fmt.Sprintf("%s:%s", KindBook, b.Slug)
}

// Named entities associated with books.

// Subject is a subject categorization for books and annotations.
type Subject struct {
	ID    int64
	Name  string
	Notes string
}

// Language that a book is written in or that appears in a book.
type Language struct {
	ID    int64
	Name  string
	Notes string
}

// Publisher of a book.
type Publisher struct {
	ID    int64
	Name  string
	Notes string
}

// OwningInstitution holds an extant copy of one or more books.
type OwningInstitution struct {
	ID          int64
	Name        string
	ShortName   string
	ContactInfo string
	PlaceID     int64
	Notes       string
}

// DisplayName prefers the short name when present.
func (o *OwningInstitution) DisplayName() string {
	if o.ShortName != "" {
		return o.ShortName
	}
	return o.Name
}

// Catalogue places a book in the real world: its owning institution,
// call number, and bound-volume status.
type Catalogue struct {
	InstitutionID int64
	BookSlug      string
	StartYear     int // 0 = unknown
	EndYear       int // 0 = unknown
	IsCurrent     bool
	CallNumber    string
	IsSammelband  bool
	BoundOrder    int // 0 = not part of a bound volume ordering
	Notes         string
}

// Creator roles a person can have for a book.
const (
	RoleAuthor     = "Author"
	RoleEditor     = "Editor"
	RoleTranslator = "Translator"
)

// Creator is a typed person-to-book credit.
type Creator struct {
	CreatorType string
	PersonID    int64
	BookSlug    string
	Notes       string
}

// BookSubject links a book to a subject, optionally marked primary.
type BookSubject struct {
	SubjectID int64
	BookSlug  string
	IsPrimary bool
	Notes     string
}

// BookLanguage links a book to a language, optionally marked primary.
type BookLanguage struct {
	LanguageID int64
	BookSlug   string
	IsPrimary  bool
	Notes      string
}

// PersonBook records an interaction between a person and a book other
// than authorship or annotation (ownership, gift, borrowing).
type PersonBook struct {
	PersonID  int64
	BookSlug  string
	StartYear int
	EndYear   int
	Notes     string
}

// DeriveSlug builds a book slug from the first author's family name, the
// short title, and the publication year. Slugs are assigned once at
// creation and stable thereafter.
func DeriveSlug(authorizedName, shortTitle string, pubYear int) string {
	family := authorizedName
	if i := strings.IndexByte(family, ','); i >= 0 {
		family = family[:i]
	}
	parts := []string{family, shortTitle}
	if pubYear > 0 {
		parts = append(parts, fmt.Sprintf("%d", pubYear))
	}
	return Slugify(strings.Join(parts, " "))
}

// Slugify lowercases s and collapses every non-alphanumeric run into a
// single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	prevHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
