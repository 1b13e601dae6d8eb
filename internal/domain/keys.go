// Package domain holds the catalog entities: books, people, places,
// annotations, footnotes, and their join records.
package domain

// KeyPrefix namespaces all catalog keys in the store.
const KeyPrefix = "catalog:"

// Entity kinds used for stable index identifiers (<kind>:<pk>) and for
// the footnote content reference and reindex dependency tables.
type Kind string

// Search index document keys live under their own prefix so the FT
// index covers projected documents only, never the entity records.
const (
	DocKeyPrefix = KeyPrefix + "doc:"
	DocIndexName = KeyPrefix + "docs:idx"
)

// TagSeparator splits multi-valued tag fields in projected documents.
// Names carry commas, so the default tag separator cannot be used.
const TagSeparator = "|"

const (
	KindBook       Kind = "book"
	KindPerson     Kind = "person"
	KindPlace      Kind = "place"
	KindPublisher  Kind = "publisher"
	KindSubject    Kind = "subject"
	KindLanguage   Kind = "language"
	KindAnnotation Kind = "annotation"
	KindManifest   Kind = "manifest"
)
