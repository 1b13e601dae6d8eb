// Package search holds the validated book search form and the facet
// response shapes shared between the query builder and the transport.
package search

import (
	"fmt"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Sort enumerates the supported sort options.
type Sort string

const (
	SortAuthorAsc  Sort = "author_asc"
	SortAuthorDesc Sort = "author_desc"
	SortYearAsc    Sort = "pub_year_asc"
	SortYearDesc   Sort = "pub_year_desc"
	SortRelevance  Sort = "relevance"
)

// DefaultSort is applied when no sort is requested and when relevance
// is requested without a keyword query.
const DefaultSort = SortAuthorAsc

// Valid reports whether s is a known sort option.
func (s Sort) Valid() bool {
	switch s {
	case SortAuthorAsc, SortAuthorDesc, SortYearAsc, SortYearDesc, SortRelevance:
		return true
	}
	return false
}

// FilterFields are the categorical facet fields, in display order.
var FilterFields = []string{
	"author",
	"editor",
	"translator",
	"language",
	"subject",
	"annotator",
}

// YearField is the numeric range facet field.
const YearField = "pub_year"

// Form is a book search request as submitted by a user. Zero values
// mean "not constrained".
type Form struct {
	Query     string
	Sort      Sort
	Filters   map[string][]string // keyed by FilterFields entries
	YearStart int                 // 0 = open lower bound
	YearEnd   int                 // 0 = open upper bound
	Page      int                 // 1-based
	PageSize  int
}

// Validate checks the form before any backend query is issued.
// Unknown filter values pass through untouched: vocabulary is not
// enforced at this layer.
func (f *Form) Validate() error {
	if f.Sort != "" && !f.Sort.Valid() {
		return fmt.Errorf("unknown sort option %q", f.Sort)
	}
	if f.YearStart != 0 && f.YearEnd != 0 && f.YearStart > f.YearEnd {
		return fmt.Errorf("%w: start %d after end %d", domain.ErrInvalidRange, f.YearStart, f.YearEnd)
	}
	return nil
}

// EffectiveSort resolves the sort actually applied: relevance only
// holds when a keyword query is present, otherwise it silently falls
// back to the default.
func (f *Form) EffectiveSort() Sort {
	if f.Sort == "" {
		return DefaultSort
	}
	if f.Sort == SortRelevance && f.Query == "" {
		return DefaultSort
	}
	return f.Sort
}

// RelevanceDisabled reports whether the relevance option should be
// rendered disabled (no keyword query to score against).
func (f *Form) RelevanceDisabled() bool {
	return f.Query == ""
}

// FilterValues returns the selected values for a field, nil when empty.
func (f *Form) FilterValues(field string) []string {
	if f.Filters == nil {
		return nil
	}
	return f.Filters[field]
}
