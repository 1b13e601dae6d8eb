package search

import (
	"fmt"
	"strings"

	"github.com/winthrop-cdh/catalog/internal/domain"
	domsearch "github.com/winthrop-cdh/catalog/internal/domain/search"
)

// sortFieldFor maps a sort option to its index field and direction.
// Relevance returns an empty field, which keeps native score order.
func sortFieldFor(s domsearch.Sort) (field string, desc bool) {
	switch s {
	case domsearch.SortAuthorAsc:
		return "author_sort", false
	case domsearch.SortAuthorDesc:
		return "author_sort", true
	case domsearch.SortYearAsc:
		return "pub_year", false
	case domsearch.SortYearDesc:
		return "pub_year", true
	default:
		return "", false
	}
}

// buildQuery translates the form into a full RediSearch query covering
// every constraint.
func buildQuery(f *domsearch.Form) string {
	return buildQueryExcluding(f, "")
}

// buildQueryExcluding builds the query with one facet field's own
// filter left out. Facet counts for a multi-select field must reflect
// every constraint except that field's, so selecting a second value
// stays possible.
func buildQueryExcluding(f *domsearch.Form, excludeField string) string {
	var clauses []string

	clauses = append(clauses, fmt.Sprintf("@kind:{%s}", domain.KindBook))

	// Keyword phrasing is passed through untouched so quoted phrases
	// and field prefixes keep working. Malformed input surfaces as a
	// parse error from the backend.
	if f.Query != "" {
		clauses = append(clauses, fmt.Sprintf("@text:(%s)", f.Query))
	}

	for _, field := range domsearch.FilterFields {
		if field == excludeField {
			continue
		}
		values := f.FilterValues(field)
		if len(values) == 0 {
			continue
		}
		escaped := make([]string, len(values))
		for i, v := range values {
			escaped[i] = escapeTag(v)
		}
		clauses = append(clauses, fmt.Sprintf("@%s:{%s}", field, strings.Join(escaped, "|")))
	}

	if excludeField != domsearch.YearField && (f.YearStart != 0 || f.YearEnd != 0) {
		lower, upper := "-inf", "+inf"
		if f.YearStart != 0 {
			lower = fmt.Sprintf("%d", f.YearStart)
		}
		if f.YearEnd != 0 {
			upper = fmt.Sprintf("%d", f.YearEnd)
		}
		clauses = append(clauses, fmt.Sprintf("@%s:[%s %s]", domsearch.YearField, lower, upper))
	}

	return strings.Join(clauses, " ")
}

// escapeTag backslash-escapes tag value punctuation so names with
// commas, periods, and spaces match literally.
func escapeTag(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('\\')
		b.WriteRune(r)
	}
	return b.String()
}
