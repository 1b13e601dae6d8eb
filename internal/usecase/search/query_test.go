package search

import (
	"strings"
	"testing"

	domsearch "github.com/winthrop-cdh/catalog/internal/domain/search"
)

func TestBuildQuery_BaseClause(t *testing.T) {
	got := buildQuery(&domsearch.Form{})
	if got != "@kind:{book}" {
		t.Errorf("unexpected query %q", got)
	}
}

func TestBuildQuery_KeywordPassthrough(t *testing.T) {
	got := buildQuery(&domsearch.Form{Query: `"via appia" -rome`})
	if !strings.Contains(got, `@text:("via appia" -rome)`) {
		t.Errorf("keyword input must pass through unescaped, got %q", got)
	}
}

func TestBuildQuery_TagEscaping(t *testing.T) {
	f := &domsearch.Form{Filters: map[string][]string{
		"author": {"Mather, Cotton"},
	}}
	got := buildQuery(f)
	if !strings.Contains(got, `@author:{Mather\,\ Cotton}`) {
		t.Errorf("expected escaped tag clause, got %q", got)
	}
}

func TestBuildQuery_MultiValueOR(t *testing.T) {
	f := &domsearch.Form{Filters: map[string][]string{
		"language": {"Latin", "English"},
	}}
	got := buildQuery(f)
	if !strings.Contains(got, "@language:{Latin|English}") {
		t.Errorf("expected OR-joined tag values, got %q", got)
	}
}

func TestBuildQuery_YearRange(t *testing.T) {
	cases := []struct {
		form domsearch.Form
		want string
	}{
		{domsearch.Form{YearStart: 1600, YearEnd: 1700}, "@pub_year:[1600 1700]"},
		{domsearch.Form{YearStart: 1600}, "@pub_year:[1600 +inf]"},
		{domsearch.Form{YearEnd: 1700}, "@pub_year:[-inf 1700]"},
	}
	for _, c := range cases {
		if got := buildQuery(&c.form); !strings.Contains(got, c.want) {
			t.Errorf("expected %q in %q", c.want, got)
		}
	}
}

func TestBuildQueryExcluding_DropsOwnFilter(t *testing.T) {
	f := &domsearch.Form{Filters: map[string][]string{
		"author":  {"Winthrop, John"},
		"subject": {"Theology"},
	}}
	got := buildQueryExcluding(f, "author")
	if strings.Contains(got, "@author:") {
		t.Errorf("author filter must be excluded, got %q", got)
	}
	if !strings.Contains(got, "@subject:{Theology}") {
		t.Errorf("other filters must remain, got %q", got)
	}
}

func TestBuildQueryExcluding_YearField(t *testing.T) {
	f := &domsearch.Form{YearStart: 1600, YearEnd: 1700}
	got := buildQueryExcluding(f, domsearch.YearField)
	if strings.Contains(got, "@pub_year:") {
		t.Errorf("year clause must be excluded for the histogram, got %q", got)
	}
}

func TestSortFieldFor(t *testing.T) {
	cases := []struct {
		sort  domsearch.Sort
		field string
		desc  bool
	}{
		{domsearch.SortAuthorAsc, "author_sort", false},
		{domsearch.SortAuthorDesc, "author_sort", true},
		{domsearch.SortYearAsc, "pub_year", false},
		{domsearch.SortYearDesc, "pub_year", true},
		{domsearch.SortRelevance, "", false},
	}
	for _, c := range cases {
		field, desc := sortFieldFor(c.sort)
		if field != c.field || desc != c.desc {
			t.Errorf("sortFieldFor(%q) = (%q, %v), want (%q, %v)", c.sort, field, desc, c.field, c.desc)
		}
	}
}
