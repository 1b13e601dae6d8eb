package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/winthrop-cdh/catalog/internal/domain"
	domsearch "github.com/winthrop-cdh/catalog/internal/domain/search"
)

// --- Mocks ---

type mockRepo struct {
	listTotal int
	listRows  []map[string]string
	listErr   error
	lastQuery string
	lastSort  string
	lastDesc  bool

	facetCounts  map[string][]domsearch.FacetCount
	facetQueries map[string]string
	facetErr     error

	rangeBuckets []domsearch.YearBucket
	rangeLower   int
	rangeUpper   int
	rangeGap     int
	rangeErr     error

	boundsMin   int
	boundsMax   int
	boundsOK    bool
	boundsErr   error
	boundsCalls int
}

func (m *mockRepo) List(
	_ context.Context, query, sortBy string, sortDesc bool, _, _ int, _ []string,
) (int, []map[string]string, error) {
	m.lastQuery = query
	m.lastSort = sortBy
	m.lastDesc = sortDesc
	return m.listTotal, m.listRows, m.listErr
}

func (m *mockRepo) Count(_ context.Context, _ string) (int, error) {
	return m.listTotal, nil
}

func (m *mockRepo) Facet(_ context.Context, query, field string, _ int) ([]domsearch.FacetCount, error) {
	if m.facetQueries == nil {
		m.facetQueries = make(map[string]string)
	}
	m.facetQueries[field] = query
	return m.facetCounts[field], m.facetErr
}

func (m *mockRepo) YearRange(_ context.Context, _ string, lower, upper, gap int) ([]domsearch.YearBucket, error) {
	m.rangeLower, m.rangeUpper, m.rangeGap = lower, upper, gap
	return m.rangeBuckets, m.rangeErr
}

func (m *mockRepo) YearBounds(_ context.Context) (int, int, bool, error) {
	m.boundsCalls++
	return m.boundsMin, m.boundsMax, m.boundsOK, m.boundsErr
}

func newTestService(repo *mockRepo) *Service {
	return New(repo, Config{PageSize: 10, HistogramBuckets: 24, YearCacheTTL: time.Minute})
}

// --- Tests ---

func TestBooks_DefaultSortIsAuthor(t *testing.T) {
	repo := &mockRepo{boundsMin: 1559, boundsMax: 1922, boundsOK: true}
	svc := newTestService(repo)

	page, err := svc.Books(context.Background(), &domsearch.Form{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastSort != "author_sort" || repo.lastDesc {
		t.Errorf("expected author_sort asc, got %q desc=%v", repo.lastSort, repo.lastDesc)
	}
	if page.Sort != domsearch.SortAuthorAsc {
		t.Errorf("page sort = %q", page.Sort)
	}
}

func TestBooks_RelevanceWithoutQueryFallsBack(t *testing.T) {
	repo := &mockRepo{boundsMin: 1559, boundsMax: 1922, boundsOK: true}
	svc := newTestService(repo)

	page, err := svc.Books(context.Background(), &domsearch.Form{Sort: domsearch.SortRelevance})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastSort != "author_sort" {
		t.Errorf("expected fallback to author_sort, got %q", repo.lastSort)
	}
	if page.Sort != domsearch.SortAuthorAsc {
		t.Errorf("page sort = %q", page.Sort)
	}
	if !page.RelevanceDisabled {
		t.Error("page must report the relevance option disabled without a query")
	}
}

func TestBooks_RelevanceEnabledWithQuery(t *testing.T) {
	repo := &mockRepo{boundsMin: 1559, boundsMax: 1922, boundsOK: true}
	svc := newTestService(repo)

	page, err := svc.Books(context.Background(), &domsearch.Form{
		Query: "magnalia", Sort: domsearch.SortRelevance,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Sort != domsearch.SortRelevance {
		t.Errorf("page sort = %q", page.Sort)
	}
	if page.RelevanceDisabled {
		t.Error("relevance must stay enabled when a query is present")
	}
}

func TestBooks_InvalidYearRange(t *testing.T) {
	svc := newTestService(&mockRepo{})
	_, err := svc.Books(context.Background(), &domsearch.Form{YearStart: 1800, YearEnd: 1700})
	if !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestBooks_ParseErrorPropagates(t *testing.T) {
	repo := &mockRepo{listErr: domain.ErrQueryParse}
	svc := newTestService(repo)

	page, err := svc.Books(context.Background(), &domsearch.Form{Query: "sermon AND ("})
	if !errors.Is(err, domain.ErrQueryParse) {
		t.Fatalf("expected ErrQueryParse, got %v", err)
	}
	if page != nil {
		t.Error("parse errors must not produce a degraded page")
	}
}

func TestBooks_BackendFailureDegrades(t *testing.T) {
	repo := &mockRepo{listErr: errors.New("connection reset")}
	svc := newTestService(repo)

	page, err := svc.Books(context.Background(), &domsearch.Form{})
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if page == nil {
		t.Fatal("expected a degraded page alongside the error")
	}
	if page.Error != UnavailableMessage {
		t.Errorf("page error = %q, want %q", page.Error, UnavailableMessage)
	}
	if page.Total != 0 || len(page.Rows) != 0 {
		t.Error("degraded page must be empty")
	}
	if !page.RelevanceDisabled {
		t.Error("degraded page must still report the relevance option state")
	}
}

func TestBooks_FacetExcludesOwnFilter(t *testing.T) {
	repo := &mockRepo{boundsMin: 1559, boundsMax: 1922, boundsOK: true}
	svc := newTestService(repo)

	f := &domsearch.Form{Filters: map[string][]string{"author": {"Winthrop, John"}}}
	if _, err := svc.Books(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	authorQuery := repo.facetQueries["author"]
	if authorQuery == "" {
		t.Fatal("author facet was not queried")
	}
	if strings.Contains(authorQuery, "@author:") {
		t.Errorf("author facet query must drop the author filter, got %q", authorQuery)
	}
	subjectQuery := repo.facetQueries["subject"]
	if !strings.Contains(subjectQuery, "@author:") {
		t.Errorf("subject facet query must keep the author filter, got %q", subjectQuery)
	}
}

func TestBooks_YearHistogramBuckets(t *testing.T) {
	// 1559..1922 spans 364 years; 364/24 = 15, so 25 buckets cover it
	// and the final bucket is clamped to the true maximum.
	repo := &mockRepo{
		boundsMin: 1559, boundsMax: 1922, boundsOK: true,
		rangeBuckets: []domsearch.YearBucket{{Start: 1559, Count: 7}},
	}
	svc := newTestService(repo)

	page, err := svc.Books(context.Background(), &domsearch.Form{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rangeGap != 15 {
		t.Errorf("gap = %d, want 15", repo.rangeGap)
	}
	if repo.rangeLower != 1559 || repo.rangeUpper != 1923 {
		t.Errorf("range = [%d, %d), want [1559, 1923)", repo.rangeLower, repo.rangeUpper)
	}

	buckets := page.Facets.Years
	if len(buckets) != 25 {
		t.Fatalf("bucket count = %d, want 25", len(buckets))
	}
	first := buckets[0]
	if first.Start != 1559 || first.End != 1573 || first.Count != 7 {
		t.Errorf("first bucket = %+v", first)
	}
	last := buckets[len(buckets)-1]
	if last.Start != 1919 || last.End != 1922 {
		t.Errorf("last bucket = %+v, want 1919-1922", last)
	}
	if last.Count != 0 {
		t.Errorf("uncounted bucket must be zero-filled, got %d", last.Count)
	}
}

func TestBooks_EmptyIndexUsesPlaceholderYears(t *testing.T) {
	repo := &mockRepo{boundsOK: false}
	svc := newTestService(repo)

	page, err := svc.Books(context.Background(), &domsearch.Form{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buckets := page.Facets.Years
	if len(buckets) == 0 {
		t.Fatal("expected placeholder histogram")
	}
	if buckets[0].Start != 1500 {
		t.Errorf("first bucket start = %d, want 1500", buckets[0].Start)
	}
	if buckets[len(buckets)-1].End != 1800 {
		t.Errorf("last bucket end = %d, want 1800", buckets[len(buckets)-1].End)
	}
}

func TestBooks_YearBoundsCached(t *testing.T) {
	repo := &mockRepo{boundsMin: 1559, boundsMax: 1922, boundsOK: true}
	svc := newTestService(repo)

	ctx := context.Background()
	if _, err := svc.Books(ctx, &domsearch.Form{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Books(ctx, &domsearch.Form{}); err != nil {
		t.Fatal(err)
	}
	if repo.boundsCalls != 1 {
		t.Errorf("bounds fetched %d times, want 1", repo.boundsCalls)
	}

	svc.InvalidateYearBounds()
	if _, err := svc.Books(ctx, &domsearch.Form{}); err != nil {
		t.Fatal(err)
	}
	if repo.boundsCalls != 2 {
		t.Errorf("bounds fetched %d times after invalidation, want 2", repo.boundsCalls)
	}
}

func TestBooks_AbsentBoundsNotCached(t *testing.T) {
	repo := &mockRepo{boundsOK: false}
	svc := newTestService(repo)

	ctx := context.Background()
	if _, err := svc.Books(ctx, &domsearch.Form{}); err != nil {
		t.Fatal(err)
	}
	// Books arrive between the two requests.
	repo.boundsMin, repo.boundsMax, repo.boundsOK = 1600, 1700, true
	page, err := svc.Books(ctx, &domsearch.Form{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Facets.Years[0].Start != 1600 {
		t.Errorf("new bounds must be visible immediately, got start %d", page.Facets.Years[0].Start)
	}
}
