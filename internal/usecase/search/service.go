// Package search translates the validated book search form into index
// queries: keyword clause, sort table, multi-select facets, and the
// publication year histogram.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/winthrop-cdh/catalog/internal/domain"
	domsearch "github.com/winthrop-cdh/catalog/internal/domain/search"
)

// UnavailableMessage annotates degraded responses when the search
// backend fails for reasons other than a bad query.
const UnavailableMessage = "Something went wrong"

// Config tunes paging and facet behavior.
type Config struct {
	PageSize         int
	FacetLimit       int
	HistogramBuckets int
	YearCacheTTL     time.Duration
}

// Service handles book search with facets.
type Service struct {
	repo  Repository
	cfg   Config
	years *yearCache
}

// New creates a search service.
func New(repo Repository, cfg Config) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.FacetLimit <= 0 {
		cfg.FacetLimit = 100
	}
	if cfg.HistogramBuckets <= 0 {
		cfg.HistogramBuckets = 24
	}
	if cfg.YearCacheTTL <= 0 {
		cfg.YearCacheTTL = time.Minute
	}
	return &Service{repo: repo, cfg: cfg, years: newYearCache(cfg.YearCacheTTL)}
}

// listReturnFields are the projected fields rendered in result rows.
var listReturnFields = []string{
	"kind", "title", "short_title", "author", "editor",
	"pub_year", "thumbnail",
}

// Books runs a search and returns one result page with facets.
//
// Parse errors are returned without a page. Other backend failures
// return an empty page annotated with UnavailableMessage alongside
// ErrSearchUnavailable, so the transport can keep the page shape while
// reporting the failure.
func (s *Service) Books(ctx context.Context, f *domsearch.Form) (*domsearch.Page, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size <= 0 {
		size = s.cfg.PageSize
	}

	sort := f.EffectiveSort()
	sortField, sortDesc := sortFieldFor(sort)

	total, rows, err := s.repo.List(
		ctx, buildQuery(f), sortField, sortDesc, (page-1)*size, size, listReturnFields,
	)
	if err != nil {
		return s.failed(f, page, size, sort, err)
	}

	facets, err := s.buildFacets(ctx, f)
	if err != nil {
		return s.failed(f, page, size, sort, err)
	}

	return &domsearch.Page{
		Total:             total,
		Page:              page,
		PageSize:          size,
		Sort:              sort,
		Rows:              rows,
		Facets:            *facets,
		RelevanceDisabled: f.RelevanceDisabled(),
	}, nil
}

// Facets computes the facet payload alone, without result rows.
func (s *Service) Facets(ctx context.Context, f *domsearch.Form) (*domsearch.Facets, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.buildFacets(ctx, f)
}

// InvalidateYearBounds drops the cached year bounds. Wired as the
// projector's invalidation hook.
func (s *Service) InvalidateYearBounds() {
	s.years.invalidate()
}

func (s *Service) buildFacets(ctx context.Context, f *domsearch.Form) (*domsearch.Facets, error) {
	fields := make(map[string][]domsearch.FacetCount, len(domsearch.FilterFields))
	for _, field := range domsearch.FilterFields {
		counts, err := s.repo.Facet(ctx, buildQueryExcluding(f, field), field, s.cfg.FacetLimit)
		if err != nil {
			return nil, err
		}
		fields[field] = counts
	}

	years, err := s.yearHistogram(ctx, f)
	if err != nil {
		return nil, err
	}

	return &domsearch.Facets{Fields: fields, Years: years}, nil
}

// yearHistogram splits the publication year span into a fixed number
// of buckets. The span runs from the requested start (or global min)
// to one past the requested end (or global max), so the max year lands
// inside the final bucket, which is clamped to the true maximum.
func (s *Service) yearHistogram(ctx context.Context, f *domsearch.Form) ([]domsearch.YearBucket, error) {
	minYear, maxYear, err := s.years.get(ctx, s.repo.YearBounds)
	if err != nil {
		return nil, err
	}

	lower := minYear
	if f.YearStart != 0 {
		lower = f.YearStart
	}
	upper := maxYear + 1
	if f.YearEnd != 0 {
		upper = f.YearEnd + 1
	}
	if upper <= lower {
		upper = lower + 1
	}

	gap := (upper - lower) / s.cfg.HistogramBuckets
	if gap < 1 {
		gap = 1
	}

	counted, err := s.repo.YearRange(ctx, buildQueryExcluding(f, domsearch.YearField), lower, upper, gap)
	if err != nil {
		return nil, err
	}
	countByStart := make(map[int]int, len(counted))
	for _, b := range counted {
		countByStart[b.Start] = b.Count
	}

	var buckets []domsearch.YearBucket
	for start := lower; start < upper; start += gap {
		end := start + gap - 1
		if end > upper-1 {
			end = upper - 1
		}
		buckets = append(buckets, domsearch.YearBucket{
			Start: start,
			End:   end,
			Count: countByStart[start],
		})
	}
	return buckets, nil
}

// failed classifies a backend error. Parse errors propagate as-is;
// anything else degrades to an annotated empty page.
func (s *Service) failed(f *domsearch.Form, page, size int, sort domsearch.Sort, err error) (*domsearch.Page, error) {
	if errors.Is(err, domain.ErrQueryParse) {
		return nil, err
	}
	degraded := &domsearch.Page{
		Page:              page,
		PageSize:          size,
		Sort:              sort,
		Rows:              []map[string]string{},
		Facets:            domsearch.Facets{Fields: map[string][]domsearch.FacetCount{}},
		Error:             UnavailableMessage,
		RelevanceDisabled: f.RelevanceDisabled(),
	}
	return degraded, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
}
