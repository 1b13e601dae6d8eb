// Package search executes list, facet, and range queries against the
// projected document index.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/winthrop-cdh/catalog/internal/db"
	"github.com/winthrop-cdh/catalog/internal/domain"
	domsearch "github.com/winthrop-cdh/catalog/internal/domain/search"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	FacetCounts(ctx context.Context, index, query, field string, limit int) ([]db.FacetCount, error)
	RangeCounts(ctx context.Context, index, query, field string, lower, upper, gap int) ([]db.RangeBucket, error)
	NumericBounds(ctx context.Context, index, field string) (*db.Bounds, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// List runs a paginated query and returns the total hit count plus one
// field map per hit. The stable document id is added under "id". An
// empty sortBy keeps native score order.
func (r *Repo) List(
	ctx context.Context, query, sortBy string, sortDesc bool,
	offset, limit int, returnFields []string,
) (int, []map[string]string, error) {
	q := &db.ListQuery{
		IndexName:    domain.DocIndexName,
		Query:        query,
		SortBy:       sortBy,
		SortDesc:     sortDesc,
		Offset:       offset,
		Limit:        limit,
		ReturnFields: returnFields,
	}
	sr, err := r.store.Search(ctx, q)
	if err != nil {
		return 0, nil, mapErr("search list", err)
	}
	if sr == nil {
		return 0, nil, nil
	}
	rows := make([]map[string]string, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		row := make(map[string]string, len(entry.Fields)+1)
		for k, v := range entry.Fields {
			row[k] = v
		}
		row["id"] = strings.TrimPrefix(entry.Key, domain.DocKeyPrefix)
		rows = append(rows, row)
	}
	return sr.Total, rows, nil
}

// Count returns the number of documents matching a query.
func (r *Repo) Count(ctx context.Context, query string) (int, error) {
	n, err := r.store.SearchCount(ctx, domain.DocIndexName, query)
	if err != nil {
		return 0, mapErr("search count", err)
	}
	return n, nil
}

// Facet returns per-value document counts for a tag field, ordered by
// value.
func (r *Repo) Facet(ctx context.Context, query, field string, limit int) ([]domsearch.FacetCount, error) {
	counts, err := r.store.FacetCounts(ctx, domain.DocIndexName, query, field, limit)
	if err != nil {
		return nil, mapErr("facet "+field, err)
	}
	out := make([]domsearch.FacetCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, domsearch.FacetCount{Value: c.Value, Count: c.Count})
	}
	return out, nil
}

// YearRange returns the publication year histogram for a query over
// [lower, upper) in steps of gap. Bucket ends are provisional; the
// caller clamps the final bucket to the true maximum.
func (r *Repo) YearRange(ctx context.Context, query string, lower, upper, gap int) ([]domsearch.YearBucket, error) {
	buckets, err := r.store.RangeCounts(ctx, domain.DocIndexName, query, domsearch.YearField, lower, upper, gap)
	if err != nil {
		return nil, mapErr("year range", err)
	}
	out := make([]domsearch.YearBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, domsearch.YearBucket{Start: b.Start, End: b.Start + gap - 1, Count: b.Count})
	}
	return out, nil
}

// YearBounds returns the minimum and maximum publication year across
// the whole index. ok is false when the index holds no dated documents.
func (r *Repo) YearBounds(ctx context.Context) (minYear, maxYear int, ok bool, err error) {
	bounds, err := r.store.NumericBounds(ctx, domain.DocIndexName, domsearch.YearField)
	if err != nil {
		return 0, 0, false, fmt.Errorf("year bounds: %w", err)
	}
	if bounds == nil {
		return 0, 0, false, nil
	}
	return int(bounds.Min), int(bounds.Max), true, nil
}

// mapErr translates driver-level parse failures into the domain parse
// error so callers can distinguish bad input from backend trouble.
func mapErr(op string, err error) error {
	if errors.Is(err, db.ErrQueryParse) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrQueryParse, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
