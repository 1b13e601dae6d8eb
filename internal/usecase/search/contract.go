package search

import (
	"context"

	domsearch "github.com/winthrop-cdh/catalog/internal/domain/search"
)

// Repository defines the storage contract for book search.
type Repository interface {
	List(
		ctx context.Context, query, sortBy string, sortDesc bool,
		offset, limit int, returnFields []string,
	) (int, []map[string]string, error)

	Count(ctx context.Context, query string) (int, error)

	Facet(ctx context.Context, query, field string, limit int) ([]domsearch.FacetCount, error)

	YearRange(ctx context.Context, query string, lower, upper, gap int) ([]domsearch.YearBucket, error)

	// YearBounds returns the min and max publication year across the
	// index; ok is false when no dated documents exist.
	YearBounds(ctx context.Context) (minYear, maxYear int, ok bool, err error)
}
