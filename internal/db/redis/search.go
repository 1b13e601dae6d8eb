package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/winthrop-cdh/catalog/internal/db"
)

// Search performs a paginated FT.SEARCH with optional SORTBY.
func (s *Store) Search(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	query := q.Query
	if query == "" {
		query = "*"
	}

	args := []string{q.IndexName, query}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	if q.SortBy != "" {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, searchError(db.OpSearch, err)
	}

	return parseSearchResult(raw)
}

// SearchCount returns document count via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	if query == "" {
		query = "*"
	}
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0", "DIALECT", "2").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, searchError(db.OpSearch, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// FacetCounts groups matching documents by distinct values of a TAG field
// via FT.AGGREGATE, returning per-value counts ordered by value.
func (s *Store) FacetCounts(
	ctx context.Context, index, query, field string, limit int,
) ([]db.FacetCount, error) {
	if query == "" {
		query = "*"
	}
	if limit <= 0 {
		limit = 100
	}

	args := []string{
		index, query,
		"GROUPBY", "1", "@" + field,
		"REDUCE", "COUNT", "0", "AS", "count",
		"SORTBY", "2", "@" + field, "ASC",
		"LIMIT", "0", strconv.Itoa(limit),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, searchError(db.OpAggregate, err)
	}

	rows, err := parseAggregateRows(raw)
	if err != nil {
		return nil, err
	}

	counts := make([]db.FacetCount, 0, len(rows))
	for _, row := range rows {
		value, ok := row[field]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(row["count"])
		if err != nil {
			continue
		}
		counts = append(counts, db.FacetCount{Value: value, Count: n})
	}
	return counts, nil
}

// RangeCounts computes a histogram over a NUMERIC field: documents are
// bucketed into slices of the given gap starting at lower. The query is
// expected to already restrict the field to [lower, upper).
func (s *Store) RangeCounts(
	ctx context.Context, index, query, field string, lower, upper, gap int,
) ([]db.RangeBucket, error) {
	if query == "" {
		query = "*"
	}
	if gap <= 0 {
		gap = 1
	}

	bucketExpr := fmt.Sprintf("floor((@%s - %d)/%d)*%d + %d", field, lower, gap, gap, lower)
	maxBuckets := (upper-lower)/gap + 1
	if maxBuckets <= 0 {
		maxBuckets = 1
	}

	args := []string{
		index, query,
		"APPLY", bucketExpr, "AS", "bucket",
		"GROUPBY", "1", "@bucket",
		"REDUCE", "COUNT", "0", "AS", "count",
		"SORTBY", "2", "@bucket", "ASC",
		"LIMIT", "0", strconv.Itoa(maxBuckets),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, searchError(db.OpAggregate, err)
	}

	rows, err := parseAggregateRows(raw)
	if err != nil {
		return nil, err
	}

	buckets := make([]db.RangeBucket, 0, len(rows))
	for _, row := range rows {
		start, err := strconv.ParseFloat(row["bucket"], 64)
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(row["count"])
		if err != nil {
			continue
		}
		buckets = append(buckets, db.RangeBucket{Start: int(start), Count: n})
	}
	return buckets, nil
}

// NumericBounds returns the minimum and maximum of a NUMERIC field across
// the whole index. Returns nil when the index holds no documents.
func (s *Store) NumericBounds(ctx context.Context, index, field string) (*db.Bounds, error) {
	args := []string{
		index, "*",
		"GROUPBY", "0",
		"REDUCE", "MIN", "1", "@" + field, "AS", "min",
		"REDUCE", "MAX", "1", "@" + field, "AS", "max",
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, searchError(db.OpAggregate, err)
	}

	rows, err := parseAggregateRows(raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	minVal, errMin := strconv.ParseFloat(rows[0]["min"], 64)
	maxVal, errMax := strconv.ParseFloat(rows[0]["max"], 64)
	if errMin != nil || errMax != nil {
		// empty index: MIN/MAX reduce to non-numeric placeholders
		return nil, nil
	}
	return &db.Bounds{Min: minVal, Max: maxVal}, nil
}

// searchError classifies an FT command failure: query syntax problems map
// to ErrQueryParse so callers can distinguish them from backend failures.
func searchError(op string, err error) error {
	if isRedisErr(err, "syntax error") {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %s", db.ErrQueryParse, err.Error())}
	}
	return &db.Error{Op: op, Err: err}
}

// parseSearchResult parses an FT.SEARCH RESP2 reply without scores:
// [total, key1, fields1, key2, fields2, ...].
func parseSearchResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{Total: 0}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// parseAggregateRows parses an FT.AGGREGATE RESP2 reply:
// [total, [k, v, k, v, ...], [k, v, ...], ...].
func parseAggregateRows(raw []rueidis.RedisMessage) ([]map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	if _, err := raw[0].AsInt64(); err != nil {
		return nil, fmt.Errorf("parse aggregate total: %w", err)
	}

	rows := make([]map[string]string, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		pairs, err := raw[i].ToArray()
		if err != nil {
			continue
		}
		rows = append(rows, parseFieldPairs(pairs))
	}
	return rows, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
