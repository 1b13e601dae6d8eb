package db

// ListQuery is the input for a paginated FT.SEARCH.
type ListQuery struct {
	IndexName    string
	Query        string // RediSearch query expression; "*" matches all
	SortBy       string // sortable field name; empty keeps score order
	SortDesc     bool
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// FacetCount is one distinct field value with its document count.
type FacetCount struct {
	Value string
	Count int
}

// RangeBucket is one numeric histogram slice: documents with
// field values in [Start, Start+gap).
type RangeBucket struct {
	Start int
	Count int
}

// Bounds holds the minimum and maximum of a numeric field across an index.
type Bounds struct {
	Min float64
	Max float64
}
