package search

// FacetCount is one facet value with its record count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// YearBucket is one publication year histogram slice. End is inclusive
// and the final bucket is clamped to the true maximum year.
type YearBucket struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Count int `json:"count"`
}

// Facets holds per-field candidate values and the year histogram.
type Facets struct {
	Fields map[string][]FacetCount `json:"fields"`
	Years  []YearBucket            `json:"years"`
}

// Page is one page of search results plus facets. Error carries the
// user-facing annotation when the backend failed and the result set
// degraded to empty.
type Page struct {
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Sort     Sort                `json:"sort"`
	Rows     []map[string]string `json:"rows"`
	Facets   Facets              `json:"facets"`
	Error    string              `json:"error,omitempty"`

	// RelevanceDisabled tells clients to render the relevance sort
	// option greyed out because there is no keyword to score against.
	RelevanceDisabled bool `json:"relevance_disabled"`
}
