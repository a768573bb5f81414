package model

import "time"

// SearchReport is the aggregate outcome of one asset-search run across
// every configured backend.
type SearchReport struct {
	// Query is the unified query as the user typed it.
	Query string `json:"query"`

	// Results lists per-backend outcomes in dispatch order.
	Results []*BackendResult `json:"results"`

	// Entries is the merged, deduplicated view across all successful
	// backends.
	Entries []Entry `json:"entries,omitempty"`

	// StartedAt and FinishedAt bound the search run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewSearchReport assembles the final report from per-backend results,
// merging their entries into one deduplicated list.
func NewSearchReport(query string, results []*BackendResult, startedAt time.Time) *SearchReport {
	return &SearchReport{
		Query:      query,
		Results:    results,
		Entries:    MergeEntries(results),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
}

// Succeeded counts the backends that completed their query.
func (r *SearchReport) Succeeded() int {
	var n int
	for _, res := range r.Results {
		if res != nil && res.Success {
			n++
		}
	}
	return n
}
