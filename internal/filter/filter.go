// Package filter implements the client-side free-text + status-facet
// projection used by every list screen. It is stateless and safe to run
// on every keystroke.
package filter

import "strings"

// FacetAll is the status facet value that bypasses status filtering.
const FacetAll = "all"

// Item is anything a list screen can filter: appointments, jobs, invoices.
type Item interface {
	// SearchFields returns the fields the free-text query matches against.
	SearchFields() []string

	// StatusCode returns the item's status for facet equality.
	StatusCode() string
}

// Apply returns the items matching the query and facet, preserving input
// order. The query matches case-insensitively as a substring of any
// search field (OR semantics); an empty query matches everything. A facet
// of FacetAll (or empty) skips status filtering; any other value requires
// exact status-code equality. The input slice is never mutated.
func Apply[T Item](items []T, query, facet string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(items))

	for _, item := range items {
		if facet != "" && facet != FacetAll && item.StatusCode() != facet {
			continue
		}
		if query != "" && !matchesQuery(item, query) {
			continue
		}
		out = append(out, item)
	}

	return out
}

func matchesQuery(item Item, lowerQuery string) bool {
	for _, field := range item.SearchFields() {
		if strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}
