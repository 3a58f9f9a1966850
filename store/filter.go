// ABOUTME: Client-side filtering and pagination over store contents
// ABOUTME: Used by list views that narrow an already-fetched page
package store

import (
	"strings"

	"github.com/harperreed/agentdash/models"
)

// Filter returns the items for which keep is true, preserving order.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// MatchesQuery reports whether any field contains query, case-insensitively.
// An empty query matches everything.
func MatchesQuery(query string, fields ...string) bool {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// Paginate returns page (1-based) of items. Out-of-range pages are empty.
func Paginate[T any](items []T, page, perPage int) ([]T, models.Pagination) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	p := models.Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}

	start := (page - 1) * perPage
	if start >= total {
		return []T{}, p
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return append(make([]T, 0, end-start), items[start:end]...), p
}
