// Package fuzzy ranks records against a free-text query with approximate
// string matching over a set of indexed fields.
package fuzzy

import (
	"sort"
	"strings"
)

type Result[T any] struct {
	Item  T
	Score float64
	// Index is the record's position in the searched slice.
	Index int
}

// Search scores every record over the fields returned by keys. A record
// matches when at least one field scores within the threshold; its score is
// the mean over matching fields. An empty query matches everything unscored.
func Search[T any](items []T, query string, keys func(T) []string, opts Options) []Result[T] {
	query = strings.TrimSpace(query)

	results := make([]Result[T], 0, len(items))
	for i, item := range items {
		if query == "" {
			results = append(results, Result[T]{Item: item, Index: i})
			continue
		}

		total, hits := 0.0, 0
		for _, field := range keys(item) {
			if field == "" {
				continue
			}
			if s, ok := Match(field, query, opts); ok {
				total += s
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		results = append(results, Result[T]{Item: item, Score: total / float64(hits), Index: i})
	}

	if opts.Sort && query != "" {
		sort.SliceStable(results, func(a, b int) bool {
			return results[a].Score < results[b].Score
		})
	}

	return results
}
