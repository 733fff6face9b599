package mastertable

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter keeps the rows where any of fields(row) contains search,
// case-insensitively. An empty search returns rows unchanged.
func Filter[T any](rows []T, search string, fields func(T) []string) []T {
	if search == "" {
		return rows
	}
	fold := cases.Fold()
	needle := fold.String(search)
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		for _, f := range fields(row) {
			if strings.Contains(fold.String(f), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Fields returns an extractor reading keys through Row.Field.
func Fields[T Row](keys ...string) func(T) []string {
	return func(row T) []string {
		out := make([]string, len(keys))
		for i, k := range keys {
			out[i] = row.Field(k)
		}
		return out
	}
}
