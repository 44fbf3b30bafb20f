// Package strings holds small list helpers shared by config loading and
// catalog listings.
package strings

import (
	"slices"
	"strings"
)

// SplitList splits a comma-separated value, trims each entry and drops
// blanks and repeats. Order is preserved.
func SplitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(v, ","))
}

// DedupeAndTrim removes duplicates and blank entries, trimming each one.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// SortedDistinct is DedupeAndTrim followed by a lexical sort. Never nil.
func SortedDistinct(values []string) []string {
	out := DedupeAndTrim(values)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}
