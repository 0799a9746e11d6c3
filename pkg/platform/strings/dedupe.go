// Package strings holds list normalization shared by request validators.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops blanks and repeats, keeping the
// first occurrence's position. A nil or empty input yields an empty, non-nil
// slice so stored lists always encode as [].
//
//	DedupeAndTrim([]string{"  Oxygen ", "Stretcher", "Oxygen", ""})
//	// []string{"Oxygen", "Stretcher"}
func DedupeAndTrim(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// BoundedList normalizes values with DedupeAndTrim and reports false when more
// than limit entries remain.
func BoundedList(values []string, limit int) ([]string, bool) {
	out := DedupeAndTrim(values)
	return out, len(out) <= limit
}
