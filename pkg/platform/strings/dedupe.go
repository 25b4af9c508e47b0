// Package strings holds small string-slice helpers shared across the case
// lifecycle, currently the normalization applied to caller-supplied reason
// code lists.
package strings

import "strings"

// DedupeAndTrim trims whitespace from each element and removes blanks and
// repeats, preserving first-seen order. Rejection reasons pass through this so
// a resubmitted list never double-counts a code.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
