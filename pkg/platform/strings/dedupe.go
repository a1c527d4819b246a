// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	return dedupe(values, func(s string) string { return s })
}

// DedupeAndTrimUpper is like DedupeAndTrim but also uppercases each element.
// Credential type names are compared this way.
//
// Example:
//
//	DedupeAndTrimUpper([]string{" employment", "EMPLOYMENT", "cex_history"})
//	// Returns: []string{"EMPLOYMENT", "CEX_HISTORY"}
func DedupeAndTrimUpper(values []string) []string {
	return dedupe(values, strings.ToUpper)
}

func dedupe(values []string, canon func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := canon(strings.TrimSpace(v))
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
