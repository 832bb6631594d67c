package domain

import "strings"

// normalizeAnswer applies the case-insensitive, whitespace-trimmed
// comparison rule used by Question.IsCorrect (spec.md §3).
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
