package helpers

import (
	"regexp"
	"strings"
)

var whitespaceRE = regexp.MustCompile(`[\s\p{Zs}]+`)

// CleanText trims s and collapses internal whitespace runs, including
// non-breaking spaces, to a single space.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return whitespaceRE.ReplaceAllString(s, " ")
}

// SplitLines splits s on newlines and returns the trimmed non-empty lines.
func SplitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Dedupe drops repeated values, keeping first occurrences in order.
func Dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
