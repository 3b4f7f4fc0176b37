// Package util provides small string helpers shared by the command parsers.
package util

import "strings"

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// SplitArray splits a bracketed, comma separated list such as "[1, 2, 3]"
// into its trimmed, unquoted elements. ok is false when s is not bracketed.
func SplitArray(s string) (elems []string, ok bool) {
	s = strings.TrimSpace(TrimQuotes(strings.TrimSpace(s)))
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, false
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []string{}, true
	}
	parts := strings.Split(inner, ",")
	for i, p := range parts {
		parts[i] = TrimQuotes(strings.TrimSpace(p))
	}
	return parts, true
}
