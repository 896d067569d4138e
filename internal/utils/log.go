package utils

import (
	"strings"
	"unicode/utf8"
)

// TruncateForLog turns a prompt or model reply into a one-line preview of at
// most limit runes. Whitespace runs, newlines included, collapse to one space.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	cut := 0
	for range limit {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
	}
	return s[:cut] + "..."
}
