package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the ends, collapses runs of whitespace to one
// space and drops control characters. Room names and display names go
// through this before validation so '  Board   Room ' and 'Board Room'
// persist identically.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		case unicode.IsControl(r):
			// dropped
		default:
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(result.String())
}

func NormalizeRoomName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeEmail lowercases so lookups and the unique index agree on case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
