package valueobject

import (
	"strings"
	"unicode/utf16"
)

// trimControl strips leading and trailing runes up to and including U+0020.
// Unicode spaces such as U+00A0 are kept.
func trimControl(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
}

// Length counts s in UTF-16 code units, so a rune outside the BMP counts
// as two.
func Length(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
