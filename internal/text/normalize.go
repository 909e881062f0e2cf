// Package text holds the canonicalisation and marker helpers shared by every
// analysis stage. All downstream stages operate on the output of Normalize.
package text

import (
	"strings"
	"unicode"
)

const (
	byteOrderMark    = "\ufeff"
	nonBreakingSpace = "\u00a0"
)

// Normalize strips byte-order marks, turns non-breaking spaces into spaces and
// collapses every whitespace run into a single ASCII space, trimming both ends.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, byteOrderMark, "")
	s = strings.ReplaceAll(s, nonBreakingSpace, " ")
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// isSpace also treats the ASCII information separators (FS, GS, RS, US) as
// whitespace, which unicode.IsSpace does not.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
