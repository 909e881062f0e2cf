package glossary

import (
	"strings"

	"github.com/ppiankov/healthlens/internal/model"
)

// Compare checks text against entries in order. A term that occurs in text
// (case-insensitive substring) while none of its phrases do yields one
// mismatch record. A term with no phrases always mismatches when present.
//
// Compare never mutates entries and returns a non-nil slice.
func Compare(text string, entries []Entry) []model.Mismatch {
	lower := strings.ToLower(text)
	mismatches := make([]model.Mismatch, 0)

	for _, e := range entries {
		if !strings.Contains(lower, strings.ToLower(e.Term)) {
			continue
		}
		if hasPhrase(lower, e.Phrases) {
			continue
		}
		mismatches = append(mismatches, model.NewMismatch(e.Term))
	}

	return mismatches
}

func hasPhrase(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
