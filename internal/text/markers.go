package text

import "strings"

// Marker sets are matched as case-insensitive substrings, not whole words.
var (
	clickbaitTerms = []string{
		"miracle",
		"you won't believe",
		"cure-all",
		"secret revealed",
		"instantly",
		"breakthrough",
		"guaranteed",
		"shocking",
	}

	absoluteTerms = []string{
		"always",
		"never",
		"guaranteed",
		"proves",
		"prevents",
		"cures",
		"works for everyone",
		"zero risk",
	}
)

// IsClickbait reports whether s contains any clickbait term
func IsClickbait(s string) bool {
	return containsAny(strings.ToLower(s), clickbaitTerms)
}

// IsAbsolute reports whether s contains any absolute-language term
func IsAbsolute(s string) bool {
	return containsAny(strings.ToLower(s), absoluteTerms)
}

// ClickbaitTerms returns a copy of the clickbait marker set
func ClickbaitTerms() []string {
	return append([]string(nil), clickbaitTerms...)
}

// AbsoluteTerms returns a copy of the absolute-language marker set
func AbsoluteTerms() []string {
	return append([]string(nil), absoluteTerms...)
}

// MatchedTerms returns the terms from set found in s, in set order
func MatchedTerms(s string, set []string) []string {
	lower := strings.ToLower(s)
	var found []string
	for _, term := range set {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

func containsAny(lower string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
