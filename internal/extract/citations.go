package extract

import "regexp"

var (
	urlPattern   = regexp.MustCompile(`(?i)https?://[^\s\p{Z})]+`)
	quotePattern = regexp.MustCompile(`"([^"]{3,})"`)
	urlPrefix    = regexp.MustCompile(`(?i)^https?://`)
)

// CitationExtractor pulls candidate evidence strings out of cleaned text
type CitationExtractor struct{}

// NewCitationExtractor creates a new citation extractor
func NewCitationExtractor() *CitationExtractor {
	return &CitationExtractor{}
}

// Extract returns every URL in scan order followed by every double-quoted span
// of three or more characters in scan order. URLs always precede quotes, even
// when a quote appears earlier in the text. Duplicates are kept.
func (e *CitationExtractor) Extract(cleaned string) []string {
	citations := []string{}

	citations = append(citations, urlPattern.FindAllString(cleaned, -1)...)

	for _, m := range quotePattern.FindAllStringSubmatch(cleaned, -1) {
		citations = append(citations, m[1])
	}

	return citations
}

// IsURL reports whether a citation is a URL rather than a quoted span
func IsURL(citation string) bool {
	return urlPrefix.MatchString(citation)
}
