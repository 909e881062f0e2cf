package text

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	apperrors "github.com/ppiankov/healthlens/internal/errors"
)

var domainPattern = regexp.MustCompile(`(?i)^(?:https?|file)://([^/]+)`)

// ValidateNonEmpty returns value trimmed, or an error if nothing is left
func ValidateNonEmpty(value, name string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperrors.InvalidValue("validate", "%s cannot be empty", name)
	}
	return trimmed, nil
}

// ExtractDomain returns the lower-cased host of an http, https or file URL,
// without userinfo or port.
func ExtractDomain(rawURL string) (string, error) {
	m := domainPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", apperrors.InvalidValue("domain", "invalid URL: %s", rawURL)
	}

	host := m[1]
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(host), nil
}

// ParsePublished parses a publication date leniently.
// Empty or unparseable input yields nil.
func ParsePublished(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}

// Highlight returns the texts of corpus that contain query (case-insensitive),
// with every occurrence wrapped in ** markers. Matched casing is preserved.
func Highlight(query string, corpus []string) ([]string, error) {
	if query == "" {
		return nil, apperrors.InvalidValue("search", "query cannot be empty")
	}

	pattern := regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(query) + `)`)

	results := []string{}
	for _, doc := range corpus {
		if pattern.MatchString(doc) {
			results = append(results, pattern.ReplaceAllString(doc, "**${1}**"))
		}
	}
	return results, nil
}
