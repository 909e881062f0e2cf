package model

import (
	"strings"
	"time"

	apperrors "github.com/ppiankov/healthlens/internal/errors"
	"github.com/ppiankov/healthlens/internal/text"
)

// Article is a health-news article supplied for analysis
type Article struct {
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	SourceURL string     `json:"source_url,omitempty"`
	Domain    string     `json:"domain,omitempty"`
	Published *time.Time `json:"published,omitempty"`
}

// NewArticle validates the raw fields of an article.
// Text must be non-empty; a source URL, when given, must be http(s) or file.
// An unparseable publication date is dropped rather than rejected.
func NewArticle(title, body, sourceURL, published string) (Article, error) {
	trimmed, err := text.ValidateNonEmpty(body, "text")
	if err != nil {
		return Article{}, err
	}

	a := Article{
		Title:     strings.TrimSpace(title),
		Text:      trimmed,
		SourceURL: strings.TrimSpace(sourceURL),
		Published: text.ParsePublished(published),
	}

	if a.SourceURL != "" {
		domain, err := text.ExtractDomain(a.SourceURL)
		if err != nil {
			return Article{}, err
		}
		a.Domain = domain
	}

	return a, nil
}

// Subject returns a display name for the article
func (a Article) Subject() string {
	switch {
	case a.Title != "":
		return a.Title
	case a.Domain != "":
		return a.Domain
	default:
		return "untitled article"
	}
}

// Validate checks an Article built as a literal rather than through NewArticle
func (a Article) Validate() error {
	if strings.TrimSpace(a.Text) == "" {
		return apperrors.InvalidValue("article", "text cannot be empty")
	}
	return nil
}
