// Package feed turns RSS and Atom health-news feeds into articles for analysis.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/ppiankov/healthlens/internal/model"
	"github.com/ppiankov/healthlens/internal/text"
)

const maxFeedBytes = 10 * 1024 * 1024

var errFeedFetchFailed = errors.New("feed fetch failed")

// Reader fetches and parses feeds
type Reader struct {
	parser     *gofeed.Parser
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// NewReader creates a feed reader. A nil transport uses http.DefaultTransport.
func NewReader(timeout time.Duration, userAgent string, transport http.RoundTripper, logger zerolog.Logger) *Reader {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Reader{
		parser: gofeed.NewParser(),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Read fetches feedURL and converts its items into articles
func (r *Reader) Read(ctx context.Context, feedURL string) ([]model.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.5")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errFeedFetchFailed, resp.StatusCode)
	}

	return r.Parse(io.LimitReader(resp.Body, maxFeedBytes))
}

// Parse converts every usable item of an RSS/Atom/JSON feed into an article.
// Items without any text are skipped; an unusable link is dropped from its item.
func (r *Reader) Parse(in io.Reader) ([]model.Article, error) {
	feed, err := r.parser.Parse(in)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := make([]model.Article, 0, len(feed.Items))
	for i, item := range feed.Items {
		article, ok := r.itemArticle(item)
		if !ok {
			r.logger.Debug().Int("item", i).Str("title", item.Title).Msg("skipping feed item without text")
			continue
		}
		articles = append(articles, article)
	}

	r.logger.Debug().Str("feed", feed.Title).Int("items", len(feed.Items)).Int("articles", len(articles)).Msg("feed parsed")
	return articles, nil
}

func (r *Reader) itemArticle(item *gofeed.Item) (model.Article, bool) {
	body := text.ExtractTextBlocks(item.Content)
	if body == "" {
		body = text.ExtractTextBlocks(item.Description)
	}
	if body == "" {
		return model.Article{}, false
	}

	article, err := model.NewArticle(item.Title, body, item.Link, "")
	if err != nil && item.Link != "" {
		r.logger.Warn().Err(err).Str("link", item.Link).Msg("dropping unusable feed item link")
		article, err = model.NewArticle(item.Title, body, "", "")
	}
	if err != nil {
		return model.Article{}, false
	}

	switch {
	case item.PublishedParsed != nil:
		published := item.PublishedParsed.UTC()
		article.Published = &published
	case item.UpdatedParsed != nil:
		updated := item.UpdatedParsed.UTC()
		article.Published = &updated
	}

	return article, true
}
