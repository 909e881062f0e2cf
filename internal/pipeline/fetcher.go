package pipeline

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/ppiankov/healthlens/internal/cache"
	"github.com/ppiankov/healthlens/internal/model"
	"github.com/ppiankov/healthlens/internal/text"
	"github.com/ppiankov/healthlens/internal/util"
)

const maxFetchAttempts = 3

// fetchSleepFunc waits out a retry backoff; tests replace it to skip delays
var fetchSleepFunc = sleepContext

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-2xx HTTP response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status: " + e.Status
}

// Fetcher fetches article pages over HTTP
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	cache      cache.Cache
	cacheTTL   time.Duration
	robots     *util.RobotsChecker
	logger     zerolog.Logger
}

// FetcherOption configures optional Fetcher collaborators
type FetcherOption func(*Fetcher)

// WithCache serves repeated fetches of the same URL from c
func WithCache(c cache.Cache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithRobots checks robots.txt before each network fetch
func WithRobots(r *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) { f.robots = r }
}

// WithLogger sets the fetcher's logger
func WithLogger(l zerolog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecureTLS bool, httpProxy, httpsProxy, noProxy string, opts ...FetcherOption) *Fetcher {
	transport := util.NewTransport(httpProxy, httpsProxy, noProxy)
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		cache:     cache.Noop{},
		logger:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFetcherFromConfig builds a fetcher with cache and robots.txt support from cfg.
// A nil cache disables page caching.
func NewFetcherFromConfig(cfg *model.Config, c cache.Cache, logger zerolog.Logger) *Fetcher {
	opts := []FetcherOption{WithLogger(logger)}
	if c != nil {
		opts = append(opts, WithCache(c, cfg.Cache.DiskTTL))
	}
	if cfg.HTTP.RespectRobots {
		transport := util.NewTransport(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
		opts = append(opts, WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, transport)))
	}

	return NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, cfg.HTTP.InsecureTLS,
		cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy, opts...)
}

// FetchResult contains the fetched page and metadata
type FetchResult struct {
	HTML         string    `json:"html"`
	FinalURL     string    `json:"final_url"`
	StatusCode   int       `json:"status_code"`
	ContentType  string    `json:"content_type"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Fetch retrieves a page from the given URL in a single attempt
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		HTML:         string(body),
		FinalURL:     resp.Request.URL.String(),
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// FetchWithRetry fetches rawURL, retrying transient failures with exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error

	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			f.logger.Debug().Str("url", rawURL).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("retrying fetch")
			if err := fetchSleepFunc(ctx, backoff); err != nil {
				return nil, err
			}
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryableFetchError(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// FetchArticle fetches rawURL (honouring robots.txt and the cache) and turns
// the page into an Article with its visible text, title and publication date.
func (f *Fetcher) FetchArticle(ctx context.Context, rawURL string) (model.Article, error) {
	result, err := f.fetchCached(ctx, rawURL)
	if err != nil {
		return model.Article{}, err
	}

	title, body, published := parsePage(result.HTML)
	if published == "" {
		published = result.LastModified
	}
	if title == "" {
		title = extractSubject(result.FinalURL)
	}

	article, err := model.NewArticle(title, body, result.FinalURL, published)
	if err != nil {
		return model.Article{}, fmt.Errorf("%s: %w", rawURL, err)
	}
	return article, nil
}

func (f *Fetcher) fetchCached(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.CacheKey(cache.NamespacePage, rawURL)

	var cached FetchResult
	if cache.GetJSON(f.cache, key, &cached) {
		f.logger.Debug().Str("url", rawURL).Msg("page cache hit")
		return &cached, nil
	}

	if f.robots != nil {
		decision, err := f.robots.Check(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !decision.Allowed {
			f.logger.Warn().Str("url", rawURL).Msg("robots.txt disallows fetch")
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
	}

	result, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(f.cache, key, result, f.cacheTTL); err != nil {
		f.logger.Warn().Err(err).Str("url", rawURL).Msg("failed to cache page")
	}
	return result, nil
}

// CrawlDelay returns the robots.txt crawl delay for rawURL, or 0
func (f *Fetcher) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	if f.robots == nil {
		return 0
	}
	decision, _ := f.robots.Check(ctx, rawURL)
	return decision.CrawlDelay
}

// parsePage extracts the title, visible text and published date of a page.
// Plain-text bodies come back as-is (normalized) with no title.
func parsePage(body string) (title, visible, published string) {
	if !strings.Contains(body, "<") {
		return "", text.Normalize(body), ""
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", text.ExtractTextBlocks(body), ""
	}

	return text.Title(doc), text.Normalize(text.VisibleText(bodyNode(doc))), text.PublishedMeta(doc)
}

// bodyNode returns <body>, or doc itself when there is none
func bodyNode(doc *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if found == nil {
		return doc
	}
	return found
}

// isRetryableFetchError reports whether err is worth another attempt:
// 5xx and 429 responses and transport failures are, everything else is not.
func isRetryableFetchError(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}

	// Transport failures carry the request method as Op; malformed URLs carry "parse"
	var ue *url.Error
	return errors.As(err, &ue) && ue.Op != "parse"
}

// extractSubject derives a human-readable subject from the URL path
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	return last
}
