// Package validate checks URL citations for reachability, freshness and
// source authority. Results are informational and never feed the risk score.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/healthlens/internal/cache"
	"github.com/ppiankov/healthlens/internal/extract"
	"github.com/ppiankov/healthlens/internal/model"
	"github.com/ppiankov/healthlens/internal/util"
)

const (
	validateMaxRetries = 3
	defaultUserAgent   = "healthlens/0.1 (+https://github.com/ppiankov/healthlens)"
	checkCacheTTL      = 6 * time.Hour
)

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// Validator checks URL citations concurrently
type Validator struct {
	httpClient *http.Client
	maxWorkers int
	authority  *AuthorityClassifier
	userAgent  string
	cache      cache.Cache
	logger     zerolog.Logger
}

// NewValidator creates a new validator
func NewValidator(timeout time.Duration, maxWorkers int, authConfig *model.AuthorityConfig, httpProxy, httpsProxy, noProxy string) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 20
	}

	return &Validator{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: util.NewTransport(httpProxy, httpsProxy, noProxy),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		authority:  NewAuthorityClassifier(authConfig),
		userAgent:  defaultUserAgent,
		cache:      cache.Noop{},
		logger:     zerolog.Nop(),
	}
}

// NewValidatorFromConfig builds a validator from the application config
func NewValidatorFromConfig(cfg *model.Config, c cache.Cache, logger zerolog.Logger) *Validator {
	v := NewValidator(cfg.Validation.Timeout, cfg.Concurrency.ValidationWorkers, &cfg.Authority,
		cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	if cfg.HTTP.UserAgent != "" {
		v.userAgent = cfg.HTTP.UserAgent
	}
	if c != nil {
		v.cache = c
	}
	v.logger = logger
	return v
}

// Validate checks every distinct URL citation. Quoted-span citations are
// skipped. Results follow the order of first appearance in citations.
func (v *Validator) Validate(ctx context.Context, citations []string) []model.CitationCheck {
	urls := distinctURLs(citations)
	results := make([]model.CitationCheck, len(urls))
	if len(urls) == 0 {
		return results
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.CitationCheck{
					URL:       rawURL,
					Authority: v.authority.Classify(rawURL),
					Error:     "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.checkCached(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()

	dead := 0
	for _, r := range results {
		if r.IsDead {
			dead++
		}
	}
	v.logger.Debug().Int("checked", len(results)).Int("dead", dead).Msg("citations validated")

	return results
}

func (v *Validator) checkCached(ctx context.Context, rawURL string) model.CitationCheck {
	key := cache.CacheKey(cache.NamespaceCitation, rawURL)

	var cached model.CitationCheck
	if cache.GetJSON(v.cache, key, &cached) {
		return cached
	}

	result := v.checkWithRetry(ctx, rawURL)

	// Only settled results are cached
	if result.Error == "" && !isRetryable(result) {
		if err := cache.SetJSON(v.cache, key, result, checkCacheTTL); err != nil {
			v.logger.Warn().Err(err).Str("url", rawURL).Msg("failed to cache citation check")
		}
	}
	return result
}

// check performs one HEAD request, falling back to GET when HEAD is refused
func (v *Validator) check(ctx context.Context, rawURL string) model.CitationCheck {
	result := model.CitationCheck{
		URL:       rawURL,
		Authority: v.authority.Classify(rawURL),
	}

	resp, err := v.do(ctx, http.MethodHead, rawURL)
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		_ = resp.Body.Close()
		resp, err = v.do(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		result.Error = err.Error()
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.IsAccessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.IsDead = true
	}

	if final := resp.Request.URL.String(); final != rawURL {
		result.RedirectURL = final
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := http.ParseTime(lastModified); err == nil {
			result.LastModified = &t

			ageDays := int(time.Since(t).Hours() / 24)
			result.Age = &ageDays
			result.IsStale = ageDays > 365
			result.IsVeryStale = ageDays > 365*3
		}
	}

	return result
}

func (v *Validator) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// checkWithRetry retries transient failures with exponential backoff
func (v *Validator) checkWithRetry(ctx context.Context, rawURL string) model.CitationCheck {
	var result model.CitationCheck
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.check(ctx, rawURL)
		if !isRetryable(result) || ctx.Err() != nil {
			return result
		}
		if attempt < validateMaxRetries-1 {
			validateSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

// isRetryable reports whether a check failed transiently (5xx, 429, network)
func isRetryable(result model.CitationCheck) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.Error == "" {
		return false
	}

	s := strings.ToLower(result.Error)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

func distinctURLs(citations []string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, c := range citations {
		if !extract.IsURL(c) || seen[c] {
			continue
		}
		seen[c] = true
		urls = append(urls, c)
	}
	return urls
}
