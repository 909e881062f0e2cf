// Package util holds the HTTP plumbing shared by the fetcher and the
// citation validator.
package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

const (
	maxRobotsBytes = 512 * 1024
	robotsTTL      = 24 * time.Hour
)

// RobotsDecision is the robots.txt verdict for one URL
type RobotsDecision struct {
	Allowed    bool
	CrawlDelay time.Duration
}

var allowAll = RobotsDecision{Allowed: true}

// RobotsChecker answers whether a URL may be fetched under its site's
// robots.txt. Rules are kept per origin for a day.
type RobotsChecker struct {
	rules      *gocache.Cache
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a new robots.txt checker. A nil transport uses
// http.DefaultTransport.
func NewRobotsChecker(userAgent string, timeout time.Duration, transport http.RoundTripper) *RobotsChecker {
	return &RobotsChecker{
		rules:      gocache.New(robotsTTL, time.Hour),
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		userAgent:  userAgent,
	}
}

// Check returns the decision for rawURL. Non-HTTP URLs and sites whose
// robots.txt cannot be fetched are allowed; a malformed URL is an error.
func (r *RobotsChecker) Check(ctx context.Context, rawURL string) (RobotsDecision, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return RobotsDecision{}, fmt.Errorf("parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return allowAll, nil
	}

	data, err := r.load(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return allowAll, nil
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	d := RobotsDecision{Allowed: data.TestAgent(target, r.userAgent)}
	if g := data.FindGroup(r.userAgent); g != nil {
		d.CrawlDelay = g.CrawlDelay
	}
	return d, nil
}

// load returns the parsed robots.txt of origin, fetching it on a miss.
// 4xx responses allow everything and 5xx responses disallow everything.
func (r *RobotsChecker) load(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	if v, ok := r.rules.Get(origin); ok {
		return v.(*robotstxt.RobotsData), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.rules.SetDefault(origin, data)
	return data, nil
}

// Origins returns how many sites have cached rules
func (r *RobotsChecker) Origins() int {
	return r.rules.ItemCount()
}
