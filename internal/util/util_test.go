package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func robotsServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			return
		}
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestRobotsChecker_Check(t *testing.T) {
	const rules = "User-agent: *\nDisallow: /private/\nCrawl-delay: 2\n"
	server, hits := robotsServer(t, http.StatusOK, rules)
	checker := NewRobotsChecker("healthlens-test", 5*time.Second, nil)

	tests := []struct {
		path    string
		allowed bool
	}{
		{"/health/detox-tea", true},
		{"", true},
		{"/private/draft", false},
		{"/private", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d, err := checker.Check(context.Background(), server.URL+tt.path)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if d.Allowed != tt.allowed {
				t.Errorf("Expected allowed=%v, got %v", tt.allowed, d.Allowed)
			}
			if d.CrawlDelay != 2*time.Second {
				t.Errorf("Expected 2s crawl delay, got %v", d.CrawlDelay)
			}
		})
	}

	if hits.Load() != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", hits.Load())
	}
	if checker.Origins() != 1 {
		t.Errorf("Expected one cached origin, got %d", checker.Origins())
	}
}

func TestRobotsChecker_StatusHandling(t *testing.T) {
	tests := []struct {
		status  int
		allowed bool
	}{
		{http.StatusNotFound, true},
		{http.StatusForbidden, true},
		{http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server, _ := robotsServer(t, tt.status, "")
			d, err := NewRobotsChecker("healthlens-test", 5*time.Second, nil).Check(context.Background(), server.URL+"/a")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if d.Allowed != tt.allowed {
				t.Errorf("Expected allowed=%v, got %v", tt.allowed, d.Allowed)
			}
		})
	}
}

func TestRobotsChecker_AllowsWithoutRules(t *testing.T) {
	checker := NewRobotsChecker("healthlens-test", time.Second, nil)

	for _, raw := range []string{"http://127.0.0.1:1/page", "file:///tmp/article.html"} {
		d, err := checker.Check(context.Background(), raw)
		if err != nil || !d.Allowed {
			t.Errorf("%s: expected allow, got %+v err=%v", raw, d, err)
		}
	}
	if checker.Origins() != 0 {
		t.Errorf("Expected nothing cached, got %d", checker.Origins())
	}

	if _, err := checker.Check(context.Background(), "http://[::1"); err == nil {
		t.Error("Expected error for malformed URL")
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:8080", "http://secure-proxy:8443", "localhost,.internal.org")

	tests := []struct {
		url      string
		expected string
	}{
		{"http://example.com/a", "http://proxy:8080"},
		{"https://example.com/a", "http://secure-proxy:8443"},
		{"http://localhost:3000/a", ""},
		{"https://api.internal.org/a", ""},
		{"https://internal.org/a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			u, _ := url.Parse(tt.url)
			got, err := proxy(&http.Request{URL: u})
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if tt.expected == "" {
				if got != nil {
					t.Errorf("Expected bypass, got %v", got)
				}
				return
			}
			if got == nil || got.String() != tt.expected {
				t.Errorf("Expected %s, got %v", tt.expected, got)
			}
		})
	}
}
