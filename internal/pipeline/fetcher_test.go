package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/healthlens/internal/cache"
	"github.com/ppiankov/healthlens/internal/util"
)

func noBackoff(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { fetchSleepFunc = orig })
}

// scriptedServer answers with statuses[i] on attempt i, then 200 with body
func scriptedServer(t *testing.T, body string, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(attempts.Add(1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &attempts
}

func TestFetchWithRetry(t *testing.T) {
	const page = "<html><body>Zinc shortens colds.</body></html>"

	tests := []struct {
		name         string
		statuses     []int
		wantErr      bool
		wantStatus   int
		wantAttempts int32
	}{
		{name: "first try", wantAttempts: 1},
		{name: "two 503s then success", statuses: []int{503, 503}, wantAttempts: 3},
		{name: "429 is retried", statuses: []int{429}, wantAttempts: 2},
		{name: "404 fails at once", statuses: []int{404}, wantErr: true, wantStatus: 404, wantAttempts: 1},
		{name: "403 fails at once", statuses: []int{403}, wantErr: true, wantStatus: 403, wantAttempts: 1},
		{name: "retries exhausted", statuses: []int{500, 502, 503, 504}, wantErr: true, wantStatus: 503, wantAttempts: maxFetchAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noBackoff(t)
			server, attempts := scriptedServer(t, page, tt.statuses...)

			fetcher := NewFetcher(5*time.Second, "healthlens-test", 1<<20, false, "", "", "")
			result, err := fetcher.FetchWithRetry(context.Background(), server.URL)

			if got := attempts.Load(); got != tt.wantAttempts {
				t.Errorf("Expected %d attempts, got %d", tt.wantAttempts, got)
			}
			if tt.wantErr {
				var se *StatusError
				if !errors.As(err, &se) {
					t.Fatalf("Expected StatusError, got %v", err)
				}
				if se.Code != tt.wantStatus {
					t.Errorf("Expected status %d, got %d", tt.wantStatus, se.Code)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if result.HTML != page || result.StatusCode != http.StatusOK {
				t.Errorf("Unexpected result: %d %q", result.StatusCode, result.HTML)
			}
		})
	}
}

func TestFetchWithRetry_CancelDuringBackoff(t *testing.T) {
	server, attempts := scriptedServer(t, "ok", 503, 503)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fetcher := NewFetcher(5*time.Second, "healthlens-test", 1<<20, false, "", "", "")
	start := time.Now()
	_, err := fetcher.FetchWithRetry(ctx, server.URL)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Expected backoff to stop at the deadline, took %v", elapsed)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got %d", got)
	}
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestStatusError_Message(t *testing.T) {
	err := &StatusError{Code: 404, Status: "404 Not Found"}
	if err.Error() != "unexpected status: 404 Not Found" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"500", &StatusError{Code: 500}, true},
		{"503 wrapped", fmt.Errorf("fetch page: %w", &StatusError{Code: 503}), true},
		{"429", &StatusError{Code: 429}, true},
		{"404", &StatusError{Code: 404}, false},
		{"401", &StatusError{Code: 401}, false},
		{"connection refused", fmt.Errorf("fetch: %w", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}), true},
		{"malformed URL", fmt.Errorf("create request: %w", &url.Error{Op: "parse", URL: "::", Err: errors.New("missing protocol scheme")}), false},
		{"plain error", errors.New("read body: unexpected EOF"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableFetchError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestFetchWithRetry_UnreachableHost(t *testing.T) {
	noBackoff(t)
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	fetcher := NewFetcher(time.Second, "healthlens-test", 1<<20, false, "", "", "")
	if _, err := fetcher.FetchWithRetry(context.Background(), addr); err == nil {
		t.Fatal("Expected error for closed server")
	}
}

func TestFetchArticle_ParsesPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2023 15:04:05 GMT")
		_, _ = fmt.Fprint(w, `<html><head><title> Vitamin  D </title><style>p{}</style></head>
<body><nav>Home</nav><p>Vitamin D prevents colds.</p><noscript>enable js</noscript></body></html>`)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	article, err := fetcher.FetchArticle(context.Background(), server.URL+"/vitamin-d")
	if err != nil {
		t.Fatalf("FetchArticle failed: %v", err)
	}

	if article.Title != "Vitamin D" {
		t.Errorf("Expected title 'Vitamin D', got %q", article.Title)
	}
	if article.Text != "Home Vitamin D prevents colds." {
		t.Errorf("Unexpected text: %q", article.Text)
	}
	if article.Domain != "127.0.0.1" {
		t.Errorf("Expected domain 127.0.0.1, got %q", article.Domain)
	}
	if article.Published == nil || article.Published.Year() != 2023 {
		t.Errorf("Expected published date from Last-Modified, got %v", article.Published)
	}
}

func TestFetchArticle_PlainTextAndSubjectFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "Green tea   cures   everything.")
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	article, err := fetcher.FetchArticle(context.Background(), server.URL+"/green_tea")
	if err != nil {
		t.Fatalf("FetchArticle failed: %v", err)
	}
	if article.Text != "Green tea cures everything." {
		t.Errorf("Unexpected text: %q", article.Text)
	}
	if article.Title != "green tea" {
		t.Errorf("Expected subject from URL path, got %q", article.Title)
	}
}

func TestFetchArticle_EmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body><script>x()</script></body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	if _, err := fetcher.FetchArticle(context.Background(), server.URL); err == nil {
		t.Error("Expected error for page without visible text")
	}
}

func TestFetchArticle_UsesCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, "<html><body><p>Fasting reduces inflammation.</p></body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "",
		WithCache(cache.NewMemoryCache(time.Minute, time.Minute), time.Minute))

	for i := 0; i < 3; i++ {
		if _, err := fetcher.FetchArticle(context.Background(), server.URL); err != nil {
			t.Fatalf("FetchArticle failed: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 request with cache, got %d", hits.Load())
	}
}

func TestFetchArticle_RobotsDisallowed(t *testing.T) {
	var pageHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
			return
		}
		pageHits.Add(1)
		_, _ = fmt.Fprint(w, "<html><body><p>Secret cure.</p></body></html>")
	}))
	defer server.Close()

	robots := util.NewRobotsChecker("test-agent", 5*time.Second, http.DefaultTransport)
	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "", WithRobots(robots))

	_, err := fetcher.FetchArticle(context.Background(), server.URL+"/private/page")
	if !errors.Is(err, ErrDisallowed) {
		t.Errorf("Expected ErrDisallowed, got %v", err)
	}
	if pageHits.Load() != 0 {
		t.Errorf("Expected no page request, got %d", pageHits.Load())
	}

	if _, err := fetcher.FetchArticle(context.Background(), server.URL+"/public"); err != nil {
		t.Errorf("Expected allowed path to succeed, got %v", err)
	}
}

func TestFetch_MaxBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789abcdef")
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 10, false, "", "", "")
	result, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.HTML != "0123456789" {
		t.Errorf("Expected body truncated to 10 bytes, got %q", result.HTML)
	}
}
