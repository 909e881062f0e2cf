package worker

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/healthlens/internal/text"
)

const defaultBurst = 5

// Limiter paces article fetches per source host. Every host gets its own
// token bucket, created on first use.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLimiter creates a per-domain limiter. A non-positive rate means unlimited.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = defaultBurst
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   toLimit(requestsPerSecond),
		burst:   burst,
	}
}

func toLimit(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Inf
	}
	return rate.Limit(rps)
}

// Wait blocks until rawURL's host has a token or ctx is done
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	b, err := l.bucket(rawURL)
	if err != nil {
		return err
	}
	return b.Wait(ctx)
}

// Allow takes a token for rawURL's host without blocking
func (l *Limiter) Allow(rawURL string) bool {
	b, err := l.bucket(rawURL)
	return err == nil && b.Allow()
}

// WaitWithDelay waits for a token and then for a robots.txt crawl delay
func (l *Limiter) WaitWithDelay(ctx context.Context, rawURL string, crawlDelay time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}
	if crawlDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(crawlDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetDomainRate overrides the rate for one host. A non-positive burst keeps
// the default burst.
func (l *Limiter) SetDomainRate(domain string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.burst
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets[strings.ToLower(strings.TrimSpace(domain))] = rate.NewLimiter(toLimit(requestsPerSecond), burst)
}

// Domains returns the number of hosts seen so far
func (l *Limiter) Domains() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

func (l *Limiter) bucket(rawURL string) (*rate.Limiter, error) {
	host, err := text.ExtractDomain(rawURL)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	b, ok := l.buckets[host]
	l.mu.RUnlock()
	if ok {
		return b, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[host]; ok {
		return b, nil
	}
	b = rate.NewLimiter(l.limit, l.burst)
	l.buckets[host] = b
	return b, nil
}
