package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/healthlens/internal/model"
)

// errNotProcessed marks inputs dropped because the batch was cancelled
var errNotProcessed = errors.New("not processed: batch cancelled")

// Analyzer defines the pipeline operations a batch needs
type Analyzer interface {
	AnalyzeURL(ctx context.Context, url string) (*model.Report, error)
	Analyze(ctx context.Context, article model.Article) (*model.Report, error)
}

// CrawlDelayFunc returns the robots.txt crawl delay for a URL
type CrawlDelayFunc func(ctx context.Context, url string) time.Duration

// URLJob analyzes one article URL
type URLJob struct {
	URL        string
	Analyzer   Analyzer
	Limiter    *Limiter
	CrawlDelay CrawlDelayFunc
}

// Execute waits for the domain's rate limit and analyzes the URL
func (j *URLJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		var delay time.Duration
		if j.CrawlDelay != nil {
			delay = j.CrawlDelay(ctx, j.URL)
		}
		if err := j.Limiter.WaitWithDelay(ctx, j.URL, delay); err != nil {
			return &AnalysisResult{Source: j.URL, Error: fmt.Errorf("rate limit: %w", err)}
		}
	}

	report, err := j.Analyzer.AnalyzeURL(ctx, j.URL)
	return &AnalysisResult{Source: j.URL, Report: report, Error: err}
}

// ArticleJob analyzes one in-memory article
type ArticleJob struct {
	Article  model.Article
	Analyzer Analyzer
}

// Execute analyzes the article
func (j *ArticleJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.Analyze(ctx, j.Article)
	return &AnalysisResult{Source: articleSource(j.Article), Report: report, Error: err}
}

// AnalysisResult is the outcome of one batch input
type AnalysisResult struct {
	Source string // URL or article subject
	Report *model.Report
	Error  error
}

// GetError returns the error from the analysis result
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many inputs concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
	crawlDelay  CrawlDelayFunc
	domainRates map[string]float64
	logger      zerolog.Logger
}

// BatchOption configures optional BatchProcessor behaviour
type BatchOption func(*BatchProcessor)

// WithCrawlDelay adds robots.txt crawl delays on top of the rate limit
func WithCrawlDelay(fn CrawlDelayFunc) BatchOption {
	return func(b *BatchProcessor) { b.crawlDelay = fn }
}

// WithLogger sets the batch logger
func WithLogger(l zerolog.Logger) BatchOption {
	return func(b *BatchProcessor) { b.logger = l }
}

// WithDomainRates overrides the request rate for individual hosts
func WithDomainRates(rates map[string]float64) BatchOption {
	return func(b *BatchProcessor) { b.domainRates = rates }
}

// NewBatchProcessor creates a new batch processor. URL fetches are limited to
// requestsPerSecond per domain; a non-positive rate disables limiting.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int, opts ...BatchOption) *BatchProcessor {
	b := &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		logger:      zerolog.Nop(),
	}
	if requestsPerSecond > 0 {
		b.limiter = NewLimiter(requestsPerSecond, burst)
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.domainRates) > 0 {
		if b.limiter == nil {
			b.limiter = NewLimiter(0, burst)
		}
		for domain, rps := range b.domainRates {
			b.limiter.SetDomainRate(domain, rps, burst)
		}
	}
	return b
}

// ProcessURLs analyzes URLs concurrently. Results follow the input order.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AnalysisResult {
	sources := make([]string, len(urls))
	jobs := make([]Job, len(urls))
	for i, url := range urls {
		sources[i] = url
		jobs[i] = &URLJob{URL: url, Analyzer: b.analyzer, Limiter: b.limiter, CrawlDelay: b.crawlDelay}
	}
	return b.run(ctx, sources, jobs)
}

// ProcessArticles analyzes in-memory articles concurrently. Results follow the input order.
func (b *BatchProcessor) ProcessArticles(ctx context.Context, articles []model.Article) []*AnalysisResult {
	sources := make([]string, len(articles))
	jobs := make([]Job, len(articles))
	for i, a := range articles {
		sources[i] = articleSource(a)
		jobs[i] = &ArticleJob{Article: a, Analyzer: b.analyzer}
	}
	return b.run(ctx, sources, jobs)
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalysisResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

func (b *BatchProcessor) run(ctx context.Context, sources []string, jobs []Job) []*AnalysisResult {
	if len(jobs) == 0 {
		return []*AnalysisResult{}
	}

	// 1. Submit everything to a bounded pool
	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	for _, job := range jobs {
		if pool.Submit(job) < 0 {
			break
		}
	}

	// 2. Collect in submission order
	results := pool.Wait()

	// 3. Account for inputs the pool never ran
	out := make([]*AnalysisResult, len(jobs))
	failed := 0
	for i := range jobs {
		var r *AnalysisResult
		if i < len(results) && results[i] != nil {
			r = results[i].(*AnalysisResult)
		} else {
			err := errNotProcessed
			if ctx.Err() != nil {
				err = fmt.Errorf("%w: %v", errNotProcessed, ctx.Err())
			}
			r = &AnalysisResult{Source: sources[i], Error: err}
		}
		if r.Error != nil {
			failed++
			b.logger.Warn().Err(r.Error).Str("source", r.Source).Msg("analysis failed")
		}
		out[i] = r
	}

	b.logger.Info().Int("total", len(out)).Int("failed", failed).Msg("batch complete")
	return out
}

// Scores returns the risk scores of successful results, in order
func Scores(results []*AnalysisResult) []model.RiskScore {
	var scores []model.RiskScore
	for _, r := range results {
		if r.Error == nil && r.Report != nil {
			scores = append(scores, r.Report.Score)
		}
	}
	return scores
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate URLs
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}

func articleSource(a model.Article) string {
	if a.SourceURL != "" {
		return a.SourceURL
	}
	return a.Subject()
}
