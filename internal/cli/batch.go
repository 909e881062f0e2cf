package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/healthlens/internal/feed"
	"github.com/ppiankov/healthlens/internal/model"
	"github.com/ppiankov/healthlens/internal/pipeline"
	"github.com/ppiankov/healthlens/internal/score"
	"github.com/ppiankov/healthlens/internal/util"
	"github.com/ppiankov/healthlens/internal/worker"
)

var (
	batchFlags   analysisFlags
	concurrency  int
	outputDir    string
	outputFormat string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple article URLs from a file in parallel",
	Long: `Batch processes multiple URLs concurrently:
- Read URLs from input file (one per line, # comments allowed)
- Process URLs in parallel with a bounded worker pool
- Pace requests per domain (rate limit plus robots.txt crawl delay)
- Write one report per URL and print the average risk

Example:
  healthlens batch urls.txt
  healthlens batch urls.txt --concurrency 8 --output-dir ./reports --format html`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// feedCmd represents the feed command
var feedCmd = &cobra.Command{
	Use:   "feed <url>",
	Short: "Analyze every item of an RSS or Atom feed",
	Long: `Feed reads an RSS/Atom feed and analyzes each item's title and
description (or full content when the feed provides it) without fetching
the linked pages.

Example:
  healthlens feed https://news.example.com/health/rss.xml
  healthlens feed https://news.example.com/health/atom.xml --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runFeed,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(feedCmd)

	for _, cmd := range []*cobra.Command{batchCmd, feedCmd} {
		cmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
		cmd.Flags().StringVar(&outputDir, "output-dir", "", "write one report per article to this directory")
		cmd.Flags().StringVar(&outputFormat, "format", "json", "report format: csv, json or html")
		cmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	}
	// Both commands share one flag set; only one runs per invocation
	batchFlags.register(batchCmd)
	batchFlags.register(feedCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	p, cfg, err := newPipeline(&batchFlags)
	if err != nil {
		return err
	}

	printBatchHeader("Batch Processing", file)

	processor := worker.NewBatchProcessor(p, concurrency,
		cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize,
		worker.WithLogger(logger),
		worker.WithCrawlDelay(p.Fetcher().CrawlDelay),
		worker.WithDomainRates(cfg.RateLimiting.PerDomain),
	)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	return reportBatch(results)
}

func runFeed(cmd *cobra.Command, args []string) error {
	feedURL := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	p, cfg, err := newPipeline(&batchFlags)
	if err != nil {
		return err
	}

	printBatchHeader("Feed Analysis", feedURL)

	transport := util.NewTransport(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	reader := feed.NewReader(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, transport, logger)

	articles, err := reader.Read(ctx, feedURL)
	if err != nil {
		return fmt.Errorf("read feed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Loaded %d feed items\n\n", len(articles))

	processor := worker.NewBatchProcessor(p, concurrency, 0, 0, worker.WithLogger(logger))
	return reportBatch(processor.ProcessArticles(ctx, articles))
}

func printBatchHeader(title, input string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  HealthLens %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", input)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	if outputDir != "" {
		fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	}
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")
}

// reportBatch writes per-article reports and prints the batch summary
func reportBatch(results []*worker.AnalysisResult) error {
	format, err := pipeline.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	successCount := 0
	failureCount := 0
	levels := map[model.RiskLevel]int{}

	for i, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, result.Error)
			continue
		}

		successCount++
		levels[result.Report.Level]++

		if outputDir != "" {
			path := filepath.Join(outputDir, reportFilename(i, result.Report.Subject, format))
			if err := pipeline.RenderFile(path, result.Report); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write report: %v\n", result.Source, err)
				continue
			}
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%s, total %d)\n", result.Report.Subject, result.Report.Level, result.Report.Score.Total)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:         %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:       %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:      %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Risk levels:   High %d / Medium %d / Low %d\n",
		levels[model.RiskHigh], levels[model.RiskMedium], levels[model.RiskLow])
	fmt.Fprintf(os.Stderr, "  Average risk:  %.2f\n", score.SummarizeTrends(worker.Scores(results)))
	if outputDir != "" {
		fmt.Fprintf(os.Stderr, "  Output:        %s\n", outputDir)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
