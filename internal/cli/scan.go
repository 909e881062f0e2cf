package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/healthlens/internal/model"
	"github.com/ppiankov/healthlens/internal/text"
)

var (
	analyzeFlags  analysisFlags
	analyzeOutput outputFlags
	analyzeTitle  string
	analyzeURL    string
	analyzeDate   string

	scanFlags   analysisFlags
	scanOutput  outputFlags
	scanTimeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Analyze an article from a file or stdin",
	Long: `Analyze reads article text (plain text or HTML) and reports:
- Claim-like sentences
- URL and quoted citations
- Glossary terms used without accepted phrasing
- An additive risk score and risk level
- Candidate evidence for each claim

Example:
  healthlens analyze article.txt
  cat article.html | healthlens analyze - --url https://news.example.com/story
  healthlens analyze article.txt --out report.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Fetch and analyze a single article URL",
	Long: `Scan fetches a web page (honouring robots.txt, proxies and the page
cache), extracts its visible text and analyzes it like 'analyze'.

Example:
  healthlens scan https://news.example.com/miracle-cure
  healthlens scan https://news.example.com/miracle-cure --validate --out report.json
  healthlens scan https://news.example.com/miracle-cure --llm --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scanCmd)

	analyzeFlags.register(analyzeCmd)
	analyzeOutput.register(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeTitle, "title", "", "article title")
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "article source URL (sets the domain)")
	analyzeCmd.Flags().StringVar(&analyzeDate, "published", "", "publication date")

	scanFlags.register(scanCmd)
	scanOutput.register(scanCmd)
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 2*time.Minute, "overall scan timeout (increase when validating many citations)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	raw, _, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	p, cfg, err := newPipeline(&analyzeFlags)
	if err != nil {
		return err
	}

	article, err := model.NewArticle(analyzeTitle, text.ExtractTextBlocks(raw), analyzeURL, analyzeDate)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	report, err := p.Analyze(ctx, article)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	return analyzeOutput.write(cmd.OutOrStdout(), cfg, report)
}

func runScan(cmd *cobra.Command, args []string) error {
	url := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	p, cfg, err := newPipeline(&scanFlags)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", url)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", scanTimeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	report, err := p.AnalyzeURL(ctx, url)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	return scanOutput.write(cmd.OutOrStdout(), cfg, report)
}
