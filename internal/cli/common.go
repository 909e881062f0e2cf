package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/healthlens/internal/llm"
	"github.com/ppiankov/healthlens/internal/model"
	"github.com/ppiankov/healthlens/internal/pipeline"
)

// analysisFlags are the flags shared by every command that runs the pipeline
type analysisFlags struct {
	glossaryPath   string
	minClaimLength int
	scoreText      bool
	noCache        bool
	validate       bool
	llmEnabled     bool
	llmProvider    string
	llmModel       string
	httpProxy      string
	httpsProxy     string
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.glossaryPath, "glossary", "", "trusted glossary YAML file (default: built-in glossary)")
	cmd.Flags().IntVar(&f.minClaimLength, "min-claim-length", 0, "minimum claim length in characters (default from config)")
	cmd.Flags().BoolVar(&f.scoreText, "score-text", false, "run the clickbait check on the article text (off by default)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable cache (force fresh fetch)")
	cmd.Flags().BoolVar(&f.validate, "validate", false, "check cited URLs (status, staleness, authority tier)")
	cmd.Flags().StringVar(&f.httpProxy, "http-proxy", "", "HTTP proxy URL (overrides config)")
	cmd.Flags().StringVar(&f.httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides config)")

	// LLM flags
	cmd.Flags().BoolVar(&f.llmEnabled, "llm", false, "enable LLM explanation of the report")
	cmd.Flags().StringVar(&f.llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	cmd.Flags().StringVar(&f.llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// apply overlays the flags on cfg
func (f *analysisFlags) apply(cfg *model.Config) error {
	if f.glossaryPath != "" {
		cfg.Glossary.Path = f.glossaryPath
	}
	if f.minClaimLength > 0 {
		cfg.Analysis.MinClaimLength = f.minClaimLength
	}
	if f.scoreText {
		cfg.Analysis.ScoreArticleText = true
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if f.validate {
		cfg.Validation.Enabled = true
	}
	if f.httpProxy != "" {
		cfg.HTTP.HTTPProxy = f.httpProxy
	}
	if f.httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = f.httpsProxy
	}

	// Configure LLM if enabled
	if f.llmEnabled {
		cfg.LLM.Provider = f.llmProvider
		cfg.LLM.Model = f.llmModel
		cfg.LLM.StrictEvidence = true // Always enforce

		if strings.EqualFold(f.llmProvider, "openai") && cfg.LLM.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	return nil
}

// newPipeline loads config, applies flags and builds the pipeline
func newPipeline(f *analysisFlags) (*pipeline.Pipeline, *model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := f.apply(cfg); err != nil {
		return nil, nil, err
	}

	p, err := pipeline.NewPipeline(cfg, pipeline.WithPipelineLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

// outputFlags select where and how a single report is written
type outputFlags struct {
	format  string
	outPath string
	summary bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "report format for stdout: csv, json or html (default from config)")
	cmd.Flags().StringVarP(&o.outPath, "out", "o", "", "write the report to a file; format follows the extension")
	cmd.Flags().BoolVar(&o.summary, "summary", true, "print a short summary to stderr")
}

// write renders report to the configured destination
func (o *outputFlags) write(w io.Writer, cfg *model.Config, report *model.Report) error {
	if o.summary {
		pipeline.RenderSummary(os.Stderr, report)
	}

	if report.LLM != nil && report.LLM.Enabled && o.outPath != "" {
		llmPath := strings.TrimSuffix(o.outPath, filepath.Ext(o.outPath)) + ".llm.md"
		if err := os.WriteFile(llmPath, []byte(llm.RenderSeparateMarkdown(report.LLM)), 0o644); err != nil {
			logger.Warn().Err(err).Str("path", llmPath).Msg("failed to write LLM summary")
		}
	}

	if o.outPath != "" {
		if err := pipeline.RenderFile(o.outPath, report); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote report: %s\n", o.outPath)
		}
		return nil
	}

	name := o.format
	if name == "" {
		name = cfg.Output.Format
	}
	format, err := pipeline.ParseFormat(name)
	if err != nil {
		return err
	}
	return pipeline.Render(w, format, report)
}

// readInput reads a file, or stdin for "-" or no argument
func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}

// reportFilename builds a filesystem-safe report name
func reportFilename(index int, subject string, format pipeline.Format) string {
	slug := sanitizeFilename(subject)
	if slug == "" {
		slug = "article"
	}
	return fmt.Sprintf("%03d-%s.%s", index+1, slug, format)
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))

	// Limit length
	if r := []rune(s); len(r) > 80 {
		s = string(r[:80])
	}
	return s
}
