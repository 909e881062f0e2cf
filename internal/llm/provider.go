// Package llm produces an optional plain-language explanation of a finished
// report. The explanation is generated after scoring and never changes it.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/healthlens/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize explains the report, restricted to the allowed citation URLs
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for an explanation
type SummarizeRequest struct {
	Report model.Report

	// EvidenceURLs is the allowlist of URLs the model may cite: the article's own URL citations
	EvidenceURLs []string

	Prompt    string // Overrides BuildPrompt when set
	Model     string
	MaxTokens int
}

// SummarizeResponse contains the model's output
type SummarizeResponse struct {
	Summary    string
	CitedURLs  []string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	Provider       string // "openai", "ollama", "" (disabled)
	Model          string
	APIKey         string
	BaseURL        string
	Timeout        int // seconds
	StrictEvidence bool
	MaxTokens      int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns the disabled-by-default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:        30,
		StrictEvidence: true,
		MaxTokens:      600,
	}
}

// BuildPrompt constructs the explanation prompt for a report
func BuildPrompt(report model.Report, evidenceURLs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are explaining a healthlens report. healthlens flags misinformation RISK SIGNALS in health news using fixed keyword heuristics. It NEVER decides whether a health claim is true.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. Explain what each signal means for a reader; do not add new medical advice.
4. Never say a claim "is true" or "is false" - describe the signals only.

Report Summary:
- Subject: %s
- Risk Level: %s (total %d)
- Breakdown: clickbait=%d, absolute=%d, no_evidence=%d, mismatch=%d
- Claims Identified: %d
- Citations: %d
- Validated Links: %d accessible, %d dead/inaccessible
`, joinURLs(evidenceURLs), report.Subject, report.Level, report.Score.Total,
		report.Score.Clickbait, report.Score.Absolute, report.Score.NoEvidence, report.Score.Mismatch,
		len(report.Claims), len(report.Citations), countAccessible(report.Validation), countDead(report.Validation))

	if len(report.Claims) > 0 {
		b.WriteString("\nClaims:\n")
		for i, c := range report.Claims {
			if i >= 5 {
				fmt.Fprintf(&b, "- ... and %d more\n", len(report.Claims)-5)
				break
			}
			fmt.Fprintf(&b, "- %s\n", c.Text)
		}
	}

	if len(report.Mismatches) > 0 {
		terms := make([]string, len(report.Mismatches))
		for i, m := range report.Mismatches {
			terms[i] = m.Term
		}
		fmt.Fprintf(&b, "\nTerms used without accepted phrasing: %s\n", strings.Join(terms, ", "))
	}

	if len(report.Signals) > 0 {
		b.WriteString("\nKey Signals:\n")
		for i, s := range report.Signals {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", s.Type, s.Description)
		}
	}

	b.WriteString("\nProvide a 3-4 sentence explanation for a general reader.")

	return b.String()
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No evidence URLs available)"
	}

	var b strings.Builder
	for i, u := range urls {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", u)
	}
	return b.String()
}

func countAccessible(checks []model.CitationCheck) int {
	count := 0
	for _, c := range checks {
		if c.IsAccessible {
			count++
		}
	}
	return count
}

func countDead(checks []model.CitationCheck) int {
	count := 0
	for _, c := range checks {
		if !c.IsAccessible {
			count++
		}
	}
	return count
}
