package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ppiankov/healthlens/internal/errors"
	"github.com/ppiankov/healthlens/internal/evidence"
	"github.com/ppiankov/healthlens/internal/extract"
	"github.com/ppiankov/healthlens/internal/model"
)

// AnalyzerVersion is stamped into JSON report metadata
const AnalyzerVersion = "1.0.0"

const previewRunes = 200

// Format is a report output format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat maps a user-supplied name to a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", apperrors.InvalidValue("render", "unknown format %q (want csv, json or html)", s)
	}
}

// FormatFromPath picks a format from a file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "htm" {
		ext = "html"
	}
	return ParseFormat(ext)
}

// Render writes report to w in the given format
func Render(w io.Writer, format Format, report *model.Report) error {
	if report == nil {
		return apperrors.InvalidType("render", "report is nil")
	}

	switch format {
	case FormatCSV:
		return renderCSV(w, report)
	case FormatJSON:
		return renderJSON(w, report)
	case FormatHTML:
		return renderHTML(w, report)
	default:
		return apperrors.InvalidValue("render", "unknown format %q", format)
	}
}

// RenderFile writes report to path, choosing the format from its extension
func RenderFile(path string, report *model.Report) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := Render(f, format, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RenderSummary prints a short terminal summary of report
func RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\n%s\n", report.Subject)
	if report.SourceURL != "" {
		fmt.Fprintf(w, "Source: %s\n", report.SourceURL)
	}
	fmt.Fprintf(w, "Risk Level: %s (total %d)\n", report.Level, report.Score.Total)
	fmt.Fprintf(w, "  clickbait=%d absolute=%d no_evidence=%d mismatch=%d\n",
		report.Score.Clickbait, report.Score.Absolute, report.Score.NoEvidence, report.Score.Mismatch)
	fmt.Fprintf(w, "Claims: %d  Citations: %d  Mismatches: %d\n",
		len(report.Claims), len(report.Citations), len(report.Mismatches))

	for _, s := range report.Signals {
		fmt.Fprintf(w, "  [%s] %s\n", s.Severity, s.Description)
	}

	if unsupported := evidence.Unsupported(report.Claims, report.EvidenceMap); len(unsupported) > 0 {
		fmt.Fprintf(w, "Claims without linked evidence: %s\n", strings.Join(unsupported, ", "))
	}

	if report.LLM != nil && report.LLM.Enabled {
		fmt.Fprintf(w, "LLM explanation: %s/%s\n", report.LLM.Provider, report.LLM.Model)
	}
}

func renderCSV(w io.Writer, report *model.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Claim ID", "Claim Text", "Total Risk Score"}); err != nil {
		return err
	}

	total := strconv.Itoa(report.Score.Total)
	for _, c := range report.Claims {
		if err := cw.Write([]string{c.ID, c.Text, total}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type jsonDocument struct {
	Metadata jsonMetadata `json:"metadata"`
	Article  jsonArticle  `json:"article"`
	Analysis jsonAnalysis `json:"analysis"`
	Summary  jsonSummary  `json:"summary"`
}

type jsonMetadata struct {
	Timestamp       time.Time `json:"timestamp"`
	AnalyzerVersion string    `json:"analyzer_version"`
	Format          string    `json:"format"`
}

type jsonArticle struct {
	Subject         string     `json:"subject"`
	SourceURL       string     `json:"source_url,omitempty"`
	Domain          string     `json:"domain,omitempty"`
	Published       *time.Time `json:"published,omitempty"`
	TextPreview     string     `json:"text_preview"`
	TextLength      int        `json:"text_length"`
	CleanTextLength int        `json:"clean_text_length"`
}

type jsonAnalysis struct {
	RiskScore          model.RiskScore       `json:"risk_score"`
	RiskLevel          model.RiskLevel       `json:"risk_level"`
	Claims             []model.Claim         `json:"claims"`
	Citations          []string              `json:"citations"`
	GlossaryMismatches []model.Mismatch      `json:"glossary_mismatches"`
	EvidenceMap        model.EvidenceMap     `json:"evidence_map"`
	Signals            []model.Signal        `json:"signals"`
	Validation         []model.CitationCheck `json:"validation,omitempty"`
	LLM                *model.LLMSummary     `json:"llm,omitempty"`
}

type jsonSummary struct {
	TotalClaims       int `json:"total_claims"`
	TotalCitations    int `json:"total_citations"`
	TotalMismatches   int `json:"total_mismatches"`
	UnsupportedClaims int `json:"unsupported_claims"`
	RiskTotal         int `json:"risk_total"`
}

func renderJSON(w io.Writer, report *model.Report) error {
	doc := jsonDocument{
		Metadata: jsonMetadata{
			Timestamp:       report.AnalyzedAt,
			AnalyzerVersion: AnalyzerVersion,
			Format:          "JSON",
		},
		Article: jsonArticle{
			Subject:         report.Subject,
			SourceURL:       report.SourceURL,
			Domain:          report.Domain,
			Published:       report.Published,
			TextPreview:     preview(report.CleanText, previewRunes),
			TextLength:      report.RawLength,
			CleanTextLength: report.CleanLength,
		},
		Analysis: jsonAnalysis{
			RiskScore:          report.Score,
			RiskLevel:          report.Level,
			Claims:             nonNil(report.Claims),
			Citations:          nonNil(report.Citations),
			GlossaryMismatches: nonNil(report.Mismatches),
			EvidenceMap:        report.EvidenceMap,
			Signals:            nonNil(report.Signals),
			Validation:         report.Validation,
			LLM:                report.LLM,
		},
		Summary: jsonSummary{
			TotalClaims:       len(report.Claims),
			TotalCitations:    len(report.Citations),
			TotalMismatches:   len(report.Mismatches),
			UnsupportedClaims: len(evidence.Unsupported(report.Claims, report.EvidenceMap)),
			RiskTotal:         report.Score.Total,
		},
	}
	if doc.Analysis.EvidenceMap == nil {
		doc.Analysis.EvidenceMap = model.EvidenceMap{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

func renderHTML(w io.Writer, report *model.Report) error {
	citations := make([]htmlCitation, len(report.Citations))
	for i, c := range report.Citations {
		citations[i] = htmlCitation{Text: c, IsURL: extract.IsURL(c)}
	}

	domain := report.Domain
	if domain == "" {
		domain = "Unknown"
	}

	return reportTemplate.Execute(w, htmlView{
		Report:    report,
		Domain:    domain,
		RiskClass: strings.ToLower(string(report.Level)),
		Citations: citations,
		Generated: report.AnalyzedAt.Format("2006-01-02 15:04:05"),
	})
}

type htmlCitation struct {
	Text  string
	IsURL bool
}

type htmlView struct {
	Report    *model.Report
	Domain    string
	RiskClass string
	Citations []htmlCitation
	Generated string
}

// preview truncates s to n runes, appending "..." when cut
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Health Article Analysis Report</title>
<style>
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; max-width: 1000px; margin: 0 auto; padding: 40px 20px; background-color: #f5f5f5; color: #333; }
.container { background-color: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
h2 { color: #34495e; margin-top: 30px; }
.risk-badge { display: inline-block; padding: 10px 20px; border-radius: 5px; font-weight: bold; font-size: 18px; margin: 20px 0; color: white; }
.risk-low { background-color: #2ecc71; }
.risk-medium { background-color: #f39c12; }
.risk-high { background-color: #e74c3c; }
.metric { background-color: #ecf0f1; padding: 15px; margin: 10px 0; border-radius: 5px; border-left: 4px solid #3498db; }
.metric-label { font-weight: bold; color: #7f8c8d; }
.metric-value { font-size: 24px; color: #2c3e50; }
.score-breakdown { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 15px; margin: 20px 0; }
.score-item { background-color: #ecf0f1; padding: 15px; border-radius: 5px; text-align: center; }
.item { padding: 10px; margin: 8px 0; background-color: white; border-left: 3px solid #3498db; border-radius: 3px; }
.mismatch { border-left-color: #e74c3c; }
.empty { color: #7f8c8d; }
.timestamp { color: #7f8c8d; font-size: 14px; margin-top: 30px; text-align: center; }
</style>
</head>
<body>
<div class="container">
<h1>Health Article Analysis Report</h1>
<div class="metric">
  <div class="metric-label">Source Domain</div>
  <div class="metric-value">{{.Domain}}</div>
</div>
<div class="risk-badge risk-{{.RiskClass}}">Risk Level: {{.Report.Level}}</div>

<h2>Score Breakdown</h2>
<div class="score-breakdown">
  <div class="score-item"><div class="metric-label">Total Risk Score</div><div class="metric-value">{{.Report.Score.Total}}</div></div>
  <div class="score-item"><div class="metric-label">Clickbait Score</div><div class="metric-value">{{.Report.Score.Clickbait}}</div></div>
  <div class="score-item"><div class="metric-label">Absolute Language</div><div class="metric-value">{{.Report.Score.Absolute}}</div></div>
  <div class="score-item"><div class="metric-label">No Evidence</div><div class="metric-value">{{.Report.Score.NoEvidence}}</div></div>
  <div class="score-item"><div class="metric-label">Glossary Mismatches</div><div class="metric-value">{{.Report.Score.Mismatch}}</div></div>
</div>

<h2>Claims Detected ({{len .Report.Claims}})</h2>
{{range .Report.Claims}}<div class="item">{{.Text}}</div>
{{else}}<p class="empty">No claims detected.</p>
{{end}}
<h2>Citations Found ({{len .Citations}})</h2>
{{range .Citations}}{{if .IsURL}}<div class="item"><a href="{{.Text}}" target="_blank" rel="noopener">{{.Text}}</a></div>
{{else}}<div class="item">&quot;{{.Text}}&quot;</div>
{{end}}{{else}}<p class="empty">No citations found.</p>
{{end}}
<h2>Glossary Mismatches ({{len .Report.Mismatches}})</h2>
{{range .Report.Mismatches}}<div class="item mismatch"><strong>{{.Term}}</strong>: {{.Status}}</div>
{{else}}<p class="empty">No glossary mismatches detected.</p>
{{end}}
{{if .Report.Signals}}<h2>Signals</h2>
{{range .Report.Signals}}<div class="item">[{{.Severity}}] {{.Description}}</div>
{{end}}{{end}}
<div class="timestamp">Report generated: {{.Generated}}</div>
</div>
</body>
</html>
`))
