package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/ppiankov/healthlens/internal/errors"
	"github.com/ppiankov/healthlens/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Subject:     "Detox <b>tea</b>",
		SourceURL:   "https://blog.example.com/detox",
		Domain:      "blog.example.com",
		AnalyzedAt:  fixedNow,
		RawLength:   64,
		CleanText:   `Detox tea cures colds. See "the study" and https://example.com/a`,
		CleanLength: 64,
		Claims: []model.Claim{
			{ID: "c1", Text: "Detox tea cures colds."},
			{ID: "c2", Text: `Garlic, "raw", prevents flu.`},
		},
		Citations:   []string{"https://example.com/a", "the study"},
		Mismatches:  []model.Mismatch{model.NewMismatch("flu")},
		Score:       model.NewRiskScore(0, 2, 0, 1),
		Level:       model.RiskHigh,
		EvidenceMap: model.EvidenceMap{"c1": {"https://example.com/a"}, "c2": {}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"JSON", FormatJSON, false},
		{" html ", FormatHTML, false},
		{"md", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidInputValue) {
					t.Errorf("Expected ErrInvalidInputValue, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"out/report.csv":  FormatCSV,
		"report.JSON":     FormatJSON,
		"report.htm":      FormatHTML,
		"/tmp/x.y/r.html": FormatHTML,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %s, %v; want %s", path, got, err, want)
		}
	}

	if _, err := FormatFromPath("report"); err == nil {
		t.Error("Expected error for missing extension")
	}
}

func TestRender_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatCSV, sampleReport()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "Claim ID,Claim Text,Total Risk Score\n" +
		"c1,Detox tea cures colds.,3\n" +
		"c2,\"Garlic, \"\"raw\"\", prevents flu.\",3\n"
	if buf.String() != want {
		t.Errorf("Unexpected CSV:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRender_CSVNoClaims(t *testing.T) {
	report := sampleReport()
	report.Claims = nil

	var buf bytes.Buffer
	if err := Render(&buf, FormatCSV, report); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.String() != "Claim ID,Claim Text,Total Risk Score\n" {
		t.Errorf("Expected header only, got %q", buf.String())
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatJSON, sampleReport()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var doc struct {
		Metadata struct {
			AnalyzerVersion string `json:"analyzer_version"`
			Format          string `json:"format"`
		} `json:"metadata"`
		Article struct {
			Domain      string `json:"domain"`
			TextPreview string `json:"text_preview"`
		} `json:"article"`
		Analysis struct {
			RiskLevel          string              `json:"risk_level"`
			RiskScore          model.RiskScore     `json:"risk_score"`
			GlossaryMismatches []model.Mismatch    `json:"glossary_mismatches"`
			EvidenceMap        map[string][]string `json:"evidence_map"`
			Signals            []model.Signal      `json:"signals"`
		} `json:"analysis"`
		Summary struct {
			TotalClaims       int `json:"total_claims"`
			TotalCitations    int `json:"total_citations"`
			UnsupportedClaims int `json:"unsupported_claims"`
			RiskTotal         int `json:"risk_total"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if doc.Metadata.AnalyzerVersion != AnalyzerVersion || doc.Metadata.Format != "JSON" {
		t.Errorf("Unexpected metadata: %+v", doc.Metadata)
	}
	if doc.Article.Domain != "blog.example.com" {
		t.Errorf("Expected domain, got %q", doc.Article.Domain)
	}
	if doc.Analysis.RiskLevel != "High" || doc.Analysis.RiskScore.Total != 3 {
		t.Errorf("Unexpected analysis: %+v", doc.Analysis)
	}
	if len(doc.Analysis.GlossaryMismatches) != 1 || doc.Analysis.GlossaryMismatches[0].Status != "mismatch" {
		t.Errorf("Unexpected mismatches: %+v", doc.Analysis.GlossaryMismatches)
	}
	if doc.Analysis.Signals == nil {
		t.Error("Expected signals to encode as [] rather than null")
	}
	if doc.Summary.TotalClaims != 2 || doc.Summary.TotalCitations != 2 || doc.Summary.RiskTotal != 3 {
		t.Errorf("Unexpected summary: %+v", doc.Summary)
	}
	if doc.Summary.UnsupportedClaims != 1 {
		t.Errorf("Expected 1 unsupported claim, got %d", doc.Summary.UnsupportedClaims)
	}
}

func TestRender_JSONPreviewTruncated(t *testing.T) {
	report := sampleReport()
	report.CleanText = strings.Repeat("é", 250)

	var buf bytes.Buffer
	if err := Render(&buf, FormatJSON, report); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var doc struct {
		Article struct {
			TextPreview string `json:"text_preview"`
		} `json:"article"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if want := strings.Repeat("é", 200) + "..."; doc.Article.TextPreview != want {
		t.Errorf("Expected 200-rune preview with ellipsis, got %d runes", len([]rune(doc.Article.TextPreview)))
	}
}

func TestRender_HTML(t *testing.T) {
	report := sampleReport()
	report.Claims = append(report.Claims, model.Claim{ID: "c3", Text: "<script>alert(1)</script> cures all."})

	var buf bytes.Buffer
	if err := Render(&buf, FormatHTML, report); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`risk-badge risk-high`,
		`Risk Level: High`,
		`Claims Detected (3)`,
		`<a href="https://example.com/a"`,
		`<strong>flu</strong>: mismatch`,
		`&lt;script&gt;alert(1)&lt;/script&gt;`,
		`Report generated: 2026-03-01 12:00:00`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected HTML to contain %q", want)
		}
	}
	if strings.Contains(out, "<script>alert(1)") {
		t.Error("Claim text must be escaped")
	}
}

func TestRender_HTMLEmptyLists(t *testing.T) {
	report := &model.Report{Level: model.RiskLow, AnalyzedAt: fixedNow}

	var buf bytes.Buffer
	if err := Render(&buf, FormatHTML, report); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"No claims detected.", "No citations found.", "No glossary mismatches detected.", "Unknown"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected HTML to contain %q", want)
		}
	}
}

func TestRender_Invalid(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatJSON, nil); !errors.Is(err, apperrors.ErrInvalidInputType) {
		t.Errorf("Expected ErrInvalidInputType for nil report, got %v", err)
	}
	if err := Render(&buf, Format("pdf"), sampleReport()); !errors.Is(err, apperrors.ErrInvalidInputValue) {
		t.Errorf("Expected ErrInvalidInputValue for unknown format, got %v", err)
	}
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.csv")

	if err := RenderFile(path, sampleReport()); err != nil {
		t.Fatalf("RenderFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "Claim ID,Claim Text,Total Risk Score\n") {
		t.Errorf("Expected CSV file, got %q", data)
	}

	if err := RenderFile(filepath.Join(dir, "report.txt"), sampleReport()); err == nil {
		t.Error("Expected error for unsupported extension")
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, sampleReport())
	out := buf.String()

	for _, want := range []string{
		"Risk Level: High (total 3)",
		"clickbait=0 absolute=2 no_evidence=0 mismatch=1",
		"Claims: 2  Citations: 2  Mismatches: 1",
		"Claims without linked evidence: c2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, out)
		}
	}
}
