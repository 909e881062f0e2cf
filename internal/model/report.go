package model

import "time"

// RiskScore is the additive breakdown of misinformation risk signals.
// Total always equals Clickbait + Absolute + NoEvidence + Mismatch.
type RiskScore struct {
	Clickbait  int `json:"clickbait"`   // 0 or 1
	Absolute   int `json:"absolute"`    // Claims using absolute language
	NoEvidence int `json:"no_evidence"` // All claims when the article has no citations
	Mismatch   int `json:"mismatch"`    // Glossary mismatches
	Total      int `json:"total"`
}

// NewRiskScore builds a score from its components, deriving Total
func NewRiskScore(clickbait, absolute, noEvidence, mismatch int) RiskScore {
	return RiskScore{
		Clickbait:  clickbait,
		Absolute:   absolute,
		NoEvidence: noEvidence,
		Mismatch:   mismatch,
		Total:      clickbait + absolute + noEvidence + mismatch,
	}
}

// RiskLevel is the coarse tier derived from a score total
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Report is the complete analysis of one article
type Report struct {
	Subject    string     `json:"subject"`
	SourceURL  string     `json:"source_url,omitempty"`
	Domain     string     `json:"domain,omitempty"`
	Published  *time.Time `json:"published,omitempty"`
	AnalyzedAt time.Time  `json:"analyzed_at"`

	RawLength   int    `json:"raw_length"`
	CleanText   string `json:"clean_text"`
	CleanLength int    `json:"clean_length"`

	Claims      []Claim     `json:"claims"`
	Citations   []string    `json:"citations"`
	Mismatches  []Mismatch  `json:"mismatches"`
	Score       RiskScore   `json:"score"`
	Level       RiskLevel   `json:"risk_level"`
	EvidenceMap EvidenceMap `json:"evidence_map"`
	Signals     []Signal    `json:"signals"` // Diagnostic explanation of Score

	Validation []CitationCheck `json:"validation,omitempty"` // Never affects Score

	LLM *LLMSummary `json:"llm,omitempty"` // Never affects Score
}

// LLMSummary contains an optional plain-language explanation of the report
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`
	Model          string   `json:"model,omitempty"`
	StrictEvidence bool     `json:"strict_evidence"`
	SummaryMD      string   `json:"summary_md,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Signal explains one component of a risk score with transparent data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a diagnostic signal
type SignalType string

const (
	SignalClickbait         SignalType = "clickbait"          // Sensational wording
	SignalAbsoluteLanguage  SignalType = "absolute_language"  // Claims with certainty words
	SignalNoEvidence        SignalType = "no_evidence"        // Claims in an article without citations
	SignalGlossaryMismatch  SignalType = "glossary_mismatch"  // Medical term without accepted phrasing
	SignalDeadCitations     SignalType = "dead_citations"     // Cited URLs that no longer resolve
	SignalSecondarySourcing SignalType = "secondary_sourcing" // No primary-tier citation
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
