package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/healthlens/internal/model"
	"github.com/ppiankov/healthlens/internal/text"
)

// Scorer aggregates misinformation risk signals into a RiskScore
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate computes the risk breakdown for one article.
//
// articleText may be empty, in which case clickbait is 0. no_evidence is an
// article-level gate: every claim counts when citations is empty, none count
// otherwise, regardless of what the evidence linker attaches per claim.
func (s *Scorer) Calculate(articleText string, claims []model.Claim, citations []string, mismatches []model.Mismatch) model.RiskScore {
	// 1. Clickbait (0 or 1)
	clickbait := 0
	if text.IsClickbait(articleText) {
		clickbait = 1
	}

	// 2. Absolute language, counted per claim
	absolute := 0
	for _, c := range claims {
		if text.IsAbsolute(c.Text) {
			absolute++
		}
	}

	// 3. No evidence
	noEvidence := 0
	if len(citations) == 0 {
		noEvidence = len(claims)
	}

	// 4. Glossary mismatches
	return model.NewRiskScore(clickbait, absolute, noEvidence, len(mismatches))
}

// Level maps a score total to its risk tier
func Level(total int) model.RiskLevel {
	switch {
	case total < 1:
		return model.RiskLow
	case total < 3:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// SummarizeTrends returns the average total over scores, rounded to two
// decimals. It returns 0 for no scores.
func SummarizeTrends(scores []model.RiskScore) float64 {
	if len(scores) == 0 {
		return 0
	}

	sum := 0
	for _, s := range scores {
		sum += s.Total
	}

	avg := float64(sum) / float64(len(scores))
	return math.Round(avg*100) / 100
}

// Signals explains a score component by component. Citation checks are
// reported as additional signals but never change the score.
func (s *Scorer) Signals(score model.RiskScore, claims []model.Claim, mismatches []model.Mismatch, checks []model.CitationCheck) []model.Signal {
	var signals []model.Signal

	if score.Clickbait > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalClickbait,
			Severity:    model.SeverityWarning,
			Description: "Sensational wording detected in article text",
			Data: map[string]interface{}{
				"score": score.Clickbait,
			},
		})
	}

	if score.Absolute > 0 {
		var flagged []string
		for _, c := range claims {
			if text.IsAbsolute(c.Text) {
				flagged = append(flagged, c.ID)
			}
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalAbsoluteLanguage,
			Severity:    severityFor(score.Absolute, len(claims)),
			Description: fmt.Sprintf("%d/%d claims use absolute language", score.Absolute, len(claims)),
			Data: map[string]interface{}{
				"claims": flagged,
				"score":  score.Absolute,
			},
		})
	}

	if score.NoEvidence > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalNoEvidence,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("No citations found for %d claims", score.NoEvidence),
			Data: map[string]interface{}{
				"score":   score.NoEvidence,
				"formula": "claim_count if citation_count == 0 else 0",
			},
		})
	}

	if score.Mismatch > 0 {
		terms := make([]string, len(mismatches))
		for i, m := range mismatches {
			terms[i] = m.Term
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalGlossaryMismatch,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d medical terms used without accepted phrasing", score.Mismatch),
			Data: map[string]interface{}{
				"terms": terms,
				"score": score.Mismatch,
			},
		})
	}

	signals = append(signals, citationSignals(checks)...)
	return signals
}

func citationSignals(checks []model.CitationCheck) []model.Signal {
	if len(checks) == 0 {
		return nil
	}

	var signals []model.Signal

	dead, primary := 0, 0
	for _, c := range checks {
		if c.IsDead {
			dead++
		}
		if c.Authority == model.TierPrimary {
			primary++
		}
	}

	if dead > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalDeadCitations,
			Severity:    severityFor(dead, len(checks)),
			Description: fmt.Sprintf("Dead citations: %d/%d", dead, len(checks)),
			Data: map[string]interface{}{
				"dead":  dead,
				"total": len(checks),
			},
		})
	}

	if primary == 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalSecondarySourcing,
			Severity:    model.SeverityWarning,
			Description: "No citation points to a primary health authority",
			Data: map[string]interface{}{
				"checked": len(checks),
			},
		})
	}

	return signals
}

// severityFor escalates to critical once at least half of total is affected
func severityFor(count, total int) model.SignalSeverity {
	if total > 0 && float64(count)/float64(total) >= 0.5 {
		return model.SeverityCritical
	}
	return model.SeverityWarning
}
