// Package evidence links detected claims to candidate supporting citations.
package evidence

import (
	"strings"

	"github.com/ppiankov/healthlens/internal/model"
)

// Linker associates claims with citations by head-word matching
type Linker struct{}

// NewLinker creates a new linker
func NewLinker() *Linker {
	return &Linker{}
}

// Link maps every claim ID to the citations that contain the claim's head word
// (its first whitespace-delimited token, case-insensitive). A claim with no
// matching citation falls back to the first citation, or to an empty list when
// there are no citations at all.
func (l *Linker) Link(claims []model.Claim, citations []string) model.EvidenceMap {
	evidence := make(model.EvidenceMap, len(claims))

	lowered := make([]string, len(citations))
	for i, c := range citations {
		lowered[i] = strings.ToLower(c)
	}

	for _, claim := range claims {
		head := headWord(claim.Text)

		related := []string{}
		if head != "" {
			for i, c := range lowered {
				if strings.Contains(c, head) {
					related = append(related, citations[i])
				}
			}
		}

		if len(related) == 0 && len(citations) > 0 {
			related = append(related, citations[0])
		}
		evidence[claim.ID] = related
	}

	return evidence
}

// Unsupported returns the IDs of claims that were linked to nothing, in claim order
func Unsupported(claims []model.Claim, evidence model.EvidenceMap) []string {
	var ids []string
	for _, c := range claims {
		if len(evidence[c.ID]) == 0 {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func headWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
