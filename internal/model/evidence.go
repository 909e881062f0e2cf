package model

import "time"

// MismatchStatus is the only status a glossary comparison emits
const MismatchStatus = "mismatch"

// Mismatch flags a glossary term that appeared without any accepted phrasing
type Mismatch struct {
	Term   string `json:"term"`
	Status string `json:"status"`
}

// NewMismatch creates a mismatch record for term
func NewMismatch(term string) Mismatch {
	return Mismatch{Term: term, Status: MismatchStatus}
}

// EvidenceMap associates each claim ID with candidate citation strings
type EvidenceMap map[string][]string

// AuthorityTier represents the classification of a cited source
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Public-health agencies, journals, .gov/.edu
	TierSecondary AuthorityTier = 2 // Medical publishers, wire services
	TierTertiary  AuthorityTier = 3 // Blogs, wellness shops, everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// CitationCheck contains the result of checking a URL citation
type CitationCheck struct {
	URL          string        `json:"url"`
	IsAccessible bool          `json:"is_accessible"`
	StatusCode   int           `json:"status_code,omitempty"`
	LastModified *time.Time    `json:"last_modified,omitempty"`
	Age          *int          `json:"age_days,omitempty"`
	IsStale      bool          `json:"is_stale"`      // > 1 year old
	IsVeryStale  bool          `json:"is_very_stale"` // > 3 years old
	IsDead       bool          `json:"is_dead"`       // 404, 410 or unreachable
	RedirectURL  string        `json:"redirect_url,omitempty"`
	Authority    AuthorityTier `json:"authority"`
	Error        string        `json:"error,omitempty"`
}
