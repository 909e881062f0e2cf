package extract

import (
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/ppiankov/healthlens/internal/errors"
	"github.com/ppiankov/healthlens/internal/model"
	"github.com/ppiankov/healthlens/internal/text"
)

// DefaultMinLength is the minimum claim length when no threshold is configured
const DefaultMinLength = 40

// IDGenerator returns a fresh claim identifier on every call
type IDGenerator func() string

// UUIDs generates random UUIDv4 identifiers
func UUIDs() IDGenerator {
	return uuid.NewString
}

// Sequential generates prefix1, prefix2, ... and is safe for concurrent use
func Sequential(prefix string) IDGenerator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

// Option configures a ClaimDetector
type Option func(*ClaimDetector)

// WithIDGenerator replaces the default UUID generator
func WithIDGenerator(gen IDGenerator) Option {
	return func(d *ClaimDetector) {
		if gen != nil {
			d.newID = gen
		}
	}
}

// ClaimDetector classifies sentences of cleaned text as health claims
type ClaimDetector struct {
	minLen   int
	keywords []string
	newID    IDGenerator
}

// NewClaimDetector creates a detector accepting sentences of at least minLen characters
func NewClaimDetector(minLen int, opts ...Option) (*ClaimDetector, error) {
	if minLen < 1 {
		return nil, apperrors.InvalidValue("claims", "min length must be >= 1, got %d", minLen)
	}

	d := &ClaimDetector{
		minLen: minLen,
		keywords: []string{
			"cause", "prevent", "cure", "reduces", "reduce",
			"increase", "improves", "improve",
		},
		newID: UUIDs(),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// MinLength returns the detector's length threshold
func (d *ClaimDetector) MinLength() int {
	return d.minLen
}

// Detect returns the qualifying sentences of text as claims, in sentence order.
// A sentence qualifies when it is at least MinLength characters long and contains
// a claim keyword or absolute language. Each claim gets a fresh ID; the run fails
// without partial output if the generator yields an empty or repeated ID.
func (d *ClaimDetector) Detect(cleaned string) ([]model.Claim, error) {
	claims := []model.Claim{}
	seen := make(map[string]bool)

	for _, sentence := range splitSentences(cleaned) {
		if !d.qualifies(sentence) {
			continue
		}

		id := d.newID()
		if id == "" || seen[id] {
			return nil, apperrors.InvalidValue("claims", "id generator returned unusable id %q", id)
		}
		seen[id] = true

		claims = append(claims, model.Claim{ID: id, Text: sentence})
	}

	return claims, nil
}

// qualifies applies the length and keyword/marker heuristics to a trimmed sentence
func (d *ClaimDetector) qualifies(sentence string) bool {
	if utf8.RuneCountInString(sentence) < d.minLen {
		return false
	}

	lower := strings.ToLower(sentence)
	for _, keyword := range d.keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	return text.IsAbsolute(sentence)
}

// splitSentences cuts text wherever '.', '!' or '?' is directly followed by
// whitespace. Abbreviations and decimals with a following space are split too.
// Candidates are trimmed and empty ones dropped.
func splitSentences(s string) []string {
	runes := []rune(s)

	var sentences []string
	add := func(candidate []rune) {
		if trimmed := strings.TrimSpace(string(candidate)); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}

	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}

		add(runes[start : i+1])

		// Skip the whole whitespace run
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	add(runes[start:])

	return sentences
}
