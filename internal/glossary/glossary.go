// Package glossary holds the trusted medical-term glossary and compares
// article phrasing against it.
//
// A Glossary maps a case-insensitive term to the set of phrasings considered
// scientifically acceptable for it. Terms keep their insertion order, so
// comparison output is stable across runs. The glossary is safe for concurrent
// use: comparisons share a read lock, Add and Remove take the write lock.
package glossary

import (
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/ppiankov/healthlens/internal/errors"
	"github.com/ppiankov/healthlens/internal/model"
)

// Entry is one glossary term and its accepted phrases, both lower-cased
type Entry struct {
	Term    string   `json:"term" yaml:"term"`
	Phrases []string `json:"phrases" yaml:"phrases"`
}

// Glossary is an ordered, mutable term -> phrase-set mapping
type Glossary struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

// New creates an empty glossary
func New() *Glossary {
	return &Glossary{index: make(map[string]int)}
}

// Add inserts term with its accepted phrases, replacing the phrases of an
// existing term in place. Term and phrases are lower-cased and the phrase set
// is de-duplicated.
func (g *Glossary) Add(term string, phrases ...string) error {
	key := normalizeTerm(term)
	if key == "" {
		return apperrors.InvalidValue("glossary.add", "term must not be empty")
	}

	entry := Entry{Term: key, Phrases: phraseSet(phrases)}

	g.mu.Lock()
	defer g.mu.Unlock()

	if i, ok := g.index[key]; ok {
		g.entries[i] = entry
		return nil
	}
	g.index[key] = len(g.entries)
	g.entries = append(g.entries, entry)
	return nil
}

// Remove deletes term if present and reports whether it was found
func (g *Glossary) Remove(term string) bool {
	key := normalizeTerm(term)

	g.mu.Lock()
	defer g.mu.Unlock()

	i, ok := g.index[key]
	if !ok {
		return false
	}

	g.entries = append(g.entries[:i], g.entries[i+1:]...)
	delete(g.index, key)
	for j := i; j < len(g.entries); j++ {
		g.index[g.entries[j].Term] = j
	}
	return true
}

// Lookup returns a copy of the entry for term
func (g *Glossary) Lookup(term string) (Entry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	i, ok := g.index[normalizeTerm(term)]
	if !ok {
		return Entry{}, false
	}
	return copyEntry(g.entries[i]), true
}

// Entries returns a snapshot of all entries in insertion order
func (g *Glossary) Entries() []Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Entry, len(g.entries))
	for i, e := range g.entries {
		out[i] = copyEntry(e)
	}
	return out
}

// Len returns the number of terms
func (g *Glossary) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Compare flags every term that occurs in text without any accepted phrase.
// The read lock is held for the whole comparison so a concurrent Add or
// Remove cannot interleave with it.
func (g *Glossary) Compare(text string) ([]model.Mismatch, error) {
	if g == nil {
		return nil, apperrors.InvalidType("glossary.compare", "glossary is nil")
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	return Compare(text, g.entries), nil
}

func (g *Glossary) String() string {
	return "Glossary(terms=" + strconv.Itoa(g.Len()) + ")"
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func phraseSet(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	seen := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func copyEntry(e Entry) Entry {
	phrases := make([]string, len(e.Phrases))
	copy(phrases, e.Phrases)
	return Entry{Term: e.Term, Phrases: phrases}
}
