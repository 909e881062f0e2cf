// Demo program that walks one sample article through every analysis stage
// and prints the intermediate results
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/healthlens/internal/evidence"
	"github.com/ppiankov/healthlens/internal/extract"
	"github.com/ppiankov/healthlens/internal/glossary"
	"github.com/ppiankov/healthlens/internal/score"
	"github.com/ppiankov/healthlens/internal/text"
)

const sample = `
Coffee cures headaches and guarantees relief. "A doctor said so."
More info: https://example.com/coffee-headaches
Regular sleep may reduce risk of migraines.
`

func main() {
	fmt.Println("=== HealthLens Stage Demo ===")
	fmt.Println()

	// 1. Clean text
	clean := text.Normalize(sample)
	fmt.Printf("Clean text:  %s\n", clean)

	// 2. Detect claim sentences
	detector, err := extract.NewClaimDetector(25, extract.WithIDGenerator(extract.Sequential("c")))
	if err != nil {
		fail(err)
	}
	claims, err := detector.Detect(clean)
	if err != nil {
		fail(err)
	}
	fmt.Println("Claims:")
	for _, c := range claims {
		fmt.Printf("  %s  %s\n", c.ID, c.Text)
	}

	// 3. Pull citations (URLs, then quotes)
	citations := extract.NewCitationExtractor().Extract(clean)
	fmt.Printf("Citations:   %s\n", strings.Join(citations, " | "))

	// 4. Compare to trusted phrasing
	g := glossary.New()
	if err := g.Add("headaches", "may reduce risk", "can help"); err != nil {
		fail(err)
	}
	mismatches, err := g.Compare(clean)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Mismatches:  %v\n", mismatches)

	// 5. Score article
	risk := score.NewScorer().Calculate(clean, claims, citations, mismatches)
	fmt.Printf("Risk score:  %+v (%s)\n", risk, score.Level(risk.Total))

	// 6. Link claims to evidence
	evidenceMap := evidence.NewLinker().Link(claims, citations)
	fmt.Println("Evidence map:")
	for _, c := range claims {
		fmt.Printf("  %s -> %v\n", c.ID, evidenceMap[c.ID])
	}

	fmt.Println("\n=== Demo Complete ===")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
