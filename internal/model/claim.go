package model

// Claim is a sentence classified as asserting a health effect
type Claim struct {
	ID   string `json:"id"`   // Unique within one detection run
	Text string `json:"text"` // Trimmed sentence text
}

// ClaimIDs returns the IDs of claims in order
func ClaimIDs(claims []Claim) []string {
	ids := make([]string, len(claims))
	for i, c := range claims {
		ids[i] = c.ID
	}
	return ids
}
