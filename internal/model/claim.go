package model

// Claim represents a candidate factual statement extracted from a post
type Claim struct {
	Text           string `json:"text"`           // Trimmed sentence fragment
	Sentence       int    `json:"sentence"`       // Sentence index in the post (0-based)
	HasNumeric     bool   `json:"hasNumeric"`     // Digit run outside any date
	HasDate        bool   `json:"hasDate"`        // Year or d/m pattern
	HasQuantifier  bool   `json:"hasQuantifier"`  // million, billion, percent, ...
	HasAttribution bool   `json:"hasAttribution"` // said, announced, reported, ...
}

// HasSignal reports whether at least one verifiable feature flag is set
func (c Claim) HasSignal() bool {
	return c.HasNumeric || c.HasDate || c.HasQuantifier || c.HasAttribution
}

// ClaimVerdict is the verification outcome for one claim
type ClaimVerdict struct {
	Claim       Claim   `json:"claim"`
	IsVerified  bool    `json:"isVerified"`
	Confidence  float64 `json:"confidence"` // Always within [0, 1]
	Explanation string  `json:"explanation"`
}

// CountVerified returns how many verdicts are marked verified
func CountVerified(verdicts []ClaimVerdict) int {
	count := 0
	for _, v := range verdicts {
		if v.IsVerified {
			count++
		}
	}
	return count
}
