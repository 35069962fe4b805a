package model

// ScoredResult is one ranked candidate. It only reaches output when
// ConstraintViolations is empty.
type ScoredResult struct {
	ID                     string             `json:"id"`
	Name                   string             `json:"name,omitempty"`
	Domain                 Domain             `json:"domain"`
	Score                  float64            `json:"score"`                   // 0-100 after diversity
	RawScore               float64            `json:"raw_score"`               // 0-100 before diversity
	ScoringBreakdown       map[string]float64 `json:"scoring_breakdown"`       // factor -> 0..1
	ConstraintViolations   []string           `json:"constraint_violations"`   // always empty in output
	ConstraintSatisfaction map[string]bool    `json:"constraint_satisfaction"` // hard keys and soft factors
	Reasoning              string             `json:"reasoning"`
	DeepLink               string             `json:"deep_link,omitempty"`
	Uncertainty            []string           `json:"uncertainty,omitempty"`

	// Neighborhood and Brand feed the diversity pass
	Neighborhood string `json:"neighborhood,omitempty"`
	Brand        string `json:"brand,omitempty"`
	// Price is the candidate price converted into Currency
	Price    *float64 `json:"price,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// Ranking is the full output for one domain
type Ranking struct {
	Domain   Domain         `json:"domain"`
	Query    *ProviderQuery `json:"query"`
	Results  []ScoredResult `json:"results"`
	Excluded int            `json:"excluded"`
	Warnings []string       `json:"warnings,omitempty"`
	Missing  []string       `json:"missing,omitempty"` // brief completeness messages
	Summary  *Narration     `json:"narration,omitempty"`
}

// Narration is an optional LLM-written summary of a ranking.
// It never affects scores.
type Narration struct {
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	Text      string   `json:"text,omitempty"`
	CitedURLs []string `json:"cited_urls,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
