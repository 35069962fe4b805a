// Package llm narrates rankings with an optional language model. Narration
// runs after scoring and never changes a score or an order.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/wayfare/internal/currency"
	"github.com/ppiankov/wayfare/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a narration of the ranking
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for narration
type SummarizeRequest struct {
	Ranking model.Ranking

	// AllowedURLs is the strict allowlist the model may cite: the deep links
	// of the narrated results
	AllowedURLs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	Model     string
	MaxTokens int
	TopN      int
}

// SummarizeResponse contains the narration
type SummarizeResponse struct {
	Summary    string
	CitedURLs  []string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string
	Model    string
	APIKey   string
	// BaseURL for OpenAI-compatible endpoints
	BaseURL string
	Timeout int // seconds
	// StrictEvidence enforces the URL allowlist
	StrictEvidence bool
	MaxTokens      int
	TopN           int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // disabled
		Timeout:        30,
		StrictEvidence: true,
		MaxTokens:      600,
		TopN:           5,
	}
}

// BuildPrompt constructs the default narration prompt for the top results
func BuildPrompt(ranking model.Ranking, topN int, allowedURLs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are helping a traveller choose %s options. The results below were already filtered and ranked; do not re-rank them.

RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. Do not invent prices, ratings, or availability not shown below.
3. Mention uncertainty when a result lists it.
4. Refer to results by name.

Ranked results (%d passed, %d excluded by hard constraints):
`, ranking.Domain, joinURLs(allowedURLs), len(ranking.Results), ranking.Excluded)

	for i, res := range topResults(ranking, topN) {
		price := "price unknown"
		if res.Price != nil {
			price = currency.Format(*res.Price, res.Currency)
		}
		fmt.Fprintf(&b, "%d. %s (score %.0f, %s): %s\n", i+1, displayName(res), res.Score, price, res.Reasoning)
		if len(res.Uncertainty) > 0 {
			fmt.Fprintf(&b, "   uncertain: %s\n", strings.Join(res.Uncertainty, "; "))
		}
	}

	if len(ranking.Missing) > 0 {
		fmt.Fprintf(&b, "\nThe trip brief is still missing: %s\n", strings.Join(ranking.Missing, "; "))
	}

	b.WriteString("\nWrite 2-4 sentences comparing the top options and what sets them apart.")
	return b.String()
}

func topResults(ranking model.Ranking, topN int) []model.ScoredResult {
	if topN <= 0 || topN > len(ranking.Results) {
		return ranking.Results
	}
	return ranking.Results[:topN]
}

func displayName(res model.ScoredResult) string {
	if res.Name != "" {
		return res.Name
	}
	return res.ID
}

// AllowedURLs returns the deep links of the top results
func AllowedURLs(ranking model.Ranking, topN int) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, res := range topResults(ranking, topN) {
		if res.DeepLink == "" || seen[res.DeepLink] {
			continue
		}
		seen[res.DeepLink] = true
		urls = append(urls, res.DeepLink)
	}
	return urls
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(no URLs; do not cite any)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}
