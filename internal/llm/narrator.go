package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/wayfare/internal/model"
	"go.uber.org/zap"
)

// Narrator adapts a Provider to ranking narration
type Narrator struct {
	provider Provider
	config   Config
	logger   *zap.Logger
}

// NewNarrator creates a narrator. With no provider configured it returns a
// disabled narrator, not an error.
func NewNarrator(config Config, logger *zap.Logger) (*Narrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	return &Narrator{provider: provider, config: config, logger: logger}, nil
}

// IsEnabled reports whether a provider is configured
func (n *Narrator) IsEnabled() bool {
	return n != nil && n.provider != nil
}

// ProviderName returns the configured provider, or ""
func (n *Narrator) ProviderName() string {
	if !n.IsEnabled() {
		return ""
	}
	return n.provider.Name()
}

// Narrate summarises the top results. A disabled narrator returns nil.
func (n *Narrator) Narrate(ctx context.Context, ranking *model.Ranking) (*model.Narration, error) {
	if !n.IsEnabled() || ranking == nil {
		return nil, nil
	}

	allowed := AllowedURLs(*ranking, n.config.TopN)
	resp, err := n.provider.Summarize(ctx, SummarizeRequest{
		Ranking:     *ranking,
		AllowedURLs: allowed,
		MaxTokens:   n.config.MaxTokens,
		TopN:        n.config.TopN,
	})
	if err != nil {
		return nil, fmt.Errorf("narrate %s: %w", ranking.Domain, err)
	}

	n.logger.Debug("narrated ranking",
		zap.String("domain", string(ranking.Domain)),
		zap.String("provider", n.provider.Name()),
		zap.Int("tokens", resp.TokensUsed))

	return &model.Narration{
		Provider:  n.provider.Name(),
		Model:     resp.Model,
		Text:      resp.Summary,
		CitedURLs: resp.CitedURLs,
	}, nil
}
