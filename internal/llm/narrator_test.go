package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/wayfare/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockProvider implements Provider for testing
type mockProvider struct {
	name     string
	response *SummarizeResponse
	err      error
	got      SummarizeRequest
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool {
	return true
}

func TestNewNarrator_Disabled(t *testing.T) {
	n, err := NewNarrator(Config{}, nil)
	require.NoError(t, err)
	assert.False(t, n.IsEnabled())
	assert.Empty(t, n.ProviderName())

	ranking := testRanking()
	narration, err := n.Narrate(context.Background(), &ranking)
	assert.NoError(t, err)
	assert.Nil(t, narration)
}

func TestNewNarrator_UnknownProvider(t *testing.T) {
	_, err := NewNarrator(Config{Provider: "claude"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider")
}

func TestNewProvider_Ollama(t *testing.T) {
	p, err := NewProvider(Config{Provider: "ollama", Model: "llama3.1"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, DefaultOllamaURL, p.(*OpenAIProvider).config.BaseURL)
}

func TestNarrator_Narrate(t *testing.T) {
	mock := &mockProvider{
		name:     "mock",
		response: &SummarizeResponse{Summary: "Hotel Lumière wins.", Model: "m1", CitedURLs: []string{"https://example.com/a"}},
	}
	n := &Narrator{provider: mock, config: Config{TopN: 1, MaxTokens: 200}, logger: zap.NewNop()}

	ranking := testRanking()
	narration, err := n.Narrate(context.Background(), &ranking)
	require.NoError(t, err)

	assert.Equal(t, "mock", narration.Provider)
	assert.Equal(t, "m1", narration.Model)
	assert.Equal(t, "Hotel Lumière wins.", narration.Text)
	assert.Equal(t, []string{"https://example.com/a"}, mock.got.AllowedURLs, "only the top-N deep links are allowed")
	assert.Equal(t, 200, mock.got.MaxTokens)
}

func TestNarrator_ProviderError(t *testing.T) {
	n := &Narrator{provider: &mockProvider{name: "mock", err: errors.New("boom")}, logger: zap.NewNop()}

	ranking := testRanking()
	_, err := n.Narrate(context.Background(), &ranking)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "narrate accommodation")
}

func TestBuildPrompt(t *testing.T) {
	ranking := testRanking()
	ranking.Missing = []string{"origin is required"}

	prompt := BuildPrompt(ranking, 5, AllowedURLs(ranking, 5))

	assert.Contains(t, prompt, "choose accommodation options")
	assert.Contains(t, prompt, "- https://example.com/a")
	assert.Contains(t, prompt, "- https://example.com/c")
	assert.Contains(t, prompt, "1. Hotel Lumière (score 80, €180.00): Top factors: price 100%")
	assert.Contains(t, prompt, "2. Canal Rooms (score 54, price unknown)")
	assert.Contains(t, prompt, "uncertain: guests: max guests not reported")
	assert.Contains(t, prompt, "still missing: origin is required")
	assert.Contains(t, prompt, "2 passed, 1 excluded")
}

func TestBuildPrompt_TopNAndNoURLs(t *testing.T) {
	ranking := testRanking()
	for i := range ranking.Results {
		ranking.Results[i].DeepLink = ""
	}

	prompt := BuildPrompt(ranking, 1, AllowedURLs(ranking, 1))
	assert.Contains(t, prompt, "(no URLs; do not cite any)")
	assert.NotContains(t, prompt, "Canal Rooms")
}

func TestJoinURLs_Many(t *testing.T) {
	urls := make([]string, 25)
	for i := range urls {
		urls[i] = "https://example.com/" + strings.Repeat("x", i+1)
	}
	out := joinURLs(urls)
	assert.Contains(t, out, "... and 5 more URLs")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434/v1")

	assert.Equal(t, "sk-env", ApplyEnv(Config{Provider: "openai"}).APIKey)
	assert.Equal(t, "sk-set", ApplyEnv(Config{Provider: "openai", APIKey: "sk-set"}).APIKey)
	assert.Equal(t, "http://gpu-box:11434/v1", ApplyEnv(Config{Provider: "ollama"}).BaseURL)
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.DefaultConfig().LLM)
	assert.True(t, cfg.StrictEvidence)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, 30, cfg.Timeout)
}
