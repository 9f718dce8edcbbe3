package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelProvider(t *testing.T) {
	tests := []struct {
		name        string
		cfg         ProviderConfig
		wantName    string
		expectError bool
	}{
		{
			name:     "openai",
			cfg:      ProviderConfig{Kind: ProviderOpenAI, APIKey: "k", Model: "gpt-4o"},
			wantName: "openai",
		},
		{
			name:     "deepseek",
			cfg:      ProviderConfig{Kind: ProviderDeepSeek, APIKey: "k", Model: "deepseek-chat"},
			wantName: "deepseek",
		},
		{
			name:     "anthropic",
			cfg:      ProviderConfig{Kind: ProviderAnthropic, APIKey: "k", Model: "claude-sonnet-4-20250514"},
			wantName: "anthropic",
		},
		{
			name:        "unknown vendor",
			cfg:         ProviderConfig{Kind: "grok", APIKey: "k"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewModelProvider(tt.cfg)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported model provider")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, provider.Name())
		})
	}
}

func TestEstimateCost(t *testing.T) {
	client := NewOpenAICompatibleClient("openai", openAIDefaultURL, "k", "gpt-4o", "system")

	cost := client.EstimateCost(1_000_000, 1_000_000)

	assert.InDelta(t, 12.50, cost, 0.001)
}
