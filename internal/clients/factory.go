package clients

import (
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
)

// ProviderKind enumerates the supported model vendors. The set is closed:
// adding a vendor means adding a constant, a client, and a factory case.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderDeepSeek  ProviderKind = "deepseek"
	ProviderAnthropic ProviderKind = "anthropic"
)

const (
	openAIDefaultURL   = "https://api.openai.com/v1/chat/completions"
	deepSeekDefaultURL = "https://api.deepseek.com/chat/completions"
)

// ProviderConfig carries everything needed to construct a model client.
type ProviderConfig struct {
	Kind         ProviderKind
	APIKey       string
	APIURL       string // optional override for OpenAI-compatible vendors
	Model        string
	SystemPrompt string
}

// NewModelProvider builds the model client for the configured vendor.
func NewModelProvider(cfg ProviderConfig) (ModelProvider, error) {
	switch cfg.Kind {
	case ProviderOpenAI:
		apiURL := cfg.APIURL
		if apiURL == "" {
			apiURL = openAIDefaultURL
		}
		return NewOpenAICompatibleClient(string(ProviderOpenAI), apiURL, cfg.APIKey, cfg.Model, cfg.SystemPrompt), nil
	case ProviderDeepSeek:
		apiURL := cfg.APIURL
		if apiURL == "" {
			apiURL = deepSeekDefaultURL
		}
		return NewOpenAICompatibleClient(string(ProviderDeepSeek), apiURL, cfg.APIKey, cfg.Model, cfg.SystemPrompt), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.SystemPrompt), nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Kind)
	}
}

// NewBinanceFuturesClient creates a Binance USDT-M futures client.
func NewBinanceFuturesClient(apiKey, apiSecret string) *futures.Client {
	return binance.NewFuturesClient(apiKey, apiSecret)
}
