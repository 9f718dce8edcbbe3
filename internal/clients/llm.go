// Package clients holds the outbound adapters of the agent: model vendor
// clients behind the ModelProvider capability interface, and exchange
// client constructors.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dkoval/tradeloop/internal/domain"
	"github.com/dkoval/tradeloop/pkg/retrier"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 4096
)

// ModelProvider is the capability interface over model vendors: one
// implementation per vendor, selected by the factory. Invoke sends a
// single prompt and returns the raw completion; retries on transient
// failures happen here, never in the orchestrator.
type ModelProvider interface {
	Invoke(ctx context.Context, prompt string) (*domain.ModelResponse, error)
	Name() string
	EstimateCost(promptTokens, completionTokens int) float64
}

// OpenAICompatibleClient talks to any OpenAI-style chat completions API
// (OpenAI itself, DeepSeek, and most self-hosted gateways).
type OpenAICompatibleClient struct {
	name         string
	apiURL       string
	apiKey       string
	model        string
	systemPrompt string
	httpClient   *http.Client
	retrier      *retrier.Retrier
	costPerMTok  costRates
}

// costRates holds USD prices per million tokens.
type costRates struct {
	input  float64
	output float64
}

// NewOpenAICompatibleClient creates a chat-completions client.
func NewOpenAICompatibleClient(name, apiURL, apiKey, model, systemPrompt string) *OpenAICompatibleClient {
	return &OpenAICompatibleClient{
		name:         name,
		apiURL:       apiURL,
		apiKey:       apiKey,
		model:        model,
		systemPrompt: systemPrompt,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		retrier:     retrier.New(retrier.WithMaxRetries(3)),
		costPerMTok: ratesForModel(model),
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Choices []choice  `json:"choices"`
	Usage   usage     `json:"usage"`
	Error   *apiError `json:"error,omitempty"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Invoke sends the prompt and returns the completion text with usage.
func (c *OpenAICompatibleClient) Invoke(ctx context.Context, prompt string) (*domain.ModelResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("model API key is empty")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.0, // deterministic responses for trading decisions
		MaxTokens:   defaultMaxTokens,
	}

	return retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (*domain.ModelResponse, error) {
		return c.sendRequest(ctx, reqBody)
	})
}

// Name returns the provider name the factory registered this client under.
func (c *OpenAICompatibleClient) Name() string {
	return c.name
}

// EstimateCost returns the approximate USD cost of one invocation.
func (c *OpenAICompatibleClient) EstimateCost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)/1e6*c.costPerMTok.input +
		float64(completionTokens)/1e6*c.costPerMTok.output
}

func (c *OpenAICompatibleClient) sendRequest(ctx context.Context, reqBody chatRequest) (*domain.ModelResponse, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("model API error: %s (type: %s, code: %s)",
			chatResp.Error.Message, chatResp.Error.Type, chatResp.Error.Code)
	}

	if len(chatResp.Choices) == 0 {
		return nil, errors.New("model API returned no choices")
	}

	return &domain.ModelResponse{
		Content:          chatResp.Choices[0].Message.Content,
		Model:            chatResp.Model,
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
		Timestamp:        time.Now(),
	}, nil
}

// ratesForModel returns rough published per-million-token prices used
// only for cost estimation in logs; unknown models get a conservative
// default.
func ratesForModel(model string) costRates {
	switch {
	case strings.Contains(model, "gpt-4o-mini"):
		return costRates{input: 0.15, output: 0.60}
	case strings.Contains(model, "gpt-4o"):
		return costRates{input: 2.50, output: 10.00}
	case strings.Contains(model, "deepseek"):
		return costRates{input: 0.27, output: 1.10}
	default:
		return costRates{input: 3.00, output: 15.00}
	}
}
