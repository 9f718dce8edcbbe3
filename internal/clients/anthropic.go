package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/dkoval/tradeloop/internal/domain"
	"github.com/dkoval/tradeloop/pkg/retrier"
)

const (
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// AnthropicClient talks to the Anthropic messages API.
type AnthropicClient struct {
	apiKey       string
	model        string
	systemPrompt string
	httpClient   *http.Client
	retrier      *retrier.Retrier
	costPerMTok  costRates
}

// NewAnthropicClient creates a messages API client.
func NewAnthropicClient(apiKey, model, systemPrompt string) *AnthropicClient {
	return &AnthropicClient{
		apiKey:       apiKey,
		model:        model,
		systemPrompt: systemPrompt,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		retrier:     retrier.New(retrier.WithMaxRetries(3)),
		costPerMTok: costRates{input: 3.00, output: 15.00},
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string                `json:"model"`
	Content []anthropicContent    `json:"content"`
	Usage   anthropicUsage        `json:"usage"`
	Error   *anthropicErrorDetail `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Invoke sends the prompt and returns the completion text with usage.
func (c *AnthropicClient) Invoke(ctx context.Context, prompt string) (*domain.ModelResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("model API key is empty")
	}

	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: defaultMaxTokens,
		System:    c.systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	return retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (*domain.ModelResponse, error) {
		return c.sendRequest(ctx, reqBody)
	})
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return string(ProviderAnthropic)
}

// EstimateCost returns the approximate USD cost of one invocation.
func (c *AnthropicClient) EstimateCost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)/1e6*c.costPerMTok.input +
		float64(completionTokens)/1e6*c.costPerMTok.output
}

func (c *AnthropicClient) sendRequest(ctx context.Context, reqBody anthropicRequest) (*domain.ModelResponse, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

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

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("model API error: %s (type: %s)", apiResp.Error.Message, apiResp.Error.Type)
	}

	var content string
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return nil, errors.New("model API returned no text content")
	}

	return &domain.ModelResponse{
		Content:          content,
		Model:            apiResp.Model,
		PromptTokens:     apiResp.Usage.InputTokens,
		CompletionTokens: apiResp.Usage.OutputTokens,
		Timestamp:        time.Now(),
	}, nil
}
