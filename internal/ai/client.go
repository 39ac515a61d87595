package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds settings for an OpenAI-compatible chat completions endpoint.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// Client implements Generator against an OpenAI-compatible API. BaseURL may
// point at an AI gateway that speaks the same protocol.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = OpenAIModels().Select(TierFast)
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		httpClient:  httpClient,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: temp,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// GenerateObject requests a strict json_schema response and returns the raw object.
func (c *Client) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	name := req.SchemaName
	if name == "" {
		name = "result"
	}
	payload := c.buildPayload(req.Model, req.System, req.Prompt)
	payload["response_format"] = map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   name,
			"strict": true,
			"schema": req.Schema,
		},
	}

	content, err := c.complete(ctx, payload)
	if err != nil {
		return nil, err
	}
	content = CleanJSON(content)
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("structured response is not valid json")
	}
	return json.RawMessage(content), nil
}

// GenerateText returns the assistant message as plain text.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	return c.complete(ctx, c.buildPayload(req.Model, req.System, req.Prompt))
}

func (c *Client) buildPayload(model, system, prompt string) map[string]any {
	if strings.TrimSpace(model) == "" {
		model = c.model
	}
	messages := make([]map[string]string, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})
	payload := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": c.temperature,
	}
	if c.maxTokens > 0 {
		payload["max_tokens"] = c.maxTokens
	}
	return payload
}

func (c *Client) complete(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if resp.StatusCode == http.StatusPaymentRequired || isPaymentMessage(string(raw)) {
			return "", fmt.Errorf("%w: openai status %d", ErrPaymentRequired, resp.StatusCode)
		}
		return "", fmt.Errorf("openai status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		if refusal := strings.TrimSpace(decoded.Choices[0].Message.Refusal); refusal != "" {
			return "", fmt.Errorf("openai refused: %s", refusal)
		}
		return "", ErrEmptyResponse
	}
	return content, nil
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}
