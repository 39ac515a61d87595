package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini API client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string
	HTTPClient  *http.Client
}

// GeminiClient implements Generator on top of the Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// NewGeminiClient builds a client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrDisabled
	}
	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = GeminiModels().Select(TierFast)
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.2
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: float32(temp),
		maxTokens:   int32(maxTokens),
	}, nil
}

// Enabled reports whether the client can make outbound calls.
func (g *GeminiClient) Enabled() bool {
	return g != nil && g.client != nil
}

// GenerateObject asks Gemini for application/json output constrained by req.Schema.
func (g *GeminiClient) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	if !g.Enabled() {
		return nil, ErrDisabled
	}
	cfg := g.contentConfig(req.System)
	cfg.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		cfg.ResponseJsonSchema = req.Schema
	}

	text, err := g.generate(ctx, req.Model, req.Prompt, cfg)
	if err != nil {
		return nil, err
	}
	text = CleanJSON(text)
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("structured response is not valid json")
	}
	return json.RawMessage(text), nil
}

// GenerateText returns the model reply as plain text.
func (g *GeminiClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if !g.Enabled() {
		return "", ErrDisabled
	}
	return g.generate(ctx, req.Model, req.Prompt, g.contentConfig(req.System))
}

func (g *GeminiClient) contentConfig(system string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}

func (g *GeminiClient) generate(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	if strings.TrimSpace(model) == "" {
		model = g.model
	}
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusPaymentRequired ||
			(apiErr.Code == http.StatusForbidden && strings.Contains(strings.ToLower(apiErr.Message), "billing")) ||
			isPaymentMessage(apiErr.Message) {
			return fmt.Errorf("%w: gemini status %d", ErrPaymentRequired, apiErr.Code)
		}
		return fmt.Errorf("gemini status %d: %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("gemini request: %w", err)
}
