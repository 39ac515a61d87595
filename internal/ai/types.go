package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrDisabled is returned when no provider is configured.
	ErrDisabled = errors.New("ai generation disabled")
	// ErrPaymentRequired is returned when the provider refuses the call until
	// billing or a payment method is verified.
	ErrPaymentRequired = errors.New("ai provider requires payment verification")
	// ErrEmptyResponse is returned when the provider answers without content.
	ErrEmptyResponse = errors.New("ai provider returned an empty response")
)

// ObjectRequest asks for a JSON object matching Schema.
type ObjectRequest struct {
	Model      string
	System     string
	Prompt     string
	SchemaName string
	Schema     map[string]any
}

// TextRequest asks for free-form text.
type TextRequest struct {
	Model  string
	System string
	Prompt string
}

// StructuredGenerator produces schema-constrained JSON.
type StructuredGenerator interface {
	GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error)
}

// TextGenerator produces free-form text.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// Generator is a provider that supports both generation modes.
type Generator interface {
	StructuredGenerator
	TextGenerator
	Enabled() bool
}

// Model tiers understood by Models.Select.
const (
	TierFast       = "fast"
	TierStandard   = "standard"
	TierAdvanced   = "advanced"
	TierStructured = "structured"
)

// Models maps a tier name to a provider model name.
type Models map[string]string

// OpenAIModels are the defaults for OpenAI-compatible endpoints.
func OpenAIModels() Models {
	return Models{
		TierFast:       "gpt-4o-mini",
		TierStandard:   "gpt-4-turbo",
		TierAdvanced:   "gpt-4o",
		TierStructured: "gpt-4o",
	}
}

// GeminiModels are the defaults for the Gemini API.
func GeminiModels() Models {
	return Models{
		TierFast:       "gemini-2.5-flash-lite",
		TierStandard:   "gemini-2.5-flash",
		TierAdvanced:   "gemini-2.5-pro",
		TierStructured: "gemini-2.5-flash",
	}
}

// Select returns the model for tier, falling back to the standard tier.
func (m Models) Select(tier string) string {
	if model, ok := m[strings.ToLower(strings.TrimSpace(tier))]; ok && model != "" {
		return model
	}
	return m[TierStandard]
}

// WithOverride pins every tier to model when model is non-empty.
func (m Models) WithOverride(model string) Models {
	model = strings.TrimSpace(model)
	out := make(Models, len(m))
	for tier, name := range m {
		if model != "" {
			name = model
		}
		out[tier] = name
	}
	return out
}

// CleanJSON strips Markdown fences and surrounding prose from a model reply,
// keeping the outermost JSON object.
func CleanJSON(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		if strings.HasSuffix(trimmed, "```") {
			trimmed = trimmed[:len(trimmed)-3]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

func isPaymentMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "credit card") || strings.Contains(lower, "verification_required")
}
