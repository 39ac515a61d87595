package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"brand-profiler/backend/internal/config"
)

// NewFromConfig builds the configured provider chain and the model tiers of the
// primary provider. ErrDisabled is returned when AI is switched off or no
// provider has credentials.
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (Generator, Models, error) {
	if cfg.Disabled {
		return nil, nil, ErrDisabled
	}

	primary, models, err := newProvider(ctx, cfg.Provider, cfg)
	if err != nil && !errors.Is(err, ErrDisabled) {
		return nil, nil, err
	}
	if err != nil {
		logrus.WithField("provider", cfg.Provider).Warn("primary ai provider not configured")
	}

	var fallback Generator
	if cfg.FallbackProvider != "" && cfg.FallbackProvider != cfg.Provider {
		fb, fbModels, fbErr := newProvider(ctx, cfg.FallbackProvider, cfg)
		switch {
		case fbErr == nil:
			fallback = fb
			if primary == nil {
				models = fbModels
			}
		case errors.Is(fbErr, ErrDisabled):
			logrus.WithField("provider", cfg.FallbackProvider).Warn("fallback ai provider not configured")
		default:
			return nil, nil, fbErr
		}
	}

	gen := WithFallback(primary, fallback)
	if gen == nil {
		return nil, nil, ErrDisabled
	}
	return gen, models, nil
}

func newProvider(ctx context.Context, name string, cfg config.AIConfig) (Generator, Models, error) {
	switch name {
	case config.ProviderOpenAI:
		client, err := NewClient(Config{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			BaseURL:     cfg.OpenAI.BaseURL,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, OpenAIModels().WithOverride(cfg.OpenAI.Model), nil
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, GeminiModels().WithOverride(cfg.Gemini.Model), nil
	case config.ProviderNone, "":
		return nil, nil, ErrDisabled
	default:
		return nil, nil, fmt.Errorf("unknown ai provider %q", name)
	}
}
