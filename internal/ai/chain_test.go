package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brand-profiler/backend/internal/config"
)

type stubGenerator struct {
	enabled   bool
	object    json.RawMessage
	text      string
	err       error
	calls     int
	lastModel string
}

func (s *stubGenerator) Enabled() bool { return s.enabled }

func (s *stubGenerator) GenerateObject(_ context.Context, req ObjectRequest) (json.RawMessage, error) {
	s.calls++
	s.lastModel = req.Model
	return s.object, s.err
}

func (s *stubGenerator) GenerateText(_ context.Context, req TextRequest) (string, error) {
	s.calls++
	s.lastModel = req.Model
	return s.text, s.err
}

func TestWithFallbackNilHandling(t *testing.T) {
	only := &stubGenerator{enabled: true}
	assert.Same(t, only, WithFallback(nil, only))
	assert.Same(t, only, WithFallback(only, nil))
	assert.Nil(t, WithFallback(nil, nil))
}

func TestWithFallbackUsesPrimaryFirst(t *testing.T) {
	primary := &stubGenerator{enabled: true, text: "primary"}
	fallback := &stubGenerator{enabled: true, text: "fallback"}

	out, err := WithFallback(primary, fallback).GenerateText(context.Background(), TextRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "primary", out)
	assert.Equal(t, 0, fallback.calls)
}

func TestWithFallbackOnPrimaryError(t *testing.T) {
	primary := &stubGenerator{enabled: true, err: errors.New("boom")}
	fallback := &stubGenerator{enabled: true, object: json.RawMessage(`{"ok":true}`)}

	out, err := WithFallback(primary, fallback).GenerateObject(context.Background(), ObjectRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(out))
	assert.Equal(t, "", fallback.lastModel, "fallback should use its own default model")
}

func TestWithFallbackAllDisabled(t *testing.T) {
	chain := WithFallback(&stubGenerator{}, &stubGenerator{})
	assert.False(t, chain.Enabled())
	_, err := chain.GenerateText(context.Background(), TextRequest{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewFromConfig(t *testing.T) {
	t.Run("disabled flag", func(t *testing.T) {
		cfg := config.Default().AI
		cfg.Disabled = true
		cfg.OpenAI.APIKey = "key"
		_, _, err := NewFromConfig(context.Background(), cfg)
		assert.ErrorIs(t, err, ErrDisabled)
	})

	t.Run("no credentials", func(t *testing.T) {
		cfg := config.Default().AI
		_, _, err := NewFromConfig(context.Background(), cfg)
		assert.ErrorIs(t, err, ErrDisabled)
	})

	t.Run("openai with pinned model", func(t *testing.T) {
		cfg := config.Default().AI
		cfg.OpenAI.APIKey = "key"
		cfg.OpenAI.Model = "gateway-model"
		gen, models, err := NewFromConfig(context.Background(), cfg)
		require.NoError(t, err)
		assert.True(t, gen.Enabled())
		assert.Equal(t, "gateway-model", models.Select(TierFast))
	})

	t.Run("fallback only", func(t *testing.T) {
		cfg := config.Default().AI
		cfg.FallbackProvider = config.ProviderGemini
		cfg.Gemini.APIKey = "key"
		gen, models, err := NewFromConfig(context.Background(), cfg)
		require.NoError(t, err)
		assert.IsType(t, &GeminiClient{}, gen)
		assert.Equal(t, "gemini-2.5-flash-lite", models.Select(TierFast))
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := config.Default().AI
		cfg.Provider = "mystery"
		_, _, err := NewFromConfig(context.Background(), cfg)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrDisabled))
	})
}
