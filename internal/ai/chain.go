package ai

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

type generatorChain struct {
	primary  Generator
	fallback Generator
}

// WithFallback returns a generator that first tries the primary provider and
// falls back to the second when the primary is unavailable or fails.
func WithFallback(primary, fallback Generator) Generator {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return &generatorChain{primary: primary, fallback: fallback}
}

func (c *generatorChain) Enabled() bool {
	if c == nil {
		return false
	}
	return (c.primary != nil && c.primary.Enabled()) || (c.fallback != nil && c.fallback.Enabled())
}

func (c *generatorChain) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	if c.primary.Enabled() {
		out, err := c.primary.GenerateObject(ctx, req)
		if err == nil {
			return out, nil
		}
		logrus.WithError(err).Warn("primary provider failed structured generation, trying fallback")
	}
	if c.fallback.Enabled() {
		req.Model = ""
		return c.fallback.GenerateObject(ctx, req)
	}
	return nil, ErrDisabled
}

func (c *generatorChain) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if c.primary.Enabled() {
		out, err := c.primary.GenerateText(ctx, req)
		if err == nil {
			return out, nil
		}
		logrus.WithError(err).Warn("primary provider failed text generation, trying fallback")
	}
	if c.fallback.Enabled() {
		req.Model = ""
		return c.fallback.GenerateText(ctx, req)
	}
	return "", ErrDisabled
}
