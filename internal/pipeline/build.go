package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"brand-profiler/backend/internal/ai"
	"brand-profiler/backend/internal/analysis"
	"brand-profiler/backend/internal/config"
	"brand-profiler/backend/internal/enrich"
	"brand-profiler/backend/internal/fetch"
)

// FromConfig wires the HTTP fetcher, the configured AI providers and the merge
// engine. The returned flag reports whether analysis is available; without it
// every run falls back to an empty analysis.
func FromConfig(ctx context.Context, cfg config.Config) (*Pipeline, bool, error) {
	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		UserAgent:     cfg.Fetch.UserAgent,
		Timeout:       cfg.Fetch.Timeout.Duration,
		MaxBodyBytes:  cfg.Fetch.MaxBodyBytes,
		RespectRobots: cfg.Fetch.RespectRobots,
	})
	merger := enrich.Engine{MatchImageNames: cfg.Enrich.MatchImageNames}

	gen, models, err := ai.NewFromConfig(ctx, cfg.AI)
	switch {
	case errors.Is(err, ai.ErrDisabled):
		logrus.WithField("provider", cfg.AI.Provider).Info("brand analysis disabled")
		return New(fetcher, nil, merger), false, nil
	case err != nil:
		return nil, false, fmt.Errorf("ai provider: %w", err)
	}

	analyzer := analysis.NewFromGenerator(gen, models, cfg.AI.Timeout.Duration)
	if !analyzer.Enabled() {
		return New(fetcher, nil, merger), false, nil
	}
	logrus.WithFields(logrus.Fields{
		"provider":          cfg.AI.Provider,
		"fallback_provider": cfg.AI.FallbackProvider,
		"model":             models.Select(ai.TierFast),
	}).Info("brand analysis enabled")
	return New(fetcher, analyzer, merger), true, nil
}
