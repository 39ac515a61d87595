// Package analysis asks a language model for a strategic reading of a brand.
//
// The Analyzer never fails the caller: it tries structured generation first,
// then free text parsed as JSON, and returns nil when both paths fail.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"brand-profiler/backend/internal/ai"
	"brand-profiler/backend/internal/brand"
	"brand-profiler/backend/internal/util"
)

// ErrAnalysisFailed wraps every failure on either generation path.
var ErrAnalysisFailed = errors.New("brand analysis failed")

// DefaultTimeout bounds each individual model call.
const DefaultTimeout = 45 * time.Second

// ModelSelector resolves a tier name to a provider model.
type ModelSelector interface {
	Select(tier string) string
}

// Input carries the extracted signals the prompt is built from.
type Input struct {
	BrandName   string
	URL         string
	TextContent string
	Products    []brand.Product
}

// Analyzer runs the structured then free-text analysis chain.
type Analyzer struct {
	structured ai.StructuredGenerator
	text       ai.TextGenerator
	models     ModelSelector
	timeout    time.Duration
}

// New builds an Analyzer. Either generator may be nil, in which case that path
// is skipped. A zero timeout selects DefaultTimeout.
func New(structured ai.StructuredGenerator, text ai.TextGenerator, models ModelSelector, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if models == nil {
		models = ai.OpenAIModels()
	}
	return &Analyzer{structured: structured, text: text, models: models, timeout: timeout}
}

// NewFromGenerator uses gen for both paths.
func NewFromGenerator(gen ai.Generator, models ModelSelector, timeout time.Duration) *Analyzer {
	if gen == nil || !gen.Enabled() {
		return New(nil, nil, models, timeout)
	}
	return New(gen, gen, models, timeout)
}

// Enabled reports whether at least one generation path is configured.
func (a *Analyzer) Enabled() bool {
	return a != nil && (a.structured != nil || a.text != nil)
}

// Analyze returns the analysis or nil when no usable result could be produced.
func (a *Analyzer) Analyze(ctx context.Context, in Input) *brand.AnalysisResult {
	if !a.Enabled() {
		logrus.WithField("url", in.URL).Debug("analysis skipped, no ai provider configured")
		return nil
	}
	log := logrus.WithFields(logrus.Fields{
		"url":      in.URL,
		"stage":    "analyze",
		"products": len(in.Products),
		"text_len": len(in.TextContent),
	})
	model := a.models.Select(ai.TierFast)

	if a.structured != nil {
		timer := util.StartTimer()
		result, err := a.generateStructured(ctx, model, in)
		if err == nil {
			log.WithFields(logrus.Fields{"path": "structured", "elapsed_ms": timer.ElapsedMs()}).Info("analysis complete")
			return result
		}
		if errors.Is(err, ai.ErrPaymentRequired) {
			log.WithError(err).
				WithField("action", "add a payment method or complete billing verification with the AI provider").
				Error("ai provider requires payment verification, structured analysis unavailable")
		} else {
			log.WithError(err).Warn("structured analysis failed, trying text fallback")
		}
	}

	if a.text != nil {
		timer := util.StartTimer()
		result, err := a.generateText(ctx, model, in)
		if err == nil {
			log.WithFields(logrus.Fields{"path": "text", "elapsed_ms": timer.ElapsedMs()}).Info("analysis complete")
			return result
		}
		log.WithError(err).Warn("text analysis failed")
	}
	return nil
}

func (a *Analyzer) generateStructured(ctx context.Context, model string, in Input) (*brand.AnalysisResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.structured.GenerateObject(callCtx, ai.ObjectRequest{
		Model:      model,
		System:     structuredSystemPrompt,
		Prompt:     buildPrompt(in),
		SchemaName: schemaName,
		Schema:     analysisSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: structured: %w", ErrAnalysisFailed, err)
	}
	return decodeResult(raw)
}

func (a *Analyzer) generateText(ctx context.Context, model string, in Input) (*brand.AnalysisResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.text.GenerateText(callCtx, ai.TextRequest{
		Model:  model,
		System: textSystemPrompt,
		Prompt: buildTextPrompt(in),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: text: %w", ErrAnalysisFailed, err)
	}
	cleaned := ai.CleanJSON(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: text: empty reply", ErrAnalysisFailed)
	}
	return decodeResult([]byte(cleaned))
}

func decodeResult(raw []byte) (*brand.AnalysisResult, error) {
	var result brand.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrAnalysisFailed, err)
	}
	sanitize(&result)
	if result.Tone == "" && result.Story == "" && result.Audience == "" {
		return nil, fmt.Errorf("%w: result has no tone, story or audience", ErrAnalysisFailed)
	}
	return &result, nil
}

func sanitize(r *brand.AnalysisResult) {
	for _, field := range []*string{&r.Tone, &r.Audience, &r.Industry, &r.Values, &r.Story, &r.Tagline, &r.Mission, &r.Archetype} {
		*field = strings.TrimSpace(*field)
	}
	r.USPs = cleanList(r.USPs)
	r.PainPoints = cleanList(r.PainPoints)
	r.CustomerDesires = cleanList(r.CustomerDesires)
	r.AdAngles = cleanList(r.AdAngles)
	for i := range r.DetectedProducts {
		p := &r.DetectedProducts[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Description = strings.TrimSpace(p.Description)
		p.Price = strings.TrimSpace(p.Price)
		p.Currency = strings.TrimSpace(p.Currency)
		p.VisualContext = strings.TrimSpace(p.VisualContext)
		p.MarketingAngles = cleanList(p.MarketingAngles)
		p.Colors = cleanList(p.Colors)
	}
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
