// Package pipeline sequences a single brand scrape: normalize the URL, fetch
// the page, extract signals, analyze them and merge the results into a profile.
package pipeline

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	"brand-profiler/backend/internal/analysis"
	"brand-profiler/backend/internal/brand"
	"brand-profiler/backend/internal/extract"
	"brand-profiler/backend/internal/fetch"
	"brand-profiler/backend/internal/urlnorm"
	"brand-profiler/backend/internal/util"
)

// Stage names reported through Event.Stage.
const (
	StageNormalize = "normalize"
	StageFetch     = "fetch"
	StageExtract   = "extract"
	StageAnalyze   = "analyze"
	StageMerge     = "merge"
	StageDone      = "done"
)

// Fetcher downloads a page.
type Fetcher interface {
	Fetch(ctx context.Context, target *url.URL) (*fetch.Page, error)
}

// Analyzer produces the strategic reading of a brand. A nil result means
// analysis was unavailable.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) *brand.AnalysisResult
}

// Merger reconciles scraped and detected products.
type Merger interface {
	Merge(scraped []brand.Product, analysis *brand.AnalysisResult, images []string) []brand.Product
}

// Event reports the completion of a stage.
type Event struct {
	Stage     string `json:"stage"`
	Message   string `json:"message"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// Reporter receives stage events. It is called on the goroutine running Run.
type Reporter func(Event)

// Pipeline runs one scrape per call and holds no per-request state.
type Pipeline struct {
	fetcher  Fetcher
	analyzer Analyzer
	merger   Merger
}

// New builds a pipeline. A nil analyzer skips analysis and every run proceeds
// with an empty analysis.
func New(fetcher Fetcher, analyzer Analyzer, merger Merger) *Pipeline {
	return &Pipeline{fetcher: fetcher, analyzer: analyzer, merger: merger}
}

// Run scrapes rawURL and returns the combined profile. Only URL validation
// and fetch failures are fatal; analysis failures degrade to empty defaults.
func (p *Pipeline) Run(ctx context.Context, rawURL string, report Reporter) (profile *brand.Profile, err error) {
	timer := util.StartTimer()
	emit := func(stage, message string) {
		elapsed := timer.Lap()
		if report != nil {
			report(Event{Stage: stage, Message: message, ElapsedMs: elapsed})
		}
	}
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{"url": rawURL, "panic": r}).Error("pipeline panic recovered")
			profile = nil
			err = &Error{Kind: KindUnexpected, Err: fmt.Errorf("%w: %v", ErrUnexpected, r)}
		}
	}()

	normalized, target, err := urlnorm.NormalizeAndParse(rawURL)
	if err != nil {
		logrus.WithError(err).WithField("input", rawURL).Info("rejecting scrape url")
		return nil, &Error{Kind: KindInvalidURL, Err: err}
	}
	log := logrus.WithField("url", normalized)
	log.WithField("stage", StageNormalize).Debug("url normalized")
	emit(StageNormalize, normalized)

	page, err := p.fetcher.Fetch(ctx, target)
	if err != nil {
		log.WithError(err).WithField("stage", StageFetch).Warn("fetch failed")
		return nil, &Error{Kind: KindFetchFailed, Err: err}
	}
	log.WithFields(logrus.Fields{
		"stage":      StageFetch,
		"status":     page.StatusCode,
		"bytes":      len(page.Body),
		"elapsed_ms": page.Latency.Milliseconds(),
	}).Info("page fetched")
	emit(StageFetch, fmt.Sprintf("fetched %d bytes", len(page.Body)))

	base := page.FinalURL
	if base == nil {
		base = target
	}
	data := extract.Extract(page.Body, base)
	log.WithFields(logrus.Fields{
		"stage":       StageExtract,
		"name":        data.Name,
		"colors":      len(data.Colors),
		"images":      len(data.Images),
		"products":    len(data.Products),
		"text_length": len(data.TextContent),
		"elapsed_ms":  timer.ElapsedMs(),
	}).Info("brand data extracted")
	emit(StageExtract, fmt.Sprintf("found %d colors, %d images, %d products", len(data.Colors), len(data.Images), len(data.Products)))

	var result *brand.AnalysisResult
	if p.analyzer != nil {
		result = p.analyzer.Analyze(ctx, analysis.Input{
			BrandName:   data.Name,
			URL:         normalized,
			TextContent: data.TextContent,
			Products:    data.Products,
		})
	}
	log.WithFields(logrus.Fields{
		"stage":      StageAnalyze,
		"analyzed":   result != nil,
		"elapsed_ms": timer.ElapsedMs(),
	}).Info("analysis finished")
	if result != nil {
		emit(StageAnalyze, "analysis complete")
	} else {
		emit(StageAnalyze, "analysis unavailable, using defaults")
	}

	products := p.merger.Merge(data.Products, result, data.Images)
	log.WithFields(logrus.Fields{
		"stage":    StageMerge,
		"products": len(products),
	}).Info("products merged")
	emit(StageMerge, fmt.Sprintf("%d products", len(products)))

	profile = brand.NewProfile(data, result, products)
	log.WithFields(logrus.Fields{"stage": StageDone, "elapsed_ms": timer.ElapsedMs()}).Info("brand scrape complete")
	emit(StageDone, "")
	return profile, nil
}
