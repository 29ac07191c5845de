package pipeline

import (
	"casaideal/internal/core"
	"casaideal/internal/llm"
	"casaideal/internal/logger"
	"casaideal/internal/metrics"
	"casaideal/internal/observability"
	"casaideal/internal/parser"
	"casaideal/internal/prompts"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Search kinds used in logs, metrics and analytics.
const (
	KindPrimary = "primary"
	KindSimilar = "similar"
)

// Pipeline orchestrates listing generation: prompt, generate, parse, enrich.
type Pipeline struct {
	generator ListingGenerator
	enricher  Enricher
	analytics *observability.PostHogClient
	config    *Config
	log       *slog.Logger
}

// Config holds pipeline configuration
type Config struct {
	TextModel          string  // Text model override (empty uses the client default)
	PrimaryTemperature float32 // Temperature for the main listings
	SimilarTemperature float32 // Temperature for alternative listings
	SkipSimilar        bool    // Search returns only the primary listings
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		PrimaryTemperature: 0.8,
		SimilarTemperature: 0.9,
	}
}

// NewPipeline creates a new pipeline. analytics may be nil.
func NewPipeline(generator ListingGenerator, enricher Enricher, analytics *observability.PostHogClient, config *Config) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}

	return &Pipeline{
		generator: generator,
		enricher:  enricher,
		analytics: analytics,
		config:    config,
		log:       logger.Component("pipeline"),
	}
}

// SearchResult is the outcome of a full search
type SearchResult struct {
	RunID       string           `json:"runId"`
	Preferences core.Preferences `json:"preferences"`
	Listings    []core.Property  `json:"listings"`
	Similar     []core.Property  `json:"similar"`
	Progress    []string         `json:"progress"`
	StartedAt   time.Time        `json:"startedAt"`
	Duration    time.Duration    `json:"duration"`
}

// FindPrimaryListings generates and enriches the main listings for prefs.
// Malformed responses and configuration failures abort the search; all
// errors are returned as *SearchError. An empty result is not an error.
func (p *Pipeline) FindPrimaryListings(ctx context.Context, prefs core.Preferences, sink ProgressSink) ([]core.Property, error) {
	startTime := time.Now()

	if prefs.BudgetInverted() {
		p.log.Warn("budget minimum is above maximum, passing through unchanged",
			"min", prefs.Budget.Min, "max", prefs.Budget.Max)
	}

	properties, dropped, err := p.generate(ctx, KindPrimary, prefs, prompts.BuildPrimaryListingsPrompt(prefs), p.config.PrimaryTemperature, sink, MessageEnriching)
	metrics.AddDropped(KindPrimary, dropped)
	metrics.ObserveSearch(KindPrimary, time.Since(startTime), len(properties), err)

	if err != nil {
		searchErr := newSearchError(err)
		p.log.Error("primary search failed", "error", err, "kind", llm.KindOf(err).String())
		if p.analytics.IsEnabled() {
			_ = p.analytics.TrackError(ctx, llm.KindOf(err).String(), err.Error(), "pipeline")
		}
		return nil, searchErr
	}

	p.log.Info("primary listings ready", "count", len(properties), "dropped", dropped, "duration", time.Since(startTime))
	return properties, nil
}

// FindSimilarListings generates alternatives to existing. It never fails:
// any error is logged and an empty slice is returned.
func (p *Pipeline) FindSimilarListings(ctx context.Context, prefs core.Preferences, existing []core.Property, sink ProgressSink) []core.Property {
	startTime := time.Now()
	existingIDs := core.IDs(existing)

	report(p.log, sink, MessageAlternatives)
	properties, dropped, err := p.generate(ctx, KindSimilar, prefs, prompts.BuildSimilarListingsPrompt(prefs, existingIDs), p.config.SimilarTemperature, sink, MessageFinalizing)
	metrics.AddDropped(KindSimilar, dropped)
	metrics.ObserveSearch(KindSimilar, time.Since(startTime), len(properties), err)

	if err != nil {
		p.log.Warn("similar listings unavailable", "error", err, "kind", llm.KindOf(err).String())
		return []core.Property{}
	}

	p.warnOnCollisions(existingIDs, properties)
	return properties
}

// Search runs the primary search and then the similar search over its
// results. A failed similar search never affects the primary listings.
func (p *Pipeline) Search(ctx context.Context, prefs core.Preferences, sink ProgressSink) (*SearchResult, error) {
	return p.search(ctx, prefs, sink, MessageCrafting)
}

// Refine is Search for a user adjusting an earlier search.
func (p *Pipeline) Refine(ctx context.Context, prefs core.Preferences, sink ProgressSink) (*SearchResult, error) {
	return p.search(ctx, prefs, sink, MessageRefining)
}

func (p *Pipeline) search(ctx context.Context, prefs core.Preferences, sink ProgressSink, firstMessage string) (*SearchResult, error) {
	startTime := time.Now()
	recorder := &ProgressRecorder{}
	progress := MultiSink(sink, recorder)

	result := &SearchResult{
		RunID:       uuid.NewString(),
		Preferences: prefs,
		StartedAt:   startTime,
	}
	log := p.log.With("run_id", result.RunID)
	log.Info("search started", "intention", prefs.Intention, "location", prefs.Location)

	report(log, progress, firstMessage)

	listings, err := p.FindPrimaryListings(ctx, prefs, progress)
	if err != nil {
		p.track(ctx, result.RunID, KindPrimary, prefs, 0, time.Since(startTime), false)
		return nil, err
	}
	result.Listings = listings
	p.track(ctx, result.RunID, KindPrimary, prefs, len(listings), time.Since(startTime), true)

	result.Similar = []core.Property{}
	if !p.config.SkipSimilar {
		similarStart := time.Now()
		result.Similar = p.FindSimilarListings(ctx, prefs, listings, progress)
		p.track(ctx, result.RunID, KindSimilar, prefs, len(result.Similar), time.Since(similarStart), true)
	}

	result.Progress = recorder.Messages()
	result.Duration = time.Since(startTime)
	log.Info("search completed", "listings", len(result.Listings), "similar", len(result.Similar), "duration", result.Duration)

	return result, nil
}

// generate runs prompt → text generation → parse → enrich. enrichMessage is
// reported once parsing succeeded.
func (p *Pipeline) generate(ctx context.Context, kind string, prefs core.Preferences, prompt string, temperature float32, sink ProgressSink, enrichMessage string) ([]core.Property, int, error) {
	raw, err := p.generator.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Model:            p.config.TextModel,
		Temperature:      temperature,
		ResponseMIMEType: llm.JSONResponseType,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to generate %s listings: %w", kind, err)
	}

	parsed, err := parser.ParseListingsDetailed(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse %s listings: %w", kind, err)
	}

	report(p.log, sink, enrichMessage)

	properties, err := p.enricher.EnrichAll(ctx, parsed.Listings, prefs)
	if err != nil {
		return nil, parsed.Dropped, fmt.Errorf("failed to enrich %s listings: %w", kind, err)
	}
	if properties == nil {
		properties = []core.Property{}
	}

	return properties, parsed.Dropped, nil
}

// warnOnCollisions logs alternatives whose ids repeat a primary listing.
// Identifiers are not rewritten.
func (p *Pipeline) warnOnCollisions(existingIDs []string, properties []core.Property) {
	seen := make(map[string]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		seen[id] = struct{}{}
	}
	for _, prop := range properties {
		if _, ok := seen[prop.ID]; ok {
			p.log.Warn("alternative listing reuses an existing id", "id", prop.ID)
		}
	}
}

func (p *Pipeline) track(ctx context.Context, runID, kind string, prefs core.Preferences, count int, elapsed time.Duration, successful bool) {
	if !p.analytics.IsEnabled() {
		return
	}
	_ = p.analytics.TrackSearch(ctx, runID, kind, string(prefs.Intention), count, elapsed.Milliseconds(), successful)
}
