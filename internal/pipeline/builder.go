package pipeline

import (
	"casaideal/internal/config"
	"casaideal/internal/enrich"
	"casaideal/internal/llm"
	"casaideal/internal/observability"
	"context"
	"fmt"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	gemini      *config.GeminiConfig
	text        llm.TextGenerator
	images      llm.ImageGenerator
	analytics   *observability.PostHogClient
	config      *Config
	enrichOpts  enrich.Options
	skipSimilar bool
}

// NewBuilder creates a new pipeline builder with default settings
func NewBuilder() *Builder {
	return &Builder{
		config:     DefaultConfig(),
		enrichOpts: enrich.DefaultOptions(),
	}
}

// WithGemini configures models, temperatures and the API key from application config
func (b *Builder) WithGemini(cfg config.GeminiConfig) *Builder {
	b.gemini = &cfg

	b.config.TextModel = cfg.TextModel
	if cfg.PrimaryTemperature > 0 {
		b.config.PrimaryTemperature = cfg.PrimaryTemperature
	}
	if cfg.SimilarTemperature > 0 {
		b.config.SimilarTemperature = cfg.SimilarTemperature
	}

	b.enrichOpts.TextModel = cfg.TextModel
	b.enrichOpts.ImageModel = cfg.ImageModel
	if cfg.NarrativeTemperature > 0 {
		b.enrichOpts.NarrativeTemperature = cfg.NarrativeTemperature
	}
	if cfg.ImageCount > 0 {
		b.enrichOpts.ImageCount = cfg.ImageCount
	}
	if cfg.ImageMIMEType != "" {
		b.enrichOpts.ImageMIMEType = cfg.ImageMIMEType
	}
	if cfg.MaxConcurrency > 0 {
		b.enrichOpts.MaxConcurrency = cfg.MaxConcurrency
	}
	return b
}

// WithGenerators sets the text and image generators directly, skipping client construction
func (b *Builder) WithGenerators(text llm.TextGenerator, images llm.ImageGenerator) *Builder {
	b.text = text
	b.images = images
	return b
}

// WithAnalytics sets the PostHog client used for events
func (b *Builder) WithAnalytics(client *observability.PostHogClient) *Builder {
	b.analytics = client
	return b
}

// WithConfig sets the pipeline configuration
func (b *Builder) WithConfig(config *Config) *Builder {
	b.config = config
	return b
}

// WithEnrichOptions sets the enrichment options
func (b *Builder) WithEnrichOptions(opts enrich.Options) *Builder {
	b.enrichOpts = opts
	return b
}

// WithoutSimilar disables the alternative listings search
func (b *Builder) WithoutSimilar() *Builder {
	b.skipSimilar = true
	return b
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build(ctx context.Context) (*Pipeline, error) {
	if b.config == nil {
		b.config = DefaultConfig()
	}
	if b.skipSimilar {
		b.config.SkipSimilar = true
	}

	if b.text == nil || b.images == nil {
		if b.gemini == nil {
			return nil, fmt.Errorf("gemini configuration or explicit generators are required")
		}

		client, err := llm.NewClient(ctx, llm.Config{
			APIKey:     b.gemini.APIKey,
			TextModel:  b.gemini.TextModel,
			ImageModel: b.gemini.ImageModel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}

		traced := llm.NewTracedClient(client, b.analytics)
		if b.text == nil {
			b.text = traced
		}
		if b.images == nil {
			b.images = traced
		}
	}

	coordinator := enrich.NewCoordinator(b.images, b.text, b.enrichOpts)
	return NewPipeline(b.text, coordinator, b.analytics, b.config), nil
}
