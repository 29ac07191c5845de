package llm

import (
	"casaideal/internal/logger"
	"casaideal/internal/metrics"
	"casaideal/internal/observability"
	"context"
	"time"
)

// Operation names reported to metrics and analytics.
const (
	OperationText   = "text_generation"
	OperationImages = "image_generation"
)

// TracedClient wraps generators with latency metrics and PostHog events.
type TracedClient struct {
	text       TextGenerator
	images     ImageGenerator
	textModel  string
	imageModel string
	posthog    *observability.PostHogClient
}

var (
	_ TextGenerator  = (*TracedClient)(nil)
	_ ImageGenerator = (*TracedClient)(nil)
)

// NewTracedClient creates a traced client around a Gemini client
func NewTracedClient(client *Client, posthog *observability.PostHogClient) *TracedClient {
	return &TracedClient{
		text:       client,
		images:     client,
		textModel:  client.TextModel(),
		imageModel: client.ImageModel(),
		posthog:    posthog,
	}
}

// NewTracedGenerators wraps arbitrary generators. Model names are used as
// labels when a call does not override the model.
func NewTracedGenerators(text TextGenerator, images ImageGenerator, textModel, imageModel string, posthog *observability.PostHogClient) *TracedClient {
	return &TracedClient{
		text:       text,
		images:     images,
		textModel:  textModel,
		imageModel: imageModel,
		posthog:    posthog,
	}
}

// GenerateText generates text with tracing
func (tc *TracedClient) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	model := options.Model
	if model == "" {
		model = tc.textModel
	}

	startTime := time.Now()
	result, err := tc.text.GenerateText(ctx, prompt, options)
	tc.record(ctx, OperationText, model, time.Since(startTime), err)

	return result, err
}

// GenerateImages generates images with tracing
func (tc *TracedClient) GenerateImages(ctx context.Context, prompt string, options ImageGenerationOptions) ([]Image, error) {
	model := options.Model
	if model == "" {
		model = tc.imageModel
	}

	startTime := time.Now()
	images, err := tc.images.GenerateImages(ctx, prompt, options)
	tc.record(ctx, OperationImages, model, time.Since(startTime), err)

	return images, err
}

func (tc *TracedClient) record(ctx context.Context, operation, model string, elapsed time.Duration, err error) {
	metrics.ObserveLLMCall(operation, model, elapsed, err)

	if err != nil {
		logger.Component("llm").Debug("generation call failed",
			"operation", operation,
			"model", model,
			"kind", KindOf(err).String(),
			"latency_ms", elapsed.Milliseconds(),
			"error", err)
	}

	if tc.posthog.IsEnabled() {
		_ = tc.posthog.TrackLLMCall(ctx, model, operation, elapsed.Milliseconds(), err == nil)
	}
}
