package observability

import (
	"casaideal/internal/config"
	"context"
	"fmt"
	"log/slog"

	"github.com/posthog/posthog-go"
)

// systemDistinctID attributes events that have no end user.
const systemDistinctID = "system"

// PostHogClient wraps the PostHog SDK for product analytics
type PostHogClient struct {
	client  posthog.Client
	enabled bool
	log     *slog.Logger
}

// EventProperties contains properties for an event
type EventProperties map[string]interface{}

// NewPostHogClient creates a new PostHog analytics client. A disabled config
// yields a client whose methods are no-ops.
func NewPostHogClient(cfg config.PostHogConfig) (*PostHogClient, error) {
	if !cfg.Enabled {
		return Disabled(), nil
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("PostHog enabled but missing API key")
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Endpoint: cfg.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PostHog client: %w", err)
	}

	return &PostHogClient{
		client:  client,
		enabled: true,
		log:     slog.Default(),
	}, nil
}

// Disabled returns a client that drops every event.
func Disabled() *PostHogClient {
	return &PostHogClient{enabled: false, log: slog.Default()}
}

// IsEnabled returns whether PostHog tracking is enabled
func (p *PostHogClient) IsEnabled() bool {
	return p != nil && p.enabled
}

// Capture sends an event to PostHog
func (p *PostHogClient) Capture(ctx context.Context, distinctID string, event string, properties EventProperties) error {
	if !p.IsEnabled() {
		return nil
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}

	if err := p.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: props,
	}); err != nil {
		p.log.Warn("posthog enqueue failed", "event", event, "error", err)
		return err
	}
	return nil
}

// TrackSearch tracks a finished listing search. Preferences are summarized,
// never sent verbatim, so names and free text stay local.
func (p *PostHogClient) TrackSearch(ctx context.Context, runID, kind, intention string, listings int, durationMs int64, successful bool) error {
	return p.Capture(ctx, systemDistinctID, "listing_search", EventProperties{
		"run_id":      runID,
		"kind":        kind, // "primary", "similar"
		"intention":   intention,
		"listings":    listings,
		"duration_ms": durationMs,
		"successful":  successful,
	})
}

// TrackLLMCall tracks generation calls for cost and performance monitoring
func (p *PostHogClient) TrackLLMCall(ctx context.Context, model string, operation string, latencyMs int64, successful bool) error {
	return p.Capture(ctx, systemDistinctID, "llm_call", EventProperties{
		"model":      model,
		"operation":  operation, // "text_generation", "image_generation"
		"latency_ms": latencyMs,
		"successful": successful,
	})
}

// TrackVisitScheduled tracks a confirmed visit request
func (p *PostHogClient) TrackVisitScheduled(ctx context.Context, propertyID string, slot string) error {
	return p.Capture(ctx, systemDistinctID, "visit_scheduled", EventProperties{
		"property_id": propertyID,
		"slot":        slot,
	})
}

// TrackInfoRequested tracks a confirmed information request
func (p *PostHogClient) TrackInfoRequested(ctx context.Context, propertyID string) error {
	return p.Capture(ctx, systemDistinctID, "info_requested", EventProperties{
		"property_id": propertyID,
	})
}

// TrackComparison tracks a built comparison
func (p *PostHogClient) TrackComparison(ctx context.Context, propertyCount int) error {
	return p.Capture(ctx, systemDistinctID, "comparison_built", EventProperties{
		"property_count": propertyCount,
	})
}

// TrackError tracks when an error occurs
func (p *PostHogClient) TrackError(ctx context.Context, errorType string, errorMessage string, component string) error {
	return p.Capture(ctx, systemDistinctID, "error_occurred", EventProperties{
		"error_type":    errorType,
		"error_message": errorMessage,
		"component":     component,
	})
}

// Close flushes pending events and shuts the client down
func (p *PostHogClient) Close() error {
	if !p.IsEnabled() {
		return nil
	}

	return p.client.Close()
}
