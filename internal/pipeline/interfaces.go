package pipeline

import (
	"casaideal/internal/core"
	"casaideal/internal/llm"
	"context"
)

// ListingGenerator produces the raw text the listings are parsed from
type ListingGenerator interface {
	// GenerateText sends a prompt to the text model
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// Enricher turns partial listings into complete properties
type Enricher interface {
	// EnrichAll enriches every listing, keeping input order.
	// Only configuration failures are returned; other failures fall back.
	EnrichAll(ctx context.Context, partials []core.PartialProperty, prefs core.Preferences) ([]core.Property, error)
}
