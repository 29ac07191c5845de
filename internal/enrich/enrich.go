package enrich

import (
	"casaideal/internal/core"
	"casaideal/internal/llm"
	"casaideal/internal/logger"
	"casaideal/internal/metrics"
	"casaideal/internal/prompts"
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ConsolationVibe replaces a neighborhood narrative that could not be generated.
const ConsolationVibe = "Não foi possível carregar a descrição do bairro, mas temos certeza que você vai adorar a área!"

// PlaceholderURL is the image service used when generation fails.
const PlaceholderURL = "https://picsum.photos/800/600?random=%d"

// Fallback field labels for metrics.
const (
	FieldImages       = "images"
	FieldNeighborhood = "neighborhood"
)

// PlaceholderFunc returns n image references for a property that has no generated images.
type PlaceholderFunc func(seed string, n int) []string

// Options configures enrichment
type Options struct {
	ImageModel           string          // Image model override (empty uses the client default)
	TextModel            string          // Text model override for narratives
	NarrativeTemperature float32         // Temperature for neighborhood narratives
	ImageCount           int             // Images requested per property
	ImageMIMEType        string          // Requested image format
	MaxConcurrency       int             // Properties enriched at once, 0 means all
	Placeholders         PlaceholderFunc // Fallback image references
}

// DefaultOptions returns the options used by the CLI and server
func DefaultOptions() Options {
	return Options{
		NarrativeTemperature: 0.75,
		ImageCount:           3,
		ImageMIMEType:        llm.DefaultImageMIMEType,
		Placeholders:         Placeholders,
	}
}

// Coordinator attaches images and a neighborhood narrative to generated listings.
type Coordinator struct {
	images llm.ImageGenerator
	text   llm.TextGenerator
	opts   Options
	log    *slog.Logger
}

// NewCoordinator creates a coordinator. Zero-valued options fall back to DefaultOptions.
func NewCoordinator(images llm.ImageGenerator, text llm.TextGenerator, opts Options) *Coordinator {
	defaults := DefaultOptions()
	if opts.ImageCount <= 0 {
		opts.ImageCount = defaults.ImageCount
	}
	if opts.ImageMIMEType == "" {
		opts.ImageMIMEType = defaults.ImageMIMEType
	}
	if opts.NarrativeTemperature <= 0 {
		opts.NarrativeTemperature = defaults.NarrativeTemperature
	}
	if opts.Placeholders == nil {
		opts.Placeholders = defaults.Placeholders
	}

	return &Coordinator{
		images: images,
		text:   text,
		opts:   opts,
		log:    logger.Component("enrich"),
	}
}

// Enrich generates images and the neighborhood narrative for one listing
// concurrently. Only configuration failures (and cancellation of ctx) are
// returned; every other failure is replaced by fallback content.
func (c *Coordinator) Enrich(ctx context.Context, partial core.PartialProperty, prefs core.Preferences) (core.Property, error) {
	var (
		imageURLs []string
		vibe      string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		urls, err := c.generateImages(gctx, partial)
		imageURLs = urls
		return err
	})
	g.Go(func() error {
		text, err := c.generateNeighborhoodVibe(gctx, partial, prefs)
		vibe = text
		return err
	})

	if err := g.Wait(); err != nil {
		return core.Property{}, err
	}

	return core.Property{
		PartialProperty:  partial,
		ImageURLs:        imageURLs,
		NeighborhoodVibe: vibe,
	}, nil
}

// EnrichAll enriches every listing concurrently. The output keeps the input
// order. Any error fails the whole batch.
func (c *Coordinator) EnrichAll(ctx context.Context, partials []core.PartialProperty, prefs core.Preferences) ([]core.Property, error) {
	results := make([]core.Property, len(partials))

	g, gctx := errgroup.WithContext(ctx)
	if c.opts.MaxConcurrency > 0 {
		g.SetLimit(c.opts.MaxConcurrency)
	}

	for i, partial := range partials {
		g.Go(func() error {
			property, err := c.Enrich(gctx, partial, prefs)
			if err != nil {
				return fmt.Errorf("enrich listing %s: %w", partial.ID, err)
			}
			results[i] = property
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.log.Debug("enriched listings", "count", len(results))
	return results, nil
}

func (c *Coordinator) generateImages(ctx context.Context, partial core.PartialProperty) ([]string, error) {
	images, err := c.images.GenerateImages(ctx, prompts.BuildImagePrompt(partial.ImagePrompt), llm.ImageGenerationOptions{
		Model:    c.opts.ImageModel,
		Count:    c.opts.ImageCount,
		MIMEType: c.opts.ImageMIMEType,
	})
	if err == nil && len(images) == 0 {
		err = fmt.Errorf("no images generated")
	}
	if err != nil {
		if fatal := c.fatal(ctx, err); fatal != nil {
			return nil, fatal
		}
		c.log.Warn("image generation failed, using placeholders", "property_id", partial.ID, "error", err)
		metrics.IncFallback(FieldImages)
		return c.opts.Placeholders(partial.ID, PlaceholderCount), nil
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.Reference())
	}
	return urls, nil
}

func (c *Coordinator) generateNeighborhoodVibe(ctx context.Context, partial core.PartialProperty, prefs core.Preferences) (string, error) {
	text, err := c.text.GenerateText(ctx, prompts.BuildNeighborhoodPrompt(partial, prefs), llm.TextGenerationOptions{
		Model:       c.opts.TextModel,
		Temperature: c.opts.NarrativeTemperature,
	})
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = fmt.Errorf("empty neighborhood narrative")
	}
	if err != nil {
		if fatal := c.fatal(ctx, err); fatal != nil {
			return "", fatal
		}
		c.log.Warn("neighborhood narrative failed, using fallback", "property_id", partial.ID, "error", err)
		metrics.IncFallback(FieldNeighborhood)
		return ConsolationVibe, nil
	}
	return text, nil
}

// fatal returns the error that must stop enrichment, or nil when err can be
// replaced by fallback content.
func (c *Coordinator) fatal(ctx context.Context, err error) error {
	if llm.IsConfiguration(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return nil
}

// PlaceholderCount is how many placeholder images replace a failed generation.
const PlaceholderCount = 3

// Placeholders returns n placeholder image URLs derived from seed. The same
// seed always yields the same URLs.
func Placeholders(seed string, n int) []string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	base := int(h.Sum32() % 1000)

	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf(PlaceholderURL, base+i)
	}
	return urls
}
