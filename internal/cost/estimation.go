package cost

import (
	"casaideal/internal/core"
	"casaideal/internal/prompts"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// GeminiPricing represents the current pricing for a Gemini text model
type GeminiPricing struct {
	Model                 string
	InputCostPer1MTokens  float64 // Cost per 1M input tokens in USD
	OutputCostPer1MTokens float64 // Cost per 1M output tokens in USD
}

// ImagenPricing represents the price of one generated image
type ImagenPricing struct {
	Model        string
	CostPerImage float64 // USD
}

// PricingTable contains Gemini text pricing as of 2025
var PricingTable = map[string]GeminiPricing{
	"gemini-2.5-flash": {
		Model:                 "gemini-2.5-flash",
		InputCostPer1MTokens:  0.30,
		OutputCostPer1MTokens: 2.50,
	},
	"gemini-2.5-flash-lite": {
		Model:                 "gemini-2.5-flash-lite",
		InputCostPer1MTokens:  0.10,
		OutputCostPer1MTokens: 0.40,
	},
	"gemini-2.5-pro": {
		Model:                 "gemini-2.5-pro",
		InputCostPer1MTokens:  1.25,
		OutputCostPer1MTokens: 10.00,
	},
	"gemini-2.0-flash": {
		Model:                 "gemini-2.0-flash",
		InputCostPer1MTokens:  0.10,
		OutputCostPer1MTokens: 0.40,
	},
}

// ImagePricingTable contains Imagen pricing as of 2025
var ImagePricingTable = map[string]ImagenPricing{
	"imagen-3.0-generate-002":      {Model: "imagen-3.0-generate-002", CostPerImage: 0.03},
	"imagen-4.0-generate-001":      {Model: "imagen-4.0-generate-001", CostPerImage: 0.04},
	"imagen-4.0-fast-generate-001": {Model: "imagen-4.0-fast-generate-001", CostPerImage: 0.02},
}

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "imagen-3.0-generate-002"

	// Typical response sizes, in tokens
	listingOutputTokens   = 280
	narrativeOutputTokens = 120
)

// EstimateTokenCount provides a rough estimation of token count for text
// This is a simplified approximation: typically 1 token ≈ 4 characters
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")

	charCount := utf8.RuneCountInString(text)

	// Add some buffer for special tokens, formatting, etc.
	return int(math.Ceil(float64(charCount) / 3.5))
}

// StepEstimate is the cost of one kind of model call within a search
type StepEstimate struct {
	Name         string
	Calls        int
	InputTokens  int
	OutputTokens int
	Images       int
	Cost         float64
}

// SearchEstimate is the estimated cost of one full search
type SearchEstimate struct {
	TextModel   string
	ImageModel  string
	Steps       []StepEstimate
	TotalCalls  int
	TotalImages int
	TotalCost   float64
}

// Options describes the search being estimated
type Options struct {
	TextModel      string
	ImageModel     string
	ImageCount     int  // Images per listing
	IncludeSimilar bool // Whether the alternatives pass runs
}

// EstimateSearch estimates what a search for prefs costs. Unknown models
// fall back to the default model's pricing.
func EstimateSearch(prefs core.Preferences, opts Options) *SearchEstimate {
	if opts.TextModel == "" {
		opts.TextModel = defaultTextModel
	}
	if opts.ImageModel == "" {
		opts.ImageModel = defaultImageModel
	}
	if opts.ImageCount <= 0 {
		opts.ImageCount = 3
	}

	pricing, ok := PricingTable[opts.TextModel]
	if !ok {
		pricing = PricingTable[defaultTextModel]
	}
	imagePricing, ok := ImagePricingTable[opts.ImageModel]
	if !ok {
		imagePricing = ImagePricingTable[defaultImageModel]
	}

	estimate := &SearchEstimate{TextModel: opts.TextModel, ImageModel: opts.ImageModel}

	listings := prompts.PrimaryListingCount
	estimate.Steps = append(estimate.Steps, textStep("Listagens principais", 1,
		EstimateTokenCount(prompts.BuildPrimaryListingsPrompt(prefs)), listingOutputTokens*prompts.PrimaryListingCount, pricing))

	if opts.IncludeSimilar {
		existing := make([]string, prompts.PrimaryListingCount)
		for i := range existing {
			existing[i] = fmt.Sprintf("prop-%d", i+1)
		}
		estimate.Steps = append(estimate.Steps, textStep("Alternativas", 1,
			EstimateTokenCount(prompts.BuildSimilarListingsPrompt(prefs, existing)), listingOutputTokens*prompts.SimilarListingCount, pricing))
		listings += prompts.SimilarListingCount
	}

	sample := core.PartialProperty{
		Title:       "Casa ampla com jardim",
		Address:     "Rua das Palmeiras, 120, " + prefs.Location,
		Description: strings.Repeat("palavra ", 45),
	}
	narrativeInput := EstimateTokenCount(prompts.BuildNeighborhoodPrompt(sample, prefs))
	estimate.Steps = append(estimate.Steps, textStep("Vibrações do bairro", listings, narrativeInput*listings, narrativeOutputTokens*listings, pricing))

	images := listings * opts.ImageCount
	estimate.Steps = append(estimate.Steps, StepEstimate{
		Name:   "Imagens",
		Calls:  listings,
		Images: images,
		Cost:   float64(images) * imagePricing.CostPerImage,
	})

	for _, step := range estimate.Steps {
		estimate.TotalCalls += step.Calls
		estimate.TotalImages += step.Images
		estimate.TotalCost += step.Cost
	}

	return estimate
}

func textStep(name string, calls, inputTokens, outputTokens int, pricing GeminiPricing) StepEstimate {
	inputCost := float64(inputTokens) * pricing.InputCostPer1MTokens / 1000000
	outputCost := float64(outputTokens) * pricing.OutputCostPer1MTokens / 1000000
	return StepEstimate{
		Name:         name,
		Calls:        calls,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         inputCost + outputCost,
	}
}

// FormatEstimate formats the cost estimate for display
func (e *SearchEstimate) FormatEstimate() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Cost Estimation for %s + %s\n", e.TextModel, e.ImageModel))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString("📊 Summary:\n")
	sb.WriteString(fmt.Sprintf("   Model calls: %d\n", e.TotalCalls))
	sb.WriteString(fmt.Sprintf("   Images: %d\n", e.TotalImages))
	sb.WriteString(fmt.Sprintf("   Total estimated cost: $%.4f\n", e.TotalCost))
	sb.WriteString("\n")

	sb.WriteString("💰 Cost Breakdown:\n")
	for _, step := range e.Steps {
		if step.Images > 0 {
			sb.WriteString(fmt.Sprintf("   %s: %d calls, %d images (~$%.4f)\n", step.Name, step.Calls, step.Images, step.Cost))
			continue
		}
		sb.WriteString(fmt.Sprintf("   %s: %d calls, %d in / %d out tokens (~$%.4f)\n",
			step.Name, step.Calls, step.InputTokens, step.OutputTokens, step.Cost))
	}

	return sb.String()
}
