package prompts

import (
	"casaideal/internal/core"
	"fmt"
	"strings"
)

const (
	// PrimaryListingCount is how many listings a primary search asks for.
	PrimaryListingCount = 3
	// SimilarListingCount is how many alternatives a similar search asks for.
	SimilarListingCount = 2
)

// imagePromptPrefix frames every image directive as listing photography.
const imagePromptPrefix = "Professional, photorealistic real estate photography of: "

// imagePromptSuffix asks for the three views a listing needs.
const imagePromptSuffix = ". Generate multiple varied views including exterior, interior (living room), and a key feature (like a backyard or balcony)."

// BuildPrimaryListingsPrompt creates the prompt for the main search.
func BuildPrimaryListingsPrompt(prefs core.Preferences) string {
	var prompt strings.Builder

	prompt.WriteString("As an expert real estate agent and creative copywriter, ")
	prompt.WriteString(fmt.Sprintf("generate a list of %d fictional but realistic high-end properties in Brazil that match the following user preferences. ", PrimaryListingCount))
	prompt.WriteString(fmt.Sprintf("The user's name is %s.\n\n", prefs.Name))

	prompt.WriteString("User Preferences:\n")
	prompt.WriteString(fmt.Sprintf("- Intention: %s\n", prefs.Intention))
	prompt.WriteString(fmt.Sprintf("- Property Type: %s\n", prefs.FullPropertyType()))
	writeBudget(&prompt, prefs.Budget)
	prompt.WriteString(fmt.Sprintf("- Location: Prefers areas like %s, with a vibe that is %s.\n", prefs.Location, prefs.AllPriorities()))
	prompt.WriteString(fmt.Sprintf("- Home Essentials: %d bedrooms, %d bathrooms, and must have: %s.\n\n", prefs.Bedrooms, prefs.Bathrooms, prefs.AllExtras()))

	prompt.WriteString("For each property, provide a JSON object with the following structure:\n")
	writeFieldContract(&prompt, fieldContract{
		id:    "a unique identifier using a UUID format",
		price: "A realistic integer price within the user's budget.",
		area:  "A realistic integer for square meters (m²), appropriate for the property size.",
		description: "A compelling and evocative property description of 2-3 sentences, in Portuguese. " +
			"This should contain enough detail to generate a representative image.",
		imagePrompt: "A detailed English prompt (15-20 words) for an image generation AI, describing key visual elements of the property " +
			"to generate multiple images (exterior, interior, lifestyle). Example: 'A modern Brazilian villa, minimalist facade with natural wood accents, " +
			"spacious open-concept living room with a view, infinity pool overlooking the ocean.'",
		pitch: fmt.Sprintf("A short, friendly paragraph written directly to %s, explaining why this specific house is a perfect fit "+
			"for their priorities and desired features. Address them by name. Write this in Portuguese.", prefs.Name),
	})

	prompt.WriteString("\nReturn ONLY a valid JSON array of these objects, with no other text or explanation.\n")
	return prompt.String()
}

// BuildSimilarListingsPrompt creates the prompt for alternative listings that
// may bend the user's criteria. existingIDs are listed so the model avoids them.
func BuildSimilarListingsPrompt(prefs core.Preferences, existingIDs []string) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Based on the following user preferences, generate a list of %d additional fictional but realistic properties in Brazil. ", SimilarListingCount))
	prompt.WriteString("These should be interesting alternatives that the user might also like, even if they slightly differ from the main criteria.\n\n")

	prompt.WriteString("User Preferences:\n")
	prompt.WriteString(fmt.Sprintf("- Name: %s\n", prefs.Name))
	prompt.WriteString(fmt.Sprintf("- Intention: %s\n", prefs.Intention))
	prompt.WriteString(fmt.Sprintf("- Property Type: %s\n", prefs.FullPropertyType()))
	writeBudget(&prompt, prefs.Budget)
	prompt.WriteString(fmt.Sprintf("- Location: %s\n", prefs.Location))
	prompt.WriteString(fmt.Sprintf("- Priorities: %s\n", prefs.AllPriorities()))
	prompt.WriteString(fmt.Sprintf("- Essentials: %d bedrooms, %d bathrooms, and must have: %s.\n\n", prefs.Bedrooms, prefs.Bathrooms, prefs.AllExtras()))

	id := "a unique identifier using a UUID format"
	if len(existingIDs) > 0 {
		id += ", different from these: " + strings.Join(existingIDs, ", ")
	}

	prompt.WriteString("For each property, provide a JSON object with the following structure:\n")
	writeFieldContract(&prompt, fieldContract{
		id:          id,
		price:       "A realistic integer price, can be slightly outside the user's budget if it's a great match.",
		area:        "A realistic integer for square meters (m²).",
		description: "A compelling and evocative property description of 2-3 sentences, in Portuguese.",
		imagePrompt: "A detailed English prompt (15-20 words) for an image generation AI, describing key visual elements to generate multiple images. " +
			"Example: 'A rustic-chic farmhouse with a large porch, a cozy living room with a stone fireplace, and a gourmet kitchen.'",
		pitch: fmt.Sprintf("A short, friendly paragraph written to %s, explaining why this is a good fit.", prefs.Name),
		suggestionReason: "A single, compelling sentence in Portuguese explaining WHY this is a good ALTERNATIVE suggestion. " +
			"For example: 'É um pouco acima do orçamento, mas oferece um raro terraço na cobertura.' or " +
			"'É uma casa em vez de um apartamento, oferecendo mais privacidade.'",
	})

	prompt.WriteString("\nReturn ONLY a valid JSON array of these objects, with no other text or explanation.\n")
	return prompt.String()
}

// BuildNeighborhoodPrompt creates the prompt for a listing's neighborhood narrative.
func BuildNeighborhoodPrompt(partial core.PartialProperty, prefs core.Preferences) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("As a local expert and travel writer, describe the neighborhood vibe for %s for the property at %s.\n", prefs.Name, partial.Address))
	prompt.WriteString(fmt.Sprintf("Focus on aspects that align with their priorities: %q.\n", prefs.AllPriorities()))
	prompt.WriteString("Mention 1-2 specific (but fictional) points of interest like cafes, parks, or markets that they would enjoy.\n")
	prompt.WriteString("The tone should be enthusiastic and welcoming. Write a single paragraph of 3-4 sentences in Portuguese.\n")
	prompt.WriteString("Do not use markdown or JSON. Return only the text.\n")

	return prompt.String()
}

// BuildImagePrompt wraps a listing's image directive in the photography framing.
func BuildImagePrompt(directive string) string {
	return imagePromptPrefix + strings.TrimSpace(directive) + imagePromptSuffix
}

type fieldContract struct {
	id               string
	price            string
	area             string
	description      string
	imagePrompt      string
	pitch            string
	suggestionReason string
}

func writeBudget(prompt *strings.Builder, budget core.Budget) {
	prompt.WriteString(fmt.Sprintf("- Budget: %s to %s BRL (%d to %d)\n",
		core.FormatThousands(budget.Min), core.FormatThousands(budget.Max), budget.Min, budget.Max))
}

func writeFieldContract(prompt *strings.Builder, c fieldContract) {
	fields := [][2]string{
		{"id", c.id},
		{"title", "A creative and appealing headline for the property, in Portuguese."},
		{"address", "A realistic-sounding fictional address in Brazil, in Portuguese."},
		{"price", c.price},
		{"bedrooms", "Number of bedrooms."},
		{"bathrooms", "Number of bathrooms."},
		{"sqft", c.area},
		{"description", c.description},
		{"imagePrompt", c.imagePrompt},
		{"personalizedPitch", c.pitch},
	}
	if c.suggestionReason != "" {
		fields = append(fields, [2]string{"suggestionReason", c.suggestionReason})
	}

	prompt.WriteString("{\n")
	for i, field := range fields {
		sep := ","
		if i == len(fields)-1 {
			sep = ""
		}
		prompt.WriteString(fmt.Sprintf("  %q: %q%s\n", field[0], field[1], sep))
	}
	prompt.WriteString("}\n")
}
