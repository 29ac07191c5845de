package prompts

import (
	"casaideal/internal/core"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func samplePreferences() core.Preferences {
	return core.Preferences{
		Name:              "Ana",
		Intention:         core.IntentionBuy,
		PropertyType:      "Casa",
		OtherPropertyType: "Sobrado",
		Budget:            core.Budget{Min: 500000, Max: 2000000},
		Location:          "Pinheiros, São Paulo",
		Priorities:        []string{"Bairro tranquilo", "Perto de parques"},
		OtherPriorities:   "perto do metrô",
		Bedrooms:          3,
		Bathrooms:         2,
		Extras:            []string{"Garagem", "Quintal"},
		OtherExtras:       "",
	}
}

func TestBuildPrimaryListingsPrompt(t *testing.T) {
	prefs := samplePreferences()
	prompt := BuildPrimaryListingsPrompt(prefs)

	for _, want := range []string{
		"500000", "2000000", "500.000", "2.000.000",
		"Pinheiros, São Paulo",
		"3 bedrooms", "2 bathrooms",
		"generate a list of 3 fictional",
		"The user's name is Ana.",
		"Casa / Sobrado",
		"Bairro tranquilo, Perto de parques, perto do metrô",
		"must have: Garagem, Quintal.",
		`"imagePrompt"`, `"personalizedPitch"`, `"sqft"`,
		"Return ONLY a valid JSON array",
	} {
		assert.Contains(t, prompt, want)
	}
	assert.NotContains(t, prompt, "suggestionReason")
}

func TestBuildPrimaryListingsPromptIsDeterministic(t *testing.T) {
	prefs := samplePreferences()
	assert.Equal(t, BuildPrimaryListingsPrompt(prefs), BuildPrimaryListingsPrompt(prefs))
}

func TestBuildPrimaryListingsPromptVariedInputs(t *testing.T) {
	tests := []struct {
		name  string
		prefs core.Preferences
		want  []string
	}{
		{
			name:  "rent with zero budget floor",
			prefs: core.Preferences{Name: "Bia", Intention: core.IntentionRent, Budget: core.Budget{Min: 0, Max: 4500}, Location: "Centro, Curitiba", Bedrooms: 1, Bathrooms: 1},
			want:  []string{"Alugar", "0 to 4.500 BRL", "Centro, Curitiba", "1 bedrooms", "1 bathrooms"},
		},
		{
			name:  "inverted budget passes through",
			prefs: core.Preferences{Name: "Caio", Intention: core.IntentionBuy, Budget: core.Budget{Min: 900000, Max: 300000}, Location: "Recife", Bedrooms: 4, Bathrooms: 3},
			want:  []string{"900.000 to 300.000 BRL", "(900000 to 300000)", "Recife", "4 bedrooms", "3 bathrooms"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := BuildPrimaryListingsPrompt(tt.prefs)
			for _, want := range tt.want {
				assert.Contains(t, prompt, want)
			}
		})
	}
}

func TestBuildSimilarListingsPrompt(t *testing.T) {
	prompt := BuildSimilarListingsPrompt(samplePreferences(), []string{"id-1", "id-2", "id-3"})

	assert.Contains(t, prompt, "generate a list of 2 additional")
	assert.Contains(t, prompt, "different from these: id-1, id-2, id-3")
	assert.Contains(t, prompt, "slightly outside the user's budget")
	assert.Contains(t, prompt, `"suggestionReason"`)
	assert.Contains(t, prompt, "- Name: Ana")
	assert.Contains(t, prompt, "Return ONLY a valid JSON array")
}

func TestBuildSimilarListingsPromptWithoutExisting(t *testing.T) {
	prompt := BuildSimilarListingsPrompt(samplePreferences(), nil)
	assert.NotContains(t, prompt, "different from these")
}

func TestBuildNeighborhoodPrompt(t *testing.T) {
	partial := core.PartialProperty{ID: "p1", Title: "Casa", Address: "Rua dos Pinheiros, 123"}
	prompt := BuildNeighborhoodPrompt(partial, samplePreferences())

	assert.Contains(t, prompt, "for Ana for the property at Rua dos Pinheiros, 123")
	assert.Contains(t, prompt, `"Bairro tranquilo, Perto de parques, perto do metrô"`)
	assert.Contains(t, prompt, "3-4 sentences in Portuguese")
	assert.Contains(t, prompt, "Do not use markdown or JSON")
}

func TestBuildImagePrompt(t *testing.T) {
	prompt := BuildImagePrompt("  A modern villa with a pool ")

	assert.True(t, strings.HasPrefix(prompt, "Professional, photorealistic real estate photography of: A modern villa with a pool."))
	assert.Contains(t, prompt, "exterior, interior (living room), and a key feature")
}
