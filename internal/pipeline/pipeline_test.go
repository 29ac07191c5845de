package pipeline

import (
	"casaideal/internal/config"
	"casaideal/internal/core"
	"casaideal/internal/enrich"
	"casaideal/internal/llm"
	"casaideal/internal/llm/llmtest"
	"casaideal/internal/parser"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const primaryResponse = "```json\n" + `[
  {"id":"p-1","title":"Casa com jardim","address":"Rua das Flores, 10, São Paulo","price":1200000,"bedrooms":3,"bathrooms":2,"sqft":180,"description":"Casa clara.","imagePrompt":"modern house with garden","personalizedPitch":"Ana, perfeita para você."},
  {"id":"p-2","title":"Sobrado moderno","address":"Rua Harmonia, 22, São Paulo","price":1500000,"bedrooms":3,"bathrooms":3,"sqft":210,"description":"Sobrado amplo.","imagePrompt":"modern townhouse","personalizedPitch":"Ana, veja só."},
  {"id":"p-3","title":"Casa de vila","address":"Vila Madalena, 5, São Paulo","price":950000,"bedrooms":3,"bathrooms":2,"sqft":150,"description":"Casa charmosa.","imagePrompt":"village house","personalizedPitch":"Ana, que charme."}
]` + "\n```"

const similarResponse = `[
  {"id":"s-1","title":"Cobertura duplex","address":"Av. Paulista, 1000","price":2300000,"bedrooms":3,"bathrooms":3,"sqft":200,"description":"Vista incrível.","imagePrompt":"penthouse terrace","personalizedPitch":"Ana, olha essa vista.","suggestionReason":"É um pouco acima do orçamento, mas oferece um raro terraço na cobertura."},
  {"id":"s-2","title":"Apartamento amplo","address":"Rua Augusta, 500","price":900000,"bedrooms":3,"bathrooms":2,"sqft":130,"description":"Bem localizado.","imagePrompt":"bright apartment","personalizedPitch":"Ana, prático.","suggestionReason":"É um apartamento em vez de uma casa, com mais segurança."}
]`

func testPreferences() core.Preferences {
	return core.Preferences{
		Name:       "Ana",
		Intention:  core.IntentionBuy,
		Budget:     core.Budget{Min: 500000, Max: 2000000},
		Location:   "Pinheiros, São Paulo",
		Priorities: []string{"Bairro tranquilo"},
		Bedrooms:   3,
		Bathrooms:  2,
		Extras:     []string{"Garagem"},
	}
}

// scriptedText answers listing prompts with the given responses and any
// other prompt with a neighborhood narrative.
func scriptedText(primary, similar string) *llmtest.FakeText {
	return &llmtest.FakeText{Fn: func(_ context.Context, prompt string, _ llm.TextGenerationOptions) (string, error) {
		switch {
		case strings.Contains(prompt, "generate a list of 3"):
			return primary, nil
		case strings.Contains(prompt, "generate a list of 2 additional"):
			return similar, nil
		default:
			return "Um bairro arborizado com cafés charmosos.", nil
		}
	}}
}

func newTestPipeline(text llm.TextGenerator, images llm.ImageGenerator) *Pipeline {
	p, err := NewBuilder().WithGenerators(text, images).Build(context.Background())
	if err != nil {
		panic(err)
	}
	return p
}

func TestFindPrimaryListingsEndToEnd(t *testing.T) {
	text := scriptedText(primaryResponse, similarResponse)
	p := newTestPipeline(text, llmtest.StaticImages())

	recorder := &ProgressRecorder{}
	properties, err := p.FindPrimaryListings(context.Background(), testPreferences(), recorder)
	require.NoError(t, err)

	require.Len(t, properties, 3)
	assert.Equal(t, []string{"p-1", "p-2", "p-3"}, core.IDs(properties))
	for _, prop := range properties {
		assert.NotEmpty(t, prop.ImageURLs)
		assert.Len(t, prop.ImageURLs, 3)
		assert.NotEmpty(t, prop.NeighborhoodVibe)
		assert.False(t, prop.IsAlternative())
	}
	assert.Equal(t, []string{MessageEnriching}, recorder.Messages())

	calls := text.Calls()
	require.NotEmpty(t, calls)
	listingCall := calls[0]
	assert.Contains(t, listingCall.Prompt, "500000")
	assert.Contains(t, listingCall.Prompt, "2000000")
	assert.Contains(t, listingCall.Prompt, "3 bedrooms")
	assert.InDelta(t, 0.8, listingCall.Options.Temperature, 0.0001)
	assert.Equal(t, llm.JSONResponseType, listingCall.Options.ResponseMIMEType)
}

func TestFindPrimaryListingsEmptyIsNotAnError(t *testing.T) {
	text := scriptedText(`[{"title":"sem id","imagePrompt":"x"}]`, "[]")
	p := newTestPipeline(text, llmtest.StaticImages())

	properties, err := p.FindPrimaryListings(context.Background(), testPreferences(), nil)
	require.NoError(t, err)
	assert.NotNil(t, properties)
	assert.Empty(t, properties)
}

func TestFindPrimaryListingsMalformedIsFatal(t *testing.T) {
	p := newTestPipeline(scriptedText(`{"listings":[]}`, "[]"), llmtest.StaticImages())

	recorder := &ProgressRecorder{}
	properties, err := p.FindPrimaryListings(context.Background(), testPreferences(), recorder)
	require.Error(t, err)
	assert.Nil(t, properties)
	assert.True(t, errors.Is(err, parser.ErrMalformedResponse))
	assert.Equal(t, MalformedErrorMessage, UserMessage(err))
	assert.Empty(t, recorder.Messages())
}

func TestFindPrimaryListingsGenerationFailure(t *testing.T) {
	p := newTestPipeline(llmtest.FailingText(errors.New("503 unavailable")), llmtest.StaticImages())

	_, err := p.FindPrimaryListings(context.Background(), testPreferences(), nil)
	require.Error(t, err)

	var searchErr *SearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, DefaultErrorMessage, searchErr.Message)
	assert.False(t, llm.IsConfiguration(err))
}

func TestFindPrimaryListingsConfigurationFailureIsFatal(t *testing.T) {
	cfgErr := llm.NewConfigurationError("generate images", llm.ErrMissingAPIKey)
	p := newTestPipeline(scriptedText(primaryResponse, similarResponse), llmtest.FailingImages(cfgErr))

	properties, err := p.FindPrimaryListings(context.Background(), testPreferences(), nil)
	require.Error(t, err)
	assert.Nil(t, properties)
	assert.True(t, llm.IsConfiguration(err))
	assert.Equal(t, ConfigurationErrorMessage, UserMessage(err))
}

func TestFindPrimaryListingsImageFailureFallsBack(t *testing.T) {
	p := newTestPipeline(scriptedText(primaryResponse, similarResponse), llmtest.FailingImages(errors.New("safety filter")))

	properties, err := p.FindPrimaryListings(context.Background(), testPreferences(), nil)
	require.NoError(t, err)
	require.Len(t, properties, 3)
	for _, prop := range properties {
		assert.Equal(t, enrich.Placeholders(prop.ID, enrich.PlaceholderCount), prop.ImageURLs)
	}
}

func TestFindSimilarListings(t *testing.T) {
	text := scriptedText(primaryResponse, similarResponse)
	p := newTestPipeline(text, llmtest.StaticImages())

	existing := []core.Property{
		{PartialProperty: core.PartialProperty{ID: "p-1"}},
		{PartialProperty: core.PartialProperty{ID: "p-2"}},
	}
	recorder := &ProgressRecorder{}
	similar := p.FindSimilarListings(context.Background(), testPreferences(), existing, recorder)

	require.Len(t, similar, 2)
	assert.Equal(t, []string{"s-1", "s-2"}, core.IDs(similar))
	assert.True(t, similar[0].IsAlternative())
	assert.Equal(t, []string{MessageAlternatives, MessageFinalizing}, recorder.Messages())

	listingCall := text.Calls()[0]
	assert.Contains(t, listingCall.Prompt, "different from these: p-1, p-2")
	assert.InDelta(t, 0.9, listingCall.Options.Temperature, 0.0001)
}

func TestFindSimilarListingsSwallowsFailures(t *testing.T) {
	cfgErr := llm.NewConfigurationError("generate text", llm.ErrMissingAPIKey)

	tests := []struct {
		name   string
		text   llm.TextGenerator
		images llm.ImageGenerator
	}{
		{name: "malformed response", text: scriptedText(primaryResponse, "not json"), images: llmtest.StaticImages()},
		{name: "generation failure", text: llmtest.FailingText(errors.New("timeout")), images: llmtest.StaticImages()},
		{name: "configuration failure in generation", text: llmtest.FailingText(cfgErr), images: llmtest.StaticImages()},
		{name: "configuration failure in enrichment", text: scriptedText(primaryResponse, similarResponse), images: llmtest.FailingImages(cfgErr)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(tt.text, tt.images)

			similar := p.FindSimilarListings(context.Background(), testPreferences(), nil, nil)
			assert.NotNil(t, similar)
			assert.Empty(t, similar)
		})
	}
}

func TestSearchRunsPrimaryThenSimilar(t *testing.T) {
	p := newTestPipeline(scriptedText(primaryResponse, similarResponse), llmtest.StaticImages())

	var reported []string
	result, err := p.Search(context.Background(), testPreferences(), ProgressFunc(func(m string) {
		reported = append(reported, m)
	}))
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Listings, 3)
	assert.Len(t, result.Similar, 2)
	want := []string{MessageCrafting, MessageEnriching, MessageAlternatives, MessageFinalizing}
	assert.Equal(t, want, reported)
	assert.Equal(t, want, result.Progress)
	assert.Equal(t, "Ana", result.Preferences.Name)
	assert.False(t, result.StartedAt.IsZero())
}

func TestSearchSimilarFailureKeepsPrimary(t *testing.T) {
	p := newTestPipeline(scriptedText(primaryResponse, "```json\n{}\n```"), llmtest.StaticImages())

	result, err := p.Search(context.Background(), testPreferences(), nil)
	require.NoError(t, err)
	assert.Len(t, result.Listings, 3)
	assert.Empty(t, result.Similar)
}

func TestSearchPrimaryFailureAborts(t *testing.T) {
	p := newTestPipeline(scriptedText("Desculpe, não consegui.", similarResponse), llmtest.StaticImages())

	result, err := p.Search(context.Background(), testPreferences(), nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, MalformedErrorMessage, UserMessage(err))
}

func TestSearchWithoutSimilar(t *testing.T) {
	text := scriptedText(primaryResponse, similarResponse)
	p, err := NewBuilder().WithGenerators(text, llmtest.StaticImages()).WithoutSimilar().Build(context.Background())
	require.NoError(t, err)

	result, err := p.Search(context.Background(), testPreferences(), nil)
	require.NoError(t, err)
	assert.Len(t, result.Listings, 3)
	assert.Empty(t, result.Similar)
	for _, call := range text.Calls() {
		assert.NotContains(t, call.Prompt, "additional fictional")
	}
}

func TestRefineReportsRefiningMessage(t *testing.T) {
	p := newTestPipeline(scriptedText(primaryResponse, similarResponse), llmtest.StaticImages())

	result, err := p.Refine(context.Background(), testPreferences(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Progress)
	assert.Equal(t, MessageRefining, result.Progress[0])
}

func TestPanickingSinkDoesNotAffectOutcome(t *testing.T) {
	p := newTestPipeline(scriptedText(primaryResponse, similarResponse), llmtest.StaticImages())

	result, err := p.Search(context.Background(), testPreferences(), ProgressFunc(func(string) {
		panic("sink exploded")
	}))
	require.NoError(t, err)
	assert.Len(t, result.Listings, 3)
	assert.Len(t, result.Progress, 4)
}

func TestInvertedBudgetPassesThrough(t *testing.T) {
	text := scriptedText(primaryResponse, similarResponse)
	p := newTestPipeline(text, llmtest.StaticImages())

	prefs := testPreferences()
	prefs.Budget = core.Budget{Min: 2000000, Max: 500000}

	_, err := p.FindPrimaryListings(context.Background(), prefs, nil)
	require.NoError(t, err)
	assert.Contains(t, text.Calls()[0].Prompt, "2.000.000 to 500.000 BRL")
}

func TestBuildRequiresGeneratorsOrConfig(t *testing.T) {
	_, err := NewBuilder().Build(context.Background())
	require.Error(t, err)
}

func TestWithGeminiAppliesConfig(t *testing.T) {
	b := NewBuilder().WithGemini(config.GeminiConfig{
		TextModel:          "gemini-custom",
		ImageModel:         "imagen-custom",
		PrimaryTemperature: 0.5,
		ImageCount:         2,
		MaxConcurrency:     2,
	})

	assert.Equal(t, "gemini-custom", b.config.TextModel)
	assert.InDelta(t, 0.5, b.config.PrimaryTemperature, 0.0001)
	assert.InDelta(t, 0.9, b.config.SimilarTemperature, 0.0001)
	assert.Equal(t, "imagen-custom", b.enrichOpts.ImageModel)
	assert.Equal(t, 2, b.enrichOpts.ImageCount)
	assert.Equal(t, 2, b.enrichOpts.MaxConcurrency)

	unlimited := NewBuilder().WithGemini(config.GeminiConfig{})
	assert.Zero(t, unlimited.enrichOpts.MaxConcurrency)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, DefaultErrorMessage, UserMessage(errors.New("plain")))
	assert.Equal(t, "custom", UserMessage(fmt.Errorf("wrap: %w", &SearchError{Message: "custom"})))
	assert.Equal(t, TimeoutErrorMessage, UserMessage(newSearchError(fmt.Errorf("x: %w", context.DeadlineExceeded))))
}
