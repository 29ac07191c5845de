package server

import (
	"bytes"
	"casaideal/internal/config"
	"casaideal/internal/core"
	"casaideal/internal/llm"
	"casaideal/internal/llm/llmtest"
	"casaideal/internal/metrics"
	"casaideal/internal/pipeline"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const primaryResponse = `[
  {"id":"p-1","title":"Casa com jardim","address":"Rua das Flores, 10","price":1200000,"bedrooms":3,"bathrooms":2,"sqft":180,"description":"Casa clara.","imagePrompt":"house with garden","personalizedPitch":"Perfeita para você."},
  {"id":"p-2","title":"Sobrado moderno","address":"Rua Harmonia, 22","price":1500000,"bedrooms":3,"bathrooms":3,"sqft":210,"description":"Sobrado amplo.","imagePrompt":"modern townhouse","personalizedPitch":"Veja só."}
]`

const similarResponse = `[
  {"id":"s-1","title":"Cobertura duplex","price":2300000,"bedrooms":3,"bathrooms":3,"sqft":200,"imagePrompt":"penthouse","suggestionReason":"Um pouco acima do orçamento."}
]`

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func scriptedText(primary, similar string, primaryErr error) *llmtest.FakeText {
	return &llmtest.FakeText{Fn: func(_ context.Context, prompt string, _ llm.TextGenerationOptions) (string, error) {
		switch {
		case strings.Contains(prompt, "generate a list of 3"):
			return primary, primaryErr
		case strings.Contains(prompt, "generate a list of 2 additional"):
			return similar, nil
		default:
			return "Bairro arborizado e tranquilo.", nil
		}
	}}
}

func newTestServer(t *testing.T, text llm.TextGenerator) *Server {
	t.Helper()
	p, err := pipeline.NewBuilder().WithGenerators(text, llmtest.StaticImages()).Build(context.Background())
	require.NoError(t, err)

	s := New(p, nil, config.Server{Host: "localhost", Port: 0})
	s.now = func() time.Time { return testNow }
	return s
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func preferences() core.Preferences {
	prefs := core.DefaultPreferences()
	prefs.Name = "Ana"
	return prefs
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, scriptedText(primaryResponse, similarResponse, nil))

	rec := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	decode(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "disabled", body.Checks["analytics"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHealthWithoutPipeline(t *testing.T) {
	s := New(nil, nil, config.Server{})

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/searches", SearchRequest{Preferences: preferences()})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, scriptedText(primaryResponse, similarResponse, nil))

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/health", "200"))
	do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/health", "200")))

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "casaideal_http_requests_total")
}

func TestOptions(t *testing.T) {
	s := newTestServer(t, scriptedText(primaryResponse, similarResponse, nil))

	rec := do(t, s, http.MethodGet, "/api/options", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body OptionsResponse
	decode(t, rec, &body)
	assert.Equal(t, core.PropertyTypeOptions, body.PropertyTypes)
	assert.Len(t, body.VisitSlots, 2)
	assert.Equal(t, core.IntentionBuy, body.Defaults.Intention)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t, scriptedText(primaryResponse, similarResponse, nil))

	rec := do(t, s, http.MethodPost, "/api/searches", SearchRequest{Preferences: preferences()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result pipeline.SearchResult
	decode(t, rec, &result)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"p-1", "p-2"}, core.IDs(result.Listings))
	assert.Equal(t, []string{"s-1"}, core.IDs(result.Similar))
	assert.Equal(t, []string{
		pipeline.MessageCrafting,
		pipeline.MessageEnriching,
		pipeline.MessageAlternatives,
		pipeline.MessageFinalizing,
	}, result.Progress)

	for _, p := range result.Listings {
		assert.Len(t, p.ImageURLs, 3)
		assert.Equal(t, "Bairro arborizado e tranquilo.", p.NeighborhoodVibe)
	}
}

func TestSearchRefine(t *testing.T) {
	s := newTestServer(t, scriptedText(primaryResponse, similarResponse, nil))

	rec := do(t, s, http.MethodPost, "/api/searches", SearchRequest{Preferences: preferences(), Refine: true})
	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.SearchResult
	decode(t, rec, &result)
	require.NotEmpty(t, result.Progress)
	assert.Equal(t, pipeline.MessageRefining, result.Progress[0])
}

func TestSearchBadRequests(t *testing.T) {
	s := newTestServer(t, scriptedText(primaryResponse, similarResponse, nil))

	invalid := preferences()
	invalid.Intention = "Trocar"

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "empty body", body: nil},
		{name: "malformed json", body: `{"preferences":`},
		{name: "invalid intention", body: SearchRequest{Preferences: invalid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/searches", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestSearchFailureReturnsUserMessage(t *testing.T) {
	tests := []struct {
		name    string
		text    *llmtest.FakeText
		message string
	}{
		{
			name:    "malformed response",
			text:    scriptedText("Desculpe, não posso ajudar.", similarResponse, nil),
			message: pipeline.MalformedErrorMessage,
		},
		{
			name:    "missing api key",
			text:    scriptedText("", "", llm.NewConfigurationError("generate text", llm.ErrMissingAPIKey)),
			message: pipeline.ConfigurationErrorMessage,
		},
		{
			name:    "generic failure",
			text:    scriptedText("", "", errors.New("boom")),
			message: pipeline.DefaultErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.text)

			rec := do(t, s, http.MethodPost, "/api/searches", SearchRequest{Preferences: preferences()})
			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}

func TestPrimaryListings(t *testing.T) {
	text := scriptedText(primaryResponse, similarResponse, nil)
	s := newTestServer(t, text)

	rec := do(t, s, http.MethodPost, "/api/listings", SearchRequest{Preferences: preferences()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body ListingsResponse
	decode(t, rec, &body)
	assert.Equal(t, []string{"p-1", "p-2"}, core.IDs(body.Listings))
	assert.Equal(t, []string{pipeline.MessageEnriching}, body.Progress)

	for _, call := range text.Calls() {
		assert.NotContains(t, call.Prompt, "generate a list of 2 additional")
	}
}

func TestSimilarListings(t *testing.T) {
	s := newTestServer(t, scriptedText(primaryResponse, similarResponse, nil))

	existing := []core.Property{{PartialProperty: core.PartialProperty{ID: "p-1", Title: "Casa"}}}
	rec := do(t, s, http.MethodPost, "/api/listings/similar", SimilarRequest{Preferences: preferences(), Existing: existing})
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListingsResponse
	decode(t, rec, &body)
	assert.Equal(t, []string{"s-1"}, core.IDs(body.Listings))
	assert.Equal(t, "Um pouco acima do orçamento.", body.Listings[0].SuggestionReason)
	assert.Equal(t, []string{pipeline.MessageAlternatives, pipeline.MessageFinalizing}, body.Progress)
}

func TestSimilarListingsFailureIsEmpty(t *testing.T) {
	s := newTestServer(t, llmtest.FailingText(errors.New("boom")))

	rec := do(t, s, http.MethodPost, "/api/listings/similar", SimilarRequest{Preferences: preferences()})
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListingsResponse
	decode(t, rec, &body)
	assert.NotNil(t, body.Listings)
	assert.Empty(t, body.Listings)
}

func TestCompare(t *testing.T) {
	s := newTestServer(t, scriptedText(primaryResponse, similarResponse, nil))

	props := []core.Property{
		{PartialProperty: core.PartialProperty{ID: "a", Title: "A", Price: 1000000, Area: 100}},
		{PartialProperty: core.PartialProperty{ID: "b", Title: "B", Price: 800000, Area: 100}},
	}

	rec := do(t, s, http.MethodPost, "/api/comparisons", CompareRequest{Properties: props})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Rows []struct {
			Label  string   `json:"label"`
			Values []string `json:"values"`
		} `json:"rows"`
		Highlights struct {
			CheapestID string `json:"cheapestId"`
		} `json:"highlights"`
	}
	decode(t, rec, &body)
	require.NotEmpty(t, body.Rows)
	assert.Equal(t, []string{"R$ 1.000.000", "R$ 800.000"}, body.Rows[0].Values)
	assert.Equal(t, "b", body.Highlights.CheapestID)

	rec = do(t, s, http.MethodPost, "/api/comparisons", CompareRequest{Properties: props[:1]})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleVisit(t *testing.T) {
	s := newTestServer(t, scriptedText(primaryResponse, similarResponse, nil))

	rec := do(t, s, http.MethodPost, "/api/visits", map[string]string{
		"propertyId":    "p-1",
		"propertyTitle": "Casa com jardim",
		"date":          "2025-03-11",
		"slot":          "Manhã (9h-12h)",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Visita confirmada!")

	rec = do(t, s, http.MethodPost, "/api/visits", map[string]string{
		"propertyId":    "p-1",
		"propertyTitle": "Casa com jardim",
		"date":          "2025-03-01",
		"slot":          "Manhã (9h-12h)",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "in the past")
}

func TestRequestInfo(t *testing.T) {
	s := newTestServer(t, scriptedText(primaryResponse, similarResponse, nil))

	rec := do(t, s, http.MethodPost, "/api/info-requests", map[string]string{
		"propertyId": "p-1",
		"name":       "Ana",
		"email":      "ana@example.com",
		"contact":    "11987654321",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Obrigado, Ana!")

	rec = do(t, s, http.MethodPost, "/api/info-requests", map[string]string{
		"propertyId": "p-1",
		"name":       "Ana",
		"email":      "not-an-email",
		"contact":    "11987654321",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error struct {
			Problems []string `json:"problems"`
		} `json:"error"`
	}
	decode(t, rec, &body)
	assert.NotEmpty(t, body.Error.Problems)
}

func TestCORS(t *testing.T) {
	p, err := pipeline.NewBuilder().WithGenerators(llmtest.StaticText("[]"), llmtest.StaticImages()).Build(context.Background())
	require.NoError(t, err)

	s := New(p, nil, config.Server{CORS: config.CORSConfig{Enabled: true, AllowedOrigins: []string{"https://casaideal.example"}}})

	req := httptest.NewRequest(http.MethodOptions, "/api/searches", nil)
	req.Header.Set("Origin", "https://casaideal.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "https://casaideal.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
