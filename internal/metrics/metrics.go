package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casaideal_llm_calls_total",
			Help: "Total number of generation calls by operation, model and outcome",
		},
		[]string{"operation", "model", "outcome"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casaideal_llm_call_duration_seconds",
			Help:    "Duration of generation calls in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"operation", "model"},
	)

	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casaideal_searches_total",
			Help: "Total number of listing searches by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casaideal_search_duration_seconds",
			Help:    "Duration of listing searches in seconds",
			Buckets: []float64{1, 5, 10, 20, 40, 80, 160},
		},
		[]string{"kind"},
	)

	ListingsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casaideal_listings_delivered_total",
			Help: "Total number of enriched listings returned to callers",
		},
		[]string{"kind"},
	)

	ListingsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casaideal_listings_dropped_total",
			Help: "Total number of generated listings discarded for missing required fields",
		},
		[]string{"kind"},
	)

	EnrichmentFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casaideal_enrichment_fallbacks_total",
			Help: "Total number of enrichment steps that fell back to placeholder content",
		},
		[]string{"field"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casaideal_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "casaideal_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "route"},
	)
)

// Outcome maps an error onto an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// ObserveLLMCall records one generation call.
func ObserveLLMCall(operation, model string, elapsed time.Duration, err error) {
	LLMCalls.WithLabelValues(operation, model, Outcome(err)).Inc()
	LLMCallDuration.WithLabelValues(operation, model).Observe(elapsed.Seconds())
}

// ObserveSearch records one finished search and the listings it produced.
func ObserveSearch(kind string, elapsed time.Duration, listings int, err error) {
	Searches.WithLabelValues(kind, Outcome(err)).Inc()
	SearchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if listings > 0 {
		ListingsDelivered.WithLabelValues(kind).Add(float64(listings))
	}
}

// AddDropped records listings discarded while parsing.
func AddDropped(kind string, n int) {
	if n > 0 {
		ListingsDropped.WithLabelValues(kind).Add(float64(n))
	}
}

// IncFallback records a placeholder substitution for field ("images" or "neighborhood").
func IncFallback(field string) {
	EnrichmentFallbacks.WithLabelValues(field).Inc()
}

// ObserveHTTP records one served HTTP request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
