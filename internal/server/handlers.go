package server

import (
	"casaideal/internal/core"
	"casaideal/internal/visits"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps request bodies. Comparisons carry up to four enriched
// listings, whose images may be inline data URIs.
const maxBodyBytes = 16 << 20

// HealthResponse is the /health payload
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks"`
}

// OptionsResponse lists the questionnaire catalogs
type OptionsResponse struct {
	Intentions    []core.Intention `json:"intentions"`
	PropertyTypes []string         `json:"propertyTypes"`
	Priorities    []string         `json:"priorities"`
	Extras        []string         `json:"extras"`
	VisitSlots    []visits.Slot    `json:"visitSlots"`
	Defaults      core.Preferences `json:"defaults"`
}

var serverStartTime = time.Now()

// handleHealth handles the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"pipeline":  "ok",
		"analytics": "disabled",
	}
	if s.pipeline == nil {
		checks["pipeline"] = "unconfigured"
	}
	if s.analytics.IsEnabled() {
		checks["analytics"] = "ok"
	}

	code := http.StatusOK
	body := HealthResponse{Status: "ok", Uptime: time.Since(serverStartTime).String(), Checks: checks}
	if s.pipeline == nil {
		code = http.StatusServiceUnavailable
		body.Status = "unhealthy"
	}
	s.respondJSON(w, code, body)
}

// handleOptions handles GET /api/options
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, OptionsResponse{
		Intentions:    []core.Intention{core.IntentionBuy, core.IntentionRent},
		PropertyTypes: core.PropertyTypeOptions,
		Priorities:    core.PriorityOptions,
		Extras:        core.ExtraOptions,
		VisitSlots:    visits.Slots,
		Defaults:      core.DefaultPreferences(),
	})
}

// decodeJSON reads the request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError writes a JSON error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"status":  status,
			"message": message,
		},
	})
}
