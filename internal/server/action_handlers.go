package server

import (
	"casaideal/internal/compare"
	"casaideal/internal/core"
	"casaideal/internal/visits"
	"errors"
	"net/http"
)

// CompareRequest lists the properties to compare, in display order
type CompareRequest struct {
	Properties []core.Property `json:"properties"`
}

// handleCompare handles POST /api/comparisons
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	comparison, err := compare.Build(req.Properties)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.analytics.IsEnabled() {
		_ = s.analytics.TrackComparison(r.Context(), len(comparison.Properties))
	}
	s.respondJSON(w, http.StatusOK, comparison)
}

// handleScheduleVisit handles POST /api/visits
func (s *Server) handleScheduleVisit(w http.ResponseWriter, r *http.Request) {
	var req visits.VisitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	confirmation, err := visits.ScheduleVisit(req, s.now())
	if err != nil {
		s.respondValidationError(w, err)
		return
	}

	if s.analytics.IsEnabled() {
		_ = s.analytics.TrackVisitScheduled(r.Context(), confirmation.PropertyID, string(confirmation.Slot))
	}
	s.respondJSON(w, http.StatusCreated, confirmation)
}

// handleRequestInfo handles POST /api/info-requests
func (s *Server) handleRequestInfo(w http.ResponseWriter, r *http.Request) {
	var req visits.InfoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	confirmation, err := visits.RequestInfo(req, s.now())
	if err != nil {
		s.respondValidationError(w, err)
		return
	}

	if s.analytics.IsEnabled() {
		_ = s.analytics.TrackInfoRequested(r.Context(), confirmation.PropertyID)
	}
	s.respondJSON(w, http.StatusCreated, confirmation)
}

func (s *Server) respondValidationError(w http.ResponseWriter, err error) {
	var validationErr *visits.ValidationError
	if errors.As(err, &validationErr) {
		s.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": map[string]interface{}{
				"status":   http.StatusUnprocessableEntity,
				"message":  "invalid request",
				"problems": validationErr.Problems,
			},
		})
		return
	}

	s.log.Error("request handling failed", "error", err)
	s.respondError(w, http.StatusInternalServerError, err.Error())
}
