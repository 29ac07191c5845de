package server

import (
	"casaideal/internal/core"
	"casaideal/internal/pipeline"
	"net/http"
)

// SearchRequest is the body of the search endpoints
type SearchRequest struct {
	Preferences core.Preferences `json:"preferences"`
	Refine      bool             `json:"refine,omitempty"`
}

// SimilarRequest asks for alternatives to listings already shown
type SimilarRequest struct {
	Preferences core.Preferences `json:"preferences"`
	Existing    []core.Property  `json:"existing"`
}

// ListingsResponse carries listings and the progress messages reported while
// producing them
type ListingsResponse struct {
	Listings []core.Property `json:"listings"`
	Progress []string        `json:"progress"`
}

// handleSearch handles POST /api/searches: primary listings, then alternatives
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decodePreferences(w, r, &req, &req.Preferences) {
		return
	}

	run := s.pipeline.Search
	if req.Refine {
		run = s.pipeline.Refine
	}

	result, err := run(r.Context(), req.Preferences, nil)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handlePrimaryListings handles POST /api/listings
func (s *Server) handlePrimaryListings(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decodePreferences(w, r, &req, &req.Preferences) {
		return
	}

	recorder := &pipeline.ProgressRecorder{}
	listings, err := s.pipeline.FindPrimaryListings(r.Context(), req.Preferences, recorder)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, ListingsResponse{Listings: listings, Progress: recorder.Messages()})
}

// handleSimilarListings handles POST /api/listings/similar. Failures yield
// an empty list, never an error status.
func (s *Server) handleSimilarListings(w http.ResponseWriter, r *http.Request) {
	var req SimilarRequest
	if !s.decodePreferences(w, r, &req, &req.Preferences) {
		return
	}

	recorder := &pipeline.ProgressRecorder{}
	listings := s.pipeline.FindSimilarListings(r.Context(), req.Preferences, req.Existing, recorder)

	s.respondJSON(w, http.StatusOK, ListingsResponse{Listings: listings, Progress: recorder.Messages()})
}

// decodePreferences decodes body into req and validates prefs, writing the
// error response itself. It reports whether the handler should continue.
func (s *Server) decodePreferences(w http.ResponseWriter, r *http.Request, req interface{}, prefs *core.Preferences) bool {
	if s.pipeline == nil {
		s.respondError(w, http.StatusServiceUnavailable, pipeline.ConfigurationErrorMessage)
		return false
	}
	if err := decodeJSON(w, r, req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := prefs.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) respondSearchError(w http.ResponseWriter, err error) {
	s.log.Error("search failed", "error", err)
	s.respondError(w, http.StatusBadGateway, pipeline.UserMessage(err))
}
