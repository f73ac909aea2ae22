package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type rateRequest struct {
	Grade string `json:"grade"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.StudyService.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+v.ID)
	writeJSON(w, r, http.StatusCreated, v)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.StudyService.View(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleRevealCard(w http.ResponseWriter, r *http.Request) {
	v, err := s.StudyService.Reveal(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleRateCard(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	v, err := s.StudyService.Rate(r.Context(), chi.URLParam(r, "sid"), req.Grade)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleRefreshSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.StudyService.Refresh(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.StudyService.End(r.Context(), chi.URLParam(r, "sid")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
