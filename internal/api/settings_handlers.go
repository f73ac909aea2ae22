package api

import (
	"net/http"

	"github.com/vytor/flashmind/internal/models"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.SettingsService.Get(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cfg)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var cfg models.SchedulingConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.SettingsService.Save(r.Context(), cfg); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cfg)
}
