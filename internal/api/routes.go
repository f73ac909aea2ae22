package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	if s.RequestTimeout > 0 {
		r.Use(timeoutMiddleware(s.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/decks", s.handleListDecks)
		r.Post("/decks", s.handleCreateDeck)
		r.Get("/decks/{id}", s.handleGetDeck)
		r.Put("/decks/{id}", s.handleUpdateDeck)
		r.Delete("/decks/{id}", s.handleDeleteDeck)
		r.Post("/decks/{id}/import", s.handleImportCards)
		r.Post("/decks/{id}/sessions", s.handleStartSession)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleSaveSettings)

		r.Get("/backup", s.handleExportBackup)
		r.Get("/backup.csv", s.handleExportCSV)
		r.Post("/backup", s.handleRestoreBackup)

		r.Get("/sessions/{sid}", s.handleGetSession)
		r.Delete("/sessions/{sid}", s.handleEndSession)
		r.Post("/sessions/{sid}/reveal", s.handleRevealCard)
		r.Post("/sessions/{sid}/rate", s.handleRateCard)
		r.Post("/sessions/{sid}/refresh", s.handleRefreshSession)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errNoRoute(r))
	})
	return r
}
