package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

func attachment(w http.ResponseWriter, name, ext string) {
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="flashmind-%s-%s.%s"`, name, time.Now().Format("2006-01-02"), ext))
}

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	b, err := s.BackupService.Export(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	attachment(w, "backup", "json")
	writeJSON(w, r, http.StatusOK, b)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	// Buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := s.BackupService.ExportCSV(r.Context(), &buf); err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	attachment(w, "export", "csv")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.BackupService.Restore(r.Context(), http.MaxBytesReader(w, r.Body, maxBodyBytes)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
