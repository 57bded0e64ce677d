package adapthttp

import (
	"fmt"
	"net/http"

	"github.com/lesniewskii/weight-tracker/internal/app"
)

const maxImportSize = 10 << 20

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.Transfer.Export(r.Context())
	if err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", app.ExportFileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing upload field %q: %w", "file", err))
		return
	}
	defer func() { _ = f.Close() }()

	if err := s.svc.Transfer.Import(r.Context(), hdr.Filename, f); err != nil {
		writeFailure(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
