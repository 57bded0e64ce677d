package adapthttp

import (
	"errors"
	"net/http"
)

var errViewNotReady = errors.New("view not ready, refresh in progress")

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	vm, ok := s.svc.View.Latest()
	if !ok {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, errViewNotReady)
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.svc.View.Invalidate()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
