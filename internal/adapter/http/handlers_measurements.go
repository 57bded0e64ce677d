package adapthttp

import (
	"net/http"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

func (s *Server) handleMeasurementList(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Measurements.List(r.Context())
	if err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"measurements": items})
}

func (s *Server) handleMeasurementAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date   string  `json:"measurement_date"`
		Weight float64 `json:"weight"`
		Notes  string  `json:"notes"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Measurements.Add(r.Context(), body.Date, body.Weight, body.Notes); err != nil {
		writeFailure(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
}

func (s *Server) handleMeasurementEdit(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var patch domain.MeasurementPatch
	if err := parseJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Measurements.Edit(r.Context(), id, patch); err != nil {
		writeFailure(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (s *Server) handleMeasurementDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Measurements.Delete(r.Context(), id); err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}
