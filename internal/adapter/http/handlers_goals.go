package adapthttp

import "net/http"

func (s *Server) handleGoalList(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.Goals.List(r.Context())
	if err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) handleGoalAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StartWeight  float64 `json:"start_weight"`
		TargetWeight float64 `json:"target_weight"`
		TargetDate   string  `json:"target_date"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	g, err := s.svc.Goals.Create(r.Context(), body.StartWeight, body.TargetWeight, body.TargetDate)
	if err != nil {
		writeFailure(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}
