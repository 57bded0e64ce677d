package adapthttp

import (
	"net/http"
	"time"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

type sessionResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := parseJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.svc.Auth.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Username: sess.Username, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := parseJSON(r, &reg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := s.svc.Auth.Register(r.Context(), reg)
	if err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Auth.Logout(r.Context()); err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Auth.Profile(r.Context())
	if err != nil {
		writeFailure(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleMeUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email  string   `json:"email"`
		Height *float64 `json:"height"`
		Age    *int     `json:"age"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := s.svc.Auth.UpdateProfile(r.Context(), body.Email, body.Height, body.Age)
	if err != nil {
		writeFailure(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
