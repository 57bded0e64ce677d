package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lesniewskii/weight-tracker/internal/app"
	"github.com/lesniewskii/weight-tracker/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeFailure maps err to a status code. Backend status errors keep the
// backend's code; fallback applies to errors that are neither known
// validation errors nor backend failures.
func writeFailure(w http.ResponseWriter, err error, fallback int) {
	writeError(w, statusFor(err, fallback), err)
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, app.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrInvalidWeight),
		errors.Is(err, app.ErrInvalidID),
		errors.Is(err, app.ErrEmptyPatch),
		errors.Is(err, app.ErrInvalidGoal),
		errors.Is(err, app.ErrEmptyImport),
		errors.Is(err, app.ErrMissingCredentials):
		return http.StatusBadRequest
	}
	if fe, ok := domain.AsFetchError(err); ok {
		if fe.Kind == domain.KindStatus {
			return fe.StatusCode
		}
		return http.StatusBadGateway
	}
	return fallback
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func idVar(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, app.ErrInvalidID
	}
	return id, nil
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// spaFromDisk serves files from dir and falls back to index.html for
// client-side routes.
func spaFromDisk(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	indexPath := path.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := path.Clean(r.URL.Path)
		if reqPath == "/" {
			http.ServeFile(w, r, indexPath)
			return
		}

		staticPath := path.Join(dir, reqPath)
		if info, err := os.Stat(staticPath); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, indexPath)
	})
}
