// Package adapthttp is the local dashboard: a JSON API over the published
// view model and the mutation forms, plus an optional static web client.
package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/lesniewskii/weight-tracker/internal/app"
	"github.com/lesniewskii/weight-tracker/internal/domain"
	"github.com/lesniewskii/weight-tracker/internal/metrics"
)

// ViewSource yields the last published view model and accepts refresh
// requests. *app.Coordinator implements it.
type ViewSource interface {
	Latest() (domain.ViewModel, bool)
	Invalidate()
}

// Services are the application services the dashboard drives.
type Services struct {
	View         ViewSource
	Measurements *app.MeasurementService
	Goals        *app.GoalService
	Transfer     *app.TransferService
	Auth         *app.AuthService
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc      Services
	webDir   string
	metrics  *metrics.Manager
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics counts served requests on m and exposes g on /metrics.
func WithMetrics(m *metrics.Manager, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithWebDir serves the static web client from dir.
func WithWebDir(dir string) Option {
	return func(s *Server) { s.webDir = dir }
}

// New creates a Server wired to the given application services.
func New(svc Services, opts ...Option) *Server {
	s := &Server{svc: svc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/view", s.handleView).Methods(http.MethodGet)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)

	api.HandleFunc("/measurements", s.handleMeasurementList).Methods(http.MethodGet)
	api.HandleFunc("/measurements", s.handleMeasurementAdd).Methods(http.MethodPost)
	api.HandleFunc("/measurements/{id:[0-9]+}", s.handleMeasurementEdit).Methods(http.MethodPut)
	api.HandleFunc("/measurements/{id:[0-9]+}", s.handleMeasurementDelete).Methods(http.MethodDelete)

	api.HandleFunc("/goals", s.handleGoalList).Methods(http.MethodGet)
	api.HandleFunc("/goals", s.handleGoalAdd).Methods(http.MethodPost)

	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)

	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/auth/me", s.handleMeUpdate).Methods(http.MethodPut)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("not found"))
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.webDir != "" {
		r.PathPrefix("/").Handler(spaFromDisk(s.webDir))
	}

	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)

	return withNoCache(r)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof(" > dashboard listening on: [%s]", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	log.Infoln("dashboard stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
