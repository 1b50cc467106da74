// Package server exposes the dashboard data as a JSON HTTP API for the browser frontend.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/naka-gawa/github-dashboard/internal/config"
	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/gateway"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
)

// Options configures the HTTP API.
type Options struct {
	AllowedOrigins []string
	// RequestTimeout bounds a single /api/activity request.
	RequestTimeout time.Duration
	MaxPages       int
}

// Server serves the dashboard API.
type Server struct {
	fetcher gateway.Fetcher
	clock   clockwork.Clock
	logger  *log.Logger
	opts    Options
}

// New creates a Server that fetches through fetcher.
func New(fetcher gateway.Fetcher, clock clockwork.Clock, logger *log.Logger, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{fetcher: fetcher, clock: clock, logger: logger, opts: opts}
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/healthz"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Get("/activity", s.handleActivity)
	})
	return r
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.resolve(r))
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	cfg := s.resolve(r)
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	dashboard := usecase.NewDashboard(s.fetcher, s.logger, usecase.WithMaxPages(s.opts.MaxPages))
	dashboard.Load(ctx, cfg)
	if err := dashboard.Wait(ctx); err != nil {
		dashboard.Stop()
		s.logger.Printf("Server: activity request for %s gave up: %v\n", cfg.Repo, err)
		s.writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "failed to load activity: " + err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, dashboard.Report(cfg))
}

func (s *Server) resolve(r *http.Request) domain.Config {
	return config.Resolve(config.QuerySource(r.URL.Query()), s.clock)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("Server: failed to encode response: %v\n", err)
	}
}
