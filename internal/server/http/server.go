// Package httpserver provides the HTTP REST API for the bibliometrics
// engine. Handlers only decode request parameters, call the engine and map
// typed domain errors to statuses; every domain decision lives below this
// layer.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhonbg/quyca-sub001/internal/config"
	"github.com/jhonbg/quyca-sub001/internal/engine"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

// HealthChecker reports store connectivity for the health endpoints.
type HealthChecker interface {
	Health(ctx context.Context) store.Health
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	engine     *engine.Engine
	health     HealthChecker
	logger     zerolog.Logger
}

// NewServer creates the HTTP server with all routes mounted. health may be
// nil when no store-backed readiness check is wanted (tests).
func NewServer(cfg config.ServerConfig, metricsCfg config.MetricsConfig, eng *engine.Engine, health HealthChecker, logger zerolog.Logger) *Server {
	s := &Server{
		engine: eng,
		health: health,
		logger: logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter(metricsCfg)

	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Router exposes the mounted routes, mainly for handler tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter(metricsCfg config.MetricsConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(s.requestLogMiddleware)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)
	if metricsCfg.Enabled {
		r.Handle(metricsCfg.Path, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/affiliations/{nodeKind}/{nodeID}", func(r chi.Router) {
			r.Get("/related/{relationKind}", s.relatedAffiliations)
			r.Get("/products/{productKind}", s.affiliationProducts)
			r.Get("/plots/{plotName}", s.affiliationPlot)
		})
		r.Route("/person/{personID}", func(r chi.Router) {
			r.Get("/", s.personSummary)
			r.Get("/products/{productKind}", s.personProducts)
			r.Get("/plots/{plotName}", s.personPlot)
		})
		r.Get("/search/products/{productKind}", s.searchProducts)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports readiness including store connectivity.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	health := s.health.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
