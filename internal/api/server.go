// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

// Package api exposes the travel subsystem over HTTP/JSON. Player identity
// arrives from the upstream gateway as an X-Player-ID header; the API
// trusts it and does no authentication of its own.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/worldrift/worldrift/internal/travel"
	"github.com/worldrift/worldrift/internal/world"
)

// PlayerIDHeader carries the authenticated player id set by the gateway.
const PlayerIDHeader = "X-Player-ID"

// Pinger reports whether the backing database is reachable. Satisfied by
// *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires the world and travel services into an HTTP handler.
type Server struct {
	provisioner *world.Provisioner
	view        *world.View
	engine      *world.Engine
	travel      *travel.Service
	worlds      world.WorldRepository
	maps        world.MapRepository
	pinger      Pinger
	metrics     *Metrics
	mux         *http.ServeMux
}

// NewServer creates a Server and registers all routes.
func NewServer(
	provisioner *world.Provisioner,
	view *world.View,
	engine *world.Engine,
	travelSvc *travel.Service,
	worlds world.WorldRepository,
	maps world.MapRepository,
	pinger Pinger,
	reg *prometheus.Registry,
) *Server {
	s := &Server{
		provisioner: provisioner,
		view:        view,
		engine:      engine,
		travel:      travelSvc,
		worlds:      worlds,
		maps:        maps,
		pinger:      pinger,
		metrics:     NewMetrics(reg),
		mux:         http.NewServeMux(),
	}
	s.routes(reg)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes(reg *prometheus.Registry) {
	s.handle("GET /v1/worlds/me", s.handleMyWorld)
	s.handle("POST /v1/worlds/me/visibility", s.handleSetVisibility)
	s.handle("GET /v1/worlds/{world}/maps/{map}/graph", s.handleMapGraph)
	s.handle("POST /v1/worlds/{world}/action", s.handleAction)
	s.handle("POST /v1/travel/signin", s.handleSignin)
	s.handle("GET /v1/travel/profile", s.handleProfile)
	s.handle("POST /v1/travel/start", s.handleStartTravel)
	s.handle("POST /v1/travel/end", s.handleEndTravel)
	s.handle("GET /v1/invasion/reports/me", s.handleListReports)
	s.handle("POST /v1/invasion/reports/{id}/read", s.handleMarkReportRead)

	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

// playerHandler is a handler that requires an authenticated player.
type playerHandler func(w http.ResponseWriter, r *http.Request, playerID ulid.ULID)

// handle registers a route behind the identity check and request metrics.
func (s *Server) handle(pattern string, h playerHandler) {
	s.mux.Handle(pattern, s.instrument(pattern, func(w http.ResponseWriter, r *http.Request) {
		playerID, err := playerIDFromRequest(r)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid "+PlayerIDHeader+" header")
			return
		}
		h(w, r, playerID)
	}))
}

func (s *Server) instrument(pattern string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next(sw, r)

		elapsed := time.Since(start)
		s.metrics.ObserveRequest(pattern, sw.status, elapsed)
		slog.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", elapsed.Milliseconds())
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "NOT_READY", "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// playerIDFromRequest extracts the gateway-supplied player id.
func playerIDFromRequest(r *http.Request) (ulid.ULID, error) {
	return ulid.Parse(r.Header.Get(PlayerIDHeader))
}

// statusWriter records the status code for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
