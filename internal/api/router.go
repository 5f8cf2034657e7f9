package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each component probe in the health handler.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// The daemon binds to loopback; the UI process on the same host is
	// the only expected caller, so there is no route-level auth.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/session", s.handleSession)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
			r.Post("/logout", s.handleLogout)
		})

	})

	// The event stream path is configurable so the UI bundle and the
	// daemon can agree on it without a rebuild.
	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/api/v1/ws"
	}
	r.Get(wsPath, s.handleWebSocket)

	return r
}

// handleHealth reports the daemon's component health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := map[string]string{}
	healthy := true
	for name, hc := range map[string]HealthChecker{
		"database": s.database,
		"mqtt":     s.mqtt,
		"influxdb": s.influx,
	} {
		switch {
		case hc == nil:
			components[name] = "disabled"
		default:
			if err := hc.HealthCheck(ctx); err != nil {
				components[name] = err.Error()
				healthy = false
			} else {
				components[name] = "ok"
			}
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}
