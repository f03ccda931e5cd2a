// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"

	"github.com/danielhkuo/scanvote/auth"
	"github.com/danielhkuo/scanvote/cliparse"
	"github.com/danielhkuo/scanvote/handlers"
	"github.com/danielhkuo/scanvote/middleware"
	"github.com/danielhkuo/scanvote/polls"
	"github.com/danielhkuo/scanvote/qr"
)

// NewRouter wires every route. ready gates /readyz; main clears it before
// shutting down so load balancers stop sending traffic.
func NewRouter(svc *polls.Service, cfg cliparse.Config, log *slog.Logger, ready *atomic.Bool) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.HTTPLogger(log))
	r.Use(middleware.Session(auth.BearerSessions{Secret: cfg.SessionSecret}))

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(svc, cfg)
	scanHandler := handlers.NewScanHandler(svc, cfg, qr.PNG{})
	profileHandler := handlers.NewProfileHandler(svc, cfg)

	// Health checks
	r.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": "alive"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			middleware.JSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		if err := svc.Ping(r.Context()); err != nil {
			log.Warn("readiness check failed", "error", err)
			middleware.JSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "storage unavailable"})
			return
		}
		middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	// Accounts
	r.Post("/profiles", profileHandler.Create)
	r.Get("/profiles/me", profileHandler.Me)

	// Polls
	r.Route("/polls", func(r chi.Router) {
		r.Post("/", pollHandler.CreatePoll)
		r.Get("/", pollHandler.ListPolls)
		r.Get("/{id}", pollHandler.GetPoll)
		r.Patch("/{id}", pollHandler.UpdatePoll)
		r.Post("/{id}/vote", pollHandler.Vote)
		r.Get("/{id}/tokens", pollHandler.ListTokens)
		r.Post("/{id}/tokens/rotate", pollHandler.RotateTokens)
	})

	// Access codes
	r.Delete("/tokens/{code}", pollHandler.DeactivateToken)
	r.Get("/qr/{code}", scanHandler.Resolve)

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("scanvote API v1"))
	})

	return r
}
