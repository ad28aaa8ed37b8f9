// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/scvote/councilvote/auditlog"
	"github.com/scvote/councilvote/cliparse"
	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/handlers"
	"github.com/scvote/councilvote/identity"
	"github.com/scvote/councilvote/middleware"
)

// interactRateLimit caps likes, comments, and reactions per client IP.
const (
	interactRateLimit  = 30
	interactRateWindow = time.Minute
)

func NewRouter(store *docstore.Store, cfg cliparse.Config, svc *identity.Service, audit *auditlog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	publicHandler := handlers.NewPublicHandler(store)
	userHandler := handlers.NewUserHandler(store, svc)
	interactHandler := handlers.NewInteractHandler(store, svc)
	adminHandler := handlers.NewAdminHandler(store, cfg, audit)
	liveHandler := handlers.NewLiveHandler(store, cfg)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Public browsing
	r.Get("/api/candidates", publicHandler.ListCandidates)
	r.Get("/api/candidates/{id}", publicHandler.GetCandidate)
	r.Get("/api/trending", publicHandler.Trending)
	r.Get("/api/alerts/active", publicHandler.ActiveAlerts)
	r.Get("/api/schedule", publicHandler.Schedule)
	r.Get("/api/config", publicHandler.Config)

	// Live streams
	r.Get("/api/live/candidates", liveHandler.CandidatesStream)
	r.Get("/api/live/alerts", liveHandler.AlertsStream)
	r.Get("/api/live/users/{id}", liveHandler.UserStream)

	// Identity and verification
	r.Post("/api/users/check", userHandler.CheckUser)
	r.Post("/api/users/register", userHandler.Register)
	r.Post("/api/users/password", userHandler.SetPassword)
	r.Post("/api/users/login", userHandler.Login)
	r.Post("/api/users/heartbeat", userHandler.Heartbeat)
	r.Post("/api/users/warning-ack", userHandler.AcknowledgeWarning)
	r.Get("/api/users/me", userHandler.Me)
	r.Post("/api/prefs", userHandler.SetPrefs)

	// Interactive endpoints, rate limited per client IP
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(interactRateLimit, interactRateWindow))
		r.Post("/api/candidates/{id}/policies/{pid}/like", interactHandler.LikePolicy)
		r.Post("/api/candidates/{id}/policies/{pid}/comments", interactHandler.AddComment)
		r.Post("/api/candidates/{id}/policies/{pid}/comments/{cid}/reaction", interactHandler.SetReaction)
	})

	// Admin login lives outside the session guard
	r.Post("/api/admin/login", adminHandler.Login)
	r.Post("/api/admin/logout", adminHandler.Logout)

	// Admin panel, session cookie required
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(cfg.SessionSalt))

		r.Post("/candidates", adminHandler.CreateCandidate)
		r.Put("/candidates/{id}", adminHandler.UpdateCandidate)
		r.Delete("/candidates/{id}", adminHandler.DeleteCandidate)
		r.Post("/candidates/{id}/policies", adminHandler.CreatePolicy)
		r.Put("/candidates/{id}/policies/{pid}", adminHandler.UpdatePolicy)
		r.Delete("/candidates/{id}/policies/{pid}", adminHandler.DeletePolicy)
		r.Post("/candidates/{id}/votes", adminHandler.UpdateVotes)
		r.Post("/counts/abstain", adminHandler.UpdateAbstain)
		r.Post("/counts/spoiled", adminHandler.UpdateSpoiled)

		r.Get("/users", adminHandler.ListUsers)
		r.Post("/users/{id}/block", adminHandler.BlockUser)
		r.Post("/users/{id}/unblock", adminHandler.UnblockUser)
		r.Post("/users/{id}/warn", adminHandler.WarnUser)
		r.Post("/users/{id}/focus", adminHandler.FocusUser)
		r.Delete("/users/{id}", adminHandler.DeleteUser)

		r.Get("/alerts", adminHandler.ListAlerts)
		r.Post("/alerts", adminHandler.CreateAlert)
		r.Put("/alerts/{id}", adminHandler.UpdateAlert)
		r.Delete("/alerts/{id}", adminHandler.DeleteAlert)

		r.Put("/schedule", adminHandler.UpdateSchedule)
		r.Put("/live", adminHandler.UpdateLiveSettings)
		r.Get("/warning-templates", adminHandler.GetWarningTemplates)
		r.Put("/warning-templates", adminHandler.UpdateWarningTemplates)
		r.Get("/ip-aliases", adminHandler.GetIPAliases)
		r.Put("/ip-aliases", adminHandler.SetIPAlias)
		r.Get("/logs", adminHandler.ListLogs)
	})

	return r
}

func allowedOrigins(cfg cliparse.Config) []string {
	if cfg.CORSOrigins == "" {
		return []string{"*"}
	}
	origins := []string{}
	for _, origin := range strings.Split(cfg.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
