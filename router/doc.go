// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the councilvote API.

# Route Registration

NewRouter creates a configured chi router with all endpoints:

	r := router.NewRouter(store, cfg, svc, audit)

# Endpoints

Health:

	GET /health

Public browsing (no verification):

	GET /api/candidates
	GET /api/candidates/{id}
	GET /api/trending
	GET /api/alerts/active
	GET /api/schedule
	GET /api/config

Live streams (server-sent events):

	GET /api/live/candidates
	GET /api/live/alerts
	GET /api/live/users/{id}

Identity and verification:

	POST /api/users/check
	POST /api/users/register
	POST /api/users/password
	POST /api/users/login
	POST /api/users/heartbeat
	POST /api/users/warning-ack
	GET  /api/users/me
	POST /api/prefs

Interactive (verified identity, rate limited per IP):

	POST /api/candidates/{id}/policies/{pid}/like
	POST /api/candidates/{id}/policies/{pid}/comments
	POST /api/candidates/{id}/policies/{pid}/comments/{cid}/reaction

Admin panel (session cookie required except login/logout):

	POST /api/admin/login
	POST /api/admin/logout
	POST/PUT/DELETE /api/admin/candidates...
	POST /api/admin/candidates/{id}/votes
	POST /api/admin/counts/{abstain,spoiled}
	GET/POST/DELETE /api/admin/users...
	GET/POST/PUT/DELETE /api/admin/alerts...
	PUT /api/admin/schedule
	PUT /api/admin/live
	GET/PUT /api/admin/warning-templates
	GET/PUT /api/admin/ip-aliases
	GET /api/admin/logs

# Handler Initialization

The router creates handler instances with dependency injection:

	publicHandler := handlers.NewPublicHandler(store)
	userHandler := handlers.NewUserHandler(store, svc)
	interactHandler := handlers.NewInteractHandler(store, svc)
	adminHandler := handlers.NewAdminHandler(store, cfg, audit)
	liveHandler := handlers.NewLiveHandler(store, cfg)
*/
package router
