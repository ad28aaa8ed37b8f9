// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Attach request logging to the router:

	r.Use(middleware.RequestLogger)

Logs request start (method, path, remote) and completion (duration_ms).

# Admin Session Guard

Protect the admin subtree:

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(cfg.SessionSalt))
		...
	})

Requests without a valid session cookie get 401 before reaching a handler.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ErrorResponseCode(w, http.StatusForbidden, "message", models.CodeBlocked)

Parse JSON request bodies:

	var req models.RegisterUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used for user metadata capture and audit logging.
*/
package middleware
