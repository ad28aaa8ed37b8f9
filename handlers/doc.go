// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the councilvote API.

# Handler Types

Each handler is a struct with its dependencies injected via constructor:

  - PublicHandler: candidate listings, trending, alerts, schedule, config
  - UserHandler: identity check/register/login, heartbeat, preferences
  - InteractHandler: policy likes, comments, comment reactions
  - AdminHandler: candidate/policy CRUD, counters, user moderation,
    alerts, schedule, settings, audit log reader
  - LiveHandler: server-sent event streams

Handlers are created with the store and config:

	publicHandler := handlers.NewPublicHandler(store)
	adminHandler := handlers.NewAdminHandler(store, cfg, audit)

# Verification

Interactive endpoints resolve the identity cookie against the users
collection on every request via requireVerification. Unverified visitors get
401 with code "verification_required"; blocked users get 403 with code
"blocked". Browsing endpoints skip the check entirely.

# Interaction Dedup

Per-browser interaction state (liked policies, comment reactions) lives in
cookies, not in the store. A repeat like is a no-op; switching a reaction
adjusts both counters in a single partial update.

# Admin Panel

Admin endpoints sit behind the session cookie guard (middleware.RequireAdmin)
except login itself. Every mutating admin action is recorded to the audit log
in the background.
*/
package handlers
