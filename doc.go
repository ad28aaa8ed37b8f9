// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Councilvote is the backend for a school student-council election site.

It serves the public voting-information pages (candidates, policies, live
results, countdown, schedule, alerts), the interactive surface for verified
students (policy likes, comments, comment reactions), and a password-gated
admin API for managing candidates, votes, users, alerts, the schedule, and
the audit log.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	ADMIN_PASSWORD=... SESSION_SALT=... go run .

Or with flags:

	go run . -p 8317 -d councilvote.db

# Configuration

Required settings:

  - ADMIN_PASSWORD (--admin-password): shared admin panel secret
  - SESSION_SALT (--session-salt): secret for admin session cookie HMAC

Optional settings:

  - PORT (-p): server port (default: 8317)
  - DATABASE_URL (-d): sqlite file path or postgres connection string
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - IP_LOOKUP_URL: public IP lookup endpoint (default: ipify)
  - LOG_FILE: JSON log file with rotation (default: stderr text)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (public, interact, users, admin, live)
  - router: route definitions using chi
  - middleware: logging, JSON helpers, admin session gate
  - models: document shapes and request/response types
  - docstore: JSON document layer over sqlite/postgres with dotted-path
    updates, atomic counters, and live snapshot subscriptions
  - engagement: trending-policy and top-candidate scoring
  - identity: student registration/verification state machine
  - auditlog: fire-and-forget admin action log
  - ipinfo: best-effort public IP lookup
  - auth: token generation and session validation
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
