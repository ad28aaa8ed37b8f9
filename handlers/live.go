// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scvote/councilvote/auth"
	"github.com/scvote/councilvote/cliparse"
	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/middleware"
	"github.com/scvote/councilvote/models"
)

// LiveHandler serves server-sent event streams. Every event carries a full
// snapshot of the watched state, never a delta, so a dropped event costs
// nothing: the next one supersedes it.
type LiveHandler struct {
	store *docstore.Store
	cfg   cliparse.Config
}

func NewLiveHandler(store *docstore.Store, cfg cliparse.Config) *LiveHandler {
	return &LiveHandler{store: store, cfg: cfg}
}

// CandidatesStream handles GET /api/live/candidates
//
// Streams the full candidate list whenever any candidate document changes.
// Vote edits, likes, comments, and reactions all land here.
func (h *LiveHandler) CandidatesStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := beginStream(w)
	if !ok {
		return
	}

	send := func() bool {
		candidates, err := loadCandidates(r, h.store)
		if err != nil {
			slog.Error("live candidates read failed", "error", err)
			return false
		}
		return sendEvent(w, flusher, "candidates", candidates)
	}

	// Subscribe before the initial snapshot so a write landing in between
	// is notified rather than missed.
	sub := h.store.Subscribe(models.CollectionCandidates)
	defer sub.Cancel()

	if !send() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case _, open := <-sub.C:
			if !open {
				return
			}
			if !send() {
				return
			}
		}
	}
}

// AlertsStream handles GET /api/live/alerts
func (h *LiveHandler) AlertsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := beginStream(w)
	if !ok {
		return
	}

	send := func() bool {
		docs, err := h.store.GetAll(r.Context(), models.CollectionAlerts)
		if err != nil {
			slog.Error("live alerts read failed", "error", err)
			return false
		}
		return sendEvent(w, flusher, "alerts", activeAlerts(docs))
	}

	// Subscribe before the initial snapshot so a write landing in between
	// is notified rather than missed.
	sub := h.store.Subscribe(models.CollectionAlerts)
	defer sub.Cancel()

	if !send() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case _, open := <-sub.C:
			if !open {
				return
			}
			if !send() {
				return
			}
		}
	}
}

// UserStream handles GET /api/live/users/{id}
//
// Pushes the user's own record so blocking, warnings, and focus changes reach
// an open session immediately instead of waiting for the next heartbeat.
// Only the user themselves or an admin may watch a record.
func (h *LiveHandler) UserStream(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	if !h.mayWatchUser(r, studentID) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Not allowed to watch this user")
		return
	}

	flusher, ok := beginStream(w)
	if !ok {
		return
	}

	sub := h.store.SubscribeDoc(models.CollectionUsers, studentID)
	defer sub.Cancel()

	// Initial state, so a client connecting after a block still learns of it.
	doc, err := h.store.Get(r.Context(), models.CollectionUsers, studentID)
	if err == docstore.ErrNotFound {
		if !sendEvent(w, flusher, "deleted", map[string]string{"student_id": studentID}) {
			return
		}
	} else if err != nil {
		slog.Error("live user read failed", "student_id", studentID, "error", err)
		return
	} else if !sendUserEvent(w, flusher, studentID, doc) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-sub.C:
			if !open {
				return
			}
			if !ev.Exists {
				// Deletion forces re-registration client-side.
				if !sendEvent(w, flusher, "deleted", map[string]string{"student_id": studentID}) {
					return
				}
				continue
			}
			if !sendUserEvent(w, flusher, studentID, ev.Doc) {
				return
			}
		}
	}
}

func (h *LiveHandler) mayWatchUser(r *http.Request, studentID string) bool {
	if ident := readIdentity(r); ident.ID == studentID && studentID != "" {
		return true
	}
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		return false
	}
	return auth.ValidateSessionToken(cookie.Value, h.cfg.SessionSalt) == nil
}

func sendUserEvent(w http.ResponseWriter, flusher http.Flusher, studentID string, doc docstore.Document) bool {
	user := models.UserDoc{StudentID: studentID}
	if err := doc.DataTo(&user.User); err != nil {
		slog.Error("failed to decode user for stream", "student_id", studentID, "error", err)
		return false
	}
	user.PasswordHash = ""
	return sendEvent(w, flusher, "user", user)
}

// beginStream sets the SSE headers and checks the writer supports flushing.
func beginStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode stream event", "event", event, "error", err)
		return false
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
