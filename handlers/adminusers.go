// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/identity"
	"github.com/scvote/councilvote/middleware"
	"github.com/scvote/councilvote/models"
)

// ListUsers handles GET /api/admin/users
//
// Returns every registered user with captured metadata, most recently active
// first. Password hashes never leave the server.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.GetAll(r.Context(), models.CollectionUsers)
	if err != nil {
		slog.Error("failed to load users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load users")
		return
	}

	users := make([]models.UserDoc, 0, len(docs))
	for _, doc := range docs {
		user := models.UserDoc{StudentID: doc.ID}
		if err := doc.DataTo(&user.User); err != nil {
			slog.Warn("skipping malformed user record", "id", doc.ID, "error", err)
			continue
		}
		user.PasswordHash = ""
		users = append(users, user)
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].LastActive > users[j].LastActive
	})

	middleware.JSONResponse(w, http.StatusOK, users)
}

// BlockUser handles POST /api/admin/users/{id}/block
//
// Blocking takes effect on the user's next store-checked request; an open
// session discovers it via the live user stream or the next heartbeat.
func (h *AdminHandler) BlockUser(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	var req models.BlockUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !h.userExists(w, r, studentID) {
		return
	}

	err := h.store.Update(r.Context(), models.CollectionUsers, studentID, map[string]any{
		"isBlocked":   true,
		"blockReason": req.Reason,
		"blockId":     identity.NewBlockID(),
	})
	if err != nil {
		slog.Error("failed to block user", "student_id", studentID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to block user")
		return
	}

	detail := "Blocked user " + studentID
	if req.Reason != "" {
		detail += ": " + req.Reason
	}
	h.audit.Record(models.ActionBlockUser, studentID, detail, middleware.GetClientIP(r))

	slog.Info("user blocked", "student_id", studentID, "reason", req.Reason)
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"blocked": true})
}

// UnblockUser handles POST /api/admin/users/{id}/unblock
func (h *AdminHandler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	if !h.userExists(w, r, studentID) {
		return
	}

	err := h.store.Update(r.Context(), models.CollectionUsers, studentID, map[string]any{
		"isBlocked":   false,
		"blockReason": docstore.DeleteField(),
		"blockId":     docstore.DeleteField(),
	})
	if err != nil {
		slog.Error("failed to unblock user", "student_id", studentID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to unblock user")
		return
	}

	h.audit.Record(models.ActionUnblockUser, studentID, "Unblocked user "+studentID, middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"blocked": false})
}

// WarnUser handles POST /api/admin/users/{id}/warn
//
// The message is stored on the user record and delivered by the next
// heartbeat or live update; it stays until the user acknowledges it.
func (h *AdminHandler) WarnUser(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	var req models.WarnUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	if !h.userExists(w, r, studentID) {
		return
	}

	err := h.store.Update(r.Context(), models.CollectionUsers, studentID, map[string]any{
		"warningMessage": req.Message,
	})
	if err != nil {
		slog.Error("failed to warn user", "student_id", studentID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to warn user")
		return
	}

	slog.Info("user warned", "student_id", studentID)
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"warned": true})
}

// FocusUser handles POST /api/admin/users/{id}/focus
//
// Toggles the tight heartbeat cadence for one user while an admin watches
// their activity.
func (h *AdminHandler) FocusUser(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	var req models.FocusUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !h.userExists(w, r, studentID) {
		return
	}

	err := h.store.Update(r.Context(), models.CollectionUsers, studentID, map[string]any{
		"isFocused": req.Focused,
	})
	if err != nil {
		slog.Error("failed to set focus", "student_id", studentID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to set focus")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"focused": req.Focused})
}

// DeleteUser handles DELETE /api/admin/users/{id}
//
// The deleted user's next verification check resolves to no-account, which
// forces re-registration.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	if !h.userExists(w, r, studentID) {
		return
	}

	if err := h.store.Delete(r.Context(), models.CollectionUsers, studentID); err != nil {
		slog.Error("failed to delete user", "student_id", studentID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	h.audit.Record(models.ActionDeleteUser, studentID, "Deleted user "+studentID, middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *AdminHandler) userExists(w http.ResponseWriter, r *http.Request, studentID string) bool {
	_, err := h.store.Get(r.Context(), models.CollectionUsers, studentID)
	if err == docstore.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return false
	}
	if err != nil {
		slog.Error("failed to load user", "student_id", studentID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load user")
		return false
	}
	return true
}
