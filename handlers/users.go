// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/identity"
	"github.com/scvote/councilvote/middleware"
	"github.com/scvote/councilvote/models"
)

type UserHandler struct {
	store *docstore.Store
	svc   *identity.Service
}

func NewUserHandler(store *docstore.Store, svc *identity.Service) *UserHandler {
	return &UserHandler{store: store, svc: svc}
}

// CheckUser handles POST /api/users/check
//
// First step of the verification flow: the client learns whether the entered
// student id already has an account and whether it needs a password.
func (h *UserHandler) CheckUser(w http.ResponseWriter, r *http.Request) {
	var req models.CheckUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.svc.CheckUser(r.Context(), req.StudentID)
	if errors.Is(err, identity.ErrInvalidStudentID) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("check user failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to check user")
		return
	}

	if result.Blocked {
		middleware.ErrorResponseCode(w, http.StatusForbidden, result.BlockReason, models.CodeBlocked)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CheckUserResponse{
		Exists:      result.Exists,
		HasPassword: result.HasPassword,
		Nickname:    result.Nickname,
	})
}

// Register handles POST /api/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.svc.Register(r.Context(), identity.RegisterInput{
		StudentID:  req.StudentID,
		Nickname:   req.Nickname,
		Password:   req.Password,
		UserAgent:  r.UserAgent(),
		Platform:   req.Platform,
		Resolution: req.Resolution,
		RemoteIP:   middleware.GetClientIP(r),
	})
	switch {
	case errors.Is(err, identity.ErrInvalidStudentID),
		errors.Is(err, identity.ErrNicknameRequired),
		errors.Is(err, identity.ErrWeakPassword):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, identity.ErrUserExists):
		middleware.ErrorResponse(w, http.StatusConflict, "This student id is already registered")
		return
	case errors.Is(err, identity.ErrBlocked):
		middleware.ErrorResponseCode(w, http.StatusForbidden, "This account is blocked", models.CodeBlocked)
		return
	case err != nil:
		slog.Error("register failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	writeIdentity(w, req.StudentID, user.Nickname)
	middleware.JSONResponse(w, http.StatusCreated, models.AuthResponse{
		Verified:  true,
		StudentID: req.StudentID,
		Nickname:  user.Nickname,
	})
}

// SetPassword handles POST /api/users/password
//
// Attaches a password to a record that predates the password flow, then
// verifies the visitor in one step.
func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.SetPasswordRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.svc.SetPassword(r.Context(), req.StudentID, req.Password)
	switch {
	case errors.Is(err, identity.ErrInvalidStudentID), errors.Is(err, identity.ErrWeakPassword):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, identity.ErrUserNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, identity.ErrBlocked):
		middleware.ErrorResponseCode(w, http.StatusForbidden, "This account is blocked", models.CodeBlocked)
		return
	case err != nil:
		slog.Error("set password failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to set password")
		return
	}

	writeIdentity(w, req.StudentID, user.Nickname)
	middleware.JSONResponse(w, http.StatusOK, models.AuthResponse{
		Verified:  true,
		StudentID: req.StudentID,
		Nickname:  user.Nickname,
	})
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ok, user, err := h.svc.VerifyPassword(r.Context(), req.StudentID, req.Password)
	switch {
	case errors.Is(err, identity.ErrInvalidStudentID):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, identity.ErrUserNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, identity.ErrBlocked):
		middleware.ErrorResponseCode(w, http.StatusForbidden, "This account is blocked", models.CodeBlocked)
		return
	case err != nil:
		slog.Error("login failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Incorrect password")
		return
	}

	writeIdentity(w, req.StudentID, user.Nickname)
	middleware.JSONResponse(w, http.StatusOK, models.AuthResponse{
		Verified:  true,
		StudentID: req.StudentID,
		Nickname:  user.Nickname,
		Warning:   user.WarningMessage,
	})
}

// Me handles GET /api/users/me
//
// Resolves the identity cookie to its current state so the client can decide
// which verification step, if any, to show.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident := readIdentity(r)

	state, user, err := h.svc.Resolve(r.Context(), ident.ID)
	if err != nil {
		slog.Error("resolve identity failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to resolve identity")
		return
	}

	resp := map[string]any{"state": state.String()}
	switch state {
	case identity.StateVerified, identity.StateNeedsPassword:
		resp["student_id"] = ident.ID
		resp["nickname"] = user.Nickname
		if user.WarningMessage != "" {
			resp["warning"] = user.WarningMessage
		}
	case identity.StateBlocked:
		resp["reason"] = user.BlockReason
	case identity.StateNoAccount:
		// The record was deleted server-side; drop the stale cookie.
		clearIdentity(w)
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Heartbeat handles POST /api/users/heartbeat
func (h *UserHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	ident := readIdentity(r)
	if ident.ID == "" {
		middleware.ErrorResponseCode(w, http.StatusUnauthorized, "Verification required", models.CodeVerificationRequired)
		return
	}

	user, err := h.svc.Heartbeat(r.Context(), ident.ID)
	switch {
	case errors.Is(err, identity.ErrBlocked):
		middleware.ErrorResponseCode(w, http.StatusForbidden, "This account is blocked", models.CodeBlocked)
		return
	case errors.Is(err, identity.ErrUserNotFound), errors.Is(err, identity.ErrInvalidStudentID):
		clearIdentity(w)
		middleware.ErrorResponseCode(w, http.StatusUnauthorized, "Verification required", models.CodeVerificationRequired)
		return
	case err != nil:
		slog.Error("heartbeat failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record heartbeat")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.HeartbeatResponse{
		IntervalSeconds: int(identity.HeartbeatInterval(user.IsFocused).Seconds()),
		Focused:         user.IsFocused,
		Warning:         user.WarningMessage,
	})
}

// AcknowledgeWarning handles POST /api/users/warning-ack
func (h *UserHandler) AcknowledgeWarning(w http.ResponseWriter, r *http.Request) {
	ident := readIdentity(r)
	if ident.ID == "" {
		middleware.ErrorResponseCode(w, http.StatusUnauthorized, "Verification required", models.CodeVerificationRequired)
		return
	}

	if err := h.svc.AcknowledgeWarning(r.Context(), ident.ID); err != nil {
		slog.Error("warning ack failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to acknowledge warning")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"acknowledged": true})
}

// SetPrefs handles POST /api/prefs
//
// Language and theme live in plain cookies so they survive without an
// account and apply before any verification.
func (h *UserHandler) SetPrefs(w http.ResponseWriter, r *http.Request) {
	var req models.PrefsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Language != "" {
		writePreference(w, langCookieName, req.Language)
	}
	if req.Theme != "" {
		writePreference(w, themeCookieName, req.Theme)
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"saved": true})
}
