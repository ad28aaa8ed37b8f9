// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scvote/councilvote/auditlog"
	"github.com/scvote/councilvote/auth"
	"github.com/scvote/councilvote/cliparse"
	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/middleware"
	"github.com/scvote/councilvote/models"
)

type AdminHandler struct {
	store *docstore.Store
	cfg   cliparse.Config
	audit *auditlog.Logger
}

func NewAdminHandler(store *docstore.Store, cfg cliparse.Config, audit *auditlog.Logger) *AdminHandler {
	return &AdminHandler{store: store, cfg: cfg, audit: audit}
}

// Login handles POST /api/admin/login
//
// A single shared password gates the panel. On success the client gets a
// stateless signed session cookie good for 24 hours.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !auth.CheckAdminPassword(req.Password, h.cfg.AdminPassword) {
		slog.Info("admin login rejected", "remote", r.RemoteAddr)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Incorrect password")
		return
	}

	expires := time.Now().Add(auth.SessionTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    auth.GenerateSessionToken(h.cfg.SessionSalt, expires),
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("admin logged in", "remote", r.RemoteAddr)
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"authenticated": true})
}

// Logout handles POST /api/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"authenticated": false})
}

// CreateCandidate handles POST /api/admin/candidates
func (h *AdminHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Firstname == "" && req.Lastname == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "a name is required")
		return
	}

	candidateID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate candidate id", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	err = h.store.Set(r.Context(), models.CollectionCandidates, candidateID, map[string]any{
		"firstname":       req.Firstname,
		"lastname":        req.Lastname,
		"nickname":        req.Nickname,
		"class":           req.Class,
		"candidateNumber": req.CandidateNumber,
		"imageUrl":        req.ImageURL,
		"votes":           0,
		"policies":        map[string]any{},
	})
	if err != nil {
		slog.Error("failed to create candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	h.audit.Record(models.ActionCreateCandidate, candidateID,
		fmt.Sprintf("Created candidate %s %s", req.Firstname, req.Lastname),
		middleware.GetClientIP(r))

	slog.Info("candidate created", "id", candidateID)
	middleware.JSONResponse(w, http.StatusCreated, models.CreateCandidateResponse{CandidateID: candidateID})
}

// UpdateCandidate handles PUT /api/admin/candidates/{id}
//
// Edits the profile fields only; votes and policies are managed by their own
// endpoints and survive profile edits untouched.
func (h *AdminHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !h.candidateExists(w, r, candidateID) {
		return
	}

	err := h.store.Update(r.Context(), models.CollectionCandidates, candidateID, map[string]any{
		"firstname":       req.Firstname,
		"lastname":        req.Lastname,
		"nickname":        req.Nickname,
		"class":           req.Class,
		"candidateNumber": req.CandidateNumber,
		"imageUrl":        req.ImageURL,
	})
	if err != nil {
		slog.Error("failed to update candidate", "id", candidateID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update candidate")
		return
	}

	h.audit.Record(models.ActionUpdateCandidate, candidateID,
		fmt.Sprintf("Updated candidate %s %s", req.Firstname, req.Lastname),
		middleware.GetClientIP(r))

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"updated": true})
}

// DeleteCandidate handles DELETE /api/admin/candidates/{id}
func (h *AdminHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	if !h.candidateExists(w, r, candidateID) {
		return
	}

	if err := h.store.Delete(r.Context(), models.CollectionCandidates, candidateID); err != nil {
		slog.Error("failed to delete candidate", "id", candidateID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete candidate")
		return
	}

	h.audit.Record(models.ActionDeleteCandidate, candidateID, "Deleted candidate", middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"deleted": true})
}

// CreatePolicy handles POST /api/admin/candidates/{id}/policies
func (h *AdminHandler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")

	var req models.PolicyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	if !h.candidateExists(w, r, candidateID) {
		return
	}

	policyID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate policy id", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create policy")
		return
	}

	err = h.store.Update(r.Context(), models.CollectionCandidates, candidateID, map[string]any{
		"policies." + policyID: map[string]any{
			"title":       req.Title,
			"description": req.Description,
			"likes":       0,
			"comments":    map[string]any{},
		},
	})
	if err != nil {
		slog.Error("failed to create policy", "candidate", candidateID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create policy")
		return
	}

	h.audit.Record(models.ActionCreatePolicy, candidateID,
		fmt.Sprintf("Created policy %q", req.Title), middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusCreated, models.CreatePolicyResponse{PolicyID: policyID})
}

// UpdatePolicy handles PUT /api/admin/candidates/{id}/policies/{pid}
//
// Edits title and description only; likes and comments stay.
func (h *AdminHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")
	policyID := chi.URLParam(r, "pid")

	var req models.PolicyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !h.policyExists(w, r, candidateID, policyID) {
		return
	}

	err := h.store.Update(r.Context(), models.CollectionCandidates, candidateID, map[string]any{
		"policies." + policyID + ".title":       req.Title,
		"policies." + policyID + ".description": req.Description,
	})
	if err != nil {
		slog.Error("failed to update policy", "candidate", candidateID, "policy", policyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update policy")
		return
	}

	h.audit.Record(models.ActionUpdatePolicy, candidateID,
		fmt.Sprintf("Updated policy %q", req.Title), middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"updated": true})
}

// DeletePolicy handles DELETE /api/admin/candidates/{id}/policies/{pid}
func (h *AdminHandler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")
	policyID := chi.URLParam(r, "pid")

	if !h.policyExists(w, r, candidateID, policyID) {
		return
	}

	err := h.store.Update(r.Context(), models.CollectionCandidates, candidateID, map[string]any{
		"policies." + policyID: docstore.DeleteField(),
	})
	if err != nil {
		slog.Error("failed to delete policy", "candidate", candidateID, "policy", policyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete policy")
		return
	}

	h.audit.Record(models.ActionDeletePolicy, candidateID, "Deleted policy "+policyID, middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"deleted": true})
}

// UpdateVotes handles POST /api/admin/candidates/{id}/votes
func (h *AdminHandler) UpdateVotes(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")
	if !h.candidateExists(w, r, candidateID) {
		return
	}
	h.updateCount(w, r, models.CollectionCandidates, candidateID, "votes", models.ActionUpdateVotes)
}

// UpdateAbstain handles POST /api/admin/counts/abstain
func (h *AdminHandler) UpdateAbstain(w http.ResponseWriter, r *http.Request) {
	h.updateCount(w, r, models.CollectionSettings, models.SettingsConfig, "abstain", models.ActionUpdateAbstain)
}

// UpdateSpoiled handles POST /api/admin/counts/spoiled
func (h *AdminHandler) UpdateSpoiled(w http.ResponseWriter, r *http.Request) {
	h.updateCount(w, r, models.CollectionSettings, models.SettingsConfig, "spoiled", models.ActionUpdateSpoiled)
}

// updateCount applies a delta or absolute set to one counter field. Counters
// never go below zero: deltas clamp in the store and absolute sets clamp
// here, so a trigger-happy decrement stops at 0 instead of underflowing.
func (h *AdminHandler) updateCount(w http.ResponseWriter, r *http.Request, collection, id, field string, action models.AdminAction) {
	var req models.UpdateCountRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if (req.Delta == nil) == (req.Set == nil) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "exactly one of delta or set is required")
		return
	}

	var detail string
	updates := map[string]any{}
	if req.Delta != nil {
		updates[field] = docstore.Increment(int64(*req.Delta))
		detail = fmt.Sprintf("%s %+d", field, *req.Delta)
	} else {
		value := *req.Set
		if value < 0 {
			value = 0
		}
		updates[field] = value
		detail = fmt.Sprintf("%s set to %d", field, value)
	}

	if err := h.store.Update(r.Context(), collection, id, updates); err != nil {
		slog.Error("failed to update count", "collection", collection, "id", id, "field", field, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update count")
		return
	}

	value, err := h.readCount(r, collection, id, field)
	if err != nil {
		slog.Error("failed to read count back", "collection", collection, "id", id, "field", field, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update count")
		return
	}

	h.audit.Record(action, id, fmt.Sprintf("%s (now %d)", detail, value), middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusOK, models.CountResponse{Value: value})
}

func (h *AdminHandler) readCount(r *http.Request, collection, id, field string) (int, error) {
	doc, err := h.store.Get(r.Context(), collection, id)
	if err != nil {
		return 0, err
	}
	if n, ok := doc.Data[field].(float64); ok {
		return int(n), nil
	}
	return 0, nil
}

func (h *AdminHandler) candidateExists(w http.ResponseWriter, r *http.Request, candidateID string) bool {
	_, err := h.store.Get(r.Context(), models.CollectionCandidates, candidateID)
	if err == docstore.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return false
	}
	if err != nil {
		slog.Error("failed to load candidate", "id", candidateID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load candidate")
		return false
	}
	return true
}

func (h *AdminHandler) policyExists(w http.ResponseWriter, r *http.Request, candidateID, policyID string) bool {
	doc, err := h.store.Get(r.Context(), models.CollectionCandidates, candidateID)
	if err == docstore.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return false
	}
	if err != nil {
		slog.Error("failed to load candidate", "id", candidateID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load candidate")
		return false
	}

	var cand models.Candidate
	if err := doc.DataTo(&cand); err != nil {
		slog.Error("failed to decode candidate", "id", candidateID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load candidate")
		return false
	}
	if _, exists := cand.Policies[policyID]; !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Policy not found")
		return false
	}
	return true
}
