// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scvote/councilvote/auth"
	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/identity"
	"github.com/scvote/councilvote/middleware"
	"github.com/scvote/councilvote/models"
)

const maxCommentLength = 500

type InteractHandler struct {
	store *docstore.Store
	svc   *identity.Service
}

func NewInteractHandler(store *docstore.Store, svc *identity.Service) *InteractHandler {
	return &InteractHandler{store: store, svc: svc}
}

// LikePolicy handles POST /api/candidates/{id}/policies/{pid}/like
//
// Idempotent per browser: the liked set lives in a cookie, and a repeat like
// reports the current count without incrementing again.
func (h *InteractHandler) LikePolicy(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.requireVerification(w, r)
	if !ok {
		return
	}

	candidateID := chi.URLParam(r, "id")
	policyID := chi.URLParam(r, "pid")

	policy, ok := h.getPolicy(w, r, candidateID, policyID)
	if !ok {
		return
	}

	liked := readLikedPolicies(r, candidateID)
	if liked[policyID] {
		middleware.JSONResponse(w, http.StatusOK, models.LikeResponse{
			Liked:   true,
			Already: true,
			Likes:   policy.Likes,
		})
		return
	}

	err := h.store.Update(r.Context(), models.CollectionCandidates, candidateID, map[string]any{
		"policies." + policyID + ".likes": docstore.Increment(1),
	})
	if err != nil {
		slog.Error("failed to like policy", "candidate", candidateID, "policy", policyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to like policy")
		return
	}

	liked[policyID] = true
	writeLikedPolicies(w, candidateID, liked)

	// Re-read after the increment: concurrent likes commit between the
	// snapshot above and ours, and the response must show the real count.
	likes := policy.Likes + 1
	if fresh, err := h.readLikes(r, candidateID, policyID); err == nil {
		likes = fresh
	} else {
		slog.Warn("failed to re-read likes", "candidate", candidateID, "policy", policyID, "error", err)
	}

	slog.Info("policy liked", "candidate", candidateID, "policy", policyID, "student_id", ident.ID)
	middleware.JSONResponse(w, http.StatusOK, models.LikeResponse{
		Liked: true,
		Likes: likes,
	})
}

// readLikes fetches the committed like counter for one policy.
func (h *InteractHandler) readLikes(r *http.Request, candidateID, policyID string) (int, error) {
	doc, err := h.store.Get(r.Context(), models.CollectionCandidates, candidateID)
	if err != nil {
		return 0, err
	}
	var cand models.Candidate
	if err := doc.DataTo(&cand); err != nil {
		return 0, err
	}
	return cand.Policies[policyID].Likes, nil
}

// AddComment handles POST /api/candidates/{id}/policies/{pid}/comments
func (h *InteractHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.requireVerification(w, r)
	if !ok {
		return
	}

	candidateID := chi.URLParam(r, "id")
	policyID := chi.URLParam(r, "pid")

	var req models.CommentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "text is required")
		return
	}
	if len([]rune(req.Text)) > maxCommentLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, "comment is too long")
		return
	}

	if _, ok := h.getPolicy(w, r, candidateID, policyID); !ok {
		return
	}

	commentID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate comment id", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	comment := models.Comment{
		Text:           req.Text,
		AuthorID:       ident.ID,
		AuthorNickname: ident.Nickname,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	err = h.store.Update(r.Context(), models.CollectionCandidates, candidateID, map[string]any{
		"policies." + policyID + ".comments." + commentID: map[string]any{
			"text":           comment.Text,
			"authorId":       comment.AuthorID,
			"authorNickname": comment.AuthorNickname,
			"likes":          0,
			"dislikes":       0,
			"createdAt":      comment.CreatedAt,
		},
	})
	if err != nil {
		slog.Error("failed to add comment", "candidate", candidateID, "policy", policyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	slog.Info("comment added", "candidate", candidateID, "policy", policyID, "student_id", ident.ID)
	middleware.JSONResponse(w, http.StatusCreated, models.CommentResponse{
		CommentID: commentID,
		Comment:   comment,
	})
}

// SetReaction handles POST /api/candidates/{id}/policies/{pid}/comments/{cid}/reaction
//
// One reaction per browser per comment. Switching from like to dislike (or
// clearing with "none") decrements the old counter and increments the new one
// in a single store update, so the counters never drift.
func (h *InteractHandler) SetReaction(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireVerification(w, r); !ok {
		return
	}

	candidateID := chi.URLParam(r, "id")
	policyID := chi.URLParam(r, "pid")
	commentID := chi.URLParam(r, "cid")

	var req models.ReactionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	switch req.Reaction {
	case models.ReactionLike, models.ReactionDislike, models.ReactionNone:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "reaction must be like, dislike, or none")
		return
	}

	policy, ok := h.getPolicy(w, r, candidateID, policyID)
	if !ok {
		return
	}
	comment, exists := policy.Comments[commentID]
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Comment not found")
		return
	}

	reactions := readReactions(r, candidateID)
	previous := reactions[commentID]
	if previous == "" {
		previous = models.ReactionNone
	}

	if previous == req.Reaction {
		middleware.JSONResponse(w, http.StatusOK, models.ReactionResponse{
			Reaction: req.Reaction,
			Likes:    comment.Likes,
			Dislikes: comment.Dislikes,
		})
		return
	}

	base := "policies." + policyID + ".comments." + commentID + "."
	updates := map[string]any{}
	switch previous {
	case models.ReactionLike:
		updates[base+"likes"] = docstore.Increment(-1)
		comment.Likes--
	case models.ReactionDislike:
		updates[base+"dislikes"] = docstore.Increment(-1)
		comment.Dislikes--
	}
	switch req.Reaction {
	case models.ReactionLike:
		updates[base+"likes"] = docstore.Increment(1)
		comment.Likes++
	case models.ReactionDislike:
		updates[base+"dislikes"] = docstore.Increment(1)
		comment.Dislikes++
	}

	if err := h.store.Update(r.Context(), models.CollectionCandidates, candidateID, updates); err != nil {
		slog.Error("failed to set reaction", "candidate", candidateID, "comment", commentID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to set reaction")
		return
	}

	if req.Reaction == models.ReactionNone {
		delete(reactions, commentID)
	} else {
		reactions[commentID] = req.Reaction
	}
	writeReactions(w, candidateID, reactions)

	if comment.Likes < 0 {
		comment.Likes = 0
	}
	if comment.Dislikes < 0 {
		comment.Dislikes = 0
	}
	middleware.JSONResponse(w, http.StatusOK, models.ReactionResponse{
		Reaction: req.Reaction,
		Likes:    comment.Likes,
		Dislikes: comment.Dislikes,
	})
}

// requireVerification gates interactive endpoints on a verified identity.
// The store is consulted every time: a cookie outlives blocking and deletion,
// and both must take effect immediately.
func (h *InteractHandler) requireVerification(w http.ResponseWriter, r *http.Request) (identityPayload, bool) {
	ident := readIdentity(r)

	state, _, err := h.svc.Resolve(r.Context(), ident.ID)
	if err != nil {
		slog.Error("failed to resolve identity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to verify identity")
		return identityPayload{}, false
	}

	switch state {
	case identity.StateVerified:
		return ident, true
	case identity.StateBlocked:
		middleware.ErrorResponseCode(w, http.StatusForbidden, "This account is blocked", models.CodeBlocked)
		return identityPayload{}, false
	default:
		middleware.ErrorResponseCode(w, http.StatusUnauthorized, "Verification required", models.CodeVerificationRequired)
		return identityPayload{}, false
	}
}

// getPolicy loads one policy, writing the appropriate error response when the
// candidate or policy does not exist.
func (h *InteractHandler) getPolicy(w http.ResponseWriter, r *http.Request, candidateID, policyID string) (models.Policy, bool) {
	doc, err := h.store.Get(r.Context(), models.CollectionCandidates, candidateID)
	if err == docstore.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return models.Policy{}, false
	}
	if err != nil {
		slog.Error("failed to load candidate", "id", candidateID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load candidate")
		return models.Policy{}, false
	}

	var cand models.Candidate
	if err := doc.DataTo(&cand); err != nil {
		slog.Error("failed to decode candidate", "id", candidateID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load candidate")
		return models.Policy{}, false
	}

	policy, exists := cand.Policies[policyID]
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Policy not found")
		return models.Policy{}, false
	}
	return policy, true
}
