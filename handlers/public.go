// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/engagement"
	"github.com/scvote/councilvote/middleware"
	"github.com/scvote/councilvote/models"
)

type PublicHandler struct {
	store *docstore.Store
}

func NewPublicHandler(store *docstore.Store) *PublicHandler {
	return &PublicHandler{store: store}
}

// ListCandidates handles GET /api/candidates
func (h *PublicHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := loadCandidates(r, h.store)
	if err != nil {
		slog.Error("failed to load candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load candidates")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, candidates)
}

// GetCandidate handles GET /api/candidates/{id}
func (h *PublicHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.store.Get(r.Context(), models.CollectionCandidates, id)
	if err == docstore.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("failed to load candidate", "id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load candidate")
		return
	}

	cand := models.CandidateDoc{ID: doc.ID}
	if err := doc.DataTo(&cand.Candidate); err != nil {
		slog.Error("failed to decode candidate", "id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load candidate")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, cand)
}

// Trending handles GET /api/trending
func (h *PublicHandler) Trending(w http.ResponseWriter, r *http.Request) {
	candidates, err := loadCandidates(r, h.store)
	if err != nil {
		slog.Error("failed to load candidates for trending", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute trending")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]any{
		"policies":   engagement.TrendingPolicies(candidates),
		"candidates": engagement.TopCandidates(candidates),
	})
}

// ActiveAlerts handles GET /api/alerts/active
func (h *PublicHandler) ActiveAlerts(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.GetAll(r.Context(), models.CollectionAlerts)
	if err != nil {
		slog.Error("failed to load alerts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load alerts")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, activeAlerts(docs))
}

// Schedule handles GET /api/schedule
func (h *PublicHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var schedule models.Schedule
	doc, err := h.store.Get(r.Context(), models.CollectionSettings, models.SettingsSchedule)
	if err != nil && err != docstore.ErrNotFound {
		slog.Error("failed to load schedule", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load schedule")
		return
	}
	if err == nil {
		if err := doc.DataTo(&schedule); err != nil {
			slog.Error("failed to decode schedule", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load schedule")
			return
		}
	}
	if schedule.Events == nil {
		schedule.Events = []models.ScheduleEvent{}
	}

	middleware.JSONResponse(w, http.StatusOK, schedule)
}

// Config handles GET /api/config
func (h *PublicHandler) Config(w http.ResponseWriter, r *http.Request) {
	var cfg models.ConfigSettings
	doc, err := h.store.Get(r.Context(), models.CollectionSettings, models.SettingsConfig)
	if err != nil && err != docstore.ErrNotFound {
		slog.Error("failed to load config", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load config")
		return
	}
	if err == nil {
		if err := doc.DataTo(&cfg); err != nil {
			slog.Error("failed to decode config", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load config")
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, cfg)
}

// loadCandidates fetches and decodes the whole candidates collection in
// display order (candidate number ascending, unnumbered last).
func loadCandidates(r *http.Request, store *docstore.Store) ([]models.CandidateDoc, error) {
	docs, err := store.GetAll(r.Context(), models.CollectionCandidates)
	if err != nil {
		return nil, err
	}
	return decodeCandidates(docs)
}

func decodeCandidates(docs []docstore.Document) ([]models.CandidateDoc, error) {
	candidates := make([]models.CandidateDoc, 0, len(docs))
	for _, doc := range docs {
		cand := models.CandidateDoc{ID: doc.ID}
		if err := doc.DataTo(&cand.Candidate); err != nil {
			return nil, err
		}
		candidates = append(candidates, cand)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ni, nj := candidates[i].CandidateNumber, candidates[j].CandidateNumber
		if ni != nj {
			if ni == 0 {
				return false
			}
			if nj == 0 {
				return true
			}
			return ni < nj
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates, nil
}

// activeAlerts filters to active alerts and orders them by priority
// descending, so the banner stack shows the most important alert first.
func activeAlerts(docs []docstore.Document) []models.Alert {
	alerts := []models.Alert{}
	for _, doc := range docs {
		var alert models.Alert
		if err := doc.DataTo(&alert); err != nil {
			slog.Warn("skipping malformed alert", "id", doc.ID, "error", err)
			continue
		}
		if !alert.Active {
			continue
		}
		alert.ID = doc.ID
		alerts = append(alerts, alert)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Priority > alerts[j].Priority
	})
	return alerts
}
