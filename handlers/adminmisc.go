// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/middleware"
	"github.com/scvote/councilvote/models"
)

// logsPageSize is how many audit entries one admin log page holds.
const logsPageSize = 50

// ListAlerts handles GET /api/admin/alerts
//
// Unlike the public endpoint this returns inactive alerts too, ordered by
// priority descending.
func (h *AdminHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.GetAll(r.Context(), models.CollectionAlerts)
	if err != nil {
		slog.Error("failed to load alerts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load alerts")
		return
	}

	alerts := []models.Alert{}
	for _, doc := range docs {
		var alert models.Alert
		if err := doc.DataTo(&alert); err != nil {
			slog.Warn("skipping malformed alert", "id", doc.ID, "error", err)
			continue
		}
		alert.ID = doc.ID
		alerts = append(alerts, alert)
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Priority > alerts[j].Priority
	})

	middleware.JSONResponse(w, http.StatusOK, alerts)
}

// CreateAlert handles POST /api/admin/alerts
func (h *AdminHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	req, ok := parseAlertRequest(w, r)
	if !ok {
		return
	}

	alertID := uuid.NewString()
	if err := h.store.Set(r.Context(), models.CollectionAlerts, alertID, alertData(req)); err != nil {
		slog.Error("failed to create alert", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create alert")
		return
	}

	slog.Info("alert created", "id", alertID, "type", req.Type, "active", req.Active)
	middleware.JSONResponse(w, http.StatusCreated, map[string]string{"alert_id": alertID})
}

// UpdateAlert handles PUT /api/admin/alerts/{id}
func (h *AdminHandler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")

	req, ok := parseAlertRequest(w, r)
	if !ok {
		return
	}

	if _, err := h.store.Get(r.Context(), models.CollectionAlerts, alertID); err == docstore.ErrNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Alert not found")
		return
	} else if err != nil {
		slog.Error("failed to load alert", "id", alertID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load alert")
		return
	}

	if err := h.store.Set(r.Context(), models.CollectionAlerts, alertID, alertData(req)); err != nil {
		slog.Error("failed to update alert", "id", alertID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update alert")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"updated": true})
}

// DeleteAlert handles DELETE /api/admin/alerts/{id}
func (h *AdminHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")

	if err := h.store.Delete(r.Context(), models.CollectionAlerts, alertID); err != nil {
		slog.Error("failed to delete alert", "id", alertID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete alert")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"deleted": true})
}

// UpdateSchedule handles PUT /api/admin/schedule
//
// The whole schedule is replaced in one write, stored sorted by date
// ascending so readers never sort.
func (h *AdminHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req models.ScheduleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	events := req.Events
	if events == nil {
		events = []models.ScheduleEvent{}
	}
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date < events[j].Date
	})

	eventData := make([]any, 0, len(events))
	for _, ev := range events {
		eventData = append(eventData, map[string]any{
			"id":            ev.ID,
			"title":         ev.Title,
			"titleTh":       ev.TitleTh,
			"date":          ev.Date,
			"description":   ev.Description,
			"descriptionTh": ev.DescriptionTh,
		})
	}

	err := h.store.Set(r.Context(), models.CollectionSettings, models.SettingsSchedule, map[string]any{
		"events": eventData,
	})
	if err != nil {
		slog.Error("failed to update schedule", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update schedule")
		return
	}

	h.audit.Record(models.ActionUpdateSchedule, models.SettingsSchedule,
		"Replaced the event schedule", middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusOK, models.Schedule{Events: events})
}

// UpdateLiveSettings handles PUT /api/admin/live
func (h *AdminHandler) UpdateLiveSettings(w http.ResponseWriter, r *http.Request) {
	var req models.LiveSettingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	err := h.store.Update(r.Context(), models.CollectionSettings, models.SettingsConfig, map[string]any{
		"liveUrl":       req.LiveURL,
		"countdownDate": req.CountdownDate,
	})
	if err != nil {
		slog.Error("failed to update live settings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update live settings")
		return
	}

	h.audit.Record(models.ActionUpdateLiveSettings, models.SettingsConfig,
		"Updated live stream settings", middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"updated": true})
}

// GetWarningTemplates handles GET /api/admin/warning-templates
func (h *AdminHandler) GetWarningTemplates(w http.ResponseWriter, r *http.Request) {
	var templates models.WarningTemplates
	doc, err := h.store.Get(r.Context(), models.CollectionSettings, models.SettingsWarningTemplates)
	if err != nil && err != docstore.ErrNotFound {
		slog.Error("failed to load warning templates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load warning templates")
		return
	}
	if err == nil {
		if err := doc.DataTo(&templates); err != nil {
			slog.Error("failed to decode warning templates", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load warning templates")
			return
		}
	}
	if templates.Templates == nil {
		templates.Templates = []string{}
	}

	middleware.JSONResponse(w, http.StatusOK, templates)
}

// UpdateWarningTemplates handles PUT /api/admin/warning-templates
func (h *AdminHandler) UpdateWarningTemplates(w http.ResponseWriter, r *http.Request) {
	var req models.WarningTemplatesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	templates := make([]any, 0, len(req.Templates))
	for _, tpl := range req.Templates {
		templates = append(templates, tpl)
	}
	err := h.store.Set(r.Context(), models.CollectionSettings, models.SettingsWarningTemplates, map[string]any{
		"templates": templates,
	})
	if err != nil {
		slog.Error("failed to update warning templates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update warning templates")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"updated": true})
}

// GetIPAliases handles GET /api/admin/ip-aliases
func (h *AdminHandler) GetIPAliases(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.loadIPAliases(r)
	if err != nil {
		slog.Error("failed to load ip aliases", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load ip aliases")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, aliases)
}

// SetIPAlias handles PUT /api/admin/ip-aliases
//
// Maps an IP to a human-readable label ("library lab") for the log view.
// An empty alias removes the mapping.
func (h *AdminHandler) SetIPAlias(w http.ResponseWriter, r *http.Request) {
	var req models.IPAliasRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.IP == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ip is required")
		return
	}

	aliases := map[string]any{}
	doc, err := h.store.Get(r.Context(), models.CollectionSettings, models.SettingsIPAliases)
	if err != nil && err != docstore.ErrNotFound {
		slog.Error("failed to load ip aliases", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to set ip alias")
		return
	}
	if err == nil {
		aliases = doc.Data
	}

	// IPs contain dots, which Update treats as path separators, so the
	// document is rewritten wholesale with the raw IP as a literal key.
	if req.Alias == "" {
		delete(aliases, req.IP)
	} else {
		aliases[req.IP] = req.Alias
	}

	if err := h.store.Set(r.Context(), models.CollectionSettings, models.SettingsIPAliases, aliases); err != nil {
		slog.Error("failed to set ip alias", "ip", req.IP, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to set ip alias")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"updated": true})
}

// ListLogs handles GET /api/admin/logs
//
// Newest first, 50 per page, cursored by the last entry id of the previous
// page (?after=). Each entry carries a relative timestamp and the alias for
// the admin IP when one is configured.
func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.List(r.Context(), models.CollectionLogs, docstore.ListOptions{
		Limit: logsPageSize,
		After: r.URL.Query().Get("after"),
	})
	if err != nil {
		slog.Error("failed to list logs", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to list logs")
		return
	}

	aliases, err := h.loadIPAliases(r)
	if err != nil {
		slog.Warn("failed to load ip aliases for log view", "error", err)
		aliases = map[string]string{}
	}

	entries := make([]models.LogEntryView, 0, len(docs))
	for _, doc := range docs {
		var entry models.LogEntry
		if err := doc.DataTo(&entry); err != nil {
			slog.Warn("skipping malformed log entry", "id", doc.ID, "error", err)
			continue
		}
		entry.ID = doc.ID

		view := models.LogEntryView{LogEntry: entry, AdminIPAlias: aliases[entry.AdminIP]}
		if ts, err := time.Parse(time.RFC3339, entry.Timestamp); err == nil {
			view.RelativeTime = humanize.Time(ts)
		}
		entries = append(entries, view)
	}

	resp := models.LogsResponse{Entries: entries}
	if len(docs) == logsPageSize {
		resp.NextCursor = docs[len(docs)-1].ID
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

func (h *AdminHandler) loadIPAliases(r *http.Request) (map[string]string, error) {
	aliases := map[string]string{}
	doc, err := h.store.Get(r.Context(), models.CollectionSettings, models.SettingsIPAliases)
	if err == docstore.ErrNotFound {
		return aliases, nil
	}
	if err != nil {
		return nil, err
	}
	for ip, v := range doc.Data {
		if alias, ok := v.(string); ok {
			aliases[ip] = alias
		}
	}
	return aliases, nil
}

func parseAlertRequest(w http.ResponseWriter, r *http.Request) (models.AlertRequest, bool) {
	var req models.AlertRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return req, false
	}
	if req.Title == "" && req.Message == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title or message is required")
		return req, false
	}
	switch req.Type {
	case models.AlertInfo, models.AlertWarning, models.AlertSuccess, models.AlertError:
	case "":
		req.Type = models.AlertInfo
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "type must be info, warning, success, or error")
		return req, false
	}
	return req, true
}

func alertData(req models.AlertRequest) map[string]any {
	return map[string]any{
		"title":    req.Title,
		"message":  req.Message,
		"type":     req.Type,
		"active":   req.Active,
		"priority": req.Priority,
	}
}
