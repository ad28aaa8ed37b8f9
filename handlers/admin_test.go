// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/scvote/councilvote/identity"
	"github.com/scvote/councilvote/models"
	"github.com/scvote/councilvote/testutil"
)

func intPtr(n int) *int { return &n }

func TestAdminLogin(t *testing.T) {
	_, cfg, r := newTestServer(t)

	t.Run("wrong password", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("POST", "/api/admin/login",
			models.AdminLoginRequest{Password: "nope"}, nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("correct password sets session", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("POST", "/api/admin/login",
			models.AdminLoginRequest{Password: cfg.AdminPassword}, nil))
		testutil.AssertStatus(t, w, http.StatusOK)

		var sessionSet bool
		for _, c := range w.Result().Cookies() {
			if c.Name == "council_admin" && c.Value != "" {
				sessionSet = true
			}
		}
		if !sessionSet {
			t.Error("Expected admin session cookie")
		}

		// The fresh session opens the gate.
		req := testutil.MakeRequest("GET", "/api/admin/users", nil, nil)
		got := serve(r, carryCookies(req, w))
		testutil.AssertStatus(t, got, http.StatusOK)
	})
}

func TestAdminGate(t *testing.T) {
	store, cfg, r := newTestServer(t)

	testutil.CreateTestCandidate(t, store, "Tess", 1)

	t.Run("no session", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("GET", "/api/admin/users", nil, nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("valid session", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("GET", "/api/admin/users", nil, nil),
			testutil.AdminCookie(cfg))
		testutil.AssertStatus(t, w, http.StatusOK)
	})
}

func TestCandidateCRUD(t *testing.T) {
	_, cfg, r := newTestServer(t)
	admin := testutil.AdminCookie(cfg)

	// Create
	w := serve(r, testutil.MakeRequest("POST", "/api/admin/candidates", models.CandidateRequest{
		Firstname: "Nara", Lastname: "K", Class: "6/2", CandidateNumber: 1,
	}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.CreateCandidateResponse
	testutil.AssertJSON(t, w, &created)
	if created.CandidateID == "" {
		t.Fatal("Expected a candidate id")
	}

	// Update profile fields
	w = serve(r, testutil.MakeRequest("PUT", "/api/admin/candidates/"+created.CandidateID,
		models.CandidateRequest{Firstname: "Nara", Lastname: "Kay", Class: "6/2", CandidateNumber: 2}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Visible publicly with the edit applied
	w = serve(r, testutil.MakeRequest("GET", "/api/candidates/"+created.CandidateID, nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var cand models.CandidateDoc
	testutil.AssertJSON(t, w, &cand)
	if cand.Lastname != "Kay" || cand.CandidateNumber != 2 {
		t.Errorf("Edit not applied: %+v", cand)
	}

	// Delete
	w = serve(r, testutil.MakeRequest("DELETE", "/api/admin/candidates/"+created.CandidateID, nil, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(r, testutil.MakeRequest("GET", "/api/candidates/"+created.CandidateID, nil, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	// Missing candidate
	w = serve(r, testutil.MakeRequest("PUT", "/api/admin/candidates/nope",
		models.CandidateRequest{Firstname: "X"}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestPolicyCRUD(t *testing.T) {
	store, cfg, r := newTestServer(t)
	admin := testutil.AdminCookie(cfg)

	candidateID := testutil.CreateTestCandidate(t, store, "Tess", 1)

	// Create
	w := serve(r, testutil.MakeRequest("POST", "/api/admin/candidates/"+candidateID+"/policies",
		models.PolicyRequest{Title: "Better Wifi", Description: "Faster campus wifi"}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.CreatePolicyResponse
	testutil.AssertJSON(t, w, &created)

	// Seed engagement so we can prove edits preserve it.
	err := store.Update(context.Background(), models.CollectionCandidates, candidateID, map[string]any{
		"policies." + created.PolicyID + ".likes": 7,
	})
	if err != nil {
		t.Fatalf("Failed to seed likes: %v", err)
	}

	// Update text only
	w = serve(r, testutil.MakeRequest("PUT",
		"/api/admin/candidates/"+candidateID+"/policies/"+created.PolicyID,
		models.PolicyRequest{Title: "Much Better Wifi", Description: "Fiber"}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	var cand models.Candidate
	testutil.GetDoc(t, store, models.CollectionCandidates, candidateID, &cand)
	policy := cand.Policies[created.PolicyID]
	if policy.Title != "Much Better Wifi" {
		t.Errorf("Title edit lost: %+v", policy)
	}
	if policy.Likes != 7 {
		t.Errorf("Likes must survive a text edit, got %d", policy.Likes)
	}

	// Delete
	w = serve(r, testutil.MakeRequest("DELETE",
		"/api/admin/candidates/"+candidateID+"/policies/"+created.PolicyID, nil, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	testutil.GetDoc(t, store, models.CollectionCandidates, candidateID, &cand)
	if _, exists := cand.Policies[created.PolicyID]; exists {
		t.Error("Expected policy removed")
	}
}

func TestUpdateVotes(t *testing.T) {
	store, cfg, r := newTestServer(t)
	admin := testutil.AdminCookie(cfg)

	candidateID := testutil.CreateTestCandidate(t, store, "Tess", 1)
	votesPath := "/api/admin/candidates/" + candidateID + "/votes"

	tests := []struct {
		name     string
		req      models.UpdateCountRequest
		expected int
	}{
		{"increment", models.UpdateCountRequest{Delta: intPtr(1)}, 1},
		{"increment again", models.UpdateCountRequest{Delta: intPtr(2)}, 3},
		{"decrement clamps at zero", models.UpdateCountRequest{Delta: intPtr(-10)}, 0},
		{"absolute set", models.UpdateCountRequest{Set: intPtr(42)}, 42},
		{"negative set clamps", models.UpdateCountRequest{Set: intPtr(-5)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, testutil.MakeRequest("POST", votesPath, tt.req, nil), admin)
			testutil.AssertStatus(t, w, http.StatusOK)

			var resp models.CountResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Value != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, resp.Value)
			}
		})
	}

	t.Run("neither delta nor set", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("POST", votesPath, models.UpdateCountRequest{}, nil), admin)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("both delta and set", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("POST", votesPath,
			models.UpdateCountRequest{Delta: intPtr(1), Set: intPtr(2)}, nil), admin)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestAbstainAndSpoiledCounts(t *testing.T) {
	_, cfg, r := newTestServer(t)
	admin := testutil.AdminCookie(cfg)

	w := serve(r, testutil.MakeRequest("POST", "/api/admin/counts/abstain",
		models.UpdateCountRequest{Delta: intPtr(3)}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.CountResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Value != 3 {
		t.Errorf("Expected abstain 3, got %d", resp.Value)
	}

	w = serve(r, testutil.MakeRequest("POST", "/api/admin/counts/spoiled",
		models.UpdateCountRequest{Set: intPtr(2)}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &resp)
	if resp.Value != 2 {
		t.Errorf("Expected spoiled 2, got %d", resp.Value)
	}

	// Both counters land on the public config.
	w = serve(r, testutil.MakeRequest("GET", "/api/config", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var config models.ConfigSettings
	testutil.AssertJSON(t, w, &config)
	if config.Abstain != 3 || config.Spoiled != 2 {
		t.Errorf("Unexpected config: %+v", config)
	}
}

func TestUserModeration(t *testing.T) {
	store, cfg, r := newTestServer(t)
	admin := testutil.AdminCookie(cfg)

	testutil.CreateTestUser(t, store, "12345", "Nara", identity.HashPassword("abcdef"))

	// List hides the password hash.
	w := serve(r, testutil.MakeRequest("GET", "/api/admin/users", nil, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	var users []models.UserDoc
	testutil.AssertJSON(t, w, &users)
	if len(users) != 1 || users[0].StudentID != "12345" {
		t.Fatalf("Unexpected users: %+v", users)
	}
	if users[0].PasswordHash != "" {
		t.Error("Password hash must not be exposed")
	}

	// Block
	w = serve(r, testutil.MakeRequest("POST", "/api/admin/users/12345/block",
		models.BlockUserRequest{Reason: "spamming"}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	var user models.User
	testutil.GetDoc(t, store, models.CollectionUsers, "12345", &user)
	if !user.IsBlocked || user.BlockReason != "spamming" || user.BlockID == "" {
		t.Errorf("Block not applied: %+v", user)
	}

	// Unblock clears the block fields.
	w = serve(r, testutil.MakeRequest("POST", "/api/admin/users/12345/unblock", nil, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	testutil.GetDoc(t, store, models.CollectionUsers, "12345", &user)
	if user.IsBlocked || user.BlockReason != "" || user.BlockID != "" {
		t.Errorf("Unblock incomplete: %+v", user)
	}

	// Warn
	w = serve(r, testutil.MakeRequest("POST", "/api/admin/users/12345/warn",
		models.WarnUserRequest{Message: "please be respectful"}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	testutil.GetDoc(t, store, models.CollectionUsers, "12345", &user)
	if user.WarningMessage != "please be respectful" {
		t.Errorf("Warning not stored: %+v", user)
	}

	// Focus
	w = serve(r, testutil.MakeRequest("POST", "/api/admin/users/12345/focus",
		models.FocusUserRequest{Focused: true}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	testutil.GetDoc(t, store, models.CollectionUsers, "12345", &user)
	if !user.IsFocused {
		t.Error("Focus not applied")
	}

	// Delete
	w = serve(r, testutil.MakeRequest("DELETE", "/api/admin/users/12345", nil, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(r, testutil.MakeRequest("GET", "/api/admin/users", nil, nil), admin)
	testutil.AssertJSON(t, w, &users)
	if len(users) != 0 {
		t.Errorf("Expected no users after delete, got %+v", users)
	}

	// Moderating a missing user is a 404.
	w = serve(r, testutil.MakeRequest("POST", "/api/admin/users/99999/block",
		models.BlockUserRequest{Reason: "x"}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestAlertsAdmin(t *testing.T) {
	_, cfg, r := newTestServer(t)
	admin := testutil.AdminCookie(cfg)

	// Create an active and an inactive alert.
	w := serve(r, testutil.MakeRequest("POST", "/api/admin/alerts", models.AlertRequest{
		Title: "Voting opens", Type: "info", Active: true, Priority: 2,
	}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created struct {
		AlertID string `json:"alert_id"`
	}
	testutil.AssertJSON(t, w, &created)

	w = serve(r, testutil.MakeRequest("POST", "/api/admin/alerts", models.AlertRequest{
		Title: "Draft", Type: "warning", Active: false, Priority: 9,
	}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusCreated)

	// Admin list shows both; public shows only the active one.
	w = serve(r, testutil.MakeRequest("GET", "/api/admin/alerts", nil, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	var alerts []models.Alert
	testutil.AssertJSON(t, w, &alerts)
	if len(alerts) != 2 {
		t.Errorf("Expected 2 alerts in admin view, got %d", len(alerts))
	}

	w = serve(r, testutil.MakeRequest("GET", "/api/alerts/active", nil, nil))
	testutil.AssertJSON(t, w, &alerts)
	if len(alerts) != 1 || alerts[0].Title != "Voting opens" {
		t.Errorf("Unexpected public alerts: %+v", alerts)
	}

	// Deactivate via update.
	w = serve(r, testutil.MakeRequest("PUT", "/api/admin/alerts/"+created.AlertID, models.AlertRequest{
		Title: "Voting opens", Type: "info", Active: false, Priority: 2,
	}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(r, testutil.MakeRequest("GET", "/api/alerts/active", nil, nil))
	testutil.AssertJSON(t, w, &alerts)
	if len(alerts) != 0 {
		t.Errorf("Expected no active alerts, got %+v", alerts)
	}

	// Delete.
	w = serve(r, testutil.MakeRequest("DELETE", "/api/admin/alerts/"+created.AlertID, nil, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Bad type rejected.
	w = serve(r, testutil.MakeRequest("POST", "/api/admin/alerts", models.AlertRequest{
		Title: "X", Type: "shiny",
	}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestUpdateSchedule(t *testing.T) {
	_, cfg, r := newTestServer(t)
	admin := testutil.AdminCookie(cfg)

	// Events arrive out of order; the stored schedule is date-ascending.
	w := serve(r, testutil.MakeRequest("PUT", "/api/admin/schedule", models.ScheduleRequest{
		Events: []models.ScheduleEvent{
			{Title: "Results", Date: "2026-02-14"},
			{Title: "Campaigning", Date: "2026-02-01"},
			{Title: "Election day", Date: "2026-02-13"},
		},
	}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	var saved models.Schedule
	testutil.AssertJSON(t, w, &saved)
	if len(saved.Events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(saved.Events))
	}
	if saved.Events[0].Title != "Campaigning" || saved.Events[2].Title != "Results" {
		t.Errorf("Expected date-ascending order, got %+v", saved.Events)
	}
	for _, ev := range saved.Events {
		if ev.ID == "" {
			t.Errorf("Expected generated event id: %+v", ev)
		}
	}

	// Public endpoint serves the same order.
	w = serve(r, testutil.MakeRequest("GET", "/api/schedule", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var public models.Schedule
	testutil.AssertJSON(t, w, &public)
	if len(public.Events) != 3 || public.Events[0].Title != "Campaigning" {
		t.Errorf("Unexpected public schedule: %+v", public.Events)
	}

	// Overwrite with an empty schedule.
	w = serve(r, testutil.MakeRequest("PUT", "/api/admin/schedule", models.ScheduleRequest{}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &saved)
	if len(saved.Events) != 0 {
		t.Errorf("Expected empty schedule, got %+v", saved.Events)
	}
}

func TestLiveSettingsAndTemplates(t *testing.T) {
	_, cfg, r := newTestServer(t)
	admin := testutil.AdminCookie(cfg)

	w := serve(r, testutil.MakeRequest("PUT", "/api/admin/live", models.LiveSettingsRequest{
		LiveURL: "https://stream.example", CountdownDate: "2026-02-13T08:00:00Z",
	}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(r, testutil.MakeRequest("GET", "/api/config", nil, nil))
	var config models.ConfigSettings
	testutil.AssertJSON(t, w, &config)
	if config.LiveURL != "https://stream.example" || config.CountdownDate != "2026-02-13T08:00:00Z" {
		t.Errorf("Live settings not applied: %+v", config)
	}

	w = serve(r, testutil.MakeRequest("PUT", "/api/admin/warning-templates",
		models.WarningTemplatesRequest{Templates: []string{"Be respectful", "No spam"}}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(r, testutil.MakeRequest("GET", "/api/admin/warning-templates", nil, nil), admin)
	var templates models.WarningTemplates
	testutil.AssertJSON(t, w, &templates)
	if len(templates.Templates) != 2 || templates.Templates[0] != "Be respectful" {
		t.Errorf("Unexpected templates: %+v", templates)
	}
}

func TestIPAliases(t *testing.T) {
	store, cfg, r := newTestServer(t)
	admin := testutil.AdminCookie(cfg)

	w := serve(r, testutil.MakeRequest("PUT", "/api/admin/ip-aliases",
		models.IPAliasRequest{IP: "10.0.0.7", Alias: "library lab"}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(r, testutil.MakeRequest("GET", "/api/admin/ip-aliases", nil, nil), admin)
	aliases := map[string]string{}
	testutil.AssertJSON(t, w, &aliases)
	if aliases["10.0.0.7"] != "library lab" {
		t.Errorf("Alias not stored: %v", aliases)
	}

	// The dotted IP must survive as a literal document key, not get split
	// into nested objects.
	stored := map[string]string{}
	testutil.GetDoc(t, store, models.CollectionSettings, models.SettingsIPAliases, &stored)
	if stored["10.0.0.7"] != "library lab" {
		t.Errorf("Expected literal key '10.0.0.7' in document, got %v", stored)
	}

	// A second alias leaves the first intact.
	w = serve(r, testutil.MakeRequest("PUT", "/api/admin/ip-aliases",
		models.IPAliasRequest{IP: "192.168.1.20", Alias: "front office"}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(r, testutil.MakeRequest("GET", "/api/admin/ip-aliases", nil, nil), admin)
	aliases = map[string]string{}
	testutil.AssertJSON(t, w, &aliases)
	if aliases["10.0.0.7"] != "library lab" || aliases["192.168.1.20"] != "front office" {
		t.Errorf("Expected both aliases, got %v", aliases)
	}

	// Empty alias removes the mapping.
	w = serve(r, testutil.MakeRequest("PUT", "/api/admin/ip-aliases",
		models.IPAliasRequest{IP: "10.0.0.7"}, nil), admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(r, testutil.MakeRequest("GET", "/api/admin/ip-aliases", nil, nil), admin)
	aliases = map[string]string{}
	testutil.AssertJSON(t, w, &aliases)
	if _, exists := aliases["10.0.0.7"]; exists {
		t.Errorf("Alias should be removed: %v", aliases)
	}
	if aliases["192.168.1.20"] != "front office" {
		t.Errorf("Removal must not touch other aliases: %v", aliases)
	}
}
