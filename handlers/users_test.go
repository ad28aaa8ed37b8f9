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

func TestCheckUserEndpoint(t *testing.T) {
	store, _, r := newTestServer(t)

	testutil.CreateTestUser(t, store, "12345", "Nara", identity.HashPassword("abcdef"))
	testutil.CreateTestUser(t, store, "23456", "Legacy", "")

	tests := []struct {
		name       string
		studentID  string
		wantStatus int
		expected   models.CheckUserResponse
	}{
		{
			name:       "registered",
			studentID:  "12345",
			wantStatus: http.StatusOK,
			expected:   models.CheckUserResponse{Exists: true, HasPassword: true, Nickname: "Nara"},
		},
		{
			name:       "needs password",
			studentID:  "23456",
			wantStatus: http.StatusOK,
			expected:   models.CheckUserResponse{Exists: true, HasPassword: false, Nickname: "Legacy"},
		},
		{
			name:       "unknown",
			studentID:  "99999",
			wantStatus: http.StatusOK,
			expected:   models.CheckUserResponse{},
		},
		{
			name:       "malformed id",
			studentID:  "12a45",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, testutil.MakeRequest("POST", "/api/users/check",
				models.CheckUserRequest{StudentID: tt.studentID}, nil))
			testutil.AssertStatus(t, w, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp models.CheckUserResponse
			testutil.AssertJSON(t, w, &resp)
			if resp != tt.expected {
				t.Errorf("Got %+v, want %+v", resp, tt.expected)
			}
		})
	}
}

func TestCheckUserBlocked(t *testing.T) {
	store, _, r := newTestServer(t)

	testutil.CreateTestUser(t, store, "12345", "Nara", identity.HashPassword("abcdef"))
	testutil.BlockTestUser(t, store, "12345", "spamming")

	w := serve(r, testutil.MakeRequest("POST", "/api/users/check",
		models.CheckUserRequest{StudentID: "12345"}, nil))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Code != models.CodeBlocked {
		t.Errorf("Expected code blocked, got %q", resp.Code)
	}
	if resp.Message != "spamming" {
		t.Errorf("Expected the block reason, got %q", resp.Message)
	}
}

func TestRegisterEndpoint(t *testing.T) {
	store, _, r := newTestServer(t)

	w := serve(r, testutil.MakeRequest("POST", "/api/users/register", models.RegisterUserRequest{
		StudentID:  "12345",
		Nickname:   "Nara",
		Password:   "abcdef",
		Platform:   "iOS",
		Resolution: "390x844",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.AuthResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Verified || resp.StudentID != "12345" || resp.Nickname != "Nara" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	// The identity cookie is set on the response.
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "council_identity" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("Expected identity cookie on successful registration")
	}

	// Record landed in the store.
	var user models.User
	testutil.GetDoc(t, store, models.CollectionUsers, "12345", &user)
	if user.Nickname != "Nara" || !user.HasPassword {
		t.Errorf("Stored user incomplete: %+v", user)
	}

	// Same id again conflicts.
	w = serve(r, testutil.MakeRequest("POST", "/api/users/register", models.RegisterUserRequest{
		StudentID: "12345", Nickname: "Other", Password: "abcdef",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestRegisterValidation(t *testing.T) {
	_, _, r := newTestServer(t)

	tests := []struct {
		name string
		req  models.RegisterUserRequest
	}{
		{"bad id", models.RegisterUserRequest{StudentID: "12", Nickname: "X", Password: "abcdef"}},
		{"no nickname", models.RegisterUserRequest{StudentID: "12345", Password: "abcdef"}},
		{"weak password", models.RegisterUserRequest{StudentID: "12345", Nickname: "X", Password: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, testutil.MakeRequest("POST", "/api/users/register", tt.req, nil))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestSetPasswordEndpoint(t *testing.T) {
	store, _, r := newTestServer(t)

	testutil.CreateTestUser(t, store, "23456", "Legacy", "")

	w := serve(r, testutil.MakeRequest("POST", "/api/users/password", models.SetPasswordRequest{
		StudentID: "23456", Password: "abcdef",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.AuthResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Verified || resp.Nickname != "Legacy" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	w = serve(r, testutil.MakeRequest("POST", "/api/users/password", models.SetPasswordRequest{
		StudentID: "99999", Password: "abcdef",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestLoginEndpoint(t *testing.T) {
	store, _, r := newTestServer(t)

	testutil.CreateTestUser(t, store, "12345", "Nara", identity.HashPassword("abcdef"))

	w := serve(r, testutil.MakeRequest("POST", "/api/users/login", models.LoginUserRequest{
		StudentID: "12345", Password: "abcdef",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.AuthResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Verified || resp.Nickname != "Nara" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	w = serve(r, testutil.MakeRequest("POST", "/api/users/login", models.LoginUserRequest{
		StudentID: "12345", Password: "wrong!",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = serve(r, testutil.MakeRequest("POST", "/api/users/login", models.LoginUserRequest{
		StudentID: "99999", Password: "abcdef",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	testutil.BlockTestUser(t, store, "12345", "banned")
	w = serve(r, testutil.MakeRequest("POST", "/api/users/login", models.LoginUserRequest{
		StudentID: "12345", Password: "abcdef",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusForbidden)
}

func TestHeartbeatEndpoint(t *testing.T) {
	store, _, r := newTestServer(t)

	testutil.CreateTestUser(t, store, "12345", "Nara", identity.HashPassword("abcdef"))

	t.Run("no identity", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("POST", "/api/users/heartbeat", nil, nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Code != models.CodeVerificationRequired {
			t.Errorf("Expected verification_required, got %q", resp.Code)
		}
	})

	t.Run("idle cadence", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("POST", "/api/users/heartbeat", nil, nil),
			testutil.IdentityCookie("12345", "Nara"))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.HeartbeatResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.IntervalSeconds != 120 || resp.Focused {
			t.Errorf("Expected idle cadence, got %+v", resp)
		}
	})

	t.Run("focused cadence", func(t *testing.T) {
		err := store.Update(context.Background(), models.CollectionUsers, "12345", map[string]any{
			"isFocused": true,
		})
		if err != nil {
			t.Fatalf("Failed to set focus: %v", err)
		}

		w := serve(r, testutil.MakeRequest("POST", "/api/users/heartbeat", nil, nil),
			testutil.IdentityCookie("12345", "Nara"))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.HeartbeatResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.IntervalSeconds != 5 || !resp.Focused {
			t.Errorf("Expected focused cadence, got %+v", resp)
		}
	})

	t.Run("carries pending warning", func(t *testing.T) {
		err := store.Update(context.Background(), models.CollectionUsers, "12345", map[string]any{
			"warningMessage": "please be respectful",
		})
		if err != nil {
			t.Fatalf("Failed to set warning: %v", err)
		}

		w := serve(r, testutil.MakeRequest("POST", "/api/users/heartbeat", nil, nil),
			testutil.IdentityCookie("12345", "Nara"))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.HeartbeatResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Warning != "please be respectful" {
			t.Errorf("Expected warning delivered, got %+v", resp)
		}
	})

	t.Run("blocked", func(t *testing.T) {
		testutil.BlockTestUser(t, store, "12345", "banned")

		w := serve(r, testutil.MakeRequest("POST", "/api/users/heartbeat", nil, nil),
			testutil.IdentityCookie("12345", "Nara"))
		testutil.AssertStatus(t, w, http.StatusForbidden)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Code != models.CodeBlocked {
			t.Errorf("Expected blocked code, got %q", resp.Code)
		}
	})
}

func TestWarningAckEndpoint(t *testing.T) {
	store, _, r := newTestServer(t)

	testutil.CreateTestUser(t, store, "12345", "Nara", identity.HashPassword("abcdef"))
	err := store.Update(context.Background(), models.CollectionUsers, "12345", map[string]any{
		"warningMessage": "stop it",
	})
	if err != nil {
		t.Fatalf("Failed to set warning: %v", err)
	}

	w := serve(r, testutil.MakeRequest("POST", "/api/users/warning-ack", nil, nil),
		testutil.IdentityCookie("12345", "Nara"))
	testutil.AssertStatus(t, w, http.StatusOK)

	var user models.User
	testutil.GetDoc(t, store, models.CollectionUsers, "12345", &user)
	if user.WarningMessage != "" {
		t.Errorf("Expected warning cleared, got %q", user.WarningMessage)
	}
}

func TestMeEndpoint(t *testing.T) {
	store, _, r := newTestServer(t)

	testutil.CreateTestUser(t, store, "12345", "Nara", identity.HashPassword("abcdef"))

	t.Run("anonymous", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("GET", "/api/users/me", nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp map[string]any
		testutil.AssertJSON(t, w, &resp)
		if resp["state"] != "anonymous" {
			t.Errorf("Expected anonymous, got %v", resp["state"])
		}
	})

	t.Run("verified", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("GET", "/api/users/me", nil, nil),
			testutil.IdentityCookie("12345", "Nara"))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp map[string]any
		testutil.AssertJSON(t, w, &resp)
		if resp["state"] != "verified" || resp["nickname"] != "Nara" {
			t.Errorf("Unexpected response: %+v", resp)
		}
	})

	t.Run("deleted record resets identity", func(t *testing.T) {
		w := serve(r, testutil.MakeRequest("GET", "/api/users/me", nil, nil),
			testutil.IdentityCookie("99999", "Ghost"))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp map[string]any
		testutil.AssertJSON(t, w, &resp)
		if resp["state"] != "no_account" {
			t.Errorf("Expected no_account, got %v", resp["state"])
		}
	})

	t.Run("blocked", func(t *testing.T) {
		testutil.BlockTestUser(t, store, "12345", "banned")

		w := serve(r, testutil.MakeRequest("GET", "/api/users/me", nil, nil),
			testutil.IdentityCookie("12345", "Nara"))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp map[string]any
		testutil.AssertJSON(t, w, &resp)
		if resp["state"] != "blocked" || resp["reason"] != "banned" {
			t.Errorf("Unexpected response: %+v", resp)
		}
	})
}

func TestSetPrefs(t *testing.T) {
	_, _, r := newTestServer(t)

	w := serve(r, testutil.MakeRequest("POST", "/api/prefs", models.PrefsRequest{
		Language: "th", Theme: "dark",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	got := map[string]string{}
	for _, c := range w.Result().Cookies() {
		got[c.Name] = c.Value
	}
	if got["council_lang"] != "th" || got["council_theme"] != "dark" {
		t.Errorf("Expected preference cookies, got %v", got)
	}
}
