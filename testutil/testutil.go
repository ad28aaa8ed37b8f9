// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/scvote/councilvote/auth"
	"github.com/scvote/councilvote/cliparse"
	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/models"
)

// SetupTestStore creates a fresh sqlite-backed store in a per-test temp dir.
func SetupTestStore(t *testing.T) *docstore.Store {
	t.Helper()

	store, err := docstore.Open(docstore.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.CreateSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return store
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          8317,
		DatabaseType:  "sqlite",
		DatabaseURL:   ":memory:",
		AdminPassword: "test-admin-password",
		SessionSalt:   "test-session-salt",
	}
}

// CreateTestCandidate inserts a candidate document and returns its id.
func CreateTestCandidate(t *testing.T, store *docstore.Store, firstname string, number int) string {
	t.Helper()

	id, _ := auth.GenerateID(16)
	err := store.Set(context.Background(), models.CollectionCandidates, id, map[string]any{
		"firstname":       firstname,
		"lastname":        "Testerson",
		"nickname":        firstname,
		"class":           "6/1",
		"candidateNumber": number,
		"votes":           0,
		"policies":        map[string]any{},
	})
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
	return id
}

// AddTestPolicy embeds a policy into a candidate and returns the policy id.
func AddTestPolicy(t *testing.T, store *docstore.Store, candidateID, title string, likes int) string {
	t.Helper()

	policyID, _ := auth.GenerateID(12)
	err := store.Update(context.Background(), models.CollectionCandidates, candidateID, map[string]any{
		"policies." + policyID: map[string]any{
			"title":       title,
			"description": "A test policy",
			"likes":       likes,
			"comments":    map[string]any{},
		},
	})
	if err != nil {
		t.Fatalf("Failed to add test policy: %v", err)
	}
	return policyID
}

// AddTestComment embeds a comment into a policy and returns the comment id.
func AddTestComment(t *testing.T, store *docstore.Store, candidateID, policyID, authorID, text string) string {
	t.Helper()

	commentID, _ := auth.GenerateID(12)
	err := store.Update(context.Background(), models.CollectionCandidates, candidateID, map[string]any{
		"policies." + policyID + ".comments." + commentID: map[string]any{
			"text":           text,
			"authorId":       authorID,
			"authorNickname": "tester",
			"likes":          0,
			"dislikes":       0,
			"createdAt":      "2026-01-05T09:00:00Z",
		},
	})
	if err != nil {
		t.Fatalf("Failed to add test comment: %v", err)
	}
	return commentID
}

// CreateTestUser inserts a user record keyed by studentID. passwordHash may
// be empty to model a legacy record without a password.
func CreateTestUser(t *testing.T, store *docstore.Store, studentID, nickname, passwordHash string) {
	t.Helper()

	data := map[string]any{
		"nickname":     nickname,
		"hasPassword":  passwordHash != "",
		"registeredAt": "2026-01-05T09:00:00Z",
		"lastActive":   "2026-01-05T09:00:00Z",
	}
	if passwordHash != "" {
		data["passwordHash"] = passwordHash
	}
	if err := store.Set(context.Background(), models.CollectionUsers, studentID, data); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
}

// BlockTestUser flags a user blocked with the given reason.
func BlockTestUser(t *testing.T, store *docstore.Store, studentID, reason string) {
	t.Helper()

	err := store.Update(context.Background(), models.CollectionUsers, studentID, map[string]any{
		"isBlocked":   true,
		"blockReason": reason,
		"blockId":     "test-block",
	})
	if err != nil {
		t.Fatalf("Failed to block test user: %v", err)
	}
}

// GetDoc fetches and decodes a document into v, failing the test on error.
func GetDoc(t *testing.T, store *docstore.Store, collection, id string, v any) {
	t.Helper()

	doc, err := store.Get(context.Background(), collection, id)
	if err != nil {
		t.Fatalf("Failed to get %s/%s: %v", collection, id, err)
	}
	if err := doc.DataTo(v); err != nil {
		t.Fatalf("Failed to decode %s/%s: %v", collection, id, err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// IdentityCookie builds the visitor identity cookie a verified client holds.
func IdentityCookie(studentID, nickname string) *http.Cookie {
	payload, _ := json.Marshal(map[string]string{
		"id":       studentID,
		"nickname": nickname,
	})
	return &http.Cookie{
		Name:  "council_identity",
		Value: base64URL(payload),
	}
}

// AdminCookie builds a valid admin session cookie for the test config.
func AdminCookie(cfg cliparse.Config) *http.Cookie {
	return &http.Cookie{
		Name:  auth.SessionCookieName,
		Value: auth.GenerateSessionToken(cfg.SessionSalt, timeInAnHour()),
	}
}

func base64URL(b []byte) string {
	return base64.URLEncoding.EncodeToString(b)
}

func timeInAnHour() time.Time {
	return time.Now().Add(time.Hour)
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
