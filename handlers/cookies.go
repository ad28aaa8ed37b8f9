// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

// Cookie names. Per-candidate cookies get the candidate id appended so one
// candidate's interactions never collide with another's.
const (
	identityCookieName  = "council_identity"
	likedCookiePrefix   = "liked_"
	reactionsPrefix     = "reactions_"
	langCookieName      = "council_lang"
	themeCookieName     = "council_theme"
	identityCookieAge   = 365 * 24 * time.Hour
	preferenceCookieAge = 365 * 24 * time.Hour
)

// identityPayload is the locally persisted identity: who this browser claims
// to be. The store stays the source of truth for blocked/deleted state.
type identityPayload struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

func readIdentity(r *http.Request) identityPayload {
	var ident identityPayload
	readJSONCookie(r, identityCookieName, &ident)
	return ident
}

func writeIdentity(w http.ResponseWriter, id, nickname string) {
	writeJSONCookie(w, identityCookieName, identityPayload{ID: id, Nickname: nickname}, identityCookieAge)
}

func clearIdentity(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     identityCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// readLikedPolicies returns the set of policy ids this browser has liked for
// one candidate.
func readLikedPolicies(r *http.Request, candidateID string) map[string]bool {
	var ids []string
	readJSONCookie(r, likedCookiePrefix+candidateID, &ids)

	liked := map[string]bool{}
	for _, id := range ids {
		liked[id] = true
	}
	return liked
}

func writeLikedPolicies(w http.ResponseWriter, candidateID string, liked map[string]bool) {
	ids := make([]string, 0, len(liked))
	for id := range liked {
		ids = append(ids, id)
	}
	writeJSONCookie(w, likedCookiePrefix+candidateID, ids, identityCookieAge)
}

// readReactions returns this browser's comment reactions for one candidate,
// keyed by comment id ("like" or "dislike").
func readReactions(r *http.Request, candidateID string) map[string]string {
	reactions := map[string]string{}
	readJSONCookie(r, reactionsPrefix+candidateID, &reactions)
	return reactions
}

func writeReactions(w http.ResponseWriter, candidateID string, reactions map[string]string) {
	writeJSONCookie(w, reactionsPrefix+candidateID, reactions, identityCookieAge)
}

func writePreference(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   value,
		Path:    "/",
		Expires: time.Now().Add(preferenceCookieAge),
	})
}

// readJSONCookie decodes a base64url JSON cookie into v. A missing or
// malformed cookie leaves v untouched; stale clients just start fresh.
func readJSONCookie(r *http.Request, name string, v any) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return
	}
	raw, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, v)
}

func writeJSONCookie(w http.ResponseWriter, name string, v any, maxAge time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    base64.URLEncoding.EncodeToString(raw),
		Path:     "/",
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
	})
}
