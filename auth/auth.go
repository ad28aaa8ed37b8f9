// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidSession = errors.New("invalid admin session")
	ErrSessionExpired = errors.New("admin session expired")
)

// SessionCookieName is the admin session cookie.
const SessionCookieName = "council_admin"

// SessionTTL is how long an admin login lasts.
const SessionTTL = 24 * time.Hour

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateSessionToken creates an HMAC-signed admin session token embedding
// its expiry, so the server can reject stale cookies without storing any
// session state.
func GenerateSessionToken(salt string, expires time.Time) string {
	exp := strconv.FormatInt(expires.Unix(), 10)
	return exp + "." + sign(exp, salt)
}

// ValidateSessionToken checks the token signature and expiry.
func ValidateSessionToken(token, salt string) error {
	exp, sig, ok := strings.Cut(token, ".")
	if !ok {
		return ErrInvalidSession
	}
	if !hmac.Equal([]byte(sig), []byte(sign(exp, salt))) {
		return ErrInvalidSession
	}

	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return ErrInvalidSession
	}
	if time.Now().After(time.Unix(unix, 0)) {
		return ErrSessionExpired
	}
	return nil
}

// CheckAdminPassword compares the submitted shared secret in constant time.
func CheckAdminPassword(submitted, expected string) bool {
	return hmac.Equal([]byte(submitted), []byte(expected))
}

func sign(payload, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
