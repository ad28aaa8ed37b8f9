// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// MinPasswordLength is the only composition rule.
const MinPasswordLength = 6

// HashPassword is a deterministic one-way digest of the password's UTF-8
// bytes as a fixed-length hex string. Deliberately unsalted and fast: the
// threat model is a school election, not a production auth system, and the
// stored-hash format is part of the data contract.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPasswordHash recomputes the digest and compares in constant time.
func VerifyPasswordHash(password, storedHash string) bool {
	computed := HashPassword(password)
	return hmac.Equal([]byte(computed), []byte(storedHash))
}

// ValidateStrength rejects passwords shorter than six characters.
func ValidateStrength(password string) bool {
	return len([]rune(password)) >= MinPasswordLength
}
