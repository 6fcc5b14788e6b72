// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-elect/election"
)

var (
	ErrInvalidCallerKey = errors.New("invalid caller key")
	ErrMissingCaller    = errors.New("missing caller identity")
)

// NewID returns a random UUIDv4 string for elections and journal entries
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an ID produced by NewID
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// GenerateCallerKey creates an HMAC-based key that proves a caller acts as
// identity within one election. Deterministic, so nothing is stored.
func GenerateCallerKey(electionID string, identity election.Identity, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(electionID))
	h.Write([]byte{0})
	h.Write([]byte(election.NormalizeIdentity(string(identity))))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateCallerKey checks if the provided key is valid for identity in the election
func ValidateCallerKey(electionID string, identity election.Identity, key, salt string) error {
	if election.NormalizeIdentity(string(identity)) == "" {
		return ErrMissingCaller
	}
	expected := GenerateCallerKey(electionID, identity, salt)
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return ErrInvalidCallerKey
	}
	return nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
