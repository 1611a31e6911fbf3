// Package session derives stable session keys from chat conversation
// identifiers and keeps the session -> continuity token registry.
package session

import (
	"crypto/sha256"
	"regexp"

	"github.com/google/uuid"
	"github.com/sandevgo/tuskbridge/internal/core"
)

var keyRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// DeriveKey maps a conversation identifier to a UUID-v4 shaped key built
// from its SHA-256 digest. The mapping is byte-exact and stable across
// restarts; the empty string is a valid input.
func DeriveKey(conversationID string) core.SessionKey {
	sum := sha256.Sum256([]byte(conversationID))

	var id uuid.UUID
	copy(id[:], sum[:16])
	id[6] = (id[6] & 0x0f) | 0x40 // version 4
	id[8] = (id[8] & 0x3f) | 0x80 // variant 10xx

	return core.SessionKey(id.String())
}

// IsKey reports whether s has the canonical lowercase layout of a derived key.
func IsKey(s string) bool {
	return keyRe.MatchString(s)
}
