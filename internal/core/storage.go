package core

import "context"

// SessionStore maps a SessionKey to the continuity token issued by the
// engine on first contact.
//
// Implementations must be safe for concurrent use. They do not serialize
// turns: two first-contact turns for the same key may both miss and the
// later Put wins.
type SessionStore interface {
	// Get reports the stored token and whether one exists.
	Get(ctx context.Context, key SessionKey) (string, bool, error)
	// Put stores or overwrites the token for key.
	Put(ctx context.Context, key SessionKey, token string) error
}
