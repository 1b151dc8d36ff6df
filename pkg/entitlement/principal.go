package entitlement

import (
	"fmt"

	"github.com/google/uuid"
)

// Principal is the identity a quota is tracked against: an anonymous session
// or an authenticated user. Anonymous principals have no durable identity
// beyond their session; authenticated principals are keyed by user ID.
type Principal struct {
	sessionID string
	userID    uuid.UUID
}

// Anonymous returns a principal for a client session without a login.
func Anonymous(sessionID string) Principal {
	return Principal{sessionID: sessionID}
}

// Authenticated returns a principal for a logged-in user.
func Authenticated(userID uuid.UUID) Principal {
	return Principal{userID: userID}
}

// IsAnonymous reports whether the principal has no authenticated user behind it.
func (p Principal) IsAnonymous() bool {
	return p.userID == uuid.Nil
}

// IsZero reports whether the principal carries no identity at all.
func (p Principal) IsZero() bool {
	return p.userID == uuid.Nil && p.sessionID == ""
}

// UserID returns the authenticated user ID, uuid.Nil for anonymous principals.
func (p Principal) UserID() uuid.UUID { return p.userID }

// SessionID returns the anonymous session ID, empty for authenticated principals.
func (p Principal) SessionID() string { return p.sessionID }

// Key returns a stable string identity usable as a storage key.
func (p Principal) Key() string {
	if p.IsAnonymous() {
		return "anon:" + p.sessionID
	}
	return "user:" + p.userID.String()
}

func (p Principal) String() string {
	if p.IsAnonymous() {
		return fmt.Sprintf("anonymous(%s)", p.sessionID)
	}
	return fmt.Sprintf("user(%s)", p.userID)
}
