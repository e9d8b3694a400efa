package sessions

import (
	"time"

	"github.com/google/uuid"
)

// Session is a stateful, revocable server-side authentication record. The
// token is opaque and unguessable; it is the only lookup key the request
// path uses.
type Session struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Token          string     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
	IPAddress      string     `json:"ip_address,omitempty"`
	UserAgent      string     `json:"user_agent,omitempty"`
}

// Live reports whether the session is usable at now: not revoked and not yet
// expired. Expiry is strict; a session whose ExpiresAt equals now is dead.
func (s Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// SessionSummary is a simplified session view for listing
type SessionSummary struct {
	ID             uuid.UUID  `json:"id"`
	IPAddress      string     `json:"ip_address"`
	UserAgent      string     `json:"user_agent"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	IsCurrent      bool       `json:"is_current"`
}

// CreateSessionRequest carries everything needed to open a session after a
// successful authentication.
type CreateSessionRequest struct {
	UserID     uuid.UUID
	RememberMe bool
	IPAddress  string
	UserAgent  string
}

// SessionListResponse is the listing payload for a user's active sessions.
type SessionListResponse struct {
	Sessions    []SessionSummary `json:"sessions"`
	Total       int              `json:"total"`
	ActiveCount int              `json:"active_count"`
}
