package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound uniformly covers unknown, expired and revoked tokens so
// a caller cannot distinguish them.
var ErrSessionNotFound = errors.New("session not found")

// Repository defines the interface for session data access. Token lookup and
// revocation must be consistent under concurrent access: a lookup racing a
// revoke resolves to either the pre- or post-revocation view, never a torn
// state.
type Repository interface {
	// Create persists a new session.
	Create(ctx context.Context, session Session) (Session, error)

	// GetByID retrieves a session regardless of liveness.
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)

	// TouchLive returns the session for token only if it is live at now,
	// updating LastAccessedAt to now in the same step. A dead or unknown
	// token is ErrSessionNotFound with no mutation.
	TouchLive(ctx context.Context, token string, now time.Time) (Session, error)

	// Revoke sets RevokedAt on the live session for token. It is idempotent
	// and reports whether a live session was actually transitioned.
	Revoke(ctx context.Context, token string, now time.Time) (bool, error)

	// RevokeAllForUser revokes every live session for the user and returns
	// the count transitioned; already-dead sessions are not counted.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)

	// ListActiveByUserID lists the user's live sessions at now.
	ListActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error)

	// CountActiveByUserID counts the user's live sessions at now.
	CountActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)

	// DeleteExpired physically removes sessions with ExpiresAt before the
	// cutoff, regardless of revocation state, and returns the count removed.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)

	// DeleteOldRevoked physically removes sessions revoked before the cutoff
	// and returns the count removed.
	DeleteOldRevoked(ctx context.Context, before time.Time) (int, error)
}
