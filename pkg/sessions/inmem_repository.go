package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository with mutex-guarded maps. Lookup
// and revocation both run under the same lock, which rules out torn reads.
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
	byToken  map[string]uuid.UUID
}

// NewInMemoryRepository creates an empty in-memory session repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[uuid.UUID]Session),
		byToken:  make(map[string]uuid.UUID),
	}
}

// Create persists a new session.
func (r *InMemoryRepository) Create(ctx context.Context, session Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.sessions[session.ID] = session
	r.byToken[session.Token] = session.ID
	return session, nil
}

// GetByID retrieves a session regardless of liveness.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

// TouchLive returns the live session for token, updating LastAccessedAt.
func (r *InMemoryRepository) TouchLive(ctx context.Context, token string, now time.Time) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byToken[token]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	session := r.sessions[id]
	if !session.Live(now) {
		return Session{}, ErrSessionNotFound
	}

	accessedAt := now
	session.LastAccessedAt = &accessedAt
	r.sessions[id] = session
	return session, nil
}

// Revoke transitions the live session for token to revoked.
func (r *InMemoryRepository) Revoke(ctx context.Context, token string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byToken[token]
	if !ok {
		return false, nil
	}
	session := r.sessions[id]
	if !session.Live(now) {
		return false, nil
	}

	revokedAt := now
	session.RevokedAt = &revokedAt
	r.sessions[id] = session
	return true, nil
}

// RevokeAllForUser revokes every live session for the user.
func (r *InMemoryRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, session := range r.sessions {
		if session.UserID != userID || !session.Live(now) {
			continue
		}
		revokedAt := now
		session.RevokedAt = &revokedAt
		r.sessions[id] = session
		count++
	}
	return count, nil
}

// ListActiveByUserID lists the user's live sessions.
func (r *InMemoryRepository) ListActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []Session
	for _, session := range r.sessions {
		if session.UserID == userID && session.Live(now) {
			active = append(active, session)
		}
	}
	return active, nil
}

// CountActiveByUserID counts the user's live sessions.
func (r *InMemoryRepository) CountActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	active, err := r.ListActiveByUserID(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}

// DeleteExpired physically removes sessions expired before the cutoff.
func (r *InMemoryRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, session := range r.sessions {
		if session.ExpiresAt.Before(before) {
			delete(r.sessions, id)
			delete(r.byToken, session.Token)
			count++
		}
	}
	return count, nil
}

// DeleteOldRevoked physically removes sessions revoked before the cutoff.
func (r *InMemoryRepository) DeleteOldRevoked(ctx context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, session := range r.sessions {
		if session.RevokedAt != nil && session.RevokedAt.Before(before) {
			delete(r.sessions, id)
			delete(r.byToken, session.Token)
			count++
		}
	}
	return count, nil
}
