package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verisafe/authcore/pkg/config"
	"github.com/verisafe/authcore/pkg/utils"
)

// Session tokens carry 256 bits of entropy.
const tokenByteLength = 32

// Lifetimes are the resolved session expiry durations.
type Lifetimes struct {
	Default    time.Duration
	RememberMe time.Duration
}

// LifetimesFromConfig resolves the env-driven session config once.
func LifetimesFromConfig(cfg config.SessionConfig) (Lifetimes, error) {
	if err := cfg.Validate(); err != nil {
		return Lifetimes{}, fmt.Errorf("invalid session config: %w", err)
	}
	def, err := cfg.ParseDefaultExpiry()
	if err != nil {
		return Lifetimes{}, err
	}
	remember, err := cfg.ParseRememberMeExpiry()
	if err != nil {
		return Lifetimes{}, err
	}
	return Lifetimes{Default: def, RememberMe: remember}, nil
}

// Service provides session lifecycle business logic. Every operation takes
// now explicitly; the service never reads the ambient clock.
type Service struct {
	repo      Repository
	lifetimes Lifetimes
}

// NewService creates a new session service
func NewService(repo Repository, lifetimes Lifetimes) *Service {
	return &Service{
		repo:      repo,
		lifetimes: lifetimes,
	}
}

// CreateSession opens a session for a successfully authenticated user. The
// token is fresh 256-bit randomness, never reused. RememberMe selects the
// long absolute expiry; it changes nothing else about the token.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest, now time.Time) (Session, error) {
	if req.UserID == uuid.Nil {
		return Session{}, fmt.Errorf("user_id is required")
	}

	token, err := utils.RandomToken(tokenByteLength)
	if err != nil {
		return Session{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	lifetime := s.lifetimes.Default
	if req.RememberMe {
		lifetime = s.lifetimes.RememberMe
	}

	session := Session{
		UserID:    req.UserID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(lifetime),
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	}

	return s.repo.Create(ctx, session)
}

// FindByToken returns the session for token only if it is live at now,
// updating LastAccessedAt as a side effect. The marker is a sliding
// visibility timestamp; it never extends ExpiresAt. A dead or unknown token
// is a uniform ErrSessionNotFound with no mutation.
func (s *Service) FindByToken(ctx context.Context, token string, now time.Time) (Session, error) {
	return s.repo.TouchLive(ctx, token, now)
}

// Invalidate revokes the live session for token. Idempotent: it reports
// whether a live session was actually transitioned, not whether the token
// exists.
func (s *Service) Invalidate(ctx context.Context, token string, now time.Time) (bool, error) {
	return s.repo.Revoke(ctx, token, now)
}

// InvalidateAllForUser revokes every currently-live session for the user and
// returns the count transitioned.
func (s *Service) InvalidateAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	return s.repo.RevokeAllForUser(ctx, userID, now)
}

// ListActiveSummaries returns a simplified view of the user's live sessions.
func (s *Service) ListActiveSummaries(ctx context.Context, userID uuid.UUID, currentToken string, now time.Time) (SessionListResponse, error) {
	active, err := s.repo.ListActiveByUserID(ctx, userID, now)
	if err != nil {
		return SessionListResponse{}, err
	}

	summaries := make([]SessionSummary, len(active))
	for i, session := range active {
		summaries[i] = SessionSummary{
			ID:             session.ID,
			IPAddress:      session.IPAddress,
			UserAgent:      session.UserAgent,
			CreatedAt:      session.CreatedAt,
			ExpiresAt:      session.ExpiresAt,
			LastAccessedAt: session.LastAccessedAt,
			IsCurrent:      session.Token == currentToken,
		}
	}

	return SessionListResponse{
		Sessions:    summaries,
		Total:       len(summaries),
		ActiveCount: len(summaries),
	}, nil
}

// CleanupExpired physically removes sessions expired before the cutoff. This
// is a maintenance sweep, not part of the request path.
func (s *Service) CleanupExpired(ctx context.Context, before time.Time) (int, error) {
	return s.repo.DeleteExpired(ctx, before)
}

// CleanupOldRevoked physically removes sessions revoked before the cutoff.
func (s *Service) CleanupOldRevoked(ctx context.Context, before time.Time) (int, error) {
	return s.repo.DeleteOldRevoked(ctx, before)
}
