package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verisafe/authcore/pkg/config"
)

func testService(t *testing.T) *Service {
	t.Helper()
	lifetimes, err := LifetimesFromConfig(config.DefaultSessionConfig())
	require.NoError(t, err)
	return NewService(NewInMemoryRepository(), lifetimes)
}

func TestService_CreateSession(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	t.Run("default lifetime is hours, remember-me is days", func(t *testing.T) {
		short, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID}, now)
		require.NoError(t, err)
		long, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID, RememberMe: true}, now)
		require.NoError(t, err)

		shortLife := short.ExpiresAt.Sub(short.CreatedAt)
		longLife := long.ExpiresAt.Sub(long.CreatedAt)
		assert.Equal(t, 12*time.Hour, shortLife)
		assert.Equal(t, 30*24*time.Hour, longLife)
		assert.Greater(t, longLife-shortLife, 24*time.Hour)
	})

	t.Run("tokens are unique across creations", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			session, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID}, now)
			require.NoError(t, err)
			assert.False(t, seen[session.Token])
			seen[session.Token] = true
		}
	})

	t.Run("requires a user id", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, CreateSessionRequest{}, now)
		assert.Error(t, err)
	})
}

func TestService_FindByToken(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	session, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID}, now)
	require.NoError(t, err)

	t.Run("live lookup touches lastAccessedAt without extending expiry", func(t *testing.T) {
		later := now.Add(time.Hour)
		found, err := svc.FindByToken(ctx, session.Token, later)
		require.NoError(t, err)
		require.NotNil(t, found.LastAccessedAt)
		assert.True(t, found.LastAccessedAt.Equal(later))
		assert.True(t, found.ExpiresAt.Equal(session.ExpiresAt))
	})

	t.Run("unknown token misses", func(t *testing.T) {
		_, err := svc.FindByToken(ctx, "no-such-token", now)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("expired token misses even right after creation", func(t *testing.T) {
		fresh, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID}, now)
		require.NoError(t, err)

		backdated := fresh.ExpiresAt.Add(time.Second)
		_, err = svc.FindByToken(ctx, fresh.Token, backdated)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("expiry boundary is a miss", func(t *testing.T) {
		fresh, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID}, now)
		require.NoError(t, err)

		_, err = svc.FindByToken(ctx, fresh.Token, fresh.ExpiresAt)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("revoked token misses with no mutation", func(t *testing.T) {
		fresh, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID}, now)
		require.NoError(t, err)
		revoked, err := svc.Invalidate(ctx, fresh.Token, now)
		require.NoError(t, err)
		assert.True(t, revoked)

		_, err = svc.FindByToken(ctx, fresh.Token, now.Add(time.Second))
		assert.ErrorIs(t, err, ErrSessionNotFound)

		stored, err := svc.repo.GetByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.LastAccessedAt)
	})
}

func TestService_Invalidate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	session, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: uuid.New()}, now)
	require.NoError(t, err)

	t.Run("first revoke transitions", func(t *testing.T) {
		revoked, err := svc.Invalidate(ctx, session.Token, now)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("second revoke is an idempotent no-op", func(t *testing.T) {
		revoked, err := svc.Invalidate(ctx, session.Token, now.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, revoked)

		stored, err := svc.repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.RevokedAt)
		assert.True(t, stored.RevokedAt.Equal(now))
	})

	t.Run("unknown token reports false", func(t *testing.T) {
		revoked, err := svc.Invalidate(ctx, "no-such-token", now)
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestService_InvalidateAllForUser(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	otherID := uuid.New()

	var tokens []string
	for i := 0; i < 3; i++ {
		session, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID}, now)
		require.NoError(t, err)
		tokens = append(tokens, session.Token)
	}

	// One already revoked, must not be double-counted.
	revoked, err := svc.Invalidate(ctx, tokens[0], now)
	require.NoError(t, err)
	require.True(t, revoked)

	// Another user's session stays untouched.
	other, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: otherID}, now)
	require.NoError(t, err)

	count, err := svc.InvalidateAllForUser(ctx, userID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, token := range tokens {
		_, err := svc.FindByToken(ctx, token, now.Add(time.Second))
		assert.ErrorIs(t, err, ErrSessionNotFound)
	}

	_, err = svc.FindByToken(ctx, other.Token, now.Add(time.Second))
	assert.NoError(t, err)
}

func TestService_Cleanup(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	expired, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID}, now.Add(-48*time.Hour))
	require.NoError(t, err)
	liveSession, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID}, now)
	require.NoError(t, err)

	revokedSession, err := svc.CreateSession(ctx, CreateSessionRequest{UserID: userID, RememberMe: true}, now.Add(-10*24*time.Hour))
	require.NoError(t, err)
	_, err = svc.Invalidate(ctx, revokedSession.Token, now.Add(-9*24*time.Hour))
	require.NoError(t, err)

	t.Run("expired sweep removes regardless of revocation state", func(t *testing.T) {
		count, err := svc.CleanupExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		_, err = svc.repo.GetByID(ctx, expired.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = svc.repo.GetByID(ctx, liveSession.ID)
		assert.NoError(t, err)
	})

	t.Run("old revoked sweep removes by revocation cutoff", func(t *testing.T) {
		count, err := svc.CleanupOldRevoked(ctx, now.Add(-7*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		_, err = svc.repo.GetByID(ctx, revokedSession.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}
