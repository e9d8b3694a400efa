package login

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verisafe/authcore/pkg/config"
	"github.com/verisafe/authcore/pkg/credential"
)

func testPolicy() Policy {
	return Policy{
		MaxFailedAttempts: 5,
		AlertThreshold:    3,
		LockoutDuration:   30 * time.Minute,
	}
}

func TestPolicyFromConfig(t *testing.T) {
	t.Run("parses ISO 8601 lockout duration", func(t *testing.T) {
		policy, err := PolicyFromConfig(config.DefaultLoginConfig())
		require.NoError(t, err)
		assert.Equal(t, 5, policy.MaxFailedAttempts)
		assert.Equal(t, 3, policy.AlertThreshold)
		assert.Equal(t, 30*time.Minute, policy.LockoutDuration)
	})

	t.Run("rejects alert threshold above max attempts", func(t *testing.T) {
		cfg := config.DefaultLoginConfig()
		cfg.AlertThreshold = 9
		_, err := PolicyFromConfig(cfg)
		assert.Error(t, err)
	})
}

func TestShouldAllowLoginAttempt(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	policy := testPolicy()

	healthy := func() credential.Credential {
		return credential.Credential{Active: true}
	}

	t.Run("healthy account is allowed", func(t *testing.T) {
		cred := healthy()
		decision := ShouldAllowLoginAttempt(&cred, policy, now)
		assert.True(t, decision.Allowed)
		assert.Empty(t, decision.Reason)
		assert.Nil(t, decision.RetryAfter)
	})

	t.Run("nil credential denies without revealing existence", func(t *testing.T) {
		decision := ShouldAllowLoginAttempt(nil, policy, now)
		assert.False(t, decision.Allowed)
		assert.Equal(t, DenyInvalidCredentials, decision.Reason)
	})

	t.Run("deleted account reports deletion", func(t *testing.T) {
		deletedAt := now.Add(-time.Hour)
		cred := healthy()
		cred.DeletedAt = &deletedAt
		decision := ShouldAllowLoginAttempt(&cred, policy, now)
		assert.False(t, decision.Allowed)
		assert.Equal(t, DenyAccountDeleted, decision.Reason)
	})

	t.Run("inactive account reports deactivation regardless of lockout", func(t *testing.T) {
		lockedUntil := now.Add(time.Hour)
		cred := healthy()
		cred.Active = false
		cred.LockoutUntil = &lockedUntil
		decision := ShouldAllowLoginAttempt(&cred, policy, now)
		assert.False(t, decision.Allowed)
		assert.Equal(t, DenyAccountDeactivated, decision.Reason)
	})

	t.Run("deletion wins over deactivation and lockout", func(t *testing.T) {
		deletedAt := now.Add(-time.Hour)
		lockedUntil := now.Add(time.Hour)
		cred := healthy()
		cred.Active = false
		cred.DeletedAt = &deletedAt
		cred.LockoutUntil = &lockedUntil
		decision := ShouldAllowLoginAttempt(&cred, policy, now)
		assert.Equal(t, DenyAccountDeleted, decision.Reason)
	})

	t.Run("active lockout denies with retryAfter", func(t *testing.T) {
		lockedUntil := now.Add(10 * time.Minute)
		cred := healthy()
		cred.LockoutUntil = &lockedUntil
		decision := ShouldAllowLoginAttempt(&cred, policy, now)
		assert.False(t, decision.Allowed)
		assert.Equal(t, DenyTemporarilyLocked, decision.Reason)
		require.NotNil(t, decision.RetryAfter)
		assert.True(t, decision.RetryAfter.Equal(lockedUntil))
	})

	t.Run("lockout is over exactly at the boundary", func(t *testing.T) {
		lockedUntil := now
		cred := healthy()
		cred.LockoutUntil = &lockedUntil
		decision := ShouldAllowLoginAttempt(&cred, policy, now)
		assert.True(t, decision.Allowed)
	})

	t.Run("expired lockout is allowed", func(t *testing.T) {
		lockedUntil := now.Add(-time.Second)
		cred := healthy()
		cred.LockoutUntil = &lockedUntil
		decision := ShouldAllowLoginAttempt(&cred, policy, now)
		assert.True(t, decision.Allowed)
	})
}

func TestCalculateFailedLoginConsequences(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	policy := testPolicy()

	t.Run("increments the counter", func(t *testing.T) {
		consequences := CalculateFailedLoginConsequences(credential.Credential{FailedLoginCount: 1}, policy, now)
		assert.Equal(t, 2, consequences.FailedLoginCount)
		assert.Nil(t, consequences.LockoutUntil)
		assert.False(t, consequences.ShouldAlert)
	})

	t.Run("fifth failure locks for the configured duration", func(t *testing.T) {
		consequences := CalculateFailedLoginConsequences(credential.Credential{FailedLoginCount: 4}, policy, now)
		assert.Equal(t, 5, consequences.FailedLoginCount)
		require.NotNil(t, consequences.LockoutUntil)
		assert.True(t, consequences.LockoutUntil.Equal(now.Add(30*time.Minute)))
	})

	t.Run("alert fires before lockout", func(t *testing.T) {
		consequences := CalculateFailedLoginConsequences(credential.Credential{FailedLoginCount: 2}, policy, now)
		assert.Equal(t, 3, consequences.FailedLoginCount)
		assert.True(t, consequences.ShouldAlert)
		assert.Nil(t, consequences.LockoutUntil)
	})
}

func TestPrepareSuccessfulLoginUpdates(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	lockedUntil := now.Add(time.Hour)
	cred := credential.Credential{
		LoginCount:       7,
		FailedLoginCount: 4,
		LockoutUntil:     &lockedUntil,
	}

	updates := PrepareSuccessfulLoginUpdates(cred, now)
	assert.True(t, updates.LastLoginAt.Equal(now))
	assert.Equal(t, 8, updates.LoginCount)
	assert.Equal(t, 0, updates.FailedLoginCount)
	assert.Nil(t, updates.LockoutUntil)
}
