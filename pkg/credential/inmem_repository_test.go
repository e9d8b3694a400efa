package credential

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCredential(t *testing.T, repo *InMemoryRepository) Credential {
	t.Helper()
	cred, err := repo.Create(context.Background(), Credential{
		Email:           "user@example.com",
		PasswordHash:    "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		PasswordVersion: 3,
		Role:            "member",
		Active:          true,
	})
	require.NoError(t, err)
	return cred
}

func TestInMemoryRepository_Create(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	t.Run("assigns id and stores normalized email", func(t *testing.T) {
		cred, err := repo.Create(ctx, Credential{Email: " New@Example.COM ", Active: true})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, cred.ID)
		assert.Equal(t, "new@example.com", cred.Email)
		assert.False(t, cred.CreatedAt.IsZero())
	})

	t.Run("rejects duplicate email regardless of case", func(t *testing.T) {
		_, err := repo.Create(ctx, Credential{Email: "NEW@example.com"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestInMemoryRepository_Lookup(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	cred := seedCredential(t, repo)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		assert.Equal(t, cred.Email, got.Email)
	})

	t.Run("find by email is case-insensitive", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "USER@Example.com")
		require.NoError(t, err)
		assert.Equal(t, cred.ID, got.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrCredentialNotFound)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, ErrCredentialNotFound)
	})

	t.Run("returned value does not alias stored state", func(t *testing.T) {
		require.NoError(t, repo.ReplaceBackupCodes(ctx, cred.ID, []string{"d1", "d2"}))
		got, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		got.MfaBackupCodes[0] = "tampered"

		again, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		assert.Equal(t, "d1", again.MfaBackupCodes[0])
	})
}

func TestInMemoryRepository_ApplyFailedLogin(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	cred := seedCredential(t, repo)

	t.Run("persists computed counter and lockout", func(t *testing.T) {
		until := time.Now().Add(30 * time.Minute).UTC()
		consequences, err := repo.ApplyFailedLogin(ctx, cred.ID, func(c Credential) FailureConsequences {
			return FailureConsequences{FailedLoginCount: c.FailedLoginCount + 1, LockoutUntil: &until}
		})
		require.NoError(t, err)
		assert.Equal(t, 1, consequences.FailedLoginCount)

		got, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.FailedLoginCount)
		require.NotNil(t, got.LockoutUntil)
		assert.True(t, got.LockoutUntil.Equal(until))
	})

	t.Run("concurrent failures never lose increments", func(t *testing.T) {
		fresh := NewInMemoryRepository()
		target := seedCredential(t, fresh)

		const attempts = 50
		var wg sync.WaitGroup
		wg.Add(attempts)
		for i := 0; i < attempts; i++ {
			go func() {
				defer wg.Done()
				_, err := fresh.ApplyFailedLogin(ctx, target.ID, func(c Credential) FailureConsequences {
					return FailureConsequences{FailedLoginCount: c.FailedLoginCount + 1}
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := fresh.GetByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, attempts, got.FailedLoginCount)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.ApplyFailedLogin(ctx, uuid.New(), func(c Credential) FailureConsequences {
			return FailureConsequences{}
		})
		assert.ErrorIs(t, err, ErrCredentialNotFound)
	})
}

func TestInMemoryRepository_ApplySuccessfulLogin(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	cred := seedCredential(t, repo)

	until := time.Now().Add(time.Minute)
	_, err := repo.ApplyFailedLogin(ctx, cred.ID, func(c Credential) FailureConsequences {
		return FailureConsequences{FailedLoginCount: 3, LockoutUntil: &until}
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	err = repo.ApplySuccessfulLogin(ctx, cred.ID, SuccessfulLoginUpdates{
		LastLoginAt: now,
		LoginCount:  1,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedLoginCount)
	assert.Nil(t, got.LockoutUntil)
	assert.Equal(t, 1, got.LoginCount)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(now))
}

func TestInMemoryRepository_Mfa(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	cred := seedCredential(t, repo)

	enabledAt := time.Now().UTC()
	require.NoError(t, repo.EnableMfa(ctx, cred.ID, MfaEnrollment{
		Secret:            "JBSWY3DPEHPK3PXP",
		BackupCodeDigests: []string{"d1", "d2", "d3"},
		EnabledAt:         enabledAt,
	}))

	t.Run("enable persists full enrollment", func(t *testing.T) {
		got, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		assert.True(t, got.MfaEnabled)
		require.NotNil(t, got.MfaEnabledAt)
		assert.Equal(t, "JBSWY3DPEHPK3PXP", got.MfaSecret)
		assert.Equal(t, []string{"d1", "d2", "d3"}, got.MfaBackupCodes)
		assert.Empty(t, got.MfaBackupCodesUsed)
	})

	t.Run("consume moves digest to used set", func(t *testing.T) {
		ok, err := repo.ConsumeBackupCode(ctx, cred.ID, "d2")
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"d1", "d3"}, got.MfaBackupCodes)
		assert.Equal(t, []string{"d2"}, got.MfaBackupCodesUsed)
	})

	t.Run("consumed digest cannot be consumed again", func(t *testing.T) {
		ok, err := repo.ConsumeBackupCode(ctx, cred.ID, "d2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("concurrent consume of one digest succeeds exactly once", func(t *testing.T) {
		const goroutines = 20
		var wg sync.WaitGroup
		wins := make(chan bool, goroutines)
		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				ok, err := repo.ConsumeBackupCode(ctx, cred.ID, "d3")
				assert.NoError(t, err)
				if ok {
					wins <- true
				}
			}()
		}
		wg.Wait()
		close(wins)
		assert.Len(t, wins, 1)
	})

	t.Run("replace resets both sets", func(t *testing.T) {
		require.NoError(t, repo.ReplaceBackupCodes(ctx, cred.ID, []string{"e1", "e2"}))
		got, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"e1", "e2"}, got.MfaBackupCodes)
		assert.Empty(t, got.MfaBackupCodesUsed)
	})

	t.Run("disable clears all MFA state", func(t *testing.T) {
		require.NoError(t, repo.DisableMfa(ctx, cred.ID))
		got, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		assert.False(t, got.MfaEnabled)
		assert.Nil(t, got.MfaEnabledAt)
		assert.Empty(t, got.MfaSecret)
		assert.Empty(t, got.MfaBackupCodes)
		assert.Empty(t, got.MfaBackupCodesUsed)
	})
}

func TestInMemoryRepository_Lifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	cred := seedCredential(t, repo)

	t.Run("update password", func(t *testing.T) {
		err := repo.UpdatePassword(ctx, PasswordParams{
			ID:              cred.ID,
			PasswordHash:    "newhash",
			PasswordVersion: 3,
		})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		assert.Equal(t, "newhash", got.PasswordHash)
		assert.Equal(t, int32(3), got.PasswordVersion)
	})

	t.Run("set active", func(t *testing.T) {
		require.NoError(t, repo.SetActive(ctx, cred.ID, false))
		got, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})

	t.Run("soft delete", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, repo.SoftDelete(ctx, cred.ID, now))
		got, err := repo.GetByID(ctx, cred.ID)
		require.NoError(t, err)
		assert.True(t, got.Deleted())
		require.NotNil(t, got.DeletedAt)
		assert.True(t, got.DeletedAt.Equal(now))
	})
}
