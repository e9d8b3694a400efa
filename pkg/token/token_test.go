package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verisafe/authcore/pkg/config"
	"github.com/verisafe/authcore/pkg/credential"
)

func testIssuer(t *testing.T, secret string) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(config.JwtConfig{
		Secret:            secret,
		Issuer:            "authcore",
		Audience:          "authcore",
		AccessTokenExpiry: "PT1H",
	})
	require.NoError(t, err)
	return issuer
}

func testCredential() credential.Credential {
	return credential.Credential{
		ID:    uuid.New(),
		Email: "user@example.com",
		Role:  "member",
	}
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	issuer := testIssuer(t, "test-signing-secret")
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cred := testCredential()

	tokenStr, expiresAt, err := issuer.Issue(cred, time.Hour, now)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(now.Add(time.Hour)))

	claims, err := issuer.Verify(tokenStr, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, cred.ID.String(), claims.Subject)
	assert.Equal(t, cred.Email, claims.Email)
	assert.Equal(t, cred.Role, claims.Role)

	subject, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, cred.ID, subject)
}

func TestIssuer_Verify_Failures(t *testing.T) {
	issuer := testIssuer(t, "test-signing-secret")
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cred := testCredential()

	tokenStr, _, err := issuer.Issue(cred, time.Hour, now)
	require.NoError(t, err)

	t.Run("expired token is distinguishable", func(t *testing.T) {
		_, err := issuer.Verify(tokenStr, now.Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("tampered token", func(t *testing.T) {
		tampered := tokenStr[:len(tokenStr)-4] + "AAAA"
		_, err := issuer.Verify(tampered, now)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := testIssuer(t, "a-different-secret")
		_, err := other.Verify(tokenStr, now)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("malformed structure", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token", now)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("unsigned token is rejected", func(t *testing.T) {
		_, err := issuer.Verify("eyJhbGciOiJub25lIn0.eyJzdWIiOiJ4In0.", now)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer(config.JwtConfig{
		Issuer:            "authcore",
		Audience:          "authcore",
		AccessTokenExpiry: "PT1H",
	})
	assert.Error(t, err)
}
