package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/verisafe/authcore/pkg/config"
	"github.com/verisafe/authcore/pkg/credential"
)

// ErrCurrentPasswordMismatch is returned by ChangePassword when the
// reconfirmation password does not match the stored hash.
var ErrCurrentPasswordMismatch = errors.New("current password is incorrect")

// PasswordManager ties the hasher factory, the complexity policy and the
// credential store together for hashing, verification and upgrade-on-login.
type PasswordManager struct {
	repo    credential.Repository
	factory *HasherFactory
	policy  config.PasswordPolicyConfig
}

// NewPasswordManager creates a PasswordManager with all hash versions
// registered.
func NewPasswordManager(repo credential.Repository, policy config.PasswordPolicyConfig) *PasswordManager {
	return &PasswordManager{
		repo:    repo,
		factory: NewHasherFactory(),
		policy:  policy,
	}
}

// HashPassword hashes a password with the current scheme version.
func (pm *PasswordManager) HashPassword(password string) (string, PasswordVersion, error) {
	hasher := pm.factory.GetCurrentHasher()
	digest, err := hasher.Hash(password)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash password: %w", err)
	}
	return digest, hasher.Version(), nil
}

// CheckPolicy evaluates a candidate password against the configured
// complexity policy without touching storage.
func (pm *PasswordManager) CheckPolicy(password string) PolicyCheck {
	return MeetsPasswordPolicy(password, pm.policy)
}

// VerifyPassword checks a password against a digest produced by the given
// scheme version.
func (pm *PasswordManager) VerifyPassword(password, digest string, version PasswordVersion) (bool, error) {
	hasher, err := pm.factory.GetHasher(version)
	if err != nil {
		return false, err
	}
	return hasher.Verify(password, digest)
}

// AuthenticateAndUpgrade verifies a password and, when it was hashed with an
// older scheme, re-hashes it with the current one and stores the result. The
// upgrade is best-effort: a failed rewrite is logged and authentication still
// succeeds.
func (pm *PasswordManager) AuthenticateAndUpgrade(ctx context.Context, id uuid.UUID, password, digest string, version PasswordVersion) (bool, error) {
	match, err := pm.VerifyPassword(password, digest, version)
	if err != nil || !match {
		return match, err
	}

	if version != CurrentPasswordVersion {
		newDigest, newVersion, err := pm.HashPassword(password)
		if err != nil {
			slog.Error("Failed to re-hash password for upgrade", "err", err)
			return true, nil
		}
		err = pm.repo.UpdatePassword(ctx, credential.PasswordParams{
			ID:              id,
			PasswordHash:    newDigest,
			PasswordVersion: int32(newVersion),
		})
		if err != nil {
			slog.Error("Failed to store upgraded password hash", "err", err)
			return true, nil
		}
		slog.Info("Upgraded password hash version", "from", version, "to", newVersion)
	}

	return true, nil
}

// ChangePassword verifies the current password, checks the new one against
// the complexity policy and stores its hash.
func (pm *PasswordManager) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) (PolicyCheck, error) {
	cred, err := pm.repo.GetByID(ctx, id)
	if err != nil {
		return PolicyCheck{}, fmt.Errorf("failed to load credential: %w", err)
	}

	match, err := pm.VerifyPassword(currentPassword, cred.PasswordHash, PasswordVersion(cred.PasswordVersion))
	if err != nil {
		return PolicyCheck{}, fmt.Errorf("failed to verify current password: %w", err)
	}
	if !match {
		return PolicyCheck{}, ErrCurrentPasswordMismatch
	}

	check := MeetsPasswordPolicy(newPassword, pm.policy)
	if !check.Valid {
		return check, nil
	}

	digest, version, err := pm.HashPassword(newPassword)
	if err != nil {
		return PolicyCheck{}, err
	}

	err = pm.repo.UpdatePassword(ctx, credential.PasswordParams{
		ID:              id,
		PasswordHash:    digest,
		PasswordVersion: int32(version),
	})
	if err != nil {
		return PolicyCheck{}, fmt.Errorf("failed to update password: %w", err)
	}

	return check, nil
}
