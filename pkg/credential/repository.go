package credential

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for credential repositories
var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrEmailTaken         = errors.New("email already registered")
)

// PasswordParams carries a password hash update.
type PasswordParams struct {
	ID              uuid.UUID
	PasswordHash    string
	PasswordVersion int32
}

// MfaEnrollment carries the state persisted when MFA enrollment succeeds.
type MfaEnrollment struct {
	Secret            string
	BackupCodeDigests []string
	EnabledAt         time.Time
}

// Repository defines credential persistence. Implementations must enforce
// unique email (case-insensitive) and the atomicity guarantees documented on
// ApplyFailedLogin and ConsumeBackupCode.
type Repository interface {
	Create(ctx context.Context, cred Credential) (Credential, error)
	GetByID(ctx context.Context, id uuid.UUID) (Credential, error)
	FindByEmail(ctx context.Context, email string) (Credential, error)

	// UpdatePassword replaces the stored hash and version.
	UpdatePassword(ctx context.Context, arg PasswordParams) error

	// ApplyFailedLogin runs compute against the current row under the store's
	// write lock and persists FailedLoginCount and LockoutUntil from the
	// result. Two concurrent callers never observe the same starting count.
	ApplyFailedLogin(ctx context.Context, id uuid.UUID, compute func(Credential) FailureConsequences) (FailureConsequences, error)

	// ApplySuccessfulLogin persists the bookkeeping of a successful login.
	ApplySuccessfulLogin(ctx context.Context, id uuid.UUID, upd SuccessfulLoginUpdates) error

	// EnableMfa persists secret, backup-code digests and the enabled flag in
	// one write; DisableMfa clears all of them.
	EnableMfa(ctx context.Context, id uuid.UUID, enrollment MfaEnrollment) error
	DisableMfa(ctx context.Context, id uuid.UUID) error

	// ReplaceBackupCodes swaps the unused backup-code set and clears the used
	// set.
	ReplaceBackupCodes(ctx context.Context, id uuid.UUID, digests []string) error

	// ConsumeBackupCode atomically moves digest from the unused to the used
	// set. It returns false when the digest is absent or already consumed;
	// two concurrent calls for the same digest cannot both return true.
	ConsumeBackupCode(ctx context.Context, id uuid.UUID, digest string) (bool, error)

	// SetActive toggles the account's active flag; SoftDelete marks the
	// account permanently non-authenticatable.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error
}
