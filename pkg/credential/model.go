package credential

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Credential is the per-account authentication record, globally unique by
// email. PasswordHash, MfaSecret and the backup-code digests are secrets and
// must never appear in logs or audit metadata.
type Credential struct {
	ID              uuid.UUID
	Email           string
	PasswordHash    string
	PasswordVersion int32
	Role            string
	Active          bool

	MfaEnabled         bool
	MfaEnabledAt       *time.Time
	MfaSecret          string
	MfaBackupCodes     []string // SHA-256 digests of unused backup codes
	MfaBackupCodesUsed []string // digests of consumed codes, disjoint from MfaBackupCodes

	FailedLoginCount int
	LoginCount       int
	LastLoginAt      *time.Time
	LockoutUntil     *time.Time

	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
}

// Deleted reports whether the account is soft-deleted. A deleted account is
// permanently non-authenticatable regardless of Active.
func (c Credential) Deleted() bool {
	return c.DeletedAt != nil
}

// NormalizeEmail lowercases and trims an email for case-insensitive lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SuccessfulLoginUpdates carries the fields a successful login writes back to
// the credential record.
type SuccessfulLoginUpdates struct {
	LastLoginAt      time.Time
	LoginCount       int
	FailedLoginCount int
	LockoutUntil     *time.Time
}

// FailureConsequences carries the fields a failed login writes back, plus the
// alert flag which is observed but not persisted.
type FailureConsequences struct {
	FailedLoginCount int
	LockoutUntil     *time.Time
	ShouldAlert      bool
}
