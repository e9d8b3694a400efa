package credential

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository using in-memory storage. All
// mutations run under a single write lock, which provides the atomic
// read-modify-write guarantees the interface requires.
type InMemoryRepository struct {
	mu          sync.RWMutex
	credentials map[uuid.UUID]Credential
	idsByEmail  map[string]uuid.UUID
}

// NewInMemoryRepository creates an empty in-memory credential repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		credentials: make(map[uuid.UUID]Credential),
		idsByEmail:  make(map[string]uuid.UUID),
	}
}

// Create adds a credential, enforcing unique email.
func (r *InMemoryRepository) Create(ctx context.Context, cred Credential) (Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(cred.Email)
	if _, taken := r.idsByEmail[email]; taken {
		return Credential{}, ErrEmailTaken
	}

	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	cred.Email = email
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	r.credentials[cred.ID] = cred
	r.idsByEmail[email] = cred.ID
	return copyCredential(cred), nil
}

// GetByID returns a credential by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.credentials[id]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return copyCredential(cred), nil
}

// FindByEmail returns a credential by email, compared case-insensitively.
func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.idsByEmail[NormalizeEmail(email)]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return copyCredential(r.credentials[id]), nil
}

// UpdatePassword replaces the stored hash and version.
func (r *InMemoryRepository) UpdatePassword(ctx context.Context, arg PasswordParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.credentials[arg.ID]
	if !ok {
		return ErrCredentialNotFound
	}
	cred.PasswordHash = arg.PasswordHash
	cred.PasswordVersion = arg.PasswordVersion
	touch(&cred)
	r.credentials[arg.ID] = cred
	return nil
}

// ApplyFailedLogin runs compute and persists the result under the write lock.
func (r *InMemoryRepository) ApplyFailedLogin(ctx context.Context, id uuid.UUID, compute func(Credential) FailureConsequences) (FailureConsequences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.credentials[id]
	if !ok {
		return FailureConsequences{}, ErrCredentialNotFound
	}

	consequences := compute(copyCredential(cred))
	cred.FailedLoginCount = consequences.FailedLoginCount
	cred.LockoutUntil = consequences.LockoutUntil
	touch(&cred)
	r.credentials[id] = cred
	return consequences, nil
}

// ApplySuccessfulLogin persists the bookkeeping of a successful login.
func (r *InMemoryRepository) ApplySuccessfulLogin(ctx context.Context, id uuid.UUID, upd SuccessfulLoginUpdates) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.credentials[id]
	if !ok {
		return ErrCredentialNotFound
	}
	lastLogin := upd.LastLoginAt
	cred.LastLoginAt = &lastLogin
	cred.LoginCount = upd.LoginCount
	cred.FailedLoginCount = upd.FailedLoginCount
	cred.LockoutUntil = upd.LockoutUntil
	touch(&cred)
	r.credentials[id] = cred
	return nil
}

// EnableMfa persists secret, backup codes and the enabled flag atomically.
func (r *InMemoryRepository) EnableMfa(ctx context.Context, id uuid.UUID, enrollment MfaEnrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.credentials[id]
	if !ok {
		return ErrCredentialNotFound
	}
	enabledAt := enrollment.EnabledAt
	cred.MfaEnabled = true
	cred.MfaEnabledAt = &enabledAt
	cred.MfaSecret = enrollment.Secret
	cred.MfaBackupCodes = slices.Clone(enrollment.BackupCodeDigests)
	cred.MfaBackupCodesUsed = nil
	touch(&cred)
	r.credentials[id] = cred
	return nil
}

// DisableMfa clears all MFA state.
func (r *InMemoryRepository) DisableMfa(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.credentials[id]
	if !ok {
		return ErrCredentialNotFound
	}
	cred.MfaEnabled = false
	cred.MfaEnabledAt = nil
	cred.MfaSecret = ""
	cred.MfaBackupCodes = nil
	cred.MfaBackupCodesUsed = nil
	touch(&cred)
	r.credentials[id] = cred
	return nil
}

// ReplaceBackupCodes swaps the unused set and clears the used set.
func (r *InMemoryRepository) ReplaceBackupCodes(ctx context.Context, id uuid.UUID, digests []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.credentials[id]
	if !ok {
		return ErrCredentialNotFound
	}
	cred.MfaBackupCodes = slices.Clone(digests)
	cred.MfaBackupCodesUsed = nil
	touch(&cred)
	r.credentials[id] = cred
	return nil
}

// ConsumeBackupCode atomically moves a digest from unused to used.
func (r *InMemoryRepository) ConsumeBackupCode(ctx context.Context, id uuid.UUID, digest string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.credentials[id]
	if !ok {
		return false, ErrCredentialNotFound
	}

	idx := slices.Index(cred.MfaBackupCodes, digest)
	if idx < 0 {
		return false, nil
	}
	cred.MfaBackupCodes = slices.Delete(slices.Clone(cred.MfaBackupCodes), idx, idx+1)
	cred.MfaBackupCodesUsed = append(slices.Clone(cred.MfaBackupCodesUsed), digest)
	touch(&cred)
	r.credentials[id] = cred
	return true, nil
}

// SetActive toggles the active flag.
func (r *InMemoryRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.credentials[id]
	if !ok {
		return ErrCredentialNotFound
	}
	cred.Active = active
	touch(&cred)
	r.credentials[id] = cred
	return nil
}

// SoftDelete marks the account deleted. The deletion timestamp is an
// independent, stronger veto than Active; it is never cleared.
func (r *InMemoryRepository) SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.credentials[id]
	if !ok {
		return ErrCredentialNotFound
	}
	deletedAt := now
	cred.DeletedAt = &deletedAt
	touch(&cred)
	r.credentials[id] = cred
	return nil
}

func touch(cred *Credential) {
	now := time.Now().UTC()
	cred.UpdatedAt = &now
}

// copyCredential deep-copies the slice fields so callers cannot mutate stored
// state through a returned value.
func copyCredential(cred Credential) Credential {
	cred.MfaBackupCodes = slices.Clone(cred.MfaBackupCodes)
	cred.MfaBackupCodesUsed = slices.Clone(cred.MfaBackupCodesUsed)
	return cred
}
