package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const credentialColumns = `
	id, email, password_hash, password_version, role, active,
	mfa_enabled, mfa_enabled_at, mfa_secret, mfa_backup_codes, mfa_backup_codes_used,
	failed_login_count, login_count, last_login_at, lockout_until,
	created_at, updated_at, deleted_at
`

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL credential repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

// Create creates a new credential
func (r *PostgresRepository) Create(ctx context.Context, cred Credential) (Credential, error) {
	query := `
		INSERT INTO credentials (
			id, email, password_hash, password_version, role, active, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, COALESCE($7, NOW())
		) RETURNING ` + credentialColumns

	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	var createdAt *time.Time
	if !cred.CreatedAt.IsZero() {
		createdAt = &cred.CreatedAt
	}

	row := r.pool.QueryRow(ctx, query,
		cred.ID,
		NormalizeEmail(cred.Email),
		cred.PasswordHash,
		cred.PasswordVersion,
		cred.Role,
		cred.Active,
		createdAt,
	)

	created, err := scanCredential(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Credential{}, ErrEmailTaken
		}
		return Credential{}, fmt.Errorf("failed to create credential: %w", err)
	}

	return created, nil
}

// GetByID retrieves a credential by its ID
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE id = $1
	`

	cred, err := scanCredential(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrCredentialNotFound
		}
		return Credential{}, fmt.Errorf("failed to get credential: %w", err)
	}

	return cred, nil
}

// FindByEmail retrieves a credential by email, compared case-insensitively
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE email = $1
	`

	cred, err := scanCredential(r.pool.QueryRow(ctx, query, NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrCredentialNotFound
		}
		return Credential{}, fmt.Errorf("failed to find credential by email: %w", err)
	}

	return cred, nil
}

// UpdatePassword replaces the stored hash and hash version
func (r *PostgresRepository) UpdatePassword(ctx context.Context, arg PasswordParams) error {
	query := `
		UPDATE credentials
		SET password_hash = $2,
		    password_version = $3,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, arg.ID, arg.PasswordHash, arg.PasswordVersion)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}

	return nil
}

// ApplyFailedLogin locks the row, runs compute on the current state and
// persists the resulting counter and lockout inside one transaction, so
// concurrent failures cannot lose increments.
func (r *PostgresRepository) ApplyFailedLogin(ctx context.Context, id uuid.UUID, compute func(Credential) FailureConsequences) (FailureConsequences, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return FailureConsequences{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	selectQuery := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE id = $1
		FOR UPDATE
	`

	cred, err := scanCredential(tx.QueryRow(ctx, selectQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FailureConsequences{}, ErrCredentialNotFound
		}
		return FailureConsequences{}, fmt.Errorf("failed to lock credential: %w", err)
	}

	consequences := compute(cred)

	updateQuery := `
		UPDATE credentials
		SET failed_login_count = $2,
		    lockout_until = $3,
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, updateQuery, id, consequences.FailedLoginCount, consequences.LockoutUntil); err != nil {
		return FailureConsequences{}, fmt.Errorf("failed to record login failure: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return FailureConsequences{}, fmt.Errorf("failed to commit login failure: %w", err)
	}

	return consequences, nil
}

// ApplySuccessfulLogin persists the bookkeeping of a successful login
func (r *PostgresRepository) ApplySuccessfulLogin(ctx context.Context, id uuid.UUID, upd SuccessfulLoginUpdates) error {
	query := `
		UPDATE credentials
		SET last_login_at = $2,
		    login_count = $3,
		    failed_login_count = $4,
		    lockout_until = $5,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, upd.LastLoginAt, upd.LoginCount, upd.FailedLoginCount, upd.LockoutUntil)
	if err != nil {
		return fmt.Errorf("failed to record successful login: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}

	return nil
}

// EnableMfa persists secret, backup codes and the enabled flag in one statement
func (r *PostgresRepository) EnableMfa(ctx context.Context, id uuid.UUID, enrollment MfaEnrollment) error {
	query := `
		UPDATE credentials
		SET mfa_enabled = TRUE,
		    mfa_enabled_at = $2,
		    mfa_secret = $3,
		    mfa_backup_codes = $4,
		    mfa_backup_codes_used = '{}',
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, enrollment.EnabledAt, enrollment.Secret, enrollment.BackupCodeDigests)
	if err != nil {
		return fmt.Errorf("failed to enable MFA: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}

	return nil
}

// DisableMfa clears all MFA state
func (r *PostgresRepository) DisableMfa(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE credentials
		SET mfa_enabled = FALSE,
		    mfa_enabled_at = NULL,
		    mfa_secret = '',
		    mfa_backup_codes = '{}',
		    mfa_backup_codes_used = '{}',
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to disable MFA: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}

	return nil
}

// ReplaceBackupCodes swaps the unused set and clears the used set
func (r *PostgresRepository) ReplaceBackupCodes(ctx context.Context, id uuid.UUID, digests []string) error {
	query := `
		UPDATE credentials
		SET mfa_backup_codes = $2,
		    mfa_backup_codes_used = '{}',
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, digests)
	if err != nil {
		return fmt.Errorf("failed to replace backup codes: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}

	return nil
}

// ConsumeBackupCode moves a digest from the unused to the used set in a
// single statement, so a code presented twice concurrently succeeds once.
func (r *PostgresRepository) ConsumeBackupCode(ctx context.Context, id uuid.UUID, digest string) (bool, error) {
	query := `
		UPDATE credentials
		SET mfa_backup_codes = array_remove(mfa_backup_codes, $2),
		    mfa_backup_codes_used = array_append(mfa_backup_codes_used, $2),
		    updated_at = NOW()
		WHERE id = $1
		  AND $2 = ANY(mfa_backup_codes)
	`

	result, err := r.pool.Exec(ctx, query, id, digest)
	if err != nil {
		return false, fmt.Errorf("failed to consume backup code: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetActive toggles the active flag
func (r *PostgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE credentials
		SET active = $2,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}

	return nil
}

// SoftDelete marks the account deleted; the timestamp is never cleared
func (r *PostgresRepository) SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `
		UPDATE credentials
		SET deleted_at = $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to soft delete credential: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}

	return nil
}

func scanCredential(row pgx.Row) (Credential, error) {
	var cred Credential
	var mfaEnabledAt, lastLoginAt, lockoutUntil, updatedAt, deletedAt sql.NullTime

	err := row.Scan(
		&cred.ID,
		&cred.Email,
		&cred.PasswordHash,
		&cred.PasswordVersion,
		&cred.Role,
		&cred.Active,
		&cred.MfaEnabled,
		&mfaEnabledAt,
		&cred.MfaSecret,
		&cred.MfaBackupCodes,
		&cred.MfaBackupCodesUsed,
		&cred.FailedLoginCount,
		&cred.LoginCount,
		&lastLoginAt,
		&lockoutUntil,
		&cred.CreatedAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return Credential{}, err
	}

	if mfaEnabledAt.Valid {
		cred.MfaEnabledAt = &mfaEnabledAt.Time
	}
	if lastLoginAt.Valid {
		cred.LastLoginAt = &lastLoginAt.Time
	}
	if lockoutUntil.Valid {
		cred.LockoutUntil = &lockoutUntil.Time
	}
	if updatedAt.Valid {
		cred.UpdatedAt = &updatedAt.Time
	}
	if deletedAt.Valid {
		cred.DeletedAt = &deletedAt.Time
	}

	return cred, nil
}
