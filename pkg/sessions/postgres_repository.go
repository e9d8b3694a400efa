package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL session repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

// Create persists a new session
func (r *PostgresRepository) Create(ctx context.Context, session Session) (Session, error) {
	query := `
		INSERT INTO sessions (
			id, user_id, token, created_at, expires_at, ip_address, user_agent
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING
			id, user_id, token, created_at, expires_at,
			last_accessed_at, revoked_at, ip_address, user_agent
	`

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	created, err := scanSession(r.pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.CreatedAt,
		session.ExpiresAt,
		session.IPAddress,
		session.UserAgent,
	))
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	return created, nil
}

// GetByID retrieves a session regardless of liveness
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Session, error) {
	query := `
		SELECT
			id, user_id, token, created_at, expires_at,
			last_accessed_at, revoked_at, ip_address, user_agent
		FROM sessions
		WHERE id = $1
	`

	session, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// TouchLive returns the live session for token, updating last_accessed_at in
// the same statement so a concurrent revoke resolves cleanly either way.
func (r *PostgresRepository) TouchLive(ctx context.Context, token string, now time.Time) (Session, error) {
	query := `
		UPDATE sessions
		SET last_accessed_at = $2
		WHERE token = $1
		  AND revoked_at IS NULL
		  AND expires_at > $2
		RETURNING
			id, user_id, token, created_at, expires_at,
			last_accessed_at, revoked_at, ip_address, user_agent
	`

	session, err := scanSession(r.pool.QueryRow(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("failed to look up session: %w", err)
	}

	return session, nil
}

// Revoke transitions the live session for token to revoked
func (r *PostgresRepository) Revoke(ctx context.Context, token string, now time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET revoked_at = $2
		WHERE token = $1
		  AND revoked_at IS NULL
		  AND expires_at > $2
	`

	result, err := r.pool.Exec(ctx, query, token, now)
	if err != nil {
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// RevokeAllForUser revokes every live session for the user
func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	query := `
		UPDATE sessions
		SET revoked_at = $2
		WHERE user_id = $1
		  AND revoked_at IS NULL
		  AND expires_at > $2
	`

	result, err := r.pool.Exec(ctx, query, userID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke all sessions: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// ListActiveByUserID lists the user's live sessions
func (r *PostgresRepository) ListActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error) {
	query := `
		SELECT
			id, user_id, token, created_at, expires_at,
			last_accessed_at, revoked_at, ip_address, user_agent
		FROM sessions
		WHERE user_id = $1
		  AND revoked_at IS NULL
		  AND expires_at > $2
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	defer rows.Close()

	var active []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		active = append(active, session)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", rows.Err())
	}

	return active, nil
}

// CountActiveByUserID counts the user's live sessions
func (r *PostgresRepository) CountActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM sessions
		WHERE user_id = $1
		  AND revoked_at IS NULL
		  AND expires_at > $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, userID, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}

	return count, nil
}

// DeleteExpired physically removes sessions expired before the cutoff
func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	query := `
		DELETE FROM sessions
		WHERE expires_at < $1
	`

	result, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// DeleteOldRevoked physically removes sessions revoked before the cutoff
func (r *PostgresRepository) DeleteOldRevoked(ctx context.Context, before time.Time) (int, error) {
	query := `
		DELETE FROM sessions
		WHERE revoked_at IS NOT NULL
		  AND revoked_at < $1
	`

	result, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old revoked sessions: %w", err)
	}

	return int(result.RowsAffected()), nil
}

func scanSession(row pgx.Row) (Session, error) {
	var session Session
	var lastAccessedAt, revokedAt sql.NullTime

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.CreatedAt,
		&session.ExpiresAt,
		&lastAccessedAt,
		&revokedAt,
		&session.IPAddress,
		&session.UserAgent,
	)
	if err != nil {
		return Session{}, err
	}

	if lastAccessedAt.Valid {
		session.LastAccessedAt = &lastAccessedAt.Time
	}
	if revokedAt.Valid {
		session.RevokedAt = &revokedAt.Time
	}

	return session, nil
}
