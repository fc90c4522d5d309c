// Package repository provides PostgreSQL and MySQL persistence for principal
// lockout state.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/database"
	apperrors "github.com/allisson/authcore/internal/errors"
	principalDomain "github.com/allisson/authcore/internal/principal/domain"
)

// PostgreSQLPrincipalRepository implements principal persistence for PostgreSQL.
type PostgreSQLPrincipalRepository struct {
	db *sql.DB
}

// GetByID retrieves a principal by ID and subject type. Returns
// ErrPrincipalNotFound if the principal doesn't exist.
func (p *PostgreSQLPrincipalRepository) GetByID(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
) (*principalDomain.Principal, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, subject_type, credential_hash, failed_attempts, locked_until, created_at, updated_at
			  FROM principals
			  WHERE id = $1 AND subject_type = $2`

	var principal principalDomain.Principal
	err := querier.QueryRowContext(ctx, query, principalID, subjectType).Scan(
		&principal.ID,
		&principal.SubjectType,
		&principal.CredentialHash,
		&principal.FailedAttempts,
		&principal.LockedUntil,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, principalDomain.ErrPrincipalNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get principal")
	}

	return &principal, nil
}

// IncrementFailedAttempts atomically bumps the principal's failure counter
// and returns the new count. Returns ErrPrincipalNotFound if the principal
// doesn't exist.
func (p *PostgreSQLPrincipalRepository) IncrementFailedAttempts(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
	now time.Time,
) (int, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE principals
			  SET failed_attempts = failed_attempts + 1, updated_at = $1
			  WHERE id = $2 AND subject_type = $3
			  RETURNING failed_attempts`

	var count int
	err := querier.QueryRowContext(ctx, query, now, principalID, subjectType).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, principalDomain.ErrPrincipalNotFound
		}
		return 0, apperrors.Wrap(err, "failed to increment failed attempts")
	}

	return count, nil
}

// ResetFailedAttempts clears the failure counter and any lock.
func (p *PostgreSQLPrincipalRepository) ResetFailedAttempts(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
	now time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE principals
			  SET failed_attempts = 0, locked_until = NULL, updated_at = $1
			  WHERE id = $2 AND subject_type = $3`

	result, err := querier.ExecContext(ctx, query, now, principalID, subjectType)
	if err != nil {
		return apperrors.Wrap(err, "failed to reset failed attempts")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return principalDomain.ErrPrincipalNotFound
	}

	return nil
}

// SetLock locks the principal until the given time.
func (p *PostgreSQLPrincipalRepository) SetLock(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
	until time.Time,
	now time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE principals
			  SET locked_until = $1, updated_at = $2
			  WHERE id = $3 AND subject_type = $4`

	result, err := querier.ExecContext(ctx, query, until, now, principalID, subjectType)
	if err != nil {
		return apperrors.Wrap(err, "failed to lock principal")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return principalDomain.ErrPrincipalNotFound
	}

	return nil
}

// UnlockExpired clears locks whose window has passed, resetting the failure
// counter so the next failure starts a fresh count. Returns the number of
// principals unlocked.
func (p *PostgreSQLPrincipalRepository) UnlockExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE principals
			  SET locked_until = NULL, failed_attempts = 0, updated_at = $1
			  WHERE locked_until IS NOT NULL AND locked_until <= $1`

	result, err := querier.ExecContext(ctx, query, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to unlock expired principals")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected, nil
}

// CountLocked returns the number of principals locked at the given time.
func (p *PostgreSQLPrincipalRepository) CountLocked(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM principals WHERE locked_until IS NOT NULL AND locked_until > $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count locked principals")
	}

	return count, nil
}

// CountLockExpired returns the number of principals whose lock window has
// passed but whose lock has not been cleared yet.
func (p *PostgreSQLPrincipalRepository) CountLockExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM principals WHERE locked_until IS NOT NULL AND locked_until <= $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired locks")
	}

	return count, nil
}

// NewPostgreSQLPrincipalRepository creates a new PostgreSQL principal repository.
func NewPostgreSQLPrincipalRepository(db *sql.DB) *PostgreSQLPrincipalRepository {
	return &PostgreSQLPrincipalRepository{db: db}
}
