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

// MySQLPrincipalRepository implements principal persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLPrincipalRepository struct {
	db *sql.DB
}

// GetByID retrieves a principal by ID and subject type. Returns
// ErrPrincipalNotFound if the principal doesn't exist.
func (m *MySQLPrincipalRepository) GetByID(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
) (*principalDomain.Principal, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, subject_type, credential_hash, failed_attempts, locked_until, created_at, updated_at
			  FROM principals
			  WHERE id = ? AND subject_type = ?`

	id, err := principalID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal principal id")
	}

	var principal principalDomain.Principal
	var idBytes []byte
	err = querier.QueryRowContext(ctx, query, id, subjectType).Scan(
		&idBytes,
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

	principal.ID, err = uuid.FromBytes(idBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal principal id")
	}

	return &principal, nil
}

// IncrementFailedAttempts atomically bumps the principal's failure counter
// and returns the new count. The LAST_INSERT_ID trick surfaces the new value
// without a second round trip. Returns ErrPrincipalNotFound if the principal
// doesn't exist.
func (m *MySQLPrincipalRepository) IncrementFailedAttempts(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
	now time.Time,
) (int, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE principals
			  SET failed_attempts = LAST_INSERT_ID(failed_attempts + 1), updated_at = ?
			  WHERE id = ? AND subject_type = ?`

	id, err := principalID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal principal id")
	}

	result, err := querier.ExecContext(ctx, query, now, id, subjectType)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to increment failed attempts")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return 0, principalDomain.ErrPrincipalNotFound
	}

	count, err := result.LastInsertId()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get failed attempt count")
	}

	return int(count), nil
}

// ResetFailedAttempts clears the failure counter and any lock.
func (m *MySQLPrincipalRepository) ResetFailedAttempts(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
	now time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE principals
			  SET failed_attempts = 0, locked_until = NULL, updated_at = ?
			  WHERE id = ? AND subject_type = ?`

	id, err := principalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	result, err := querier.ExecContext(ctx, query, now, id, subjectType)
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
func (m *MySQLPrincipalRepository) SetLock(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
	until time.Time,
	now time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE principals
			  SET locked_until = ?, updated_at = ?
			  WHERE id = ? AND subject_type = ?`

	id, err := principalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}

	result, err := querier.ExecContext(ctx, query, until, now, id, subjectType)
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
func (m *MySQLPrincipalRepository) UnlockExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE principals
			  SET locked_until = NULL, failed_attempts = 0, updated_at = ?
			  WHERE locked_until IS NOT NULL AND locked_until <= ?`

	result, err := querier.ExecContext(ctx, query, now, now)
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
func (m *MySQLPrincipalRepository) CountLocked(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM principals WHERE locked_until IS NOT NULL AND locked_until > ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count locked principals")
	}

	return count, nil
}

// CountLockExpired returns the number of principals whose lock window has
// passed but whose lock has not been cleared yet.
func (m *MySQLPrincipalRepository) CountLockExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM principals WHERE locked_until IS NOT NULL AND locked_until <= ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired locks")
	}

	return count, nil
}

// NewMySQLPrincipalRepository creates a new MySQL principal repository.
func NewMySQLPrincipalRepository(db *sql.DB) *MySQLPrincipalRepository {
	return &MySQLPrincipalRepository{db: db}
}
