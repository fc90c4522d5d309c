package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/database"
	apperrors "github.com/allisson/authcore/internal/errors"
	tokenDomain "github.com/allisson/authcore/internal/token/domain"
)

// MySQLBlacklistRepository implements BlacklistEntry persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLBlacklistRepository struct {
	db *sql.DB
}

// Create inserts a BlacklistEntry. Re-revoking the same jti is a no-op
// through INSERT IGNORE, keeping revocation idempotent. Returns true when
// this call inserted the entry.
func (m *MySQLBlacklistRepository) Create(ctx context.Context, entry *tokenDomain.BlacklistEntry) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT IGNORE INTO token_blacklist (jti, subject_id, subject_type, expires_at, reason, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	jti, err := entry.JTI.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal jti")
	}
	subjectID, err := entry.SubjectID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal subject id")
	}

	result, err := querier.ExecContext(
		ctx,
		query,
		jti,
		subjectID,
		entry.SubjectType,
		entry.ExpiresAt,
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to create blacklist entry")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected > 0, nil
}

// Exists reports whether the jti is blacklisted at the given time. Expired
// entries are ignored so stale rows awaiting cleanup never deny a token that
// has already aged out on its own.
func (m *MySQLBlacklistRepository) Exists(ctx context.Context, jti uuid.UUID, now time.Time) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT EXISTS(SELECT 1 FROM token_blacklist WHERE jti = ? AND expires_at > ?)`

	jtiBytes, err := jti.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal jti")
	}

	var exists bool
	if err := querier.QueryRowContext(ctx, query, jtiBytes, now).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check blacklist entry")
	}

	return exists, nil
}

// DeleteExpired removes blacklist entries that expired before the given time.
// Returns the number of rows deleted.
func (m *MySQLBlacklistRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM token_blacklist WHERE expires_at < ?`

	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired blacklist entries")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected, nil
}

// CountExpired returns the number of blacklist entries that expired before
// the given time without deleting anything.
func (m *MySQLBlacklistRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM token_blacklist WHERE expires_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, before).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired blacklist entries")
	}

	return count, nil
}

// NewMySQLBlacklistRepository creates a new MySQL BlacklistEntry repository.
func NewMySQLBlacklistRepository(db *sql.DB) *MySQLBlacklistRepository {
	return &MySQLBlacklistRepository{db: db}
}
