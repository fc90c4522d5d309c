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

// PostgreSQLBlacklistRepository implements BlacklistEntry persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLBlacklistRepository struct {
	db *sql.DB
}

// Create inserts a BlacklistEntry. Re-revoking the same jti is a no-op
// through ON CONFLICT, keeping revocation idempotent. Returns true when this
// call inserted the entry.
func (p *PostgreSQLBlacklistRepository) Create(ctx context.Context, entry *tokenDomain.BlacklistEntry) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO token_blacklist (jti, subject_id, subject_type, expires_at, reason, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (jti) DO NOTHING`

	result, err := querier.ExecContext(
		ctx,
		query,
		entry.JTI,
		entry.SubjectID,
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
func (p *PostgreSQLBlacklistRepository) Exists(ctx context.Context, jti uuid.UUID, now time.Time) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT EXISTS(SELECT 1 FROM token_blacklist WHERE jti = $1 AND expires_at > $2)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, jti, now).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check blacklist entry")
	}

	return exists, nil
}

// DeleteExpired removes blacklist entries that expired before the given time.
// Returns the number of rows deleted.
func (p *PostgreSQLBlacklistRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM token_blacklist WHERE expires_at < $1`

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
func (p *PostgreSQLBlacklistRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM token_blacklist WHERE expires_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, before).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired blacklist entries")
	}

	return count, nil
}

// NewPostgreSQLBlacklistRepository creates a new PostgreSQL BlacklistEntry repository.
func NewPostgreSQLBlacklistRepository(db *sql.DB) *PostgreSQLBlacklistRepository {
	return &PostgreSQLBlacklistRepository{db: db}
}
