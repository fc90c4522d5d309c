// Package repository provides PostgreSQL and MySQL persistence for refresh
// tokens and the access token blacklist.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/database"
	apperrors "github.com/allisson/authcore/internal/errors"
	tokenDomain "github.com/allisson/authcore/internal/token/domain"
)

// PostgreSQLRefreshTokenRepository implements RefreshToken persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLRefreshTokenRepository struct {
	db *sql.DB
}

// Create inserts a new RefreshToken into the PostgreSQL database.
func (p *PostgreSQLRefreshTokenRepository) Create(ctx context.Context, token *tokenDomain.RefreshToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO refresh_tokens
			  (id, subject_id, subject_type, token_hash, jti, expires_at, is_used, last_used_at, ip_address, user_agent, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.SubjectID,
		token.SubjectType,
		token.TokenHash,
		token.JTI,
		token.ExpiresAt,
		token.IsUsed,
		token.LastUsedAt,
		token.IPAddress,
		token.UserAgent,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

// Get retrieves a RefreshToken by ID. Returns ErrRefreshTokenNotFound if the
// token doesn't exist.
func (p *PostgreSQLRefreshTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*tokenDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, subject_id, subject_type, token_hash, jti, expires_at, is_used, last_used_at, ip_address, user_agent, created_at
			  FROM refresh_tokens WHERE id = $1`

	var token tokenDomain.RefreshToken

	err := querier.QueryRowContext(ctx, query, tokenID).Scan(
		&token.ID,
		&token.SubjectID,
		&token.SubjectType,
		&token.TokenHash,
		&token.JTI,
		&token.ExpiresAt,
		&token.IsUsed,
		&token.LastUsedAt,
		&token.IPAddress,
		&token.UserAgent,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tokenDomain.ErrRefreshTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}

	return &token, nil
}

// ListActive retrieves all unused, unexpired refresh tokens at the given time,
// ordered from newest to oldest so recent credentials are matched first.
func (p *PostgreSQLRefreshTokenRepository) ListActive(ctx context.Context, now time.Time) ([]*tokenDomain.RefreshToken, error) {
	query := `SELECT id, subject_id, subject_type, token_hash, jti, expires_at, is_used, last_used_at, ip_address, user_agent, created_at
			  FROM refresh_tokens
			  WHERE is_used = false AND expires_at > $1
			  ORDER BY created_at DESC`

	return p.list(ctx, query, now)
}

// ListActiveBySubject retrieves the subject's unused, unexpired refresh tokens
// at the given time, ordered from newest to oldest.
func (p *PostgreSQLRefreshTokenRepository) ListActiveBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	now time.Time,
) ([]*tokenDomain.RefreshToken, error) {
	query := `SELECT id, subject_id, subject_type, token_hash, jti, expires_at, is_used, last_used_at, ip_address, user_agent, created_at
			  FROM refresh_tokens
			  WHERE subject_id = $1 AND subject_type = $2 AND is_used = false AND expires_at > $3
			  ORDER BY created_at DESC`

	return p.list(ctx, query, subjectID, subjectType, now)
}

// Consume atomically marks a refresh token as used. The condition on is_used
// and expires_at makes the exchange single-use: a replayed or expired token
// matches zero rows. Returns true only when this call performed the consume.
func (p *PostgreSQLRefreshTokenRepository) Consume(
	ctx context.Context,
	tokenID uuid.UUID,
	usedAt time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE refresh_tokens
			  SET is_used = true, last_used_at = $1
			  WHERE id = $2 AND is_used = false AND expires_at > $3`

	result, err := querier.ExecContext(ctx, query, usedAt, tokenID, usedAt)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to consume refresh token")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected == 1, nil
}

// MarkAllUsedBySubject marks all of the subject's active refresh tokens as
// used. Returns the number of tokens revoked.
func (p *PostgreSQLRefreshTokenRepository) MarkAllUsedBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	usedAt time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE refresh_tokens
			  SET is_used = true, last_used_at = $1
			  WHERE subject_id = $2 AND subject_type = $3 AND is_used = false`

	result, err := querier.ExecContext(ctx, query, usedAt, subjectID, subjectType)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to mark refresh tokens as used")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected, nil
}

// DeleteExpired removes refresh tokens that expired before the given time.
// Returns the number of rows deleted.
func (p *PostgreSQLRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected, nil
}

// DeleteUsedBefore removes consumed refresh tokens whose last use was before
// the given cutoff. Returns the number of rows deleted.
func (p *PostgreSQLRefreshTokenRepository) DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM refresh_tokens WHERE is_used = true AND last_used_at < $1`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete used refresh tokens")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected, nil
}

// CountExpired returns the number of refresh tokens that expired before the
// given time without deleting anything.
func (p *PostgreSQLRefreshTokenRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM refresh_tokens WHERE expires_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, before).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired refresh tokens")
	}

	return count, nil
}

// CountUsedBefore returns the number of consumed refresh tokens last used
// before the cutoff without deleting anything.
func (p *PostgreSQLRefreshTokenRepository) CountUsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM refresh_tokens WHERE is_used = true AND last_used_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count used refresh tokens")
	}

	return count, nil
}

func (p *PostgreSQLRefreshTokenRepository) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]*tokenDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list refresh tokens")
	}
	defer rows.Close()

	var tokens []*tokenDomain.RefreshToken
	for rows.Next() {
		var token tokenDomain.RefreshToken
		if err := rows.Scan(
			&token.ID,
			&token.SubjectID,
			&token.SubjectType,
			&token.TokenHash,
			&token.JTI,
			&token.ExpiresAt,
			&token.IsUsed,
			&token.LastUsedAt,
			&token.IPAddress,
			&token.UserAgent,
			&token.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan refresh token")
		}
		tokens = append(tokens, &token)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate refresh tokens")
	}

	return tokens, nil
}

// NewPostgreSQLRefreshTokenRepository creates a new PostgreSQL RefreshToken repository.
func NewPostgreSQLRefreshTokenRepository(db *sql.DB) *PostgreSQLRefreshTokenRepository {
	return &PostgreSQLRefreshTokenRepository{db: db}
}
