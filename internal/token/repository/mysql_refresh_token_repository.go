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

// MySQLRefreshTokenRepository implements RefreshToken persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLRefreshTokenRepository struct {
	db *sql.DB
}

// Create inserts a new RefreshToken into the MySQL database using BINARY(16) for UUIDs.
func (m *MySQLRefreshTokenRepository) Create(ctx context.Context, token *tokenDomain.RefreshToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO refresh_tokens
			  (id, subject_id, subject_type, token_hash, jti, expires_at, is_used, last_used_at, ip_address, user_agent, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal refresh token id")
	}
	subjectID, err := token.SubjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subject id")
	}
	jti, err := token.JTI.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal jti")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		subjectID,
		token.SubjectType,
		token.TokenHash,
		jti,
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
func (m *MySQLRefreshTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*tokenDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, subject_id, subject_type, token_hash, jti, expires_at, is_used, last_used_at, ip_address, user_agent, created_at
			  FROM refresh_tokens WHERE id = ?`

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal refresh token id")
	}

	row := querier.QueryRowContext(ctx, query, id)
	token, err := scanMySQLRefreshToken(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tokenDomain.ErrRefreshTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}

	return token, nil
}

// ListActive retrieves all unused, unexpired refresh tokens at the given time,
// ordered from newest to oldest so recent credentials are matched first.
func (m *MySQLRefreshTokenRepository) ListActive(ctx context.Context, now time.Time) ([]*tokenDomain.RefreshToken, error) {
	query := `SELECT id, subject_id, subject_type, token_hash, jti, expires_at, is_used, last_used_at, ip_address, user_agent, created_at
			  FROM refresh_tokens
			  WHERE is_used = false AND expires_at > ?
			  ORDER BY created_at DESC`

	return m.list(ctx, query, now)
}

// ListActiveBySubject retrieves the subject's unused, unexpired refresh tokens
// at the given time, ordered from newest to oldest.
func (m *MySQLRefreshTokenRepository) ListActiveBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	now time.Time,
) ([]*tokenDomain.RefreshToken, error) {
	query := `SELECT id, subject_id, subject_type, token_hash, jti, expires_at, is_used, last_used_at, ip_address, user_agent, created_at
			  FROM refresh_tokens
			  WHERE subject_id = ? AND subject_type = ? AND is_used = false AND expires_at > ?
			  ORDER BY created_at DESC`

	id, err := subjectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subject id")
	}

	return m.list(ctx, query, id, subjectType, now)
}

// Consume atomically marks a refresh token as used. The condition on is_used
// and expires_at makes the exchange single-use: a replayed or expired token
// matches zero rows. Returns true only when this call performed the consume.
func (m *MySQLRefreshTokenRepository) Consume(
	ctx context.Context,
	tokenID uuid.UUID,
	usedAt time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE refresh_tokens
			  SET is_used = true, last_used_at = ?
			  WHERE id = ? AND is_used = false AND expires_at > ?`

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal refresh token id")
	}

	result, err := querier.ExecContext(ctx, query, usedAt, id, usedAt)
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
func (m *MySQLRefreshTokenRepository) MarkAllUsedBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	usedAt time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE refresh_tokens
			  SET is_used = true, last_used_at = ?
			  WHERE subject_id = ? AND subject_type = ? AND is_used = false`

	id, err := subjectID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal subject id")
	}

	result, err := querier.ExecContext(ctx, query, usedAt, id, subjectType)
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
func (m *MySQLRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM refresh_tokens WHERE expires_at < ?`

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
func (m *MySQLRefreshTokenRepository) DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM refresh_tokens WHERE is_used = true AND last_used_at < ?`

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
func (m *MySQLRefreshTokenRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM refresh_tokens WHERE expires_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, before).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired refresh tokens")
	}

	return count, nil
}

// CountUsedBefore returns the number of consumed refresh tokens last used
// before the cutoff without deleting anything.
func (m *MySQLRefreshTokenRepository) CountUsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM refresh_tokens WHERE is_used = true AND last_used_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count used refresh tokens")
	}

	return count, nil
}

func (m *MySQLRefreshTokenRepository) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]*tokenDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list refresh tokens")
	}
	defer rows.Close()

	var tokens []*tokenDomain.RefreshToken
	for rows.Next() {
		token, err := scanMySQLRefreshToken(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan refresh token")
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate refresh tokens")
	}

	return tokens, nil
}

// scanMySQLRefreshToken scans one row, decoding the BINARY(16) UUID columns.
func scanMySQLRefreshToken(scan func(dest ...any) error) (*tokenDomain.RefreshToken, error) {
	var token tokenDomain.RefreshToken
	var idBytes, subjectIDBytes, jtiBytes []byte

	if err := scan(
		&idBytes,
		&subjectIDBytes,
		&token.SubjectType,
		&token.TokenHash,
		&jtiBytes,
		&token.ExpiresAt,
		&token.IsUsed,
		&token.LastUsedAt,
		&token.IPAddress,
		&token.UserAgent,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}

	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return nil, err
	}
	subjectID, err := uuid.FromBytes(subjectIDBytes)
	if err != nil {
		return nil, err
	}
	jti, err := uuid.FromBytes(jtiBytes)
	if err != nil {
		return nil, err
	}

	token.ID = id
	token.SubjectID = subjectID
	token.JTI = jti
	return &token, nil
}

// NewMySQLRefreshTokenRepository creates a new MySQL RefreshToken repository.
func NewMySQLRefreshTokenRepository(db *sql.DB) *MySQLRefreshTokenRepository {
	return &MySQLRefreshTokenRepository{db: db}
}
