// Package repository provides PostgreSQL and MySQL persistence for rate limit counters.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/authcore/internal/database"
	apperrors "github.com/allisson/authcore/internal/errors"
	ratelimitDomain "github.com/allisson/authcore/internal/ratelimit/domain"
)

// PostgreSQLRateLimitRepository implements rate limit counter persistence for PostgreSQL.
// The check-and-increment is a single conditional upsert, so concurrent
// attempts against the same counter serialize inside the database.
type PostgreSQLRateLimitRepository struct {
	db *sql.DB
}

// Increment atomically bumps the counter for the identifier, endpoint, and
// window, but only while the count is below the limit. Returns the count
// after this attempt and whether it was admitted. A denied attempt leaves
// the counter untouched.
func (p *PostgreSQLRateLimitRepository) Increment(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
	windowStart time.Time,
	expiresAt time.Time,
	limit int,
) (int, bool, error) {
	querier := database.GetTx(ctx, p.db)

	// The WHERE clause on the conflict update makes the increment conditional:
	// when the counter is at the limit, no row is updated and no row returns.
	query := `INSERT INTO rate_limits (identifier, endpoint, window_start, attempt_count, expires_at)
			  VALUES ($1, $2, $3, 1, $4)
			  ON CONFLICT (identifier, endpoint, window_start)
			  DO UPDATE SET attempt_count = rate_limits.attempt_count + 1
			  WHERE rate_limits.attempt_count < $5
			  RETURNING attempt_count`

	var count int
	err := querier.QueryRowContext(ctx, query, identifier, endpoint, windowStart, expiresAt, limit).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, apperrors.Wrap(err, "failed to increment rate limit counter")
	}

	return count, true, nil
}

// Get retrieves the counter for the identifier, endpoint, and window.
// Returns ErrCounterNotFound if no attempt was recorded yet.
func (p *PostgreSQLRateLimitRepository) Get(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
	windowStart time.Time,
) (*ratelimitDomain.Counter, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT identifier, endpoint, window_start, attempt_count, expires_at
			  FROM rate_limits
			  WHERE identifier = $1 AND endpoint = $2 AND window_start = $3`

	var counter ratelimitDomain.Counter
	err := querier.QueryRowContext(ctx, query, identifier, endpoint, windowStart).Scan(
		&counter.Identifier,
		&counter.Endpoint,
		&counter.WindowStart,
		&counter.AttemptCount,
		&counter.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ratelimitDomain.ErrCounterNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get rate limit counter")
	}

	return &counter, nil
}

// Delete removes all counters for the identifier and endpoint. Returns the
// number of rows deleted.
func (p *PostgreSQLRateLimitRepository) Delete(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM rate_limits WHERE identifier = $1 AND endpoint = $2`

	result, err := querier.ExecContext(ctx, query, identifier, endpoint)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete rate limit counters")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected, nil
}

// DeleteExpiredForKey removes expired counters for one identifier and
// endpoint. Called lazily before a check so stale windows never influence
// the current one.
func (p *PostgreSQLRateLimitRepository) DeleteExpiredForKey(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
	before time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM rate_limits WHERE identifier = $1 AND endpoint = $2 AND expires_at < $3`

	result, err := querier.ExecContext(ctx, query, identifier, endpoint, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired rate limit counters")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected, nil
}

// DeleteExpired removes all counters that expired before the given time.
// Returns the number of rows deleted.
func (p *PostgreSQLRateLimitRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM rate_limits WHERE expires_at < $1`

	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired rate limit counters")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected, nil
}

// CountExpired returns the number of counters that expired before the given
// time without deleting anything.
func (p *PostgreSQLRateLimitRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM rate_limits WHERE expires_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, before).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired rate limit counters")
	}

	return count, nil
}

// NewPostgreSQLRateLimitRepository creates a new PostgreSQL rate limit repository.
func NewPostgreSQLRateLimitRepository(db *sql.DB) *PostgreSQLRateLimitRepository {
	return &PostgreSQLRateLimitRepository{db: db}
}
