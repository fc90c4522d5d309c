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

// MySQLRateLimitRepository implements rate limit counter persistence for MySQL.
// The check-and-increment is a single conditional upsert, so concurrent
// attempts against the same counter serialize inside the database.
type MySQLRateLimitRepository struct {
	db *sql.DB
}

// Increment atomically bumps the counter for the identifier, endpoint, and
// window, but only while the count is below the limit. Returns the count
// after this attempt and whether it was admitted. A denied attempt leaves
// the counter untouched.
//
// MySQL reports the outcome through RowsAffected: 1 means a fresh insert,
// 2 means the existing row was incremented, and 0 means the IF() kept the
// value unchanged because the counter is at the limit. The incremented count
// is smuggled out through LAST_INSERT_ID().
func (m *MySQLRateLimitRepository) Increment(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
	windowStart time.Time,
	expiresAt time.Time,
	limit int,
) (int, bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO rate_limits (identifier, endpoint, window_start, attempt_count, expires_at)
			  VALUES (?, ?, ?, 1, ?)
			  ON DUPLICATE KEY UPDATE
			  attempt_count = LAST_INSERT_ID(IF(attempt_count < ?, attempt_count + 1, attempt_count))`

	result, err := querier.ExecContext(ctx, query, identifier, endpoint, windowStart, expiresAt, limit)
	if err != nil {
		return 0, false, apperrors.Wrap(err, "failed to increment rate limit counter")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, apperrors.Wrap(err, "failed to get affected rows")
	}

	switch affected {
	case 1:
		// Fresh counter for this window
		return 1, true, nil
	case 2:
		count, err := result.LastInsertId()
		if err != nil {
			return 0, false, apperrors.Wrap(err, "failed to get incremented count")
		}
		return int(count), true, nil
	default:
		// Counter already at the limit
		return 0, false, nil
	}
}

// Get retrieves the counter for the identifier, endpoint, and window.
// Returns ErrCounterNotFound if no attempt was recorded yet.
func (m *MySQLRateLimitRepository) Get(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
	windowStart time.Time,
) (*ratelimitDomain.Counter, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT identifier, endpoint, window_start, attempt_count, expires_at
			  FROM rate_limits
			  WHERE identifier = ? AND endpoint = ? AND window_start = ?`

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
func (m *MySQLRateLimitRepository) Delete(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM rate_limits WHERE identifier = ? AND endpoint = ?`

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
func (m *MySQLRateLimitRepository) DeleteExpiredForKey(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
	before time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM rate_limits WHERE identifier = ? AND endpoint = ? AND expires_at < ?`

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
func (m *MySQLRateLimitRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM rate_limits WHERE expires_at < ?`

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
func (m *MySQLRateLimitRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM rate_limits WHERE expires_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, before).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired rate limit counters")
	}

	return count, nil
}

// NewMySQLRateLimitRepository creates a new MySQL rate limit repository.
func NewMySQLRateLimitRepository(db *sql.DB) *MySQLRateLimitRepository {
	return &MySQLRateLimitRepository{db: db}
}
