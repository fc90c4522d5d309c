// Package usecase defines business logic interfaces for persisted rate limiting.
package usecase

import (
	"context"
	"time"

	ratelimitDomain "github.com/allisson/authcore/internal/ratelimit/domain"
)

// RateLimitRepository defines persistence operations for rate limit counters.
// Implementations must support transaction-aware operations via context propagation.
type RateLimitRepository interface {
	// Increment atomically bumps the counter while it is below the limit.
	// Returns the count after this attempt and whether it was admitted.
	Increment(
		ctx context.Context,
		identifier string,
		endpoint ratelimitDomain.Endpoint,
		windowStart time.Time,
		expiresAt time.Time,
		limit int,
	) (int, bool, error)

	// Get retrieves the counter for the window. Returns ErrCounterNotFound if
	// no attempt was recorded yet.
	Get(
		ctx context.Context,
		identifier string,
		endpoint ratelimitDomain.Endpoint,
		windowStart time.Time,
	) (*ratelimitDomain.Counter, error)

	// Delete removes all counters for the identifier and endpoint.
	Delete(ctx context.Context, identifier string, endpoint ratelimitDomain.Endpoint) (int64, error)

	// DeleteExpiredForKey removes expired counters for one identifier and endpoint.
	DeleteExpiredForKey(
		ctx context.Context,
		identifier string,
		endpoint ratelimitDomain.Endpoint,
		before time.Time,
	) (int64, error)

	// DeleteExpired removes all counters that expired before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// RateLimitUseCase defines business logic for admission control.
type RateLimitUseCase interface {
	// Check records an attempt for the identifier against the endpoint's
	// policy and decides whether it is admitted. The decision carries the
	// remaining budget and when the window resets. Infrastructure failures
	// surface as errors; a denied attempt is a normal decision, not an error.
	Check(
		ctx context.Context,
		identifier string,
		endpoint ratelimitDomain.Endpoint,
	) (*ratelimitDomain.Decision, error)

	// Status reports the current window's usage without recording an attempt.
	Status(
		ctx context.Context,
		identifier string,
		endpoint ratelimitDomain.Endpoint,
	) (*ratelimitDomain.Status, error)

	// Reset clears all counters for the identifier and endpoint, for support
	// workflows after a verified lockout complaint.
	Reset(ctx context.Context, identifier string, endpoint ratelimitDomain.Endpoint) (int64, error)

	// PolicyFor returns the policy applied to the endpoint, falling back to
	// the default policy for unknown categories.
	PolicyFor(endpoint ratelimitDomain.Endpoint) ratelimitDomain.Policy
}
