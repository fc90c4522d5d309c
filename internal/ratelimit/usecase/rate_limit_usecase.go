// Package usecase implements business logic orchestration for rate limiting.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/config"
	apperrors "github.com/allisson/authcore/internal/errors"
	"github.com/allisson/authcore/internal/origin"
	ratelimitDomain "github.com/allisson/authcore/internal/ratelimit/domain"
)

// rateLimitUseCase implements RateLimitUseCase over a persisted counter store.
type rateLimitUseCase struct {
	repo     RateLimitRepository
	policies map[ratelimitDomain.Endpoint]ratelimitDomain.Policy
	nowFn    func() time.Time
}

// IdentifierFor derives the rate limit key for a request: the subject ID for
// authenticated callers, otherwise the client network address. Authenticated
// subjects are throttled across addresses; anonymous callers per address.
func IdentifierFor(subjectID *uuid.UUID, org origin.Origin) string {
	if subjectID != nil {
		return subjectID.String()
	}
	return org.ClientAddress()
}

// Check records an attempt and decides admission.
//
// This method:
// 1. Lazily purges expired counters for the key
// 2. Computes the aligned window for the endpoint's policy
// 3. Atomically increments the counter while below the limit
//
// The purge-before-check keeps the table bounded even when the periodic
// cleanup is behind, and makes a key's first attempt after a quiet period
// start from a clean window.
func (r *rateLimitUseCase) Check(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
) (*ratelimitDomain.Decision, error) {
	if identifier == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "rate limit identifier is empty")
	}

	now := r.nowFn()
	policy := r.PolicyFor(endpoint)

	if _, err := r.repo.DeleteExpiredForKey(ctx, identifier, endpoint, now); err != nil {
		return nil, err
	}

	windowStart := policy.WindowStart(now)
	resetAt := windowStart.Add(policy.Window)

	count, allowed, err := r.repo.Increment(ctx, identifier, endpoint, windowStart, resetAt, policy.Limit)
	if err != nil {
		return nil, err
	}

	if !allowed {
		return &ratelimitDomain.Decision{
			Allowed:    false,
			Limit:      policy.Limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}, nil
	}

	return &ratelimitDomain.Decision{
		Allowed:   true,
		Limit:     policy.Limit,
		Remaining: policy.Limit - count,
		ResetAt:   resetAt,
	}, nil
}

// Status reports the current window's usage without recording an attempt.
func (r *rateLimitUseCase) Status(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
) (*ratelimitDomain.Status, error) {
	now := r.nowFn()
	policy := r.PolicyFor(endpoint)
	windowStart := policy.WindowStart(now)
	resetAt := windowStart.Add(policy.Window)

	counter, err := r.repo.Get(ctx, identifier, endpoint, windowStart)
	if err != nil {
		if apperrors.Is(err, ratelimitDomain.ErrCounterNotFound) {
			return &ratelimitDomain.Status{
				Limit:     policy.Limit,
				Count:     0,
				Remaining: policy.Limit,
				ResetAt:   resetAt,
			}, nil
		}
		return nil, err
	}

	remaining := policy.Limit - counter.AttemptCount
	if remaining < 0 {
		remaining = 0
	}

	return &ratelimitDomain.Status{
		Limit:     policy.Limit,
		Count:     counter.AttemptCount,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears all counters for the identifier and endpoint.
func (r *rateLimitUseCase) Reset(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
) (int64, error) {
	return r.repo.Delete(ctx, identifier, endpoint)
}

// PolicyFor returns the endpoint's policy, falling back to the default.
func (r *rateLimitUseCase) PolicyFor(endpoint ratelimitDomain.Endpoint) ratelimitDomain.Policy {
	if policy, ok := r.policies[endpoint]; ok {
		return policy
	}
	return r.policies[ratelimitDomain.EndpointDefault]
}

// PoliciesFromConfig builds the per-endpoint policy table from configuration.
func PoliciesFromConfig(cfg *config.Config) map[ratelimitDomain.Endpoint]ratelimitDomain.Policy {
	return map[ratelimitDomain.Endpoint]ratelimitDomain.Policy{
		ratelimitDomain.EndpointLogin: {
			Limit:  cfg.RateLimitLoginLimit,
			Window: cfg.RateLimitLoginWindow,
		},
		ratelimitDomain.EndpointAdminLogin: {
			Limit:  cfg.RateLimitAdminLoginLimit,
			Window: cfg.RateLimitAdminLoginWindow,
		},
		ratelimitDomain.EndpointRegistration: {
			Limit:  cfg.RateLimitRegistrationLimit,
			Window: cfg.RateLimitRegistrationWindow,
		},
		ratelimitDomain.EndpointPasswordReset: {
			Limit:  cfg.RateLimitPasswordResetLimit,
			Window: cfg.RateLimitPasswordResetWindow,
		},
		ratelimitDomain.EndpointRefresh: {
			Limit:  cfg.RateLimitRefreshLimit,
			Window: cfg.RateLimitRefreshWindow,
		},
		ratelimitDomain.EndpointDefault: {
			Limit:  cfg.RateLimitDefaultLimit,
			Window: cfg.RateLimitDefaultWindow,
		},
	}
}

// NewRateLimitUseCase creates a new RateLimitUseCase with the provided dependencies.
func NewRateLimitUseCase(cfg *config.Config, repo RateLimitRepository) RateLimitUseCase {
	return &rateLimitUseCase{
		repo:     repo,
		policies: PoliciesFromConfig(cfg),
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}
