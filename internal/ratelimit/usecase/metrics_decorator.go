package usecase

import (
	"context"
	"time"

	"github.com/allisson/authcore/internal/metrics"
	ratelimitDomain "github.com/allisson/authcore/internal/ratelimit/domain"
)

// rateLimitUseCaseWithMetrics decorates RateLimitUseCase with metrics instrumentation.
type rateLimitUseCaseWithMetrics struct {
	next    RateLimitUseCase
	metrics metrics.BusinessMetrics
}

// NewRateLimitUseCaseWithMetrics wraps a RateLimitUseCase with metrics recording.
func NewRateLimitUseCaseWithMetrics(useCase RateLimitUseCase, m metrics.BusinessMetrics) RateLimitUseCase {
	return &rateLimitUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Check records metrics for admission decisions. Denials are counted
// separately from infrastructure errors.
func (r *rateLimitUseCaseWithMetrics) Check(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
) (*ratelimitDomain.Decision, error) {
	start := time.Now()
	decision, err := r.next.Check(ctx, identifier, endpoint)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case !decision.Allowed:
		status = "denied"
	}

	r.metrics.RecordOperation(ctx, "ratelimit", "check", status)
	r.metrics.RecordDuration(ctx, "ratelimit", "check", time.Since(start), status)

	return decision, err
}

// Status records metrics for usage lookups.
func (r *rateLimitUseCaseWithMetrics) Status(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
) (*ratelimitDomain.Status, error) {
	start := time.Now()
	s, err := r.next.Status(ctx, identifier, endpoint)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "ratelimit", "status", status)
	r.metrics.RecordDuration(ctx, "ratelimit", "status", time.Since(start), status)

	return s, err
}

// Reset records metrics for counter resets.
func (r *rateLimitUseCaseWithMetrics) Reset(
	ctx context.Context,
	identifier string,
	endpoint ratelimitDomain.Endpoint,
) (int64, error) {
	start := time.Now()
	deleted, err := r.next.Reset(ctx, identifier, endpoint)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "ratelimit", "reset", status)
	r.metrics.RecordDuration(ctx, "ratelimit", "reset", time.Since(start), status)

	return deleted, err
}

// PolicyFor delegates to the wrapped use case.
func (r *rateLimitUseCaseWithMetrics) PolicyFor(endpoint ratelimitDomain.Endpoint) ratelimitDomain.Policy {
	return r.next.PolicyFor(endpoint)
}
