package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/authcore/internal/errors"
	"github.com/allisson/authcore/internal/metrics"
	principalDomain "github.com/allisson/authcore/internal/principal/domain"
)

// lockoutUseCaseWithMetrics decorates LockoutUseCase with metrics instrumentation.
type lockoutUseCaseWithMetrics struct {
	next    LockoutUseCase
	metrics metrics.BusinessMetrics
}

// NewLockoutUseCaseWithMetrics wraps a LockoutUseCase with metrics recording.
func NewLockoutUseCaseWithMetrics(useCase LockoutUseCase, m metrics.BusinessMetrics) LockoutUseCase {
	return &lockoutUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// RegisterFailure records metrics for failure registrations. A transition to
// the locked state is counted separately from plain failures.
func (l *lockoutUseCaseWithMetrics) RegisterFailure(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
) (*principalDomain.LockoutState, error) {
	start := time.Now()
	state, err := l.next.RegisterFailure(ctx, principalID, subjectType)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case state.Locked:
		status = "locked"
	}

	l.metrics.RecordOperation(ctx, "principal", "register_failure", status)
	l.metrics.RecordDuration(ctx, "principal", "register_failure", time.Since(start), status)

	return state, err
}

// RegisterSuccess records metrics for counter resets.
func (l *lockoutUseCaseWithMetrics) RegisterSuccess(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
) error {
	start := time.Now()
	err := l.next.RegisterSuccess(ctx, principalID, subjectType)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "principal", "register_success", status)
	l.metrics.RecordDuration(ctx, "principal", "register_success", time.Since(start), status)

	return err
}

// CheckLockout records metrics for lockout checks. An active lock is counted
// separately from infrastructure errors.
func (l *lockoutUseCaseWithMetrics) CheckLockout(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
) (*principalDomain.LockoutState, error) {
	start := time.Now()
	state, err := l.next.CheckLockout(ctx, principalID, subjectType)

	status := "success"
	switch {
	case apperrors.Is(err, principalDomain.ErrPrincipalLocked):
		status = "locked"
	case err != nil:
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "principal", "check_lockout", status)
	l.metrics.RecordDuration(ctx, "principal", "check_lockout", time.Since(start), status)

	return state, err
}

// Unlock records metrics for manual unlocks.
func (l *lockoutUseCaseWithMetrics) Unlock(ctx context.Context, principalID uuid.UUID, subjectType string) error {
	start := time.Now()
	err := l.next.Unlock(ctx, principalID, subjectType)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "principal", "unlock", status)
	l.metrics.RecordDuration(ctx, "principal", "unlock", time.Since(start), status)

	return err
}
