// Package usecase implements the principal lockout state machine.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/config"
	"github.com/allisson/authcore/internal/database"
	principalDomain "github.com/allisson/authcore/internal/principal/domain"
)

// lockoutUseCase implements LockoutUseCase over the principal store.
type lockoutUseCase struct {
	config    *config.Config
	txManager database.TxManager
	repo      PrincipalRepository
	nowFn     func() time.Time
}

// RegisterFailure records a failed authentication attempt and locks the
// principal when the failure count reaches the configured threshold. The
// increment and the lock are one transaction, so two racing failures cannot
// both observe a count below the threshold.
func (l *lockoutUseCase) RegisterFailure(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
) (*principalDomain.LockoutState, error) {
	var state *principalDomain.LockoutState

	err := l.txManager.WithTx(ctx, func(ctx context.Context) error {
		now := l.nowFn()

		count, err := l.repo.IncrementFailedAttempts(ctx, principalID, subjectType, now)
		if err != nil {
			return err
		}

		if count < l.config.LockoutMaxAttempts {
			state = &principalDomain.LockoutState{
				FailedAttempts:    count,
				AttemptsRemaining: l.config.LockoutMaxAttempts - count,
			}
			return nil
		}

		until := now.Add(l.config.LockoutDuration)
		if err := l.repo.SetLock(ctx, principalID, subjectType, until, now); err != nil {
			return err
		}

		state = &principalDomain.LockoutState{
			Locked:         true,
			FailedAttempts: count,
			LockedUntil:    &until,
			RetryAfter:     l.config.LockoutDuration,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

// RegisterSuccess clears the failure counter after a successful authentication.
func (l *lockoutUseCase) RegisterSuccess(ctx context.Context, principalID uuid.UUID, subjectType string) error {
	return l.repo.ResetFailedAttempts(ctx, principalID, subjectType, l.nowFn())
}

// CheckLockout reports whether the principal may attempt authentication. A
// lock whose window has passed is cleared here rather than waiting for the
// periodic sweep, so an unlocked principal never stays locked because the
// sweeper is behind.
func (l *lockoutUseCase) CheckLockout(
	ctx context.Context,
	principalID uuid.UUID,
	subjectType string,
) (*principalDomain.LockoutState, error) {
	now := l.nowFn()

	principal, err := l.repo.GetByID(ctx, principalID, subjectType)
	if err != nil {
		return nil, err
	}

	if principal.LockedUntil == nil {
		return &principalDomain.LockoutState{
			FailedAttempts:    principal.FailedAttempts,
			AttemptsRemaining: l.config.LockoutMaxAttempts - principal.FailedAttempts,
		}, nil
	}

	if !principal.LockedAt(now) {
		if err := l.repo.ResetFailedAttempts(ctx, principalID, subjectType, now); err != nil {
			return nil, err
		}
		return &principalDomain.LockoutState{
			AttemptsRemaining: l.config.LockoutMaxAttempts,
		}, nil
	}

	until := *principal.LockedUntil
	return &principalDomain.LockoutState{
		Locked:         true,
		FailedAttempts: principal.FailedAttempts,
		LockedUntil:    &until,
		RetryAfter:     until.Sub(now),
	}, principalDomain.ErrPrincipalLocked
}

// Unlock clears the principal's lock and failure counter immediately.
func (l *lockoutUseCase) Unlock(ctx context.Context, principalID uuid.UUID, subjectType string) error {
	return l.repo.ResetFailedAttempts(ctx, principalID, subjectType, l.nowFn())
}

// NewLockoutUseCase creates a new LockoutUseCase with the provided dependencies.
func NewLockoutUseCase(cfg *config.Config, txManager database.TxManager, repo PrincipalRepository) LockoutUseCase {
	return &lockoutUseCase{
		config:    cfg,
		txManager: txManager,
		repo:      repo,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}
