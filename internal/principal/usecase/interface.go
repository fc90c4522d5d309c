// Package usecase defines business logic interfaces for principal lockout.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	principalDomain "github.com/allisson/authcore/internal/principal/domain"
)

// PrincipalRepository defines persistence operations for principal lockout state.
// Implementations must support transaction-aware operations via context propagation.
type PrincipalRepository interface {
	// GetByID retrieves a principal. Returns ErrPrincipalNotFound if not found.
	GetByID(ctx context.Context, principalID uuid.UUID, subjectType string) (*principalDomain.Principal, error)

	// IncrementFailedAttempts atomically bumps the failure counter and returns
	// the new count.
	IncrementFailedAttempts(
		ctx context.Context,
		principalID uuid.UUID,
		subjectType string,
		now time.Time,
	) (int, error)

	// ResetFailedAttempts clears the failure counter and any lock.
	ResetFailedAttempts(ctx context.Context, principalID uuid.UUID, subjectType string, now time.Time) error

	// SetLock locks the principal until the given time.
	SetLock(ctx context.Context, principalID uuid.UUID, subjectType string, until time.Time, now time.Time) error

	// UnlockExpired clears locks whose window has passed. Returns the number
	// of principals unlocked.
	UnlockExpired(ctx context.Context, now time.Time) (int64, error)

	// CountLocked returns the number of principals locked at the given time.
	CountLocked(ctx context.Context, now time.Time) (int64, error)
}

// LockoutUseCase defines the failure-counting lockout state machine.
type LockoutUseCase interface {
	// RegisterFailure records a failed authentication attempt. When the
	// failure count reaches the configured threshold, the principal is locked
	// for the configured duration. The count-and-lock runs in one transaction.
	RegisterFailure(ctx context.Context, principalID uuid.UUID, subjectType string) (*principalDomain.LockoutState, error)

	// RegisterSuccess clears the failure counter after a successful
	// authentication.
	RegisterSuccess(ctx context.Context, principalID uuid.UUID, subjectType string) error

	// CheckLockout reports whether the principal may attempt authentication.
	// An expired lock is cleared in place. Returns ErrPrincipalLocked with the
	// current state while the lock is active.
	CheckLockout(ctx context.Context, principalID uuid.UUID, subjectType string) (*principalDomain.LockoutState, error)

	// Unlock clears the principal's lock and failure counter immediately.
	Unlock(ctx context.Context, principalID uuid.UUID, subjectType string) error
}
