// Package domain defines the entities for principal lockout tracking.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the narrow account view needed for lockout decisions. The
// credential hash is owned by the outer authentication surface; this core
// only tracks failure counters and lock windows.
type Principal struct {
	ID             uuid.UUID
	SubjectType    string
	CredentialHash string
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LockedAt reports whether the principal is locked at the given time.
func (p *Principal) LockedAt(now time.Time) bool {
	return p.LockedUntil != nil && now.Before(*p.LockedUntil)
}

// LockoutState is the outcome of a lockout transition or check.
type LockoutState struct {
	Locked            bool
	FailedAttempts    int
	AttemptsRemaining int
	LockedUntil       *time.Time
	RetryAfter        time.Duration
}
