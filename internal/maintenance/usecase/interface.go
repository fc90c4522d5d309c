// Package usecase implements background maintenance sweeps and their scheduler.
package usecase

import (
	"context"
	"time"

	maintenanceDomain "github.com/allisson/authcore/internal/maintenance/domain"
)

// RefreshTokenStore is the slice of refresh token persistence the sweeper needs.
type RefreshTokenStore interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountExpired(ctx context.Context, before time.Time) (int64, error)
	CountUsedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BlacklistStore is the slice of blacklist persistence the sweeper needs.
type BlacklistStore interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	CountExpired(ctx context.Context, before time.Time) (int64, error)
}

// RateLimitStore is the slice of rate limit persistence the sweeper needs.
type RateLimitStore interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	CountExpired(ctx context.Context, before time.Time) (int64, error)
}

// AuditEventStore is the slice of audit persistence the sweeper needs.
type AuditEventStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PrincipalStore is the slice of principal persistence the sweeper needs.
type PrincipalStore interface {
	UnlockExpired(ctx context.Context, now time.Time) (int64, error)
	CountLockExpired(ctx context.Context, now time.Time) (int64, error)
}

// SweeperUseCase defines the maintenance sweep operations.
type SweeperUseCase interface {
	// ExpireRefreshTokens removes refresh tokens past their expiry.
	ExpireRefreshTokens(ctx context.Context) (int64, error)

	// PurgeUsedRefreshTokens removes consumed refresh tokens past the
	// forensic grace period.
	PurgeUsedRefreshTokens(ctx context.Context) (int64, error)

	// ExpireBlacklistEntries removes blacklist entries past their expiry.
	ExpireBlacklistEntries(ctx context.Context) (int64, error)

	// ExpireRateLimits removes rate limit counters past their expiry.
	ExpireRateLimits(ctx context.Context) (int64, error)

	// PurgeAuditEvents removes audit events past the retention period.
	PurgeAuditEvents(ctx context.Context) (int64, error)

	// UnlockPrincipals clears locks whose window has passed.
	UnlockPrincipals(ctx context.Context) (int64, error)

	// RunFullSweep runs every operation, isolating failures so one broken
	// table never blocks cleanup of the others.
	RunFullSweep(ctx context.Context) *maintenanceDomain.SweepReport

	// RunQuickSweep runs the cheap high-frequency operations: tokens, rate
	// limits, and lockouts.
	RunQuickSweep(ctx context.Context) *maintenanceDomain.SweepReport

	// Stats counts the rows currently eligible for each sweep operation.
	Stats(ctx context.Context) (*maintenanceDomain.PendingStats, error)
}
