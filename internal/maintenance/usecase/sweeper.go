package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/authcore/internal/config"
	maintenanceDomain "github.com/allisson/authcore/internal/maintenance/domain"
)

// Sweep operation names used in reports and logs.
const (
	opExpireRefreshTokens    = "expire_refresh_tokens"
	opPurgeUsedRefreshTokens = "purge_used_refresh_tokens"
	opExpireBlacklistEntries = "expire_blacklist_entries"
	opExpireRateLimits       = "expire_rate_limits"
	opPurgeAuditEvents       = "purge_audit_events"
	opUnlockPrincipals       = "unlock_principals"
)

// sweeperUseCase implements SweeperUseCase over the per-table stores.
type sweeperUseCase struct {
	config        *config.Config
	refreshTokens RefreshTokenStore
	blacklist     BlacklistStore
	rateLimits    RateLimitStore
	auditEvents   AuditEventStore
	principals    PrincipalStore
	logger        *slog.Logger
	nowFn         func() time.Time
}

// ExpireRefreshTokens removes refresh tokens past their expiry.
func (s *sweeperUseCase) ExpireRefreshTokens(ctx context.Context) (int64, error) {
	return s.refreshTokens.DeleteExpired(ctx, s.nowFn())
}

// PurgeUsedRefreshTokens removes consumed refresh tokens past the forensic
// grace period. Recently consumed tokens are kept so replay attempts can be
// traced back to the original exchange.
func (s *sweeperUseCase) PurgeUsedRefreshTokens(ctx context.Context) (int64, error) {
	cutoff := s.nowFn().Add(-s.config.UsedRefreshTokenGrace)
	return s.refreshTokens.DeleteUsedBefore(ctx, cutoff)
}

// ExpireBlacklistEntries removes blacklist entries past their expiry. Safe
// because the access tokens they covered have expired on their own.
func (s *sweeperUseCase) ExpireBlacklistEntries(ctx context.Context) (int64, error) {
	return s.blacklist.DeleteExpired(ctx, s.nowFn())
}

// ExpireRateLimits removes rate limit counters past their expiry.
func (s *sweeperUseCase) ExpireRateLimits(ctx context.Context) (int64, error) {
	return s.rateLimits.DeleteExpired(ctx, s.nowFn())
}

// PurgeAuditEvents removes audit events past the retention period.
func (s *sweeperUseCase) PurgeAuditEvents(ctx context.Context) (int64, error) {
	cutoff := s.nowFn().AddDate(0, 0, -s.config.AuditRetentionDays)
	return s.auditEvents.DeleteOlderThan(ctx, cutoff)
}

// UnlockPrincipals clears locks whose window has passed.
func (s *sweeperUseCase) UnlockPrincipals(ctx context.Context) (int64, error) {
	return s.principals.UnlockExpired(ctx, s.nowFn())
}

// runOp executes one sweep operation, recording its count or its error in
// the report. A failed operation contributes a zero count.
func (s *sweeperUseCase) runOp(
	ctx context.Context,
	report *maintenanceDomain.SweepReport,
	name string,
	dest *int64,
	fn func(ctx context.Context) (int64, error),
) {
	count, err := fn(ctx)
	if err != nil {
		s.logger.Error("sweep operation failed", "operation", name, "error", err)
		if report.Errors == nil {
			report.Errors = make(map[string]string)
		}
		report.Errors[name] = err.Error()
		return
	}
	*dest = count
}

// RunFullSweep runs every operation, isolating failures so one broken table
// never blocks cleanup of the others.
func (s *sweeperUseCase) RunFullSweep(ctx context.Context) *maintenanceDomain.SweepReport {
	start := s.nowFn()
	report := &maintenanceDomain.SweepReport{StartedAt: start}

	s.runOp(ctx, report, opExpireRefreshTokens, &report.ExpiredRefreshTokens, s.ExpireRefreshTokens)
	s.runOp(ctx, report, opPurgeUsedRefreshTokens, &report.PurgedUsedRefreshTokens, s.PurgeUsedRefreshTokens)
	s.runOp(ctx, report, opExpireBlacklistEntries, &report.ExpiredBlacklistEntries, s.ExpireBlacklistEntries)
	s.runOp(ctx, report, opExpireRateLimits, &report.ExpiredRateLimits, s.ExpireRateLimits)
	s.runOp(ctx, report, opPurgeAuditEvents, &report.PurgedAuditEvents, s.PurgeAuditEvents)
	s.runOp(ctx, report, opUnlockPrincipals, &report.UnlockedPrincipals, s.UnlockPrincipals)

	report.Duration = s.nowFn().Sub(start)
	s.logger.Info("full sweep finished",
		"removed", report.TotalRemoved(),
		"duration", report.Duration,
		"failed_operations", len(report.Errors),
	)
	return report
}

// RunQuickSweep runs the cheap high-frequency operations: tokens, rate
// limits, and lockouts.
func (s *sweeperUseCase) RunQuickSweep(ctx context.Context) *maintenanceDomain.SweepReport {
	start := s.nowFn()
	report := &maintenanceDomain.SweepReport{StartedAt: start}

	s.runOp(ctx, report, opExpireRefreshTokens, &report.ExpiredRefreshTokens, s.ExpireRefreshTokens)
	s.runOp(ctx, report, opExpireRateLimits, &report.ExpiredRateLimits, s.ExpireRateLimits)
	s.runOp(ctx, report, opUnlockPrincipals, &report.UnlockedPrincipals, s.UnlockPrincipals)

	report.Duration = s.nowFn().Sub(start)
	s.logger.Info("quick sweep finished",
		"removed", report.TotalRemoved(),
		"duration", report.Duration,
		"failed_operations", len(report.Errors),
	)
	return report
}

// Stats counts the rows currently eligible for each sweep operation.
func (s *sweeperUseCase) Stats(ctx context.Context) (*maintenanceDomain.PendingStats, error) {
	now := s.nowFn()
	stats := &maintenanceDomain.PendingStats{}

	var err error
	if stats.ExpiredRefreshTokens, err = s.refreshTokens.CountExpired(ctx, now); err != nil {
		return nil, err
	}
	usedCutoff := now.Add(-s.config.UsedRefreshTokenGrace)
	if stats.UsedRefreshTokens, err = s.refreshTokens.CountUsedBefore(ctx, usedCutoff); err != nil {
		return nil, err
	}
	if stats.ExpiredBlacklistEntries, err = s.blacklist.CountExpired(ctx, now); err != nil {
		return nil, err
	}
	if stats.ExpiredRateLimits, err = s.rateLimits.CountExpired(ctx, now); err != nil {
		return nil, err
	}
	auditCutoff := now.AddDate(0, 0, -s.config.AuditRetentionDays)
	if stats.ExpiredAuditEvents, err = s.auditEvents.CountOlderThan(ctx, auditCutoff); err != nil {
		return nil, err
	}
	if stats.ExpiredLocks, err = s.principals.CountLockExpired(ctx, now); err != nil {
		return nil, err
	}

	return stats, nil
}

// NewSweeperUseCase creates a new SweeperUseCase with the provided dependencies.
func NewSweeperUseCase(
	cfg *config.Config,
	refreshTokens RefreshTokenStore,
	blacklist BlacklistStore,
	rateLimits RateLimitStore,
	auditEvents AuditEventStore,
	principals PrincipalStore,
	logger *slog.Logger,
) SweeperUseCase {
	return &sweeperUseCase{
		config:        cfg,
		refreshTokens: refreshTokens,
		blacklist:     blacklist,
		rateLimits:    rateLimits,
		auditEvents:   auditEvents,
		principals:    principals,
		logger:        logger,
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}
