// Package domain defines the entities for background maintenance sweeps.
package domain

import (
	"time"
)

// SweepReport summarizes one sweep run. A failed operation contributes a
// zero count and an entry in Errors; it never aborts the rest of the sweep.
type SweepReport struct {
	StartedAt               time.Time        `json:"started_at"`
	Duration                time.Duration    `json:"duration"`
	ExpiredRefreshTokens    int64            `json:"expired_refresh_tokens"`
	PurgedUsedRefreshTokens int64            `json:"purged_used_refresh_tokens"`
	ExpiredBlacklistEntries int64            `json:"expired_blacklist_entries"`
	ExpiredRateLimits       int64            `json:"expired_rate_limits"`
	PurgedAuditEvents       int64            `json:"purged_audit_events"`
	UnlockedPrincipals      int64            `json:"unlocked_principals"`
	Errors                  map[string]string `json:"errors,omitempty"`
}

// TotalRemoved is the number of rows removed or unlocked across all operations.
func (s *SweepReport) TotalRemoved() int64 {
	return s.ExpiredRefreshTokens +
		s.PurgedUsedRefreshTokens +
		s.ExpiredBlacklistEntries +
		s.ExpiredRateLimits +
		s.PurgedAuditEvents +
		s.UnlockedPrincipals
}

// PendingStats counts the rows currently eligible for each sweep operation.
type PendingStats struct {
	ExpiredRefreshTokens    int64 `json:"expired_refresh_tokens"`
	UsedRefreshTokens       int64 `json:"used_refresh_tokens"`
	ExpiredBlacklistEntries int64 `json:"expired_blacklist_entries"`
	ExpiredRateLimits       int64 `json:"expired_rate_limits"`
	ExpiredAuditEvents      int64 `json:"expired_audit_events"`
	ExpiredLocks            int64 `json:"expired_locks"`
}
