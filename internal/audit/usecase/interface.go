// Package usecase defines business logic interfaces for the audit trail.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/authcore/internal/audit/domain"
)

// AuditEventRepository defines persistence operations for audit events.
// Implementations must support transaction-aware operations via context propagation.
type AuditEventRepository interface {
	// Create stores a new audit event.
	Create(ctx context.Context, event *auditDomain.Event) error

	// ListBySubject retrieves the subject's events newest first with offset pagination.
	ListBySubject(
		ctx context.Context,
		subjectID uuid.UUID,
		subjectType string,
		offset int,
		limit int,
	) ([]*auditDomain.Event, error)

	// ListFailedLogins retrieves failed login events for the identity since the cutoff.
	ListFailedLogins(
		ctx context.Context,
		identity string,
		subjectType string,
		since time.Time,
	) ([]*auditDomain.Event, error)

	// ListByActionsSince retrieves events matching any of the actions since the cutoff.
	ListByActionsSince(
		ctx context.Context,
		actions []auditDomain.Action,
		since time.Time,
	) ([]*auditDomain.Event, error)

	// CountByActionSince returns per-action, per-outcome counts since the cutoff.
	CountByActionSince(ctx context.Context, since time.Time) ([]*auditDomain.ActionCount, error)

	// DistinctCountsSince returns distinct subject and distinct origin counts since the cutoff.
	DistinctCountsSince(ctx context.Context, since time.Time) (int64, int64, error)

	// DailyCountsSince returns per-day counts since the cutoff, oldest day first.
	DailyCountsSince(ctx context.Context, since time.Time) ([]*auditDomain.DayCount, error)

	// DeleteOlderThan removes events created before the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// CountOlderThan counts events created before the cutoff without deleting.
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditUseCase defines business logic for recording and querying the audit trail.
type AuditUseCase interface {
	// Log validates and records an audit event. Returns the new event's ID.
	Log(ctx context.Context, input auditDomain.LogInput) (uuid.UUID, error)

	// EventsBySubject returns the subject's audit history, newest first.
	EventsBySubject(
		ctx context.Context,
		subjectID uuid.UUID,
		subjectType string,
		offset int,
		limit int,
	) ([]*auditDomain.Event, error)

	// FailedLogins returns failed login attempts against the identity within
	// the last given number of hours.
	FailedLogins(
		ctx context.Context,
		identity string,
		subjectType string,
		hours int,
	) ([]*auditDomain.Event, error)

	// SuspiciousActivity returns high-risk events within the last given number
	// of hours.
	SuspiciousActivity(ctx context.Context, hours int) ([]*auditDomain.Event, error)

	// Statistics summarizes audit activity over the last given number of days.
	Statistics(ctx context.Context, days int) (*auditDomain.Statistics, error)

	// PurgeExpired deletes events older than the configured retention period.
	// With dryRun it only counts what would be deleted.
	PurgeExpired(ctx context.Context, dryRun bool) (int64, error)
}
