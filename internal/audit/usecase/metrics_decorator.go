package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/authcore/internal/audit/domain"
	"github.com/allisson/authcore/internal/metrics"
)

// auditUseCaseWithMetrics decorates AuditUseCase with metrics instrumentation.
type auditUseCaseWithMetrics struct {
	next    AuditUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditUseCaseWithMetrics wraps an AuditUseCase with metrics recording.
func NewAuditUseCaseWithMetrics(useCase AuditUseCase, m metrics.BusinessMetrics) AuditUseCase {
	return &auditUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *auditUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordOperation(ctx, "audit", operation, status)
	a.metrics.RecordDuration(ctx, "audit", operation, time.Since(start), status)
}

// Log records metrics for event writes.
func (a *auditUseCaseWithMetrics) Log(ctx context.Context, input auditDomain.LogInput) (uuid.UUID, error) {
	start := time.Now()
	id, err := a.next.Log(ctx, input)
	a.record(ctx, "log", start, err)
	return id, err
}

// EventsBySubject records metrics for subject history queries.
func (a *auditUseCaseWithMetrics) EventsBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType string,
	offset int,
	limit int,
) ([]*auditDomain.Event, error) {
	start := time.Now()
	events, err := a.next.EventsBySubject(ctx, subjectID, subjectType, offset, limit)
	a.record(ctx, "events_by_subject", start, err)
	return events, err
}

// FailedLogins records metrics for failed login queries.
func (a *auditUseCaseWithMetrics) FailedLogins(
	ctx context.Context,
	identity string,
	subjectType string,
	hours int,
) ([]*auditDomain.Event, error) {
	start := time.Now()
	events, err := a.next.FailedLogins(ctx, identity, subjectType, hours)
	a.record(ctx, "failed_logins", start, err)
	return events, err
}

// SuspiciousActivity records metrics for security review queries.
func (a *auditUseCaseWithMetrics) SuspiciousActivity(ctx context.Context, hours int) ([]*auditDomain.Event, error) {
	start := time.Now()
	events, err := a.next.SuspiciousActivity(ctx, hours)
	a.record(ctx, "suspicious_activity", start, err)
	return events, err
}

// Statistics records metrics for summary queries.
func (a *auditUseCaseWithMetrics) Statistics(ctx context.Context, days int) (*auditDomain.Statistics, error) {
	start := time.Now()
	stats, err := a.next.Statistics(ctx, days)
	a.record(ctx, "statistics", start, err)
	return stats, err
}

// PurgeExpired records metrics for retention purges.
func (a *auditUseCaseWithMetrics) PurgeExpired(ctx context.Context, dryRun bool) (int64, error) {
	start := time.Now()
	purged, err := a.next.PurgeExpired(ctx, dryRun)
	a.record(ctx, "purge_expired", start, err)
	return purged, err
}
