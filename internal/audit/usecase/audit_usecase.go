// Package usecase implements business logic orchestration for the audit trail.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/authcore/internal/audit/domain"
	"github.com/allisson/authcore/internal/config"
	apperrors "github.com/allisson/authcore/internal/errors"
)

// auditUseCase implements AuditUseCase over an append-only event store.
type auditUseCase struct {
	config *config.Config
	repo   AuditEventRepository
	nowFn  func() time.Time
}

// Log validates and records an audit event. Returns the new event's ID.
func (a *auditUseCase) Log(ctx context.Context, input auditDomain.LogInput) (uuid.UUID, error) {
	if err := input.Validate(); err != nil {
		return uuid.Nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	event := &auditDomain.Event{
		ID:          uuid.Must(uuid.NewV7()),
		SubjectID:   input.SubjectID,
		SubjectType: input.SubjectType,
		Action:      input.Action,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Success:     input.Success,
		Details:     input.Details,
		CreatedAt:   a.nowFn(),
	}

	if err := a.repo.Create(ctx, event); err != nil {
		return uuid.Nil, err
	}

	return event.ID, nil
}

// EventsBySubject returns the subject's audit history, newest first. A
// non-positive limit falls back to a sane page size.
func (a *auditUseCase) EventsBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType string,
	offset int,
	limit int,
) ([]*auditDomain.Event, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}
	return a.repo.ListBySubject(ctx, subjectID, subjectType, offset, limit)
}

// FailedLogins returns failed login attempts against the identity within the
// last given number of hours.
func (a *auditUseCase) FailedLogins(
	ctx context.Context,
	identity string,
	subjectType string,
	hours int,
) ([]*auditDomain.Event, error) {
	if identity == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "identity is empty")
	}

	since := a.nowFn().Add(-time.Duration(hours) * time.Hour)
	return a.repo.ListFailedLogins(ctx, identity, subjectType, since)
}

// SuspiciousActivity returns high-risk events within the last given number of hours.
func (a *auditUseCase) SuspiciousActivity(ctx context.Context, hours int) ([]*auditDomain.Event, error) {
	since := a.nowFn().Add(-time.Duration(hours) * time.Hour)
	return a.repo.ListByActionsSince(ctx, auditDomain.SuspiciousActions, since)
}

// Statistics summarizes audit activity over the last given number of days.
func (a *auditUseCase) Statistics(ctx context.Context, days int) (*auditDomain.Statistics, error) {
	if days <= 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be positive")
	}

	since := a.nowFn().AddDate(0, 0, -days)

	byAction, err := a.repo.CountByActionSince(ctx, since)
	if err != nil {
		return nil, err
	}

	subjects, origins, err := a.repo.DistinctCountsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	daily, err := a.repo.DailyCountsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, count := range byAction {
		total += count.Count
	}

	return &auditDomain.Statistics{
		Since:            since,
		Total:            total,
		ByAction:         byAction,
		DistinctSubjects: subjects,
		DistinctOrigins:  origins,
		Daily:            daily,
	}, nil
}

// PurgeExpired deletes events older than the configured retention period.
// With dryRun it only counts what would be deleted.
func (a *auditUseCase) PurgeExpired(ctx context.Context, dryRun bool) (int64, error) {
	cutoff := a.nowFn().AddDate(0, 0, -a.config.AuditRetentionDays)

	if dryRun {
		return a.repo.CountOlderThan(ctx, cutoff)
	}
	return a.repo.DeleteOlderThan(ctx, cutoff)
}

// NewAuditUseCase creates a new AuditUseCase with the provided dependencies.
func NewAuditUseCase(cfg *config.Config, repo AuditEventRepository) AuditUseCase {
	return &auditUseCase{
		config: cfg,
		repo:   repo,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}
