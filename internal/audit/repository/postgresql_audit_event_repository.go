// Package repository provides PostgreSQL and MySQL persistence for audit events.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	auditDomain "github.com/allisson/authcore/internal/audit/domain"
	"github.com/allisson/authcore/internal/database"
	apperrors "github.com/allisson/authcore/internal/errors"
)

// PostgreSQLAuditEventRepository implements audit event persistence for PostgreSQL.
// Events are append-only: there are no update operations, and the only delete
// is the retention purge.
type PostgreSQLAuditEventRepository struct {
	db *sql.DB
}

// Create inserts a new audit event. The details map is stored as JSON.
func (p *PostgreSQLAuditEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO audit_events
			  (id, subject_id, subject_type, action, ip_address, user_agent, success, details, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	details, err := marshalDetails(event.Details)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event details")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID,
		event.SubjectID,
		event.SubjectType,
		event.Action,
		event.IPAddress,
		event.UserAgent,
		event.Success,
		details,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit event")
	}
	return nil
}

// ListBySubject retrieves the subject's events from newest to oldest with
// offset-based pagination.
func (p *PostgreSQLAuditEventRepository) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType string,
	offset int,
	limit int,
) ([]*auditDomain.Event, error) {
	query := `SELECT id, subject_id, subject_type, action, ip_address, user_agent, success, details, created_at
			  FROM audit_events
			  WHERE subject_id = $1 AND subject_type = $2
			  ORDER BY created_at DESC
			  OFFSET $3 LIMIT $4`

	return p.list(ctx, query, subjectID, subjectType, offset, limit)
}

// ListFailedLogins retrieves failed login events for the given identity since
// the cutoff, newest first. Events recorded before the subject was resolved
// carry a NULL subject type and match any requested type.
func (p *PostgreSQLAuditEventRepository) ListFailedLogins(
	ctx context.Context,
	identity string,
	subjectType string,
	since time.Time,
) ([]*auditDomain.Event, error) {
	query := `SELECT id, subject_id, subject_type, action, ip_address, user_agent, success, details, created_at
			  FROM audit_events
			  WHERE action = $1 AND details->>'identity' = $2
			  AND (subject_type IS NULL OR subject_type = $3)
			  AND created_at >= $4
			  ORDER BY created_at DESC`

	return p.list(ctx, query, auditDomain.ActionLoginFailed, identity, subjectType, since)
}

// ListByActionsSince retrieves events for any of the given actions since the
// cutoff, newest first.
func (p *PostgreSQLAuditEventRepository) ListByActionsSince(
	ctx context.Context,
	actions []auditDomain.Action,
	since time.Time,
) ([]*auditDomain.Event, error) {
	query := `SELECT id, subject_id, subject_type, action, ip_address, user_agent, success, details, created_at
			  FROM audit_events
			  WHERE action = ANY($1) AND created_at >= $2
			  ORDER BY created_at DESC`

	names := make([]string, len(actions))
	for i, action := range actions {
		names[i] = string(action)
	}

	return p.list(ctx, query, pq.Array(names), since)
}

// CountByActionSince returns per-action, per-outcome event counts since the cutoff.
func (p *PostgreSQLAuditEventRepository) CountByActionSince(
	ctx context.Context,
	since time.Time,
) ([]*auditDomain.ActionCount, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT action, success, COUNT(*)
			  FROM audit_events
			  WHERE created_at >= $1
			  GROUP BY action, success
			  ORDER BY action, success`

	rows, err := querier.QueryContext(ctx, query, since)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count audit events by action")
	}
	defer rows.Close()

	var counts []*auditDomain.ActionCount
	for rows.Next() {
		var count auditDomain.ActionCount
		if err := rows.Scan(&count.Action, &count.Success, &count.Count); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit action count")
		}
		counts = append(counts, &count)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit action counts")
	}

	return counts, nil
}

// DistinctCountsSince returns the number of distinct subjects and distinct
// client addresses seen since the cutoff. Events without a subject are not
// counted as a subject.
func (p *PostgreSQLAuditEventRepository) DistinctCountsSince(
	ctx context.Context,
	since time.Time,
) (int64, int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(DISTINCT subject_id), COUNT(DISTINCT ip_address)
			  FROM audit_events
			  WHERE created_at >= $1`

	var subjects, origins int64
	err := querier.QueryRowContext(ctx, query, since).Scan(&subjects, &origins)
	if err != nil {
		return 0, 0, apperrors.Wrap(err, "failed to count distinct audit dimensions")
	}

	return subjects, origins, nil
}

// DailyCountsSince returns per-day event counts since the cutoff, oldest day first.
func (p *PostgreSQLAuditEventRepository) DailyCountsSince(
	ctx context.Context,
	since time.Time,
) ([]*auditDomain.DayCount, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT date_trunc('day', created_at) AS day, COUNT(*)
			  FROM audit_events
			  WHERE created_at >= $1
			  GROUP BY day
			  ORDER BY day`

	rows, err := querier.QueryContext(ctx, query, since)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count audit events by day")
	}
	defer rows.Close()

	var counts []*auditDomain.DayCount
	for rows.Next() {
		var count auditDomain.DayCount
		if err := rows.Scan(&count.Day, &count.Count); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit day count")
		}
		counts = append(counts, &count)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit day counts")
	}

	return counts, nil
}

// DeleteOlderThan removes events created before the cutoff. Returns the
// number of rows deleted.
func (p *PostgreSQLAuditEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM audit_events WHERE created_at < $1`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired audit events")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return affected, nil
}

// CountOlderThan returns the number of events created before the cutoff
// without deleting anything.
func (p *PostgreSQLAuditEventRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM audit_events WHERE created_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired audit events")
	}

	return count, nil
}

func (p *PostgreSQLAuditEventRepository) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]*auditDomain.Event, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}
	defer rows.Close()

	var events []*auditDomain.Event
	for rows.Next() {
		var event auditDomain.Event
		var subjectID uuid.NullUUID
		var subjectType sql.NullString
		var details []byte

		if err := rows.Scan(
			&event.ID,
			&subjectID,
			&subjectType,
			&event.Action,
			&event.IPAddress,
			&event.UserAgent,
			&event.Success,
			&details,
			&event.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit event")
		}

		if subjectID.Valid {
			id := subjectID.UUID
			event.SubjectID = &id
		}
		if subjectType.Valid {
			st := subjectType.String
			event.SubjectType = &st
		}
		if err := unmarshalDetails(details, &event); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event details")
		}

		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit events")
	}

	return events, nil
}

// marshalDetails encodes the details map as JSON, keeping NULL for absent details.
func marshalDetails(details map[string]any) ([]byte, error) {
	if details == nil {
		return nil, nil
	}
	return json.Marshal(details)
}

func unmarshalDetails(data []byte, event *auditDomain.Event) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &event.Details)
}

// NewPostgreSQLAuditEventRepository creates a new PostgreSQL audit event repository.
func NewPostgreSQLAuditEventRepository(db *sql.DB) *PostgreSQLAuditEventRepository {
	return &PostgreSQLAuditEventRepository{db: db}
}
