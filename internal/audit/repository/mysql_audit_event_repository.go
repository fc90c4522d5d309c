package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/authcore/internal/audit/domain"
	"github.com/allisson/authcore/internal/database"
	apperrors "github.com/allisson/authcore/internal/errors"
)

// MySQLAuditEventRepository implements audit event persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLAuditEventRepository struct {
	db *sql.DB
}

// Create inserts a new audit event using BINARY(16) for UUIDs. The details
// map is stored as JSON.
func (m *MySQLAuditEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO audit_events
			  (id, subject_id, subject_type, action, ip_address, user_agent, success, details, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event id")
	}

	var subjectID []byte
	if event.SubjectID != nil {
		subjectID, err = event.SubjectID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal subject id")
		}
	}

	details, err := marshalDetails(event.Details)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event details")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		subjectID,
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
func (m *MySQLAuditEventRepository) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType string,
	offset int,
	limit int,
) ([]*auditDomain.Event, error) {
	query := `SELECT id, subject_id, subject_type, action, ip_address, user_agent, success, details, created_at
			  FROM audit_events
			  WHERE subject_id = ? AND subject_type = ?
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	id, err := subjectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subject id")
	}

	return m.list(ctx, query, id, subjectType, limit, offset)
}

// ListFailedLogins retrieves failed login events for the given identity since
// the cutoff, newest first. Events recorded before the subject was resolved
// carry a NULL subject type and match any requested type.
func (m *MySQLAuditEventRepository) ListFailedLogins(
	ctx context.Context,
	identity string,
	subjectType string,
	since time.Time,
) ([]*auditDomain.Event, error) {
	query := `SELECT id, subject_id, subject_type, action, ip_address, user_agent, success, details, created_at
			  FROM audit_events
			  WHERE action = ? AND JSON_UNQUOTE(JSON_EXTRACT(details, '$.identity')) = ?
			  AND (subject_type IS NULL OR subject_type = ?)
			  AND created_at >= ?
			  ORDER BY created_at DESC`

	return m.list(ctx, query, auditDomain.ActionLoginFailed, identity, subjectType, since)
}

// ListByActionsSince retrieves events for any of the given actions since the
// cutoff, newest first.
func (m *MySQLAuditEventRepository) ListByActionsSince(
	ctx context.Context,
	actions []auditDomain.Action,
	since time.Time,
) ([]*auditDomain.Event, error) {
	placeholders := make([]string, len(actions))
	args := make([]any, 0, len(actions)+1)
	for i, action := range actions {
		placeholders[i] = "?"
		args = append(args, action)
	}
	args = append(args, since)

	query := `SELECT id, subject_id, subject_type, action, ip_address, user_agent, success, details, created_at
			  FROM audit_events
			  WHERE action IN (` + strings.Join(placeholders, ", ") + `) AND created_at >= ?
			  ORDER BY created_at DESC`

	return m.list(ctx, query, args...)
}

// CountByActionSince returns per-action, per-outcome event counts since the cutoff.
func (m *MySQLAuditEventRepository) CountByActionSince(
	ctx context.Context,
	since time.Time,
) ([]*auditDomain.ActionCount, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT action, success, COUNT(*)
			  FROM audit_events
			  WHERE created_at >= ?
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
func (m *MySQLAuditEventRepository) DistinctCountsSince(
	ctx context.Context,
	since time.Time,
) (int64, int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(DISTINCT subject_id), COUNT(DISTINCT ip_address)
			  FROM audit_events
			  WHERE created_at >= ?`

	var subjects, origins int64
	err := querier.QueryRowContext(ctx, query, since).Scan(&subjects, &origins)
	if err != nil {
		return 0, 0, apperrors.Wrap(err, "failed to count distinct audit dimensions")
	}

	return subjects, origins, nil
}

// DailyCountsSince returns per-day event counts since the cutoff, oldest day first.
func (m *MySQLAuditEventRepository) DailyCountsSince(
	ctx context.Context,
	since time.Time,
) ([]*auditDomain.DayCount, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT CAST(DATE(created_at) AS DATETIME) AS day, COUNT(*)
			  FROM audit_events
			  WHERE created_at >= ?
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
func (m *MySQLAuditEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM audit_events WHERE created_at < ?`

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
func (m *MySQLAuditEventRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM audit_events WHERE created_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired audit events")
	}

	return count, nil
}

func (m *MySQLAuditEventRepository) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]*auditDomain.Event, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}
	defer rows.Close()

	var events []*auditDomain.Event
	for rows.Next() {
		var event auditDomain.Event
		var idBytes, subjectIDBytes []byte
		var subjectType sql.NullString
		var details []byte

		if err := rows.Scan(
			&idBytes,
			&subjectIDBytes,
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

		id, err := uuid.FromBytes(idBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event id")
		}
		event.ID = id

		if subjectIDBytes != nil {
			subjectID, err := uuid.FromBytes(subjectIDBytes)
			if err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
			}
			event.SubjectID = &subjectID
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

// NewMySQLAuditEventRepository creates a new MySQL audit event repository.
func NewMySQLAuditEventRepository(db *sql.DB) *MySQLAuditEventRepository {
	return &MySQLAuditEventRepository{db: db}
}
