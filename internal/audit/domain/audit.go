// Package domain defines the entities for the append-only audit trail.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies what happened in an audit event.
type Action string

const (
	ActionLoginSuccess          Action = "login_success"
	ActionLoginFailed           Action = "login_failed"
	ActionLogout                Action = "logout"
	ActionRegistrationSuccess   Action = "registration_success"
	ActionRegistrationFailed    Action = "registration_failed"
	ActionPasswordResetRequest  Action = "password_reset_request"
	ActionPasswordResetComplete Action = "password_reset_complete"
	ActionPasswordChanged       Action = "password_changed"
	ActionTokenCreated          Action = "token_created"
	ActionTokenRefreshSuccess   Action = "token_refresh_success"
	ActionTokenRefreshFailed    Action = "token_refresh_failed"
	ActionTokenRevoked          Action = "token_revoked"
	ActionTokenBlacklisted      Action = "token_blacklisted"
	ActionSuspiciousActivity    Action = "suspicious_activity"
	ActionRateLimitExceeded     Action = "rate_limit_exceeded"
	ActionAccountLocked         Action = "account_locked"
	ActionAccountUnlocked       Action = "account_unlocked"
)

// SuspiciousActions is the high-risk subset surfaced by security review queries.
var SuspiciousActions = []Action{
	ActionSuspiciousActivity,
	ActionRateLimitExceeded,
	ActionAccountLocked,
}

// Optional keys for the free-form details map. Writers should prefer these
// over inventing new spellings so queries can rely on them.
const (
	// DetailKeyIdentity is the login identity an attempt was made against.
	DetailKeyIdentity = "identity"
	// DetailKeyReason is a human-readable cause for failures and revocations.
	DetailKeyReason = "reason"
	// DetailKeyEndpoint is the endpoint category for rate limit events.
	DetailKeyEndpoint = "endpoint"
	// DetailKeyTokenID is the refresh token ID for token lifecycle events.
	DetailKeyTokenID = "token_id"
)

// Event is one immutable audit record. SubjectID and SubjectType are nil for
// events that happen before a subject is known, such as failed logins against
// unknown identities.
type Event struct {
	ID          uuid.UUID
	SubjectID   *uuid.UUID
	SubjectType *string
	Action      Action
	IPAddress   string
	UserAgent   string
	Success     bool
	Details     map[string]any
	CreatedAt   time.Time
}

// ActionCount is the number of events for one action and outcome.
type ActionCount struct {
	Action  Action
	Success bool
	Count   int64
}

// DayCount is the number of events recorded on one calendar day.
type DayCount struct {
	Day   time.Time
	Count int64
}

// Statistics summarizes audit activity since a point in time.
type Statistics struct {
	Since            time.Time
	Total            int64
	ByAction         []*ActionCount
	DistinctSubjects int64
	DistinctOrigins  int64
	Daily            []*DayCount
}
