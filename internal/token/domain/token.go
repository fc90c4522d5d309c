// Package domain defines the core entities for credential issuance and
// verification: refresh tokens, blacklist entries, and access token claims.
package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SubjectType identifies the kind of principal a credential belongs to.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "user"
	SubjectTypeAdmin SubjectType = "admin"
)

// Valid reports whether the subject type is one of the known kinds.
func (s SubjectType) Valid() bool {
	return s == SubjectTypeUser || s == SubjectTypeAdmin
}

// TokenUseAccess is the token_use claim value stamped into access tokens.
// Verification rejects any JWT without it, so refresh material or foreign
// tokens can never pass as access tokens.
const TokenUseAccess = "access"

// RefreshToken is a stored refresh credential. The opaque secret handed to
// the client is never persisted, only its hash.
type RefreshToken struct {
	ID          uuid.UUID
	SubjectID   uuid.UUID
	SubjectType SubjectType
	TokenHash   string
	JTI         uuid.UUID
	ExpiresAt   time.Time
	IsUsed      bool
	LastUsedAt  *time.Time
	IPAddress   string
	UserAgent   string
	CreatedAt   time.Time
}

// Active reports whether the token can still be exchanged at the given time.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.IsUsed && t.ExpiresAt.After(now)
}

// BlacklistEntry records a revoked access token identifier. Entries are kept
// only as long as the revoked token could still be presented.
type BlacklistEntry struct {
	JTI         uuid.UUID
	SubjectID   uuid.UUID
	SubjectType SubjectType
	ExpiresAt   time.Time
	Reason      string
	CreatedAt   time.Time
}

// AccessClaims is the claim set carried by signed access tokens.
type AccessClaims struct {
	SubjectType SubjectType `json:"subject_type"`
	TokenUse    string      `json:"token_use"`
	jwt.RegisteredClaims
}

// AccessTokenOutput is the result of issuing a standalone access token.
type AccessTokenOutput struct {
	Token     string
	JTI       uuid.UUID
	ExpiresAt time.Time
}

// RefreshTokenOutput is the result of issuing a standalone refresh token.
// Secret is the only copy of the opaque credential.
type RefreshTokenOutput struct {
	TokenID   uuid.UUID
	Secret    string
	ExpiresAt time.Time
}

// TokenPair bundles a newly issued access token with its refresh credential.
// RefreshSecret is the only copy of the opaque secret; it cannot be recovered
// after issuance.
type TokenPair struct {
	AccessToken      string
	RefreshSecret    string
	RefreshTokenID   uuid.UUID
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
