// Package service provides technical services for credential operations.
//
// This package implements reusable services for access token signing and
// parsing, and for refresh secret generation and verification, using
// industry-standard cryptographic practices.
package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/token/domain"
)

// AccessTokenService defines operations for signed access token handling.
// Implementations must reject tokens signed with an unexpected algorithm and
// must report malformed, expired, and signature failures as distinct errors.
type AccessTokenService interface {
	// Sign creates a signed access token for the subject. The jti is embedded
	// so the token can later be revoked through the blacklist. Caller-supplied
	// extra claims are carried in the token; reserved claims cannot be
	// overridden by them.
	Sign(
		subjectID uuid.UUID,
		subjectType domain.SubjectType,
		jti uuid.UUID,
		issuedAt, expiresAt time.Time,
		extra map[string]any,
	) (string, error)

	// Parse validates the token signature and temporal claims and returns the
	// claim set. Returns domain.ErrTokenMalformed, domain.ErrTokenExpired, or
	// domain.ErrTokenSignatureInvalid on failure.
	Parse(tokenString string) (*domain.AccessClaims, error)
}

// RefreshSecretService defines operations for opaque refresh secret
// generation and verification. Implementations must use cryptographically
// secure random generation and a slow, salted hashing algorithm so stored
// hashes are useless to an attacker who reads the database.
type RefreshSecretService interface {
	// GenerateSecret creates a new cryptographically secure random secret.
	// Returns both the plain text secret (to be shared with the client) and
	// the hashed version (to be stored in the database).
	//
	// The plain secret is only available once, at issuance.
	GenerateSecret() (plainSecret string, hashedSecret string, error error)

	// CompareSecret compares a plain text secret against a stored hash.
	// Returns true if the plain secret matches the hash, false otherwise.
	CompareSecret(plainSecret string, hashedSecret string) bool
}
