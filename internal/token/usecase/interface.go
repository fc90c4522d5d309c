// Package usecase defines business logic interfaces for credential issuance
// and verification operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/origin"
	tokenDomain "github.com/allisson/authcore/internal/token/domain"
)

// RefreshTokenRepository defines persistence operations for refresh tokens.
// Implementations must support transaction-aware operations via context propagation.
type RefreshTokenRepository interface {
	// Create stores a new refresh token in the repository.
	Create(ctx context.Context, token *tokenDomain.RefreshToken) error

	// Get retrieves a refresh token by ID. Returns ErrRefreshTokenNotFound if not found.
	Get(ctx context.Context, tokenID uuid.UUID) (*tokenDomain.RefreshToken, error)

	// ListActive retrieves all unused, unexpired refresh tokens at the given time.
	ListActive(ctx context.Context, now time.Time) ([]*tokenDomain.RefreshToken, error)

	// ListActiveBySubject retrieves the subject's unused, unexpired refresh tokens.
	ListActiveBySubject(
		ctx context.Context,
		subjectID uuid.UUID,
		subjectType tokenDomain.SubjectType,
		now time.Time,
	) ([]*tokenDomain.RefreshToken, error)

	// Consume atomically marks a refresh token as used. Returns true only when
	// this call performed the consume; a replayed or expired token returns false.
	Consume(ctx context.Context, tokenID uuid.UUID, usedAt time.Time) (bool, error)

	// MarkAllUsedBySubject marks all of the subject's active refresh tokens as
	// used. Returns the number of tokens revoked.
	MarkAllUsedBySubject(
		ctx context.Context,
		subjectID uuid.UUID,
		subjectType tokenDomain.SubjectType,
		usedAt time.Time,
	) (int64, error)

	// DeleteExpired removes refresh tokens that expired before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// DeleteUsedBefore removes consumed refresh tokens last used before the cutoff.
	DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BlacklistRepository defines persistence operations for revoked access tokens.
// Implementations must support transaction-aware operations via context propagation.
type BlacklistRepository interface {
	// Create stores a blacklist entry. Returns true when this call inserted the
	// entry; re-revoking the same jti is idempotent and returns false.
	Create(ctx context.Context, entry *tokenDomain.BlacklistEntry) (bool, error)

	// Exists reports whether the jti is blacklisted at the given time.
	Exists(ctx context.Context, jti uuid.UUID, now time.Time) (bool, error)

	// DeleteExpired removes blacklist entries that expired before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// IssuerUseCase defines business logic for credential issuance.
type IssuerUseCase interface {
	// CreateAccessToken issues a signed access token for the subject with a
	// fresh jti for later revocation. Caller-supplied extra claims are
	// embedded in the token; reserved claims cannot be overridden.
	CreateAccessToken(
		ctx context.Context,
		subjectID uuid.UUID,
		subjectType tokenDomain.SubjectType,
		extraClaims map[string]any,
	) (*tokenDomain.AccessTokenOutput, error)

	// CreateRefreshToken issues an opaque refresh credential for the subject.
	// The returned secret is the only copy; the repository stores its hash.
	CreateRefreshToken(
		ctx context.Context,
		subjectID uuid.UUID,
		subjectType tokenDomain.SubjectType,
		org origin.Origin,
	) (*tokenDomain.RefreshTokenOutput, error)

	// CreateTokenPair issues an access token and a refresh token that share a
	// jti, so revoking through the refresh credential also blacklists the
	// access token.
	CreateTokenPair(
		ctx context.Context,
		subjectID uuid.UUID,
		subjectType tokenDomain.SubjectType,
		org origin.Origin,
	) (*tokenDomain.TokenPair, error)

	// ListActiveForSubject returns the subject's active refresh tokens for
	// session inspection.
	ListActiveForSubject(
		ctx context.Context,
		subjectID uuid.UUID,
		subjectType tokenDomain.SubjectType,
	) ([]*tokenDomain.RefreshToken, error)
}

// VerifierUseCase defines business logic for credential verification and revocation.
type VerifierUseCase interface {
	// VerifyAccessToken validates the signature, temporal claims, and blacklist
	// status of an access token. A blacklisted token fails even when its
	// signature and expiry are valid.
	VerifyAccessToken(ctx context.Context, tokenString string) (*tokenDomain.AccessClaims, error)

	// VerifyRefreshToken validates an opaque refresh secret and atomically
	// consumes the matching token. Returns ErrInvalidRefreshToken for unknown,
	// expired, and replayed secrets alike.
	VerifyRefreshToken(ctx context.Context, plainSecret string) (*tokenDomain.RefreshToken, error)

	// BlacklistToken revokes an access token by its jti. Returns true when the
	// entry was created by this call.
	BlacklistToken(
		ctx context.Context,
		jti uuid.UUID,
		subjectID uuid.UUID,
		subjectType tokenDomain.SubjectType,
		reason string,
	) (bool, error)

	// IsBlacklisted reports whether the jti is currently revoked.
	IsBlacklisted(ctx context.Context, jti uuid.UUID) (bool, error)

	// RevokeAllForSubject blacklists the jti of every active refresh token for
	// the subject and marks the tokens used, all within one transaction.
	// Returns the number of refresh tokens revoked.
	RevokeAllForSubject(
		ctx context.Context,
		subjectID uuid.UUID,
		subjectType tokenDomain.SubjectType,
		reason string,
	) (int64, error)
}
