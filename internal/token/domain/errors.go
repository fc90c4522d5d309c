package domain

import (
	"github.com/allisson/authcore/internal/errors"
)

// Credential verification and issuance errors.
var (
	// ErrTokenMalformed indicates the presented access token could not be parsed.
	ErrTokenMalformed = errors.Wrap(errors.ErrUnauthorized, "token malformed")

	// ErrTokenExpired indicates the presented access token is past its expiry.
	ErrTokenExpired = errors.Wrap(errors.ErrUnauthorized, "token expired")

	// ErrTokenSignatureInvalid indicates the access token signature did not verify.
	ErrTokenSignatureInvalid = errors.Wrap(errors.ErrUnauthorized, "token signature invalid")

	// ErrTokenBlacklisted indicates the access token was revoked before expiry.
	ErrTokenBlacklisted = errors.Wrap(errors.ErrUnauthorized, "token blacklisted")

	// ErrInvalidRefreshToken indicates the refresh credential is unknown,
	// expired, or already exchanged. Callers receive the same error in every
	// case so probing cannot distinguish them.
	ErrInvalidRefreshToken = errors.Wrap(errors.ErrUnauthorized, "invalid refresh token")

	// ErrRefreshTokenNotFound indicates a refresh token with the specified ID was not found.
	ErrRefreshTokenNotFound = errors.Wrap(errors.ErrNotFound, "refresh token not found")

	// ErrMissingSigningKey indicates the issuer was constructed without a signing key.
	ErrMissingSigningKey = errors.Wrap(errors.ErrInvalidInput, "missing signing key")
)
