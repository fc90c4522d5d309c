package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/allisson/authcore/internal/errors"
	"github.com/allisson/authcore/internal/token/domain"
)

// accessTokenService implements AccessTokenService using HMAC-SHA256 signing.
type accessTokenService struct {
	signingKey []byte
}

// NewAccessTokenService creates a new AccessTokenService with the given
// signing key. Returns domain.ErrMissingSigningKey when the key is empty.
func NewAccessTokenService(signingKey string) (AccessTokenService, error) {
	if signingKey == "" {
		return nil, domain.ErrMissingSigningKey
	}
	return &accessTokenService{signingKey: []byte(signingKey)}, nil
}

// Sign creates a signed access token carrying the subject, subject type,
// token_use marker, the jti used for later revocation, and any
// caller-supplied extra claims.
func (s *accessTokenService) Sign(
	subjectID uuid.UUID,
	subjectType domain.SubjectType,
	jti uuid.UUID,
	issuedAt, expiresAt time.Time,
	extra map[string]any,
) (string, error) {
	claims := jwt.MapClaims{}
	for key, value := range extra {
		claims[key] = value
	}

	// Reserved claims always win over caller-supplied values.
	claims["sub"] = subjectID.String()
	claims["jti"] = jti.String()
	claims["iat"] = jwt.NewNumericDate(issuedAt)
	claims["exp"] = jwt.NewNumericDate(expiresAt)
	claims["subject_type"] = string(subjectType)
	claims["token_use"] = domain.TokenUseAccess

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign access token")
	}
	return signed, nil
}

// Parse validates the token and maps library failures to domain errors.
func (s *accessTokenService) Parse(tokenString string) (*domain.AccessClaims, error) {
	claims := &domain.AccessClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		switch {
		case apperrors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		case apperrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, domain.ErrTokenSignatureInvalid
		default:
			return nil, domain.ErrTokenMalformed
		}
	}

	// A token without the access marker was signed for some other purpose.
	if claims.TokenUse != domain.TokenUseAccess {
		return nil, domain.ErrTokenMalformed
	}
	if !claims.SubjectType.Valid() {
		return nil, domain.ErrTokenMalformed
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, domain.ErrTokenMalformed
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, domain.ErrTokenMalformed
	}

	return claims, nil
}
