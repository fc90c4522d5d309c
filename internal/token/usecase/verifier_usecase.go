package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/config"
	"github.com/allisson/authcore/internal/database"
	tokenDomain "github.com/allisson/authcore/internal/token/domain"
	tokenService "github.com/allisson/authcore/internal/token/service"
)

// verifierUseCase implements VerifierUseCase for credential verification and revocation.
type verifierUseCase struct {
	config        *config.Config
	txManager     database.TxManager
	refreshRepo   RefreshTokenRepository
	blacklistRepo BlacklistRepository
	accessService tokenService.AccessTokenService
	secretService tokenService.RefreshSecretService
	nowFn         func() time.Time
}

// VerifyAccessToken validates an access token end to end.
//
// This method:
// 1. Parses the token and validates signature and temporal claims
// 2. Checks the jti against the blacklist
//
// The blacklist check runs after signature validation so only authentic
// tokens reach the database, but a blacklisted token is always rejected no
// matter how valid it otherwise is.
func (v *verifierUseCase) VerifyAccessToken(
	ctx context.Context,
	tokenString string,
) (*tokenDomain.AccessClaims, error) {
	claims, err := v.accessService.Parse(tokenString)
	if err != nil {
		return nil, err
	}

	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, tokenDomain.ErrTokenMalformed
	}

	blacklisted, err := v.blacklistRepo.Exists(ctx, jti, v.nowFn())
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, tokenDomain.ErrTokenBlacklisted
	}

	return claims, nil
}

// VerifyRefreshToken validates an opaque refresh secret and consumes the
// matching token.
//
// This method:
// 1. Lists all active refresh tokens
// 2. Compares the secret against each stored hash until one matches
// 3. Atomically consumes the matched token
//
// The conditional consume is what enforces single use: two concurrent
// exchanges of the same secret both find the row, but only one update
// matches it unused. The loser gets ErrInvalidRefreshToken, exactly as if
// the secret were unknown.
func (v *verifierUseCase) VerifyRefreshToken(
	ctx context.Context,
	plainSecret string,
) (*tokenDomain.RefreshToken, error) {
	now := v.nowFn()

	candidates, err := v.refreshRepo.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		if !v.secretService.CompareSecret(plainSecret, candidate.TokenHash) {
			continue
		}

		consumed, err := v.refreshRepo.Consume(ctx, candidate.ID, now)
		if err != nil {
			return nil, err
		}
		if !consumed {
			// Lost the race or the token expired between list and consume.
			return nil, tokenDomain.ErrInvalidRefreshToken
		}

		candidate.IsUsed = true
		candidate.LastUsedAt = &now
		return candidate, nil
	}

	return nil, tokenDomain.ErrInvalidRefreshToken
}

// BlacklistToken revokes an access token by jti. The entry outlives the
// longest possible access token lifetime, so cleanup can drop it as soon as
// the token itself would no longer verify.
func (v *verifierUseCase) BlacklistToken(
	ctx context.Context,
	jti uuid.UUID,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	reason string,
) (bool, error) {
	now := v.nowFn()

	entry := &tokenDomain.BlacklistEntry{
		JTI:         jti,
		SubjectID:   subjectID,
		SubjectType: subjectType,
		ExpiresAt:   now.Add(v.config.BlacklistEntryExpiration),
		Reason:      reason,
		CreatedAt:   now,
	}

	return v.blacklistRepo.Create(ctx, entry)
}

// IsBlacklisted reports whether the jti is currently revoked.
func (v *verifierUseCase) IsBlacklisted(ctx context.Context, jti uuid.UUID) (bool, error) {
	return v.blacklistRepo.Exists(ctx, jti, v.nowFn())
}

// RevokeAllForSubject revokes every active session of the subject in a single
// transaction: each active refresh token's jti is blacklisted and the tokens
// are marked used. Either everything is revoked or nothing is.
func (v *verifierUseCase) RevokeAllForSubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	reason string,
) (int64, error) {
	var revoked int64

	err := v.txManager.WithTx(ctx, func(ctx context.Context) error {
		now := v.nowFn()

		tokens, err := v.refreshRepo.ListActiveBySubject(ctx, subjectID, subjectType, now)
		if err != nil {
			return err
		}

		for _, token := range tokens {
			entry := &tokenDomain.BlacklistEntry{
				JTI:         token.JTI,
				SubjectID:   subjectID,
				SubjectType: subjectType,
				ExpiresAt:   now.Add(v.config.BlacklistEntryExpiration),
				Reason:      reason,
				CreatedAt:   now,
			}
			if _, err := v.blacklistRepo.Create(ctx, entry); err != nil {
				return err
			}
		}

		revoked, err = v.refreshRepo.MarkAllUsedBySubject(ctx, subjectID, subjectType, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	return revoked, nil
}

// NewVerifierUseCase creates a new VerifierUseCase with the provided dependencies.
func NewVerifierUseCase(
	cfg *config.Config,
	txManager database.TxManager,
	refreshRepo RefreshTokenRepository,
	blacklistRepo BlacklistRepository,
	accessService tokenService.AccessTokenService,
	secretService tokenService.RefreshSecretService,
) VerifierUseCase {
	return &verifierUseCase{
		config:        cfg,
		txManager:     txManager,
		refreshRepo:   refreshRepo,
		blacklistRepo: blacklistRepo,
		accessService: accessService,
		secretService: secretService,
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}
