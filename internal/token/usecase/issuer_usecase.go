// Package usecase implements business logic orchestration for credential operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/config"
	"github.com/allisson/authcore/internal/origin"
	tokenDomain "github.com/allisson/authcore/internal/token/domain"
	tokenService "github.com/allisson/authcore/internal/token/service"
)

// issuerUseCase implements IssuerUseCase for creating access and refresh credentials.
type issuerUseCase struct {
	config        *config.Config
	refreshRepo   RefreshTokenRepository
	accessService tokenService.AccessTokenService
	secretService tokenService.RefreshSecretService
	nowFn         func() time.Time
}

// CreateAccessToken issues a signed access token for the subject. Extra
// claims, when given, are carried in the token alongside the reserved ones.
func (i *issuerUseCase) CreateAccessToken(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	extraClaims map[string]any,
) (*tokenDomain.AccessTokenOutput, error) {
	now := i.nowFn()
	jti := uuid.Must(uuid.NewV7())
	expiresAt := now.Add(i.config.AccessTokenExpiration)

	signed, err := i.accessService.Sign(subjectID, subjectType, jti, now, expiresAt, extraClaims)
	if err != nil {
		return nil, err
	}

	return &tokenDomain.AccessTokenOutput{
		Token:     signed,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}

// CreateRefreshToken issues an opaque refresh credential and stores its hash.
func (i *issuerUseCase) CreateRefreshToken(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	org origin.Origin,
) (*tokenDomain.RefreshTokenOutput, error) {
	now := i.nowFn()

	plainSecret, hashedSecret, err := i.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	token := &tokenDomain.RefreshToken{
		ID:          uuid.Must(uuid.NewV7()),
		SubjectID:   subjectID,
		SubjectType: subjectType,
		TokenHash:   hashedSecret,
		JTI:         uuid.Must(uuid.NewV7()),
		ExpiresAt:   now.Add(i.config.RefreshTokenExpiration),
		IsUsed:      false,
		IPAddress:   org.ClientAddress(),
		UserAgent:   org.UserAgent,
		CreatedAt:   now,
	}

	if err := i.refreshRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	return &tokenDomain.RefreshTokenOutput{
		TokenID:   token.ID,
		Secret:    plainSecret,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// CreateTokenPair issues an access token and a refresh token sharing a jti.
// The shared jti lets revocation of the session blacklist the access token
// that was minted with it.
func (i *issuerUseCase) CreateTokenPair(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	org origin.Origin,
) (*tokenDomain.TokenPair, error) {
	now := i.nowFn()
	jti := uuid.Must(uuid.NewV7())
	accessExpiresAt := now.Add(i.config.AccessTokenExpiration)

	signed, err := i.accessService.Sign(subjectID, subjectType, jti, now, accessExpiresAt, nil)
	if err != nil {
		return nil, err
	}

	plainSecret, hashedSecret, err := i.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	token := &tokenDomain.RefreshToken{
		ID:          uuid.Must(uuid.NewV7()),
		SubjectID:   subjectID,
		SubjectType: subjectType,
		TokenHash:   hashedSecret,
		JTI:         jti,
		ExpiresAt:   now.Add(i.config.RefreshTokenExpiration),
		IsUsed:      false,
		IPAddress:   org.ClientAddress(),
		UserAgent:   org.UserAgent,
		CreatedAt:   now,
	}

	if err := i.refreshRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	return &tokenDomain.TokenPair{
		AccessToken:      signed,
		RefreshSecret:    plainSecret,
		RefreshTokenID:   token.ID,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: token.ExpiresAt,
	}, nil
}

// ListActiveForSubject returns the subject's active refresh tokens.
func (i *issuerUseCase) ListActiveForSubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
) ([]*tokenDomain.RefreshToken, error) {
	return i.refreshRepo.ListActiveBySubject(ctx, subjectID, subjectType, i.nowFn())
}

// NewIssuerUseCase creates a new IssuerUseCase with the provided dependencies.
func NewIssuerUseCase(
	cfg *config.Config,
	refreshRepo RefreshTokenRepository,
	accessService tokenService.AccessTokenService,
	secretService tokenService.RefreshSecretService,
) IssuerUseCase {
	return &issuerUseCase{
		config:        cfg,
		refreshRepo:   refreshRepo,
		accessService: accessService,
		secretService: secretService,
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}
