package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/metrics"
	"github.com/allisson/authcore/internal/origin"
	tokenDomain "github.com/allisson/authcore/internal/token/domain"
)

// issuerUseCaseWithMetrics decorates IssuerUseCase with metrics instrumentation.
type issuerUseCaseWithMetrics struct {
	next    IssuerUseCase
	metrics metrics.BusinessMetrics
}

// NewIssuerUseCaseWithMetrics wraps an IssuerUseCase with metrics recording.
func NewIssuerUseCaseWithMetrics(useCase IssuerUseCase, m metrics.BusinessMetrics) IssuerUseCase {
	return &issuerUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// CreateAccessToken records metrics for access token issuance.
func (i *issuerUseCaseWithMetrics) CreateAccessToken(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	extraClaims map[string]any,
) (*tokenDomain.AccessTokenOutput, error) {
	start := time.Now()
	output, err := i.next.CreateAccessToken(ctx, subjectID, subjectType, extraClaims)

	status := "success"
	if err != nil {
		status = "error"
	}

	i.metrics.RecordOperation(ctx, "token", "create_access_token", status)
	i.metrics.RecordDuration(ctx, "token", "create_access_token", time.Since(start), status)

	return output, err
}

// CreateRefreshToken records metrics for refresh token issuance.
func (i *issuerUseCaseWithMetrics) CreateRefreshToken(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	org origin.Origin,
) (*tokenDomain.RefreshTokenOutput, error) {
	start := time.Now()
	output, err := i.next.CreateRefreshToken(ctx, subjectID, subjectType, org)

	status := "success"
	if err != nil {
		status = "error"
	}

	i.metrics.RecordOperation(ctx, "token", "create_refresh_token", status)
	i.metrics.RecordDuration(ctx, "token", "create_refresh_token", time.Since(start), status)

	return output, err
}

// CreateTokenPair records metrics for token pair issuance.
func (i *issuerUseCaseWithMetrics) CreateTokenPair(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	org origin.Origin,
) (*tokenDomain.TokenPair, error) {
	start := time.Now()
	pair, err := i.next.CreateTokenPair(ctx, subjectID, subjectType, org)

	status := "success"
	if err != nil {
		status = "error"
	}

	i.metrics.RecordOperation(ctx, "token", "create_token_pair", status)
	i.metrics.RecordDuration(ctx, "token", "create_token_pair", time.Since(start), status)

	return pair, err
}

// ListActiveForSubject records metrics for session listing.
func (i *issuerUseCaseWithMetrics) ListActiveForSubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
) ([]*tokenDomain.RefreshToken, error) {
	start := time.Now()
	tokens, err := i.next.ListActiveForSubject(ctx, subjectID, subjectType)

	status := "success"
	if err != nil {
		status = "error"
	}

	i.metrics.RecordOperation(ctx, "token", "list_active_for_subject", status)
	i.metrics.RecordDuration(ctx, "token", "list_active_for_subject", time.Since(start), status)

	return tokens, err
}

// verifierUseCaseWithMetrics decorates VerifierUseCase with metrics instrumentation.
type verifierUseCaseWithMetrics struct {
	next    VerifierUseCase
	metrics metrics.BusinessMetrics
}

// NewVerifierUseCaseWithMetrics wraps a VerifierUseCase with metrics recording.
func NewVerifierUseCaseWithMetrics(useCase VerifierUseCase, m metrics.BusinessMetrics) VerifierUseCase {
	return &verifierUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// VerifyAccessToken records metrics for access token verification.
func (v *verifierUseCaseWithMetrics) VerifyAccessToken(
	ctx context.Context,
	tokenString string,
) (*tokenDomain.AccessClaims, error) {
	start := time.Now()
	claims, err := v.next.VerifyAccessToken(ctx, tokenString)

	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "token", "verify_access_token", status)
	v.metrics.RecordDuration(ctx, "token", "verify_access_token", time.Since(start), status)

	return claims, err
}

// VerifyRefreshToken records metrics for refresh token exchange.
func (v *verifierUseCaseWithMetrics) VerifyRefreshToken(
	ctx context.Context,
	plainSecret string,
) (*tokenDomain.RefreshToken, error) {
	start := time.Now()
	token, err := v.next.VerifyRefreshToken(ctx, plainSecret)

	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "token", "verify_refresh_token", status)
	v.metrics.RecordDuration(ctx, "token", "verify_refresh_token", time.Since(start), status)

	return token, err
}

// BlacklistToken records metrics for token revocation.
func (v *verifierUseCaseWithMetrics) BlacklistToken(
	ctx context.Context,
	jti uuid.UUID,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	reason string,
) (bool, error) {
	start := time.Now()
	inserted, err := v.next.BlacklistToken(ctx, jti, subjectID, subjectType, reason)

	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "token", "blacklist_token", status)
	v.metrics.RecordDuration(ctx, "token", "blacklist_token", time.Since(start), status)

	return inserted, err
}

// IsBlacklisted records metrics for blacklist lookups.
func (v *verifierUseCaseWithMetrics) IsBlacklisted(ctx context.Context, jti uuid.UUID) (bool, error) {
	start := time.Now()
	blacklisted, err := v.next.IsBlacklisted(ctx, jti)

	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "token", "is_blacklisted", status)
	v.metrics.RecordDuration(ctx, "token", "is_blacklisted", time.Since(start), status)

	return blacklisted, err
}

// RevokeAllForSubject records metrics for bulk revocation.
func (v *verifierUseCaseWithMetrics) RevokeAllForSubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	reason string,
) (int64, error) {
	start := time.Now()
	revoked, err := v.next.RevokeAllForSubject(ctx, subjectID, subjectType, reason)

	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "token", "revoke_all_for_subject", status)
	v.metrics.RecordDuration(ctx, "token", "revoke_all_for_subject", time.Since(start), status)

	return revoked, err
}
