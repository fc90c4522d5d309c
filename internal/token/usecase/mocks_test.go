package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	tokenDomain "github.com/allisson/authcore/internal/token/domain"
)

// mockRefreshTokenRepository is a mock implementation of RefreshTokenRepository for testing.
type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *tokenDomain.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*tokenDomain.RefreshToken, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tokenDomain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) ListActive(ctx context.Context, now time.Time) ([]*tokenDomain.RefreshToken, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tokenDomain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) ListActiveBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	now time.Time,
) ([]*tokenDomain.RefreshToken, error) {
	args := m.Called(ctx, subjectID, subjectType, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tokenDomain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) Consume(ctx context.Context, tokenID uuid.UUID, usedAt time.Time) (bool, error) {
	args := m.Called(ctx, tokenID, usedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockRefreshTokenRepository) MarkAllUsedBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	usedAt time.Time,
) (int64, error) {
	args := m.Called(ctx, subjectID, subjectType, usedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRefreshTokenRepository) DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// mockBlacklistRepository is a mock implementation of BlacklistRepository for testing.
type mockBlacklistRepository struct {
	mock.Mock
}

func (m *mockBlacklistRepository) Create(ctx context.Context, entry *tokenDomain.BlacklistEntry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *mockBlacklistRepository) Exists(ctx context.Context, jti uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, jti, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockBlacklistRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// mockAccessTokenService is a mock implementation of service.AccessTokenService for testing.
type mockAccessTokenService struct {
	mock.Mock
}

func (m *mockAccessTokenService) Sign(
	subjectID uuid.UUID,
	subjectType tokenDomain.SubjectType,
	jti uuid.UUID,
	issuedAt, expiresAt time.Time,
	extra map[string]any,
) (string, error) {
	args := m.Called(subjectID, subjectType, jti, issuedAt, expiresAt, extra)
	return args.String(0), args.Error(1)
}

func (m *mockAccessTokenService) Parse(tokenString string) (*tokenDomain.AccessClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tokenDomain.AccessClaims), args.Error(1)
}

// mockRefreshSecretService is a mock implementation of service.RefreshSecretService for testing.
type mockRefreshSecretService struct {
	mock.Mock
}

func (m *mockRefreshSecretService) GenerateSecret() (plainSecret string, hashedSecret string, error error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockRefreshSecretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	args := m.Called(plainSecret, hashedSecret)
	return args.Bool(0)
}

// mockTxManager executes transaction functions directly without a database.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
