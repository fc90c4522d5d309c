package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/authcore/internal/config"
	tokenDomain "github.com/allisson/authcore/internal/token/domain"
)

func verifierTestConfig() *config.Config {
	return &config.Config{
		BlacklistEntryExpiration: 24 * time.Hour,
	}
}

func accessClaimsFixture(subjectID, jti uuid.UUID) *tokenDomain.AccessClaims {
	return &tokenDomain.AccessClaims{
		SubjectType: tokenDomain.SubjectTypeUser,
		TokenUse:    tokenDomain.TokenUseAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subjectID.String(),
			ID:      jti.String(),
		},
	}
}

func TestVerifierUseCase_VerifyAccessToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("Success_ValidToken", func(t *testing.T) {
		mockAccess := &mockAccessTokenService{}
		mockBlacklist := &mockBlacklistRepository{}
		subjectID := uuid.Must(uuid.NewV7())
		jti := uuid.Must(uuid.NewV7())
		claims := accessClaimsFixture(subjectID, jti)

		mockAccess.On("Parse", "valid-token").Return(claims, nil).Once()
		mockBlacklist.On("Exists", ctx, jti, now).Return(false, nil).Once()

		uc := &verifierUseCase{
			config:        verifierTestConfig(),
			blacklistRepo: mockBlacklist,
			accessService: mockAccess,
			nowFn:         func() time.Time { return now },
		}

		got, err := uc.VerifyAccessToken(ctx, "valid-token")
		assert.NoError(t, err)
		assert.Equal(t, claims, got)
		mockBlacklist.AssertExpectations(t)
	})

	t.Run("Error_BlacklistBeatsValidToken", func(t *testing.T) {
		mockAccess := &mockAccessTokenService{}
		mockBlacklist := &mockBlacklistRepository{}
		jti := uuid.Must(uuid.NewV7())
		claims := accessClaimsFixture(uuid.Must(uuid.NewV7()), jti)

		mockAccess.On("Parse", "revoked-token").Return(claims, nil).Once()
		mockBlacklist.On("Exists", ctx, jti, now).Return(true, nil).Once()

		uc := &verifierUseCase{
			config:        verifierTestConfig(),
			blacklistRepo: mockBlacklist,
			accessService: mockAccess,
			nowFn:         func() time.Time { return now },
		}

		got, err := uc.VerifyAccessToken(ctx, "revoked-token")
		assert.ErrorIs(t, err, tokenDomain.ErrTokenBlacklisted)
		assert.Nil(t, got)
	})

	t.Run("Error_ParseFailure", func(t *testing.T) {
		mockAccess := &mockAccessTokenService{}
		mockAccess.On("Parse", "bad-token").Return(nil, tokenDomain.ErrTokenMalformed).Once()

		uc := &verifierUseCase{
			config:        verifierTestConfig(),
			accessService: mockAccess,
			nowFn:         func() time.Time { return now },
		}

		got, err := uc.VerifyAccessToken(ctx, "bad-token")
		assert.ErrorIs(t, err, tokenDomain.ErrTokenMalformed)
		assert.Nil(t, got)
	})
}

func TestVerifierUseCase_VerifyRefreshToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("Success_MatchesAndConsumes", func(t *testing.T) {
		mockRepo := &mockRefreshTokenRepository{}
		mockSecret := &mockRefreshSecretService{}

		match := &tokenDomain.RefreshToken{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "matching-hash",
		}
		other := &tokenDomain.RefreshToken{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "other-hash",
		}

		mockRepo.On("ListActive", ctx, now).
			Return([]*tokenDomain.RefreshToken{other, match}, nil).Once()
		mockSecret.On("CompareSecret", "plain-secret", "other-hash").Return(false).Once()
		mockSecret.On("CompareSecret", "plain-secret", "matching-hash").Return(true).Once()
		mockRepo.On("Consume", ctx, match.ID, now).Return(true, nil).Once()

		uc := &verifierUseCase{
			config:        verifierTestConfig(),
			refreshRepo:   mockRepo,
			secretService: mockSecret,
			nowFn:         func() time.Time { return now },
		}

		token, err := uc.VerifyRefreshToken(ctx, "plain-secret")
		assert.NoError(t, err)
		assert.Equal(t, match.ID, token.ID)
		assert.True(t, token.IsUsed)
		mockRepo.AssertExpectations(t)
		mockSecret.AssertExpectations(t)
	})

	t.Run("Error_NoMatch", func(t *testing.T) {
		mockRepo := &mockRefreshTokenRepository{}
		mockSecret := &mockRefreshSecretService{}

		mockRepo.On("ListActive", ctx, now).
			Return([]*tokenDomain.RefreshToken{{ID: uuid.Must(uuid.NewV7()), TokenHash: "hash"}}, nil).Once()
		mockSecret.On("CompareSecret", "unknown-secret", "hash").Return(false).Once()

		uc := &verifierUseCase{
			config:        verifierTestConfig(),
			refreshRepo:   mockRepo,
			secretService: mockSecret,
			nowFn:         func() time.Time { return now },
		}

		token, err := uc.VerifyRefreshToken(ctx, "unknown-secret")
		assert.ErrorIs(t, err, tokenDomain.ErrInvalidRefreshToken)
		assert.Nil(t, token)
	})

	t.Run("Error_ReplayLosesConsumeRace", func(t *testing.T) {
		mockRepo := &mockRefreshTokenRepository{}
		mockSecret := &mockRefreshSecretService{}

		match := &tokenDomain.RefreshToken{
			ID:        uuid.Must(uuid.NewV7()),
			TokenHash: "matching-hash",
		}

		mockRepo.On("ListActive", ctx, now).
			Return([]*tokenDomain.RefreshToken{match}, nil).Once()
		mockSecret.On("CompareSecret", "plain-secret", "matching-hash").Return(true).Once()
		// Another exchange consumed the token between list and consume.
		mockRepo.On("Consume", ctx, match.ID, now).Return(false, nil).Once()

		uc := &verifierUseCase{
			config:        verifierTestConfig(),
			refreshRepo:   mockRepo,
			secretService: mockSecret,
			nowFn:         func() time.Time { return now },
		}

		token, err := uc.VerifyRefreshToken(ctx, "plain-secret")
		assert.ErrorIs(t, err, tokenDomain.ErrInvalidRefreshToken)
		assert.Nil(t, token)
	})
}

func TestVerifierUseCase_BlacklistToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	mockBlacklist := &mockBlacklistRepository{}
	jti := uuid.Must(uuid.NewV7())
	subjectID := uuid.Must(uuid.NewV7())

	mockBlacklist.On("Create", ctx, mock.MatchedBy(func(entry *tokenDomain.BlacklistEntry) bool {
		return entry.JTI == jti &&
			entry.SubjectID == subjectID &&
			entry.Reason == "logout" &&
			entry.ExpiresAt.Equal(now.Add(24*time.Hour))
	})).Return(true, nil).Once()

	uc := &verifierUseCase{
		config:        verifierTestConfig(),
		blacklistRepo: mockBlacklist,
		nowFn:         func() time.Time { return now },
	}

	inserted, err := uc.BlacklistToken(ctx, jti, subjectID, tokenDomain.SubjectTypeUser, "logout")
	assert.NoError(t, err)
	assert.True(t, inserted)
	mockBlacklist.AssertExpectations(t)
}

func TestVerifierUseCase_RevokeAllForSubject(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("Success_BlacklistsEveryActiveSession", func(t *testing.T) {
		mockRepo := &mockRefreshTokenRepository{}
		mockBlacklist := &mockBlacklistRepository{}
		subjectID := uuid.Must(uuid.NewV7())

		first := &tokenDomain.RefreshToken{ID: uuid.Must(uuid.NewV7()), JTI: uuid.Must(uuid.NewV7())}
		second := &tokenDomain.RefreshToken{ID: uuid.Must(uuid.NewV7()), JTI: uuid.Must(uuid.NewV7())}

		mockRepo.On("ListActiveBySubject", ctx, subjectID, tokenDomain.SubjectTypeUser, now).
			Return([]*tokenDomain.RefreshToken{first, second}, nil).Once()
		mockBlacklist.On("Create", ctx, mock.MatchedBy(func(entry *tokenDomain.BlacklistEntry) bool {
			return entry.JTI == first.JTI
		})).Return(true, nil).Once()
		mockBlacklist.On("Create", ctx, mock.MatchedBy(func(entry *tokenDomain.BlacklistEntry) bool {
			return entry.JTI == second.JTI
		})).Return(true, nil).Once()
		mockRepo.On("MarkAllUsedBySubject", ctx, subjectID, tokenDomain.SubjectTypeUser, now).
			Return(int64(2), nil).Once()

		uc := &verifierUseCase{
			config:        verifierTestConfig(),
			txManager:     &mockTxManager{},
			refreshRepo:   mockRepo,
			blacklistRepo: mockBlacklist,
			nowFn:         func() time.Time { return now },
		}

		revoked, err := uc.RevokeAllForSubject(ctx, subjectID, tokenDomain.SubjectTypeUser, "account_locked")
		assert.NoError(t, err)
		assert.Equal(t, int64(2), revoked)
		mockRepo.AssertExpectations(t)
		mockBlacklist.AssertExpectations(t)
	})

	t.Run("Success_NoActiveSessions", func(t *testing.T) {
		mockRepo := &mockRefreshTokenRepository{}
		mockBlacklist := &mockBlacklistRepository{}
		subjectID := uuid.Must(uuid.NewV7())

		mockRepo.On("ListActiveBySubject", ctx, subjectID, tokenDomain.SubjectTypeUser, now).
			Return([]*tokenDomain.RefreshToken{}, nil).Once()
		mockRepo.On("MarkAllUsedBySubject", ctx, subjectID, tokenDomain.SubjectTypeUser, now).
			Return(int64(0), nil).Once()

		uc := &verifierUseCase{
			config:        verifierTestConfig(),
			txManager:     &mockTxManager{},
			refreshRepo:   mockRepo,
			blacklistRepo: mockBlacklist,
			nowFn:         func() time.Time { return now },
		}

		revoked, err := uc.RevokeAllForSubject(ctx, subjectID, tokenDomain.SubjectTypeUser, "logout")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), revoked)
	})
}
