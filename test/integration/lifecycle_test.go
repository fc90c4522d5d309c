// Package integration provides end-to-end tests for the credential lifecycle.
// Tests issuance, verification, revocation, rate limiting, lockout, and
// maintenance against both PostgreSQL and MySQL databases.
package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/authcore/internal/app"
	auditDomain "github.com/allisson/authcore/internal/audit/domain"
	"github.com/allisson/authcore/internal/config"
	apperrors "github.com/allisson/authcore/internal/errors"
	"github.com/allisson/authcore/internal/origin"
	principalDomain "github.com/allisson/authcore/internal/principal/domain"
	ratelimitDomain "github.com/allisson/authcore/internal/ratelimit/domain"
	tokenDomain "github.com/allisson/authcore/internal/token/domain"
	"github.com/allisson/authcore/internal/testutil"
)

// lifecycleTestContext holds all dependencies and state for integration testing.
type lifecycleTestContext struct {
	container *app.Container
	db        *sql.DB
	dbDriver  string
}

// testOrigin is the request origin stamped onto issued credentials and audit
// events throughout the suite.
func testOrigin() origin.Origin {
	return origin.Origin{
		PeerAddress:  "198.51.100.7:51234",
		ForwardedFor: []string{"203.0.113.9"},
		UserAgent:    "integration-test/1.0",
	}
}

// setupLifecycleTest initializes the database and DI container for one driver.
func setupLifecycleTest(t *testing.T, dbDriver string) *lifecycleTestContext {
	t.Helper()

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		DBDriver:             dbDriver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,

		LogLevel: "error",

		JWTSecret:                "integration-test-signing-key",
		AccessTokenExpiration:    15 * time.Minute,
		RefreshTokenExpiration:   time.Hour,
		BlacklistEntryExpiration: time.Hour,
		UsedRefreshTokenGrace:    time.Hour,

		LockoutMaxAttempts: 5,
		LockoutDuration:    15 * time.Minute,

		AuditRetentionDays: 30,

		RateLimitLoginLimit:          3,
		RateLimitLoginWindow:         15 * time.Minute,
		RateLimitAdminLoginLimit:     3,
		RateLimitAdminLoginWindow:    15 * time.Minute,
		RateLimitRegistrationLimit:   3,
		RateLimitRegistrationWindow:  time.Hour,
		RateLimitPasswordResetLimit:  3,
		RateLimitPasswordResetWindow: time.Hour,
		RateLimitRefreshLimit:        10,
		RateLimitRefreshWindow:       15 * time.Minute,
		RateLimitDefaultLimit:        100,
		RateLimitDefaultWindow:       15 * time.Minute,

		SweepQuickInterval:   15 * time.Minute,
		SweepFullInterval:    time.Hour,
		SweepAuditInterval:   6 * time.Hour,
		SweepLockoutInterval: 30 * time.Minute,

		MetricsEnabled: false,
	}

	return &lifecycleTestContext{
		container: app.NewContainer(cfg),
		db:        db,
		dbDriver:  dbDriver,
	}
}

// teardownLifecycleTest cleans up all resources.
func teardownLifecycleTest(t *testing.T, tcx *lifecycleTestContext) {
	t.Helper()

	if tcx.container != nil {
		if err := tcx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if tcx.db != nil {
		testutil.TeardownDB(t, tcx.db)
	}
}

// TestIntegration_TokenLifecycle exercises issuance, verification, single-use
// refresh exchange, and revocation end to end.
func TestIntegration_TokenLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testCases := []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tcx := setupLifecycleTest(t, tc.dbDriver)
			defer teardownLifecycleTest(t, tcx)

			ctx := context.Background()

			issuer, err := tcx.container.IssuerUseCase()
			require.NoError(t, err, "failed to get issuer use case")
			verifier, err := tcx.container.VerifierUseCase()
			require.NoError(t, err, "failed to get verifier use case")

			subjectID := uuid.Must(uuid.NewV7())

			var (
				pair *tokenDomain.TokenPair
				jti  uuid.UUID
			)

			t.Run("01_IssueTokenPair", func(t *testing.T) {
				pair, err = issuer.CreateTokenPair(ctx, subjectID, tokenDomain.SubjectTypeUser, testOrigin())
				require.NoError(t, err)
				assert.NotEmpty(t, pair.AccessToken)
				assert.NotEmpty(t, pair.RefreshSecret)
				assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))
			})

			t.Run("02_VerifyAccessToken", func(t *testing.T) {
				claims, err := verifier.VerifyAccessToken(ctx, pair.AccessToken)
				require.NoError(t, err)
				assert.Equal(t, subjectID.String(), claims.Subject)
				assert.Equal(t, tokenDomain.SubjectTypeUser, claims.SubjectType)
				assert.Equal(t, tokenDomain.TokenUseAccess, claims.TokenUse)

				jti, err = uuid.Parse(claims.ID)
				require.NoError(t, err)
			})

			t.Run("03_ExchangeRefreshToken", func(t *testing.T) {
				consumed, err := verifier.VerifyRefreshToken(ctx, pair.RefreshSecret)
				require.NoError(t, err)
				assert.Equal(t, subjectID, consumed.SubjectID)
				assert.Equal(t, tokenDomain.SubjectTypeUser, consumed.SubjectType)
				assert.True(t, consumed.IsUsed)
				require.NotNil(t, consumed.LastUsedAt)

				// Rotation: the consumed credential is replaced by a new pair.
				rotated, err := issuer.CreateTokenPair(ctx, subjectID, tokenDomain.SubjectTypeUser, testOrigin())
				require.NoError(t, err)
				assert.NotEqual(t, pair.RefreshSecret, rotated.RefreshSecret)
			})

			t.Run("04_ReplayIsRejected", func(t *testing.T) {
				_, err := verifier.VerifyRefreshToken(ctx, pair.RefreshSecret)
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, tokenDomain.ErrInvalidRefreshToken))
			})

			t.Run("05_BlacklistAccessToken", func(t *testing.T) {
				created, err := verifier.BlacklistToken(ctx, jti, subjectID, tokenDomain.SubjectTypeUser, "logout")
				require.NoError(t, err)
				assert.True(t, created)

				_, err = verifier.VerifyAccessToken(ctx, pair.AccessToken)
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, tokenDomain.ErrTokenBlacklisted))

				// Re-revoking the same jti is idempotent.
				created, err = verifier.BlacklistToken(ctx, jti, subjectID, tokenDomain.SubjectTypeUser, "logout")
				require.NoError(t, err)
				assert.False(t, created)
			})

			t.Run("06_RevokeAllForSubject", func(t *testing.T) {
				victimID := uuid.Must(uuid.NewV7())

				first, err := issuer.CreateTokenPair(ctx, victimID, tokenDomain.SubjectTypeUser, testOrigin())
				require.NoError(t, err)
				second, err := issuer.CreateTokenPair(ctx, victimID, tokenDomain.SubjectTypeUser, testOrigin())
				require.NoError(t, err)

				revoked, err := verifier.RevokeAllForSubject(ctx, victimID, tokenDomain.SubjectTypeUser, "compromised credentials")
				require.NoError(t, err)
				assert.Equal(t, int64(2), revoked)

				active, err := issuer.ListActiveForSubject(ctx, victimID, tokenDomain.SubjectTypeUser)
				require.NoError(t, err)
				assert.Empty(t, active)

				for _, secret := range []string{first.RefreshSecret, second.RefreshSecret} {
					_, err := verifier.VerifyRefreshToken(ctx, secret)
					require.Error(t, err)
					assert.True(t, apperrors.Is(err, tokenDomain.ErrInvalidRefreshToken))
				}

				// The shared jti revokes the access tokens too.
				_, err = verifier.VerifyAccessToken(ctx, first.AccessToken)
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, tokenDomain.ErrTokenBlacklisted))
			})
		})
	}
}

// TestIntegration_AbusePrevention exercises the rate limiter and the lockout
// state machine against live counters.
func TestIntegration_AbusePrevention(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testCases := []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tcx := setupLifecycleTest(t, tc.dbDriver)
			defer teardownLifecycleTest(t, tcx)

			ctx := context.Background()

			rateLimit, err := tcx.container.RateLimitUseCase()
			require.NoError(t, err, "failed to get rate limit use case")
			lockout, err := tcx.container.LockoutUseCase()
			require.NoError(t, err, "failed to get lockout use case")

			identifier := "203.0.113.50"

			t.Run("01_RateLimitExhaustion", func(t *testing.T) {
				for i := 0; i < 3; i++ {
					decision, err := rateLimit.Check(ctx, identifier, ratelimitDomain.EndpointLogin)
					require.NoError(t, err)
					assert.True(t, decision.Allowed)
					assert.Equal(t, 3, decision.Limit)
					assert.Equal(t, 2-i, decision.Remaining)
				}

				decision, err := rateLimit.Check(ctx, identifier, ratelimitDomain.EndpointLogin)
				require.NoError(t, err)
				assert.False(t, decision.Allowed)
				assert.Zero(t, decision.Remaining)
				assert.Greater(t, decision.RetryAfter, time.Duration(0))
			})

			t.Run("02_RateLimitStatus", func(t *testing.T) {
				status, err := rateLimit.Status(ctx, identifier, ratelimitDomain.EndpointLogin)
				require.NoError(t, err)
				assert.Equal(t, 3, status.Count)
				assert.Zero(t, status.Remaining)
			})

			t.Run("03_RateLimitReset", func(t *testing.T) {
				deleted, err := rateLimit.Reset(ctx, identifier, ratelimitDomain.EndpointLogin)
				require.NoError(t, err)
				assert.Greater(t, deleted, int64(0))

				decision, err := rateLimit.Check(ctx, identifier, ratelimitDomain.EndpointLogin)
				require.NoError(t, err)
				assert.True(t, decision.Allowed)
			})

			principalID := testutil.CreateTestPrincipal(t, tcx.db, tc.dbDriver, "user")

			t.Run("04_LockoutProgression", func(t *testing.T) {
				for i := 1; i < 5; i++ {
					state, err := lockout.RegisterFailure(ctx, principalID, "user")
					require.NoError(t, err)
					assert.False(t, state.Locked)
					assert.Equal(t, i, state.FailedAttempts)
					assert.Equal(t, 5-i, state.AttemptsRemaining)
				}

				state, err := lockout.RegisterFailure(ctx, principalID, "user")
				require.NoError(t, err)
				assert.True(t, state.Locked)
				require.NotNil(t, state.LockedUntil)
				assert.Greater(t, state.RetryAfter, time.Duration(0))
			})

			t.Run("05_CheckLockoutWhileLocked", func(t *testing.T) {
				state, err := lockout.CheckLockout(ctx, principalID, "user")
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, principalDomain.ErrPrincipalLocked))
				require.NotNil(t, state)
				assert.True(t, state.Locked)
				assert.Greater(t, state.RetryAfter, time.Duration(0))
			})

			t.Run("06_AdminUnlock", func(t *testing.T) {
				require.NoError(t, lockout.Unlock(ctx, principalID, "user"))

				state, err := lockout.CheckLockout(ctx, principalID, "user")
				require.NoError(t, err)
				assert.False(t, state.Locked)
				assert.Zero(t, state.FailedAttempts)
			})

			t.Run("07_SuccessClearsCounter", func(t *testing.T) {
				state, err := lockout.RegisterFailure(ctx, principalID, "user")
				require.NoError(t, err)
				assert.Equal(t, 1, state.FailedAttempts)

				require.NoError(t, lockout.RegisterSuccess(ctx, principalID, "user"))

				state, err = lockout.CheckLockout(ctx, principalID, "user")
				require.NoError(t, err)
				assert.Zero(t, state.FailedAttempts)
			})
		})
	}
}

// TestIntegration_AuditAndMaintenance exercises the audit trail queries and a
// full maintenance sweep on a live database.
func TestIntegration_AuditAndMaintenance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testCases := []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tcx := setupLifecycleTest(t, tc.dbDriver)
			defer teardownLifecycleTest(t, tcx)

			ctx := context.Background()

			audit, err := tcx.container.AuditUseCase()
			require.NoError(t, err, "failed to get audit use case")
			sweeper, err := tcx.container.SweeperUseCase()
			require.NoError(t, err, "failed to get sweeper use case")

			subjectID := uuid.Must(uuid.NewV7())
			subjectType := "user"

			t.Run("01_LogEvents", func(t *testing.T) {
				_, err := audit.Log(ctx, auditDomain.LogInput{
					Action:    auditDomain.ActionLoginFailed,
					IPAddress: "203.0.113.9",
					UserAgent: "integration-test/1.0",
					Success:   false,
					Details: map[string]any{
						auditDomain.DetailKeyIdentity: "alice@example.com",
						auditDomain.DetailKeyReason:   "bad password",
					},
				})
				require.NoError(t, err)

				_, err = audit.Log(ctx, auditDomain.LogInput{
					SubjectID:   &subjectID,
					SubjectType: &subjectType,
					Action:      auditDomain.ActionLoginSuccess,
					IPAddress:   "203.0.113.9",
					UserAgent:   "integration-test/1.0",
					Success:     true,
				})
				require.NoError(t, err)

				_, err = audit.Log(ctx, auditDomain.LogInput{
					Action:    auditDomain.ActionRateLimitExceeded,
					IPAddress: "203.0.113.9",
					Success:   false,
					Details: map[string]any{
						auditDomain.DetailKeyEndpoint: "login",
					},
				})
				require.NoError(t, err)
			})

			t.Run("02_EventsBySubject", func(t *testing.T) {
				events, err := audit.EventsBySubject(ctx, subjectID, subjectType, 0, 50)
				require.NoError(t, err)
				require.Len(t, events, 1)
				assert.Equal(t, auditDomain.ActionLoginSuccess, events[0].Action)
			})

			t.Run("03_FailedLogins", func(t *testing.T) {
				events, err := audit.FailedLogins(ctx, "alice@example.com", subjectType, 24)
				require.NoError(t, err)
				require.Len(t, events, 1)
				assert.Equal(t, "bad password", events[0].Details[auditDomain.DetailKeyReason])
			})

			t.Run("04_SuspiciousActivity", func(t *testing.T) {
				events, err := audit.SuspiciousActivity(ctx, 24)
				require.NoError(t, err)
				require.Len(t, events, 1)
				assert.Equal(t, auditDomain.ActionRateLimitExceeded, events[0].Action)
			})

			t.Run("05_Statistics", func(t *testing.T) {
				stats, err := audit.Statistics(ctx, 7)
				require.NoError(t, err)
				assert.Equal(t, int64(3), stats.Total)
				assert.Greater(t, stats.DistinctOrigins, int64(0))
				assert.NotEmpty(t, stats.Daily)
			})

			t.Run("06_FullSweep", func(t *testing.T) {
				pending, err := sweeper.Stats(ctx)
				require.NoError(t, err)
				assert.Zero(t, pending.ExpiredRefreshTokens)

				report := sweeper.RunFullSweep(ctx)
				assert.Empty(t, report.Errors)
				assert.Zero(t, report.TotalRemoved())
			})
		})
	}
}
