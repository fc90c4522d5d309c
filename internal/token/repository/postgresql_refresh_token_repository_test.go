package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/authcore/internal/testutil"
	tokenDomain "github.com/allisson/authcore/internal/token/domain"
)

func newTestRefreshToken(subjectID uuid.UUID, expiresAt time.Time) *tokenDomain.RefreshToken {
	return &tokenDomain.RefreshToken{
		ID:          uuid.Must(uuid.NewV7()),
		SubjectID:   subjectID,
		SubjectType: tokenDomain.SubjectTypeUser,
		TokenHash:   "test-token-hash",
		JTI:         uuid.Must(uuid.NewV7()),
		ExpiresAt:   expiresAt,
		IsUsed:      false,
		IPAddress:   "203.0.113.7",
		UserAgent:   "test-agent",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestPostgreSQLRefreshTokenRepository_CreateAndGet(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()

	token := newTestRefreshToken(uuid.Must(uuid.NewV7()), time.Now().UTC().Add(24*time.Hour))
	err := repo.Create(ctx, token)
	require.NoError(t, err)

	retrieved, err := repo.Get(ctx, token.ID)
	require.NoError(t, err)

	assert.Equal(t, token.ID, retrieved.ID)
	assert.Equal(t, token.SubjectID, retrieved.SubjectID)
	assert.Equal(t, tokenDomain.SubjectTypeUser, retrieved.SubjectType)
	assert.Equal(t, token.TokenHash, retrieved.TokenHash)
	assert.Equal(t, token.JTI, retrieved.JTI)
	assert.False(t, retrieved.IsUsed)
	assert.Nil(t, retrieved.LastUsedAt)
	assert.Equal(t, "203.0.113.7", retrieved.IPAddress)
	assert.WithinDuration(t, token.ExpiresAt, retrieved.ExpiresAt, time.Second)
}

func TestPostgreSQLRefreshTokenRepository_Get_NotFound(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)

	token, err := repo.Get(context.Background(), uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, tokenDomain.ErrRefreshTokenNotFound)
	assert.Nil(t, token)
}

func TestPostgreSQLRefreshTokenRepository_Consume(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	token := newTestRefreshToken(uuid.Must(uuid.NewV7()), now.Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, token))

	// First consume succeeds
	consumed, err := repo.Consume(ctx, token.ID, now)
	require.NoError(t, err)
	assert.True(t, consumed)

	retrieved, err := repo.Get(ctx, token.ID)
	require.NoError(t, err)
	assert.True(t, retrieved.IsUsed)
	require.NotNil(t, retrieved.LastUsedAt)

	// Replay is rejected
	consumed, err = repo.Consume(ctx, token.ID, now)
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestPostgreSQLRefreshTokenRepository_Consume_Expired(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	token := newTestRefreshToken(uuid.Must(uuid.NewV7()), now.Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, token))

	consumed, err := repo.Consume(ctx, token.ID, now)
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestPostgreSQLRefreshTokenRepository_ListActiveBySubject(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	subjectID := uuid.Must(uuid.NewV7())

	active := newTestRefreshToken(subjectID, now.Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, active))

	expired := newTestRefreshToken(subjectID, now.Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, expired))

	otherSubject := newTestRefreshToken(uuid.Must(uuid.NewV7()), now.Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, otherSubject))

	tokens, err := repo.ListActiveBySubject(ctx, subjectID, tokenDomain.SubjectTypeUser, now)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, active.ID, tokens[0].ID)
}

func TestPostgreSQLRefreshTokenRepository_MarkAllUsedBySubject(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	subjectID := uuid.Must(uuid.NewV7())

	first := newTestRefreshToken(subjectID, now.Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, first))
	second := newTestRefreshToken(subjectID, now.Add(48*time.Hour))
	require.NoError(t, repo.Create(ctx, second))

	revoked, err := repo.MarkAllUsedBySubject(ctx, subjectID, tokenDomain.SubjectTypeUser, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), revoked)

	tokens, err := repo.ListActiveBySubject(ctx, subjectID, tokenDomain.SubjectTypeUser, now)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestPostgreSQLRefreshTokenRepository_DeleteExpired(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := newTestRefreshToken(uuid.Must(uuid.NewV7()), now.Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, expired))
	active := newTestRefreshToken(uuid.Must(uuid.NewV7()), now.Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, active))

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, expired.ID)
	assert.ErrorIs(t, err, tokenDomain.ErrRefreshTokenNotFound)

	_, err = repo.Get(ctx, active.ID)
	assert.NoError(t, err)
}

func TestPostgreSQLRefreshTokenRepository_DeleteUsedBefore(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	// Consumed two days ago, outside the retention grace
	old := newTestRefreshToken(uuid.Must(uuid.NewV7()), now.Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, old))
	_, err := repo.Consume(ctx, old.ID, now.Add(-48*time.Hour))
	require.NoError(t, err)

	// Consumed just now, still inside the grace
	recent := newTestRefreshToken(uuid.Must(uuid.NewV7()), now.Add(24*time.Hour))
	require.NoError(t, repo.Create(ctx, recent))
	_, err = repo.Consume(ctx, recent.ID, now)
	require.NoError(t, err)

	deleted, err := repo.DeleteUsedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, old.ID)
	assert.ErrorIs(t, err, tokenDomain.ErrRefreshTokenNotFound)

	_, err = repo.Get(ctx, recent.ID)
	assert.NoError(t, err)
}
