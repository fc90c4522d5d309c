package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunSweepValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid-type", func(t *testing.T) {
		err := RunSweep(ctx, "everything", false, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid sweep type")
	})
}

func TestRunAuditStatsValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid-days", func(t *testing.T) {
		err := RunAuditStats(ctx, 0, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "days must be a positive number")
	})

	t.Run("negative-days", func(t *testing.T) {
		err := RunAuditStats(ctx, -7, "json")

		require.Error(t, err)
		require.Contains(t, err.Error(), "days must be a positive number")
	})
}

func TestRunRevokeSubjectTokensValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid-subject-id", func(t *testing.T) {
		err := RunRevokeSubjectTokens(ctx, "not-a-uuid", "user", "compromised credentials")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid subject id")
	})

	t.Run("invalid-subject-type", func(t *testing.T) {
		err := RunRevokeSubjectTokens(ctx, "018f2b9a-7c3d-7e4f-8a9b-0c1d2e3f4a5b", "robot", "compromised credentials")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid subject type")
	})
}

func TestRunResetRateLimitValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("empty-identifier", func(t *testing.T) {
		err := RunResetRateLimit(ctx, "", "login")

		require.Error(t, err)
		require.Contains(t, err.Error(), "identifier must not be empty")
	})
}
