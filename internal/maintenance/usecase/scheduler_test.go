package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/authcore/internal/config"
	maintenanceDomain "github.com/allisson/authcore/internal/maintenance/domain"
)

// countingSweeper counts invocations instead of touching a database.
type countingSweeper struct {
	quickSweeps atomic.Int64
	fullSweeps  atomic.Int64
	auditPurges atomic.Int64
	lockUnlocks atomic.Int64
}

func (c *countingSweeper) ExpireRefreshTokens(ctx context.Context) (int64, error)    { return 0, nil }
func (c *countingSweeper) PurgeUsedRefreshTokens(ctx context.Context) (int64, error) { return 0, nil }
func (c *countingSweeper) ExpireBlacklistEntries(ctx context.Context) (int64, error) { return 0, nil }
func (c *countingSweeper) ExpireRateLimits(ctx context.Context) (int64, error)       { return 0, nil }

func (c *countingSweeper) PurgeAuditEvents(ctx context.Context) (int64, error) {
	c.auditPurges.Add(1)
	return 0, nil
}

func (c *countingSweeper) UnlockPrincipals(ctx context.Context) (int64, error) {
	c.lockUnlocks.Add(1)
	return 0, nil
}

func (c *countingSweeper) RunFullSweep(ctx context.Context) *maintenanceDomain.SweepReport {
	c.fullSweeps.Add(1)
	return &maintenanceDomain.SweepReport{}
}

func (c *countingSweeper) RunQuickSweep(ctx context.Context) *maintenanceDomain.SweepReport {
	c.quickSweeps.Add(1)
	return &maintenanceDomain.SweepReport{}
}

func (c *countingSweeper) Stats(ctx context.Context) (*maintenanceDomain.PendingStats, error) {
	return &maintenanceDomain.PendingStats{}, nil
}

func TestScheduler_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := &config.Config{
		SweepQuickInterval:   5 * time.Millisecond,
		SweepFullInterval:    10 * time.Millisecond,
		SweepAuditInterval:   10 * time.Millisecond,
		SweepLockoutInterval: 5 * time.Millisecond,
	}

	sweeper := &countingSweeper{}
	scheduler := NewScheduler(cfg, sweeper, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- scheduler.Run(ctx)
	}()

	// Let a few ticks fire, then stop
	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	assert.Positive(t, sweeper.quickSweeps.Load())
	assert.Positive(t, sweeper.fullSweeps.Load())
	assert.Positive(t, sweeper.auditPurges.Load())
	assert.Positive(t, sweeper.lockUnlocks.Load())
}
