package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/authcore/internal/config"
)

// Scheduler runs the maintenance sweeps on their configured cadences. Each
// cadence gets its own ticker loop; all loops stop when the context is
// canceled.
type Scheduler struct {
	config  *config.Config
	sweeper SweeperUseCase
	logger  *slog.Logger
}

// Run blocks until the context is canceled, executing sweeps on their
// cadences. It always returns nil after a clean shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("maintenance scheduler started",
		"quick_interval", s.config.SweepQuickInterval,
		"full_interval", s.config.SweepFullInterval,
		"audit_interval", s.config.SweepAuditInterval,
		"lockout_interval", s.config.SweepLockoutInterval,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.loop(ctx, s.config.SweepQuickInterval, func(ctx context.Context) {
			s.sweeper.RunQuickSweep(ctx)
		})
	})
	g.Go(func() error {
		return s.loop(ctx, s.config.SweepFullInterval, func(ctx context.Context) {
			s.sweeper.RunFullSweep(ctx)
		})
	})
	g.Go(func() error {
		return s.loop(ctx, s.config.SweepAuditInterval, func(ctx context.Context) {
			if _, err := s.sweeper.PurgeAuditEvents(ctx); err != nil {
				s.logger.Error("audit purge failed", "error", err)
			}
		})
	})
	g.Go(func() error {
		return s.loop(ctx, s.config.SweepLockoutInterval, func(ctx context.Context) {
			if _, err := s.sweeper.UnlockPrincipals(ctx); err != nil {
				s.logger.Error("principal unlock failed", "error", err)
			}
		})
	})

	err := g.Wait()
	s.logger.Info("maintenance scheduler stopped")
	return err
}

// loop runs fn on every tick until the context is canceled. Sweep failures
// are logged inside fn; cancellation is the only way out.
func (s *Scheduler) loop(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// NewScheduler creates a new maintenance Scheduler.
func NewScheduler(cfg *config.Config, sweeper SweeperUseCase, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		config:  cfg,
		sweeper: sweeper,
		logger:  logger,
	}
}
