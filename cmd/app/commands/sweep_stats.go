package commands

import (
	"context"
	"fmt"

	"github.com/allisson/authcore/internal/app"
	"github.com/allisson/authcore/internal/config"
)

// RunSweepStats reports the rows currently eligible for each sweep operation.
func RunSweepStats(ctx context.Context, format string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	sweeper, err := container.SweeperUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize sweeper: %w", err)
	}

	stats, err := sweeper.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect sweep stats: %w", err)
	}

	if format == "json" {
		outputJSON(stats)
		return nil
	}

	fmt.Println("Rows eligible for the next sweep:")
	fmt.Printf("  expired refresh tokens:    %d\n", stats.ExpiredRefreshTokens)
	fmt.Printf("  used refresh tokens:       %d\n", stats.UsedRefreshTokens)
	fmt.Printf("  expired blacklist entries: %d\n", stats.ExpiredBlacklistEntries)
	fmt.Printf("  expired rate limits:       %d\n", stats.ExpiredRateLimits)
	fmt.Printf("  expired audit events:      %d\n", stats.ExpiredAuditEvents)
	fmt.Printf("  expired locks:             %d\n", stats.ExpiredLocks)
	return nil
}
