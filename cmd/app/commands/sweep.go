package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/authcore/internal/app"
	"github.com/allisson/authcore/internal/config"
	maintenanceDomain "github.com/allisson/authcore/internal/maintenance/domain"
)

// RunSweep executes a maintenance sweep of the requested type. Dry-run mode
// reports what each operation would remove without deleting anything.
func RunSweep(ctx context.Context, sweepType string, dryRun bool, format string) error {
	switch sweepType {
	case "full", "quick", "audit", "locks":
	default:
		return fmt.Errorf("invalid sweep type: %s (valid options: full, quick, audit, locks)", sweepType)
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	logger.Info("running maintenance sweep",
		slog.String("type", sweepType),
		slog.Bool("dry_run", dryRun),
	)

	sweeper, err := container.SweeperUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize sweeper: %w", err)
	}

	if dryRun {
		stats, err := sweeper.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to collect sweep stats: %w", err)
		}
		outputDryRun(stats, format)
		return nil
	}

	var report *maintenanceDomain.SweepReport
	switch sweepType {
	case "full":
		report = sweeper.RunFullSweep(ctx)
	case "quick":
		report = sweeper.RunQuickSweep(ctx)
	case "audit":
		report = &maintenanceDomain.SweepReport{}
		count, err := sweeper.PurgeAuditEvents(ctx)
		if err != nil {
			return fmt.Errorf("failed to purge audit events: %w", err)
		}
		report.PurgedAuditEvents = count
	case "locks":
		report = &maintenanceDomain.SweepReport{}
		count, err := sweeper.UnlockPrincipals(ctx)
		if err != nil {
			return fmt.Errorf("failed to unlock principals: %w", err)
		}
		report.UnlockedPrincipals = count
	}

	outputSweepReport(report, format)
	return nil
}

func outputDryRun(stats *maintenanceDomain.PendingStats, format string) {
	if format == "json" {
		outputJSON(map[string]any{"dry_run": true, "pending": stats})
		return
	}

	fmt.Println("Dry-run mode: rows eligible for removal")
	fmt.Printf("  expired refresh tokens:    %d\n", stats.ExpiredRefreshTokens)
	fmt.Printf("  used refresh tokens:       %d\n", stats.UsedRefreshTokens)
	fmt.Printf("  expired blacklist entries: %d\n", stats.ExpiredBlacklistEntries)
	fmt.Printf("  expired rate limits:       %d\n", stats.ExpiredRateLimits)
	fmt.Printf("  expired audit events:      %d\n", stats.ExpiredAuditEvents)
	fmt.Printf("  expired locks:             %d\n", stats.ExpiredLocks)
}

func outputSweepReport(report *maintenanceDomain.SweepReport, format string) {
	if format == "json" {
		outputJSON(report)
		return
	}

	fmt.Printf("Sweep removed %d row(s) in %s\n", report.TotalRemoved(), report.Duration)
	fmt.Printf("  expired refresh tokens:    %d\n", report.ExpiredRefreshTokens)
	fmt.Printf("  purged used tokens:        %d\n", report.PurgedUsedRefreshTokens)
	fmt.Printf("  expired blacklist entries: %d\n", report.ExpiredBlacklistEntries)
	fmt.Printf("  expired rate limits:       %d\n", report.ExpiredRateLimits)
	fmt.Printf("  purged audit events:       %d\n", report.PurgedAuditEvents)
	fmt.Printf("  unlocked principals:       %d\n", report.UnlockedPrincipals)
	for op, msg := range report.Errors {
		fmt.Printf("  FAILED %s: %s\n", op, msg)
	}
}
