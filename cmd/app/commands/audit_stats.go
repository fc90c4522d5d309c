package commands

import (
	"context"
	"fmt"

	"github.com/allisson/authcore/internal/app"
	"github.com/allisson/authcore/internal/config"
)

// RunAuditStats summarizes audit activity over the last given number of days.
func RunAuditStats(ctx context.Context, days int, format string) error {
	if days <= 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	audit, err := container.AuditUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize audit trail: %w", err)
	}

	stats, err := audit.Statistics(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to collect audit statistics: %w", err)
	}

	if format == "json" {
		outputJSON(map[string]any{
			"since":             stats.Since,
			"total":             stats.Total,
			"distinct_subjects": stats.DistinctSubjects,
			"distinct_origins":  stats.DistinctOrigins,
			"by_action":         stats.ByAction,
			"daily":             stats.Daily,
		})
		return nil
	}

	fmt.Printf("Audit activity since %s:\n", stats.Since.Format("2006-01-02"))
	fmt.Printf("  total events:      %d\n", stats.Total)
	fmt.Printf("  distinct subjects: %d\n", stats.DistinctSubjects)
	fmt.Printf("  distinct origins:  %d\n", stats.DistinctOrigins)
	fmt.Println("  by action:")
	for _, count := range stats.ByAction {
		outcome := "failure"
		if count.Success {
			outcome = "success"
		}
		fmt.Printf("    %-28s %-8s %d\n", count.Action, outcome, count.Count)
	}
	fmt.Println("  by day:")
	for _, day := range stats.Daily {
		fmt.Printf("    %s  %d\n", day.Day.Format("2006-01-02"), day.Count)
	}
	return nil
}
