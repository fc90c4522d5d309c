package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/allisson/authcore/internal/app"
	"github.com/allisson/authcore/internal/config"
)

// RunSchedule runs the maintenance scheduler until the process receives an
// interrupt or termination signal.
func RunSchedule(ctx context.Context) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	scheduler, err := container.Scheduler()
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return scheduler.Run(ctx)
}
