package commands

import (
	"context"
	"fmt"

	"github.com/allisson/authcore/internal/app"
	"github.com/allisson/authcore/internal/config"
	ratelimitDomain "github.com/allisson/authcore/internal/ratelimit/domain"
)

// RunResetRateLimit clears the rate limit counters for an identifier and
// endpoint, restoring the full attempt budget.
func RunResetRateLimit(ctx context.Context, identifier, endpoint string) error {
	if identifier == "" {
		return fmt.Errorf("identifier must not be empty")
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	rateLimit, err := container.RateLimitUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	deleted, err := rateLimit.Reset(ctx, identifier, ratelimitDomain.Endpoint(endpoint))
	if err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}

	fmt.Printf("Cleared %d counter(s) for %s on %s\n", deleted, identifier, endpoint)
	return nil
}
