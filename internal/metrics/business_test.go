package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("authcore")
	require.NoError(t, err)
	require.NotNil(t, provider)
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	assert.NotNil(t, provider.Handler())
	assert.NotNil(t, provider.MeterProvider())
}

func TestBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("authcore")
	require.NoError(t, err)
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "authcore")
	require.NoError(t, err)

	// Recording must not panic and must accept any label values.
	bm.RecordOperation(context.Background(), "token", "create_token_pair", "success")
	bm.RecordDuration(context.Background(), "token", "create_token_pair", 25*time.Millisecond, "success")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()
	bm.RecordOperation(context.Background(), "ratelimit", "check", "error")
	bm.RecordDuration(context.Background(), "ratelimit", "check", time.Millisecond, "error")
}
