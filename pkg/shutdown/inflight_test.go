package shutdown_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crushpad/terminal-service/pkg/shutdown"
)

func TestInFlightTracker_CountsActiveWork(t *testing.T) {
	tracker := shutdown.NewInFlightTracker("test", zap.NewNop())

	require.True(t, tracker.Add())
	require.True(t, tracker.Add())
	assert.Equal(t, int64(2), tracker.Count())

	tracker.Done()
	assert.Equal(t, int64(1), tracker.Count())

	tracker.Done()
	assert.Equal(t, int64(0), tracker.Count())
}

func TestInFlightTracker_RejectsWorkAfterShutdown(t *testing.T) {
	tracker := shutdown.NewInFlightTracker("test", zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tracker.Shutdown(ctx))

	assert.True(t, tracker.IsShuttingDown())
	assert.False(t, tracker.Add())
	assert.Equal(t, int64(0), tracker.Count())
}

func TestInFlightTracker_ShutdownWaitsForInFlight(t *testing.T) {
	tracker := shutdown.NewInFlightTracker("test", zap.NewNop())

	require.True(t, tracker.Add())

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- tracker.Shutdown(ctx)
	}()

	// Shutdown must block until the in-flight item completes.
	select {
	case <-done:
		t.Fatal("shutdown returned while work was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	tracker.Done()
	require.NoError(t, <-done)
}
