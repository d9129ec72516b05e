package shutdown

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// InFlightTracker tracks in-flight work so graceful shutdown can wait for it.
// The sale service registers every detached gateway continuation here; a
// shutdown waits for terminals to answer (or the gateway timeout) before the
// process exits, so no approval is lost between the gateway and the store.
type InFlightTracker struct {
	wg         sync.WaitGroup
	count      atomic.Int64
	shutdownCh chan struct{}
	logger     *zap.Logger
	name       string
}

// NewInFlightTracker creates a new in-flight work tracker
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	return &InFlightTracker{
		shutdownCh: make(chan struct{}),
		logger:     logger,
		name:       name,
	}
}

// Add increments the in-flight work counter.
// Returns false if shutdown has been initiated (don't start new work).
func (ift *InFlightTracker) Add() bool {
	select {
	case <-ift.shutdownCh:
		return false
	default:
		ift.wg.Add(1)
		ift.count.Add(1)
		return true
	}
}

// Done decrements the in-flight work counter, typically via defer
func (ift *InFlightTracker) Done() {
	ift.count.Add(-1)
	ift.wg.Done()
}

// Count returns the number of in-flight work items
func (ift *InFlightTracker) Count() int64 {
	return ift.count.Load()
}

// Shutdown initiates shutdown and waits for all in-flight work to complete.
// Returns an error if the context times out before all work completes.
func (ift *InFlightTracker) Shutdown(ctx context.Context) error {
	close(ift.shutdownCh)

	ift.logger.Info("Waiting for in-flight work to complete",
		zap.String("tracker", ift.name),
	)

	done := make(chan struct{})
	go func() {
		ift.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ift.logger.Info("All in-flight work completed",
			zap.String("tracker", ift.name),
		)
		return nil
	case <-ctx.Done():
		ift.logger.Warn("Shutdown timeout - some work may be incomplete",
			zap.String("tracker", ift.name),
		)
		return ctx.Err()
	}
}

// IsShuttingDown returns true if shutdown has been initiated
func (ift *InFlightTracker) IsShuttingDown() bool {
	select {
	case <-ift.shutdownCh:
		return true
	default:
		return false
	}
}

// RunWithContext executes a function with context as in-flight work.
// Returns false if shutdown is in progress.
func (ift *InFlightTracker) RunWithContext(ctx context.Context, fn func(context.Context)) bool {
	if !ift.Add() {
		return false
	}
	defer ift.Done()

	fn(ctx)
	return true
}
