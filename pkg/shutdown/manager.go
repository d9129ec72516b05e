package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shutdown_duration_seconds",
		Help:    "Total time taken to shutdown gracefully",
		Buckets: []float64{1, 5, 10, 15, 20, 25, 30},
	})

	componentShutdownDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "component_shutdown_duration_seconds",
		Help:    "Time taken to shutdown individual components",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 20, 25, 30},
	}, []string{"component"})

	shutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutdown_errors_total",
		Help: "Total number of shutdown errors by component",
	}, []string{"component"})

	gracefulShutdownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graceful_shutdowns_total",
		Help: "Total number of graceful shutdowns",
	})
)

// ShutdownFunc represents a function that shuts down a component
type ShutdownFunc func(context.Context) error

// Component represents a registered shutdown component
type Component struct {
	Name         string
	ShutdownFunc ShutdownFunc
}

// Manager coordinates graceful shutdown of all service components.
// Components shut down in REVERSE registration order (LIFO) so dependencies
// close properly: HTTP server before gateway continuations, continuations
// before the database pool.
type Manager struct {
	logger     *zap.Logger
	components []Component
	mu         sync.Mutex
	timeout    time.Duration
}

// NewManager creates a new shutdown manager
func NewManager(logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{
		logger:     logger,
		components: make([]Component, 0),
		timeout:    timeout,
	}
}

// Register adds a shutdown function to be called during graceful shutdown.
// Components are shut down in REVERSE order of registration (LIFO).
func (sm *Manager) Register(name string, fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.components = append(sm.components, Component{
		Name:         name,
		ShutdownFunc: fn,
	})

	sm.logger.Debug("Registered shutdown component",
		zap.String("component", name),
		zap.Int("registration_order", len(sm.components)),
	)
}

// WaitForShutdown blocks until a shutdown signal is received (SIGINT or
// SIGTERM), then executes graceful shutdown of all registered components
func (sm *Manager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	sm.logger.Info("Received shutdown signal - initiating graceful shutdown",
		zap.String("signal", sig.String()),
		zap.Duration("timeout", sm.timeout),
	)

	sm.Shutdown()
}

// Shutdown performs graceful shutdown of all registered components
func (sm *Manager) Shutdown() {
	gracefulShutdownsTotal.Inc()
	shutdownStart := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	sm.logger.Info("Starting graceful shutdown",
		zap.Int("component_count", len(sm.components)),
		zap.Duration("timeout", sm.timeout),
	)

	errors := sm.shutdownComponents(ctx)

	shutdownElapsed := time.Since(shutdownStart)
	shutdownDuration.Observe(shutdownElapsed.Seconds())

	if len(errors) > 0 {
		sm.logger.Error("Graceful shutdown completed with errors",
			zap.Int("error_count", len(errors)),
			zap.Duration("elapsed", shutdownElapsed),
		)
		for component, err := range errors {
			sm.logger.Error("Component shutdown error",
				zap.String("component", component),
				zap.Error(err),
			)
		}
	} else {
		sm.logger.Info("Graceful shutdown completed successfully",
			zap.Duration("elapsed", shutdownElapsed),
		)
	}
}

// shutdownComponents executes shutdown for all components in reverse order
func (sm *Manager) shutdownComponents(ctx context.Context) map[string]error {
	sm.mu.Lock()
	components := make([]Component, len(sm.components))
	copy(components, sm.components)
	sm.mu.Unlock()

	errors := make(map[string]error)
	var errorsMu sync.Mutex

	var wg sync.WaitGroup

	for i := len(components) - 1; i >= 0; i-- {
		component := components[i]

		wg.Add(1)
		go func(comp Component) {
			defer wg.Done()

			start := time.Now()
			sm.logger.Info("Shutting down component",
				zap.String("component", comp.Name),
			)

			if err := comp.ShutdownFunc(ctx); err != nil {
				errorsMu.Lock()
				errors[comp.Name] = err
				errorsMu.Unlock()

				shutdownErrors.WithLabelValues(comp.Name).Inc()
				sm.logger.Error("Component shutdown failed",
					zap.String("component", comp.Name),
					zap.Error(err),
					zap.Duration("elapsed", time.Since(start)),
				)
			} else {
				sm.logger.Info("Component shut down successfully",
					zap.String("component", comp.Name),
					zap.Duration("elapsed", time.Since(start)),
				)
			}

			componentShutdownDuration.WithLabelValues(comp.Name).Observe(time.Since(start).Seconds())
		}(component)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		sm.logger.Info("All components shut down")
	case <-ctx.Done():
		sm.logger.Warn("Shutdown timeout exceeded - some components may not have completed",
			zap.Duration("timeout", sm.timeout),
		)
	}

	return errors
}

// RegisterHTTPServer is a convenience method for registering HTTP servers
func (sm *Manager) RegisterHTTPServer(name string, server interface{ Shutdown(context.Context) error }) {
	sm.Register(name, server.Shutdown)
}

// RegisterNoErr is a convenience method for shutdown functions that don't return errors
func (sm *Manager) RegisterNoErr(name string, fn func()) {
	sm.Register(name, func(ctx context.Context) error {
		fn()
		return nil
	})
}
