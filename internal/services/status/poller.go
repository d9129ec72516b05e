package status

import (
	"context"
	"time"

	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/domain/ports"
	serviceports "github.com/crushpad/terminal-service/internal/services/ports"
	"github.com/crushpad/terminal-service/pkg/observability"
	"github.com/crushpad/terminal-service/pkg/resilience"
)

const (
	// DefaultPollInterval is the cadence of gateway status checks
	DefaultPollInterval = 5 * time.Second

	// DefaultMaxWait bounds how long a sale may stay processing before the
	// poller gives up with a timeout result. Covers the gateway timeout
	// plus slack for the final status check.
	DefaultMaxWait = 180 * time.Second
)

// Poller drives repeated status checks for a processing sale until it
// resolves. Implements serviceports.StatusChecker.
type Poller struct {
	orchestrator serviceports.SaleOrchestrator
	backoff      resilience.BackoffStrategy
	timeouts     *resilience.TimeoutConfig
	maxWait      time.Duration
	logger       ports.Logger
}

// NewPoller creates a new status poller
func NewPoller(orchestrator serviceports.SaleOrchestrator, interval, maxWait time.Duration, logger ports.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Poller{
		orchestrator: orchestrator,
		backoff:      &resilience.FixedBackoff{Delay: interval},
		timeouts:     resilience.DefaultTimeoutConfig(),
		maxWait:      maxWait,
		logger:       logger,
	}
}

// WaitForOutcome polls the sale's status at a fixed cadence until it reaches
// a terminal status or the maximum wait elapses. A transient check failure
// does not stop the loop; the next tick tries again.
func (p *Poller) WaitForOutcome(ctx context.Context, referenceID string) (*serviceports.SaleResult, error) {
	deadline := time.NewTimer(p.maxWait)
	defer deadline.Stop()

	attempt := 0
	for {
		checkCtx, cancel := p.timeouts.StatusQueryContext(ctx)
		result, err := p.orchestrator.CheckStatus(checkCtx, referenceID)
		cancel()
		if err != nil {
			p.logger.Warn("status check failed, will retry",
				ports.String("reference_id", referenceID),
				ports.Int("attempt", attempt),
				ports.Err(err))
		} else if result.Status.IsTerminal() {
			p.logger.Info("sale resolved",
				ports.String("reference_id", referenceID),
				ports.String("status", string(result.Status)),
				ports.Int("attempts", attempt+1))
			return result, nil
		}

		wait := time.NewTimer(p.backoff.NextDelay(attempt))
		attempt++

		select {
		case <-ctx.Done():
			wait.Stop()
			return nil, ctx.Err()

		case <-deadline.C:
			wait.Stop()
			observability.RecordStatusPoll("timeout")
			p.logger.Warn("sale did not resolve within the maximum wait",
				ports.String("reference_id", referenceID),
				ports.Int("attempts", attempt))
			return &serviceports.SaleResult{
				Status:      domain.SaleStatusTimeout,
				ReferenceID: referenceID,
			}, nil

		case <-wait.C:
		}
	}
}
