package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the application's timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	HTTP Handler (30s)
//	  Service Layer (25s)
//	    Sale Deadline (20s, the initiator's race against the gateway)
//	      Database Query (2s/5s, based on complexity)
//
// The gateway call itself is NOT bounded by this hierarchy. A cardholder may
// take two minutes to insert a card, so the gateway HTTP timeout (120s) far
// exceeds the sale deadline and the call continues in the background after
// the handler has answered processing.
type TimeoutConfig struct {
	// Handler layer timeouts
	HTTPHandler time.Duration // Overall request timeout (default: 30s)

	// Service layer timeouts
	Service      time.Duration // Service operation timeout (default: 25s)
	SaleDeadline time.Duration // Initiator's deadline race (default: 20s)

	// External API timeouts
	StatusQuery   time.Duration // Single gateway status query (default: 15s)
	OrderCreation time.Duration // Order system call (default: 10s)
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:   30 * time.Second,
		Service:       25 * time.Second,
		SaleDeadline:  20 * time.Second,
		StatusQuery:   15 * time.Second,
		OrderCreation: 10 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:   5 * time.Second,
		Service:       4 * time.Second,
		SaleDeadline:  100 * time.Millisecond,
		StatusQuery:   1 * time.Second,
		OrderCreation: 1 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// ServiceContext creates a context with timeout for service layer operations
func (tc *TimeoutConfig) ServiceContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Service)
}

// StatusQueryContext creates a context for a single gateway status query
func (tc *TimeoutConfig) StatusQueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.StatusQuery)
}

// OrderContext creates a context for order system calls
func (tc *TimeoutConfig) OrderContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.OrderCreation)
}
