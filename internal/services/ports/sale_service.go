package ports

import (
	"context"

	"github.com/crushpad/terminal-service/internal/domain"
)

// SaleResult is what callers of the orchestrator receive. For a terminal
// status the Transaction is the ledger row; for processing it is nil and the
// client is expected to poll.
type SaleResult struct {
	Status      domain.SaleStatus
	ReferenceID string

	// Outcome carries the classified gateway reply, nil while processing
	Outcome *domain.Outcome

	// Transaction is the ledger row, set once reconciliation has run
	Transaction *domain.Transaction

	// Warning is set when the payment settled but a post-payment step
	// (order creation) failed and needs manual attention
	Warning string
}

// SaleOrchestrator runs the full terminal sale flow
type SaleOrchestrator interface {
	// SubmitSale races the gateway against the sale deadline. Returns a
	// terminal result when the cardholder finishes in time, or a processing
	// result after detaching the gateway call to the background.
	SubmitSale(ctx context.Context, req *domain.SaleRequest) (*SaleResult, error)

	// CheckStatus resolves the current state of a sale by reference id:
	// ledger first, then the pending store, then a live gateway query.
	CheckStatus(ctx context.Context, referenceID string) (*SaleResult, error)

	// GetSale reads the recorded state without touching the gateway
	GetSale(ctx context.Context, referenceID string) (*SaleResult, error)

	// ListTransactions lists ledger rows for a winery
	ListTransactions(ctx context.Context, wineryID string, limit, offset int32) ([]*domain.Transaction, error)
}

// StatusChecker drives repeated status checks until a sale resolves
type StatusChecker interface {
	// WaitForOutcome polls CheckStatus at a fixed cadence until the sale
	// reaches a terminal status, the maximum wait elapses (timeout result),
	// or ctx is cancelled.
	WaitForOutcome(ctx context.Context, referenceID string) (*SaleResult, error)
}
