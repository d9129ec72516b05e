package ports

import (
	"context"

	"github.com/crushpad/terminal-service/internal/domain"
)

// TerminalGateway submits requests to the physical terminal gateway.
// Implementations surface transport errors unmodified and never retry;
// retries are the caller's (poller's) responsibility.
type TerminalGateway interface {
	// SubmitSale sends a sale to the terminal. The call blocks until the
	// gateway replies or ctx expires; card-present authorization can take
	// far longer than a typical request budget.
	SubmitSale(ctx context.Context, req *domain.SaleRequest, creds domain.TerminalCredentials) (*domain.GatewayReply, error)

	// QueryStatus asks the gateway what happened to an earlier sale
	// identified by its reference id
	QueryStatus(ctx context.Context, referenceID string, creds domain.TerminalCredentials) (*domain.GatewayReply, error)
}

// OrderService creates an order in the surrounding point-of-sale system.
// Supplied by the CRUD layer; the core treats it as opaque and must handle
// its failure without losing the payment record.
type OrderService interface {
	CreateOrder(ctx context.Context, details domain.OrderDetails) (orderID string, err error)
}
