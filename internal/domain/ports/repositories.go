package ports

import (
	"context"

	"github.com/crushpad/terminal-service/internal/domain"
)

// PendingRepository persists in-flight transactions keyed by reference id
type PendingRepository interface {
	// CreateProcessing inserts a pending row with status processing. Inserting
	// the same reference id twice is a no-op.
	CreateProcessing(ctx context.Context, db DBTX, pending *domain.PendingTransaction) error

	// GetByReferenceID returns the pending row, or nil when none exists
	GetByReferenceID(ctx context.Context, db DBTX, referenceID string) (*domain.PendingTransaction, error)

	// RecordReply stores the latest gateway reply and advances the status.
	// Status only ever moves forward from processing to a terminal state; a
	// write against an already-terminal row updates the checked-at timestamp
	// and reply snapshot but never the status.
	RecordReply(ctx context.Context, db DBTX, referenceID string, status domain.SaleStatus, reply []byte) error
}

// TransactionRepository persists the transaction ledger
type TransactionRepository interface {
	// CreateIfAbsent inserts the ledger row unless one already exists for the
	// reference id, in which case the pre-existing row is returned unchanged.
	// created reports whether this call performed the insert.
	CreateIfAbsent(ctx context.Context, db DBTX, txn *domain.Transaction) (result *domain.Transaction, created bool, err error)

	// GetByReferenceID returns the ledger row, or nil when none exists
	GetByReferenceID(ctx context.Context, db DBTX, referenceID string) (*domain.Transaction, error)

	// LinkOrder attaches an order to the ledger row exactly once; linking an
	// already-linked row is a no-op
	LinkOrder(ctx context.Context, db DBTX, referenceID, orderID string) error

	// ListByWinery lists ledger rows for a winery with pagination
	ListByWinery(ctx context.Context, db DBTX, wineryID string, limit, offset int32) ([]*domain.Transaction, error)
}

// PaymentMethodRepository persists vaulted cards
type PaymentMethodRepository interface {
	// Upsert inserts the card or, when (customer, processor, fingerprint)
	// already exists, refreshes the token and bumps the usage count. A
	// customer's first card for a processor becomes the default.
	Upsert(ctx context.Context, db DBTX, method *domain.PaymentMethod) error
}

// TerminalRepository reads terminal configuration
type TerminalRepository interface {
	GetByID(ctx context.Context, db DBTX, terminalID string) (*domain.Terminal, error)
}
