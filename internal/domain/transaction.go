package domain

import (
	"time"
)

// PendingTransaction is the durable record of an in-flight terminal sale,
// created only when the initiator's deadline is exceeded. It is updated in
// place by every subsequent status check and never deleted; terminal rows
// remain as an audit trail.
type PendingTransaction struct {
	ReferenceID     string
	WineryID        string
	TerminalID      string
	AmountCents     int64
	Status          SaleStatus
	Request         []byte // serialized SaleRequest, needed to resume status checks
	LastReply       []byte // serialized last gateway reply, nil until one lands
	CreatedAt       time.Time
	StatusCheckedAt time.Time
}

// Transaction is the persisted ledger entry, created exactly once per
// reference id at reconciliation time. Immutable after creation except for
// the order linkage.
type Transaction struct {
	ID            string
	ReferenceID   string
	OrderID       *string
	WineryID      string
	CustomerID    *string
	TerminalID    string
	Channel       SaleChannel
	AmountCents   int64
	SubtotalCents int64
	TaxCents      int64
	TipCents      int64
	Status        SaleStatus
	StatusCode    string
	AuthCode      *string
	CardBrand     *string
	CardLast4     *string
	EntryType     *string
	Request       []byte
	Response      []byte
	ProcessedAt   time.Time
}

// IsApproved returns true if the ledger entry records an approved sale
func (t *Transaction) IsApproved() bool {
	return t.Status == SaleStatusApproved
}

// GetCustomerID safely retrieves the customer ID
func (t *Transaction) GetCustomerID() string {
	if t.CustomerID != nil {
		return *t.CustomerID
	}
	return ""
}

// OrderDetails is the opaque payload handed to the order-creation
// collaborator after an approved sale
type OrderDetails struct {
	WineryID      string
	CustomerID    *string
	ReferenceID   string
	InvoiceNumber string
	Channel       SaleChannel
	AmountCents   int64
	SubtotalCents int64
	TaxCents      int64
	TipCents      int64
	Items         []LineItem
}
