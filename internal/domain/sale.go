package domain

import (
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/crushpad/terminal-service/pkg/errors"
)

// SaleStatus represents the externally observable state of a terminal sale.
// processing is the only non-terminal status; once a sale reaches a terminal
// status it never transitions again.
type SaleStatus string

const (
	SaleStatusApproved   SaleStatus = "approved"
	SaleStatusDeclined   SaleStatus = "declined"
	SaleStatusError      SaleStatus = "error"
	SaleStatusProcessing SaleStatus = "processing"
	SaleStatusTimeout    SaleStatus = "timeout"
)

// IsTerminal returns true if the status can never change again
func (s SaleStatus) IsTerminal() bool {
	switch s {
	case SaleStatusApproved, SaleStatusDeclined, SaleStatusError, SaleStatusTimeout:
		return true
	}
	return false
}

// SaleChannel identifies how the sale originated
type SaleChannel string

const (
	ChannelTastingRoom SaleChannel = "tasting_room"
	ChannelEvent       SaleChannel = "event"
	ChannelClubPickup  SaleChannel = "club_pickup"
)

// LineItem is a single cart line, sanitized for terminal display
type LineItem struct {
	SKU        string `json:"sku,omitempty"`
	Name       string `json:"name"`
	Quantity   int32  `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// terminalDisplayLimit is the maximum item name length, in characters, the
// terminal renders
const terminalDisplayLimit = 24

// DisplayName returns the item name truncated for the terminal's line display.
// Truncation counts runes, not bytes, so accented wine names are never cut
// mid-character.
func (li LineItem) DisplayName() string {
	name := strings.TrimSpace(li.Name)
	if utf8.RuneCountInString(name) > terminalDisplayLimit {
		return string([]rune(name)[:terminalDisplayLimit])
	}
	return name
}

// Tender selects how the card is presented. Exactly one variant applies to a
// sale; modeled as a sealed interface rather than mutually exclusive
// optional fields.
type Tender interface {
	isTender()
}

// PresentCardTender means the card is read by the terminal hardware
type PresentCardTender struct{}

func (PresentCardTender) isTender() {}

// SavedCardTender charges a previously vaulted token without presenting the card
type SavedCardTender struct {
	Token string `json:"token"`
	CVV   string `json:"cvv,omitempty"`
}

func (SavedCardTender) isTender() {}

// SaleRequest describes one terminal sale attempt. ReferenceID is the
// idempotency key for the whole flow and must be unique per attempt; it is
// generated before any network call is made.
type SaleRequest struct {
	ReferenceID   string      `json:"reference_id"`
	WineryID      string      `json:"winery_id"`
	TerminalID    string      `json:"terminal_id"`
	CustomerID    *string     `json:"customer_id,omitempty"`
	InvoiceNumber string      `json:"invoice_number"`
	Channel       SaleChannel `json:"channel"`
	AmountCents   int64       `json:"amount_cents"`
	SubtotalCents int64       `json:"subtotal_cents"`
	TaxCents      int64       `json:"tax_cents"`
	TipCents      int64       `json:"tip_cents"`
	Items         []LineItem  `json:"items,omitempty"`
	Tender        Tender      `json:"-"`
}

// Validate checks the request before it is sent anywhere
func (r *SaleRequest) Validate() error {
	if r.WineryID == "" {
		return pkgerrors.NewValidationError("winery_id", "is required")
	}
	if r.TerminalID == "" {
		return pkgerrors.NewValidationError("terminal_id", "is required")
	}
	if r.AmountCents <= 0 {
		return pkgerrors.NewValidationError("amount_cents", "must be positive")
	}
	if r.SubtotalCents < 0 || r.TaxCents < 0 || r.TipCents < 0 {
		return pkgerrors.NewValidationError("amounts", "breakdown must be non-negative")
	}
	if r.SubtotalCents+r.TaxCents+r.TipCents != r.AmountCents {
		return pkgerrors.NewValidationError("amount_cents", "must equal subtotal + tax + tip")
	}
	return nil
}

// Outcome is the normalized interpretation of a gateway reply. It is derived,
// never stored standalone; classification of the same reply always yields an
// identical Outcome.
type Outcome struct {
	Status         SaleStatus
	Code           string
	Category       pkgerrors.ErrorCategory
	Message        string
	Definition     string
	GatewayMessage string
}

// ToPaymentError converts a non-approved outcome into a PaymentError
func (o Outcome) ToPaymentError() *pkgerrors.PaymentError {
	return &pkgerrors.PaymentError{
		Code:           o.Code,
		Message:        o.Message,
		GatewayMessage: o.GatewayMessage,
		Category:       o.Category,
		Details:        map[string]interface{}{"definition": o.Definition},
	}
}
