package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// PaymentMethod is a vaulted card owned by a customer. A customer may hold
// many; (customer, processor, fingerprint) is unique.
type PaymentMethod struct {
	ID          string
	CustomerID  string
	Processor   string
	Token       string
	Fingerprint string
	Brand       string
	Last4       string
	ExpMonth    int
	ExpYear     int
	UsageCount  int32
	IsDefault   bool
	LastUsedAt  time.Time
	CreatedAt   time.Time
}

// CardFingerprint derives the dedup key for a card from its BIN, last four
// digits, and expiry. Two approvals of the same physical card always produce
// the same fingerprint.
func CardFingerprint(bin, last4 string, expMonth, expYear int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%02d:%04d", bin, last4, expMonth, expYear)))
	return hex.EncodeToString(sum[:])
}

// PaymentMethodFromReply builds a vaultable card from an approved gateway
// reply. Returns nil when the reply carries no reusable token.
func PaymentMethodFromReply(customerID, processor string, reply *GatewayReply) *PaymentMethod {
	if reply == nil || reply.CardToken == "" {
		return nil
	}
	return &PaymentMethod{
		CustomerID:  customerID,
		Processor:   processor,
		Token:       reply.CardToken,
		Fingerprint: CardFingerprint(reply.CardBIN, reply.CardLast4, reply.ExpMonth, reply.ExpYear),
		Brand:       reply.CardBrand,
		Last4:       reply.CardLast4,
		ExpMonth:    reply.ExpMonth,
		ExpYear:     reply.ExpYear,
	}
}
