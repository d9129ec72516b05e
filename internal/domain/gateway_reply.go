package domain

import (
	"encoding/json"
	"fmt"
)

// Gateway envelope result codes. The envelope reports the gateway's own
// success or failure, distinct from the card network's decision.
const (
	EnvelopeResultOK = "0"
)

// GatewayReply is the parsed wire reply from the terminal gateway. The raw
// bytes are retained for audit snapshots.
type GatewayReply struct {
	// Envelope tier: the gateway's own result/status pair
	ResultCode    string `json:"result_code"`
	StatusMessage string `json:"status_message"`

	// Card-network tier: only meaningful when the envelope reports success
	HostResponseCode string `json:"host_response_code"`
	HostMessage      string `json:"host_message"`
	AuthCode         string `json:"auth_code"`

	// Card presentation details echoed by the terminal
	CardBrand string `json:"card_brand"`
	CardLast4 string `json:"card_last4"`
	CardBIN   string `json:"card_bin"`
	ExpMonth  int    `json:"exp_month"`
	ExpYear   int    `json:"exp_year"`
	EntryType string `json:"entry_type"`

	// Reusable token returned on approval when vaulting is enabled
	CardToken string `json:"card_token"`

	// Amount echoed by the gateway, dollars as a string (e.g. "42.17").
	// Informational only; the ledger always records the requested amount.
	EchoAmount string `json:"echo_amount"`

	ReferenceID string `json:"reference_id"`

	Raw json.RawMessage `json:"-"`
}

// EnvelopeOK reports whether the gateway's own envelope signals success
func (r *GatewayReply) EnvelopeOK() bool {
	return r.ResultCode == EnvelopeResultOK
}

// MarshalSnapshot serializes the reply for the audit columns, preferring the
// raw wire bytes when present
func (r *GatewayReply) MarshalSnapshot() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway reply: %w", err)
	}
	return data, nil
}
