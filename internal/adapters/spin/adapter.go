package spin

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/domain/ports"
	"github.com/crushpad/terminal-service/pkg/observability"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config contains configuration for the SPIn terminal gateway adapter
type Config struct {
	// Base URL for the register API
	// Sandbox: https://test.spinpos.net/spin
	// Production: https://spinpos.net/spin
	BaseURL string

	// HTTP client timeout. Card-present authorization includes cardholder
	// interaction at the terminal, so this is far longer than a typical
	// request budget.
	Timeout time.Duration

	// TLS configuration
	InsecureSkipVerify bool
}

// DefaultConfig returns default configuration for the SPIn adapter
func DefaultConfig(environment string) *Config {
	baseURL := "https://spinpos.net/spin"
	if environment == "sandbox" {
		baseURL = "https://test.spinpos.net/spin"
	}

	return &Config{
		BaseURL:            baseURL,
		Timeout:            120 * time.Second,
		InsecureSkipVerify: environment == "sandbox",
	}
}

// adapter implements ports.TerminalGateway against the SPIn register API
type adapter struct {
	config         *Config
	httpClient     *http.Client
	logger         *zap.Logger
	circuitBreaker *CircuitBreaker
}

// NewAdapter creates a new SPIn terminal gateway adapter
func NewAdapter(config *Config, logger *zap.Logger) ports.TerminalGateway {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}

	httpClient := &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
	}

	return &adapter{
		config:         config,
		httpClient:     httpClient,
		logger:         logger,
		circuitBreaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
	}
}

// saleRequest is the wire payload for a terminal sale
type saleRequest struct {
	TPN           string         `json:"TPN"`
	RegisterID    string         `json:"RegisterId"`
	AuthKey       string         `json:"AuthKey"`
	RefID         string         `json:"RefId"`
	InvoiceNumber string         `json:"InvoiceNumber,omitempty"`
	PaymentType   string         `json:"PaymentType"`
	TransType     string         `json:"TransType"`
	Amount        string         `json:"Amount"`
	Tip           string         `json:"Tip"`
	Tax           string         `json:"Tax"`
	Subtotal      string         `json:"Subtotal"`
	CardToken     string         `json:"CardToken,omitempty"`
	RequestToken  bool           `json:"RequestToken"`
	LineItems     []saleLineItem `json:"LineItems,omitempty"`
}

type saleLineItem struct {
	Name     string `json:"Name"`
	Quantity int32  `json:"Qty"`
	Price    string `json:"Price"`
}

// statusRequest is the wire payload for a status query
type statusRequest struct {
	TPN         string `json:"TPN"`
	RegisterID  string `json:"RegisterId"`
	AuthKey     string `json:"AuthKey"`
	RefID       string `json:"RefId"`
	PaymentType string `json:"PaymentType"`
}

// wireReply mirrors the gateway's reply document
type wireReply struct {
	GeneralResponse struct {
		ResultCode      string `json:"ResultCode"`
		StatusCode      string `json:"StatusCode"`
		Message         string `json:"Message"`
		DetailedMessage string `json:"DetailedMessage"`
	} `json:"GeneralResponse"`
	HostResponseCode string `json:"HostResponseCode"`
	HostMessage      string `json:"HostMessage"`
	AuthCode         string `json:"AuthCode"`
	CardBrand        string `json:"CardBrand"`
	CardLast4        string `json:"CardLast4"`
	CardBIN          string `json:"CardBIN"`
	ExpMonth         int    `json:"ExpMonth"`
	ExpYear          int    `json:"ExpYear"`
	EntryType        string `json:"EntryType"`
	CardToken        string `json:"CardToken"`
	Amount           string `json:"Amount"`
	RefID            string `json:"RefId"`
}

// SubmitSale sends a sale to the terminal and blocks until the gateway
// replies or ctx expires. Transport errors are surfaced unmodified; there is
// no retry here, re-checking is the poller's job.
func (a *adapter) SubmitSale(ctx context.Context, req *domain.SaleRequest, creds domain.TerminalCredentials) (*domain.GatewayReply, error) {
	payload := saleRequest{
		TPN:           creds.TPN,
		RegisterID:    creds.RegisterID,
		AuthKey:       creds.AuthKey,
		RefID:         req.ReferenceID,
		InvoiceNumber: req.InvoiceNumber,
		PaymentType:   "Card",
		TransType:     "Sale",
		Amount:        centsToWire(req.AmountCents),
		Tip:           centsToWire(req.TipCents),
		Tax:           centsToWire(req.TaxCents),
		Subtotal:      centsToWire(req.SubtotalCents),
		RequestToken:  true,
	}
	if saved, ok := req.Tender.(domain.SavedCardTender); ok {
		payload.CardToken = saved.Token
	}
	for _, item := range req.Items {
		payload.LineItems = append(payload.LineItems, saleLineItem{
			Name:     item.DisplayName(),
			Quantity: item.Quantity,
			Price:    centsToWire(item.PriceCents),
		})
	}

	a.logger.Info("Submitting terminal sale",
		zap.String("reference_id", req.ReferenceID),
		zap.String("tpn", creds.TPN),
		zap.String("amount", payload.Amount),
	)

	return a.post(ctx, "sale", payload, req.ReferenceID)
}

// QueryStatus asks the gateway what happened to the sale identified by
// referenceID
func (a *adapter) QueryStatus(ctx context.Context, referenceID string, creds domain.TerminalCredentials) (*domain.GatewayReply, error) {
	payload := statusRequest{
		TPN:         creds.TPN,
		RegisterID:  creds.RegisterID,
		AuthKey:     creds.AuthKey,
		RefID:       referenceID,
		PaymentType: "Card",
	}

	a.logger.Debug("Querying terminal sale status",
		zap.String("reference_id", referenceID),
		zap.String("tpn", creds.TPN),
	)

	return a.post(ctx, "status", payload, referenceID)
}

// operation → wire endpoint
var endpoints = map[string]string{
	"sale":   "/v2/Payment/Sale",
	"status": "/v2/Payment/Status",
}

func (a *adapter) post(ctx context.Context, operation string, payload interface{}, referenceID string) (*domain.GatewayReply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}
	url := a.config.BaseURL + endpoints[operation]

	var reply *domain.GatewayReply
	err = a.circuitBreaker.Call(func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create gateway request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		startTime := time.Now()
		httpResp, err := a.httpClient.Do(httpReq)
		observability.RecordGatewayRequest(operation, time.Since(startTime).Seconds())
		if err != nil {
			a.logger.Error("Gateway request failed",
				zap.String("reference_id", referenceID),
				zap.Duration("elapsed", time.Since(startTime)),
				zap.Error(err),
			)
			return fmt.Errorf("gateway request: %w", err)
		}
		defer httpResp.Body.Close()

		raw, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("read gateway response: %w", err)
		}

		a.logger.Info("Received gateway reply",
			zap.String("reference_id", referenceID),
			zap.Int("status_code", httpResp.StatusCode),
			zap.Duration("elapsed", time.Since(startTime)),
			zap.Int("body_length", len(raw)),
		)

		if httpResp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway returned HTTP %d", httpResp.StatusCode)
		}

		parsed, err := parseReply(raw)
		if err != nil {
			a.logger.Error("Failed to parse gateway reply",
				zap.String("reference_id", referenceID),
				zap.Error(err),
			)
			return fmt.Errorf("parse gateway reply: %w", err)
		}

		reply = parsed
		return nil
	})

	if err != nil {
		if err == ErrCircuitOpen {
			a.logger.Warn("Circuit breaker is open, rejecting gateway request",
				zap.String("circuit_state", a.circuitBreaker.State().String()),
			)
		}
		return nil, err
	}

	return reply, nil
}

// parseReply converts the wire document into the domain reply, retaining the
// raw bytes for audit snapshots
func parseReply(raw []byte) (*domain.GatewayReply, error) {
	var wire wireReply
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}

	return &domain.GatewayReply{
		ResultCode:       wire.GeneralResponse.ResultCode,
		StatusMessage:    wire.GeneralResponse.Message,
		HostResponseCode: wire.HostResponseCode,
		HostMessage:      wire.HostMessage,
		AuthCode:         wire.AuthCode,
		CardBrand:        wire.CardBrand,
		CardLast4:        wire.CardLast4,
		CardBIN:          wire.CardBIN,
		ExpMonth:         wire.ExpMonth,
		ExpYear:          wire.ExpYear,
		EntryType:        wire.EntryType,
		CardToken:        wire.CardToken,
		EchoAmount:       wire.Amount,
		ReferenceID:      wire.RefID,
		Raw:              json.RawMessage(raw),
	}, nil
}

// centsToWire formats an integer cent amount as the dollar string the gateway
// expects, e.g. 4217 -> "42.17"
func centsToWire(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
