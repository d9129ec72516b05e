package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/domain/ports"
)

// Config contains configuration for the order system client
type Config struct {
	// Base URL of the order system API
	BaseURL string

	// API key sent on every request
	APIKey string

	// Request timeout (default: 10s)
	Timeout time.Duration
}

// DefaultConfig returns default client configuration
func DefaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Client calls the winery order system to create orders for approved sales.
// Implements ports.OrderService.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new order system client
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

var _ ports.OrderService = (*Client)(nil)

type createOrderRequest struct {
	WineryID      string            `json:"winery_id"`
	CustomerID    *string           `json:"customer_id,omitempty"`
	ReferenceID   string            `json:"reference_id"`
	InvoiceNumber string            `json:"invoice_number"`
	Channel       string            `json:"channel"`
	AmountCents   int64             `json:"amount_cents"`
	SubtotalCents int64             `json:"subtotal_cents"`
	TaxCents      int64             `json:"tax_cents"`
	TipCents      int64             `json:"tip_cents"`
	Items         []createOrderItem `json:"items"`
}

type createOrderItem struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Quantity   int32  `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
}

// CreateOrder creates an order for an approved sale and returns the order id
func (c *Client) CreateOrder(ctx context.Context, details domain.OrderDetails) (string, error) {
	payload := createOrderRequest{
		WineryID:      details.WineryID,
		CustomerID:    details.CustomerID,
		ReferenceID:   details.ReferenceID,
		InvoiceNumber: details.InvoiceNumber,
		Channel:       string(details.Channel),
		AmountCents:   details.AmountCents,
		SubtotalCents: details.SubtotalCents,
		TaxCents:      details.TaxCents,
		TipCents:      details.TipCents,
	}
	for _, item := range details.Items {
		payload.Items = append(payload.Items, createOrderItem{
			SKU:        item.SKU,
			Name:       item.Name,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order request: %w", err)
	}

	url := c.config.BaseURL + "/v1/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("order system request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read order response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("Order system returned non-success status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("reference_id", details.ReferenceID),
		)
		return "", fmt.Errorf("order system returned status %d", resp.StatusCode)
	}

	var parsed createOrderResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse order response: %w", err)
	}
	if parsed.OrderID == "" {
		return "", fmt.Errorf("order system returned empty order id")
	}

	c.logger.Info("Order created",
		zap.String("order_id", parsed.OrderID),
		zap.String("reference_id", details.ReferenceID),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	return parsed.OrderID, nil
}
