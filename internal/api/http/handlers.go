package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/domain/ports"
	serviceports "github.com/crushpad/terminal-service/internal/services/ports"
	pkgerrors "github.com/crushpad/terminal-service/pkg/errors"
)

// Handlers exposes the sale orchestrator over HTTP
type Handlers struct {
	orchestrator serviceports.SaleOrchestrator
	checker      serviceports.StatusChecker
	logger       ports.Logger
}

// NewHandlers creates the HTTP handlers
func NewHandlers(orchestrator serviceports.SaleOrchestrator, checker serviceports.StatusChecker, logger ports.Logger) *Handlers {
	return &Handlers{
		orchestrator: orchestrator,
		checker:      checker,
		logger:       logger,
	}
}

type lineItemBody struct {
	SKU        string `json:"sku"`
	Name       string `json:"name" binding:"required"`
	Quantity   int32  `json:"quantity" binding:"required,gt=0"`
	PriceCents int64  `json:"price_cents" binding:"required,gt=0"`
}

type savedCardBody struct {
	Token string `json:"token" binding:"required"`
	CVV   string `json:"cvv"`
}

type submitSaleBody struct {
	ReferenceID   string         `json:"reference_id"`
	WineryID      string         `json:"winery_id" binding:"required"`
	TerminalID    string         `json:"terminal_id" binding:"required"`
	CustomerID    *string        `json:"customer_id"`
	InvoiceNumber string         `json:"invoice_number"`
	Channel       string         `json:"channel" binding:"required"`
	AmountCents   int64          `json:"amount_cents" binding:"required,gt=0"`
	SubtotalCents int64          `json:"subtotal_cents"`
	TaxCents      int64          `json:"tax_cents"`
	TipCents      int64          `json:"tip_cents"`
	Items         []lineItemBody `json:"items"`
	SavedCard     *savedCardBody `json:"saved_card"`
}

type saleResponse struct {
	Status      string               `json:"status"`
	ReferenceID string               `json:"reference_id"`
	Code        string               `json:"code,omitempty"`
	Message     string               `json:"message,omitempty"`
	Transaction *transactionResponse `json:"transaction,omitempty"`
	Warning     string               `json:"warning,omitempty"`
}

type transactionResponse struct {
	ID          string  `json:"id"`
	ReferenceID string  `json:"reference_id"`
	OrderID     *string `json:"order_id,omitempty"`
	WineryID    string  `json:"winery_id"`
	TerminalID  string  `json:"terminal_id"`
	Channel     string  `json:"channel"`
	AmountCents int64   `json:"amount_cents"`
	TipCents    int64   `json:"tip_cents"`
	Status      string  `json:"status"`
	StatusCode  string  `json:"status_code"`
	AuthCode    *string `json:"auth_code,omitempty"`
	CardBrand   *string `json:"card_brand,omitempty"`
	CardLast4   *string `json:"card_last4,omitempty"`
	ProcessedAt string  `json:"processed_at"`
}

// SubmitSale handles POST /v1/terminal/sales
func (h *Handlers) SubmitSale(c *gin.Context) {
	var body submitSaleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := &domain.SaleRequest{
		ReferenceID:   body.ReferenceID,
		WineryID:      body.WineryID,
		TerminalID:    body.TerminalID,
		CustomerID:    body.CustomerID,
		InvoiceNumber: body.InvoiceNumber,
		Channel:       domain.SaleChannel(body.Channel),
		AmountCents:   body.AmountCents,
		SubtotalCents: body.SubtotalCents,
		TaxCents:      body.TaxCents,
		TipCents:      body.TipCents,
	}
	for _, item := range body.Items {
		req.Items = append(req.Items, domain.LineItem{
			SKU:        item.SKU,
			Name:       item.Name,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		})
	}
	if body.SavedCard != nil {
		req.Tender = domain.SavedCardTender{Token: body.SavedCard.Token, CVV: body.SavedCard.CVV}
	} else {
		req.Tender = domain.PresentCardTender{}
	}

	result, err := h.orchestrator.SubmitSale(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	status := http.StatusOK
	if result.Status == domain.SaleStatusProcessing {
		status = http.StatusAccepted
	}
	c.JSON(status, toSaleResponse(result))
}

// GetSale handles GET /v1/terminal/sales/:reference_id
func (h *Handlers) GetSale(c *gin.Context) {
	referenceID := c.Param("reference_id")

	result, err := h.orchestrator.GetSale(c.Request.Context(), referenceID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSaleResponse(result))
}

// CheckStatus handles POST /v1/terminal/sales/:reference_id/check.
// With ?wait=true the request blocks until the sale resolves or the
// poller's maximum wait elapses.
func (h *Handlers) CheckStatus(c *gin.Context) {
	referenceID := c.Param("reference_id")

	var result *serviceports.SaleResult
	var err error
	if c.Query("wait") == "true" {
		result, err = h.checker.WaitForOutcome(c.Request.Context(), referenceID)
	} else {
		result, err = h.orchestrator.CheckStatus(c.Request.Context(), referenceID)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSaleResponse(result))
}

// ListTransactions handles GET /v1/transactions
func (h *Handlers) ListTransactions(c *gin.Context) {
	wineryID := c.Query("winery_id")
	if wineryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "winery_id is required"})
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 32)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 32)

	txns, err := h.orchestrator.ListTransactions(c.Request.Context(), wineryID, int32(limit), int32(offset))
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]*transactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionResponse(txn))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

// writeError maps service errors to HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	var validationErr *pkgerrors.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if strings.Contains(err.Error(), "not found") {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	h.logger.Error("request failed", ports.Err(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func toSaleResponse(result *serviceports.SaleResult) saleResponse {
	resp := saleResponse{
		Status:      string(result.Status),
		ReferenceID: result.ReferenceID,
		Warning:     result.Warning,
	}
	if result.Outcome != nil {
		resp.Code = result.Outcome.Code
		resp.Message = result.Outcome.Message
	}
	if result.Transaction != nil {
		resp.Transaction = toTransactionResponse(result.Transaction)
		if resp.Code == "" {
			resp.Code = result.Transaction.StatusCode
		}
	}
	return resp
}

func toTransactionResponse(txn *domain.Transaction) *transactionResponse {
	return &transactionResponse{
		ID:          txn.ID,
		ReferenceID: txn.ReferenceID,
		OrderID:     txn.OrderID,
		WineryID:    txn.WineryID,
		TerminalID:  txn.TerminalID,
		Channel:     string(txn.Channel),
		AmountCents: txn.AmountCents,
		TipCents:    txn.TipCents,
		Status:      string(txn.Status),
		StatusCode:  txn.StatusCode,
		AuthCode:    txn.AuthCode,
		CardBrand:   txn.CardBrand,
		CardLast4:   txn.CardLast4,
		ProcessedAt: txn.ProcessedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
