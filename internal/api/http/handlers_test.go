package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpapi "github.com/crushpad/terminal-service/internal/api/http"
	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/logging"
	serviceports "github.com/crushpad/terminal-service/internal/services/ports"
	pkgerrors "github.com/crushpad/terminal-service/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockOrchestrator mocks the sale orchestrator
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) SubmitSale(ctx context.Context, req *domain.SaleRequest) (*serviceports.SaleResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*serviceports.SaleResult), args.Error(1)
}

func (m *MockOrchestrator) CheckStatus(ctx context.Context, referenceID string) (*serviceports.SaleResult, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*serviceports.SaleResult), args.Error(1)
}

func (m *MockOrchestrator) GetSale(ctx context.Context, referenceID string) (*serviceports.SaleResult, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*serviceports.SaleResult), args.Error(1)
}

func (m *MockOrchestrator) ListTransactions(ctx context.Context, wineryID string, limit, offset int32) ([]*domain.Transaction, error) {
	args := m.Called(ctx, wineryID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

// MockChecker mocks the blocking status checker
type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) WaitForOutcome(ctx context.Context, referenceID string) (*serviceports.SaleResult, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*serviceports.SaleResult), args.Error(1)
}

func newTestRouter(orch *MockOrchestrator, checker *MockChecker) *gin.Engine {
	return httpapi.NewRouter(orch, checker, logging.NewZapLogger(zap.NewNop()))
}

func validSaleBody() map[string]interface{} {
	return map[string]interface{}{
		"winery_id":      "winery-1",
		"terminal_id":    "term-1",
		"channel":        "tasting_room",
		"invoice_number": "INV-42",
		"amount_cents":   4217,
		"subtotal_cents": 3915,
		"tax_cents":      302,
		"items": []map[string]interface{}{
			{"name": "2019 Estate Pinot Noir", "quantity": 1, "price_cents": 3915},
		},
	}
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitSale_ApprovedReturns200(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("SubmitSale", mock.Anything, mock.MatchedBy(func(req *domain.SaleRequest) bool {
		_, present := req.Tender.(domain.PresentCardTender)
		return req.WineryID == "winery-1" && present
	})).Return(&serviceports.SaleResult{
		Status:      domain.SaleStatusApproved,
		ReferenceID: "REF001",
		Outcome:     &domain.Outcome{Status: domain.SaleStatusApproved, Code: "00", Message: "Approved"},
		Transaction: &domain.Transaction{
			ID:          "11111111-1111-1111-1111-111111111111",
			ReferenceID: "REF001",
			WineryID:    "winery-1",
			TerminalID:  "term-1",
			Channel:     domain.ChannelTastingRoom,
			AmountCents: 4217,
			Status:      domain.SaleStatusApproved,
			StatusCode:  "00",
			ProcessedAt: time.Now(),
		},
	}, nil)

	router := newTestRouter(orch, new(MockChecker))
	w := postJSON(t, router, "/v1/terminal/sales", validSaleBody())

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "approved", resp["status"])
	assert.Equal(t, "REF001", resp["reference_id"])
	assert.Equal(t, "00", resp["code"])
}

func TestSubmitSale_ProcessingReturns202(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("SubmitSale", mock.Anything, mock.Anything).Return(&serviceports.SaleResult{
		Status:      domain.SaleStatusProcessing,
		ReferenceID: "REF002",
	}, nil)

	router := newTestRouter(orch, new(MockChecker))
	w := postJSON(t, router, "/v1/terminal/sales", validSaleBody())

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "processing", resp["status"])
}

func TestSubmitSale_SavedCardTender(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("SubmitSale", mock.Anything, mock.MatchedBy(func(req *domain.SaleRequest) bool {
		saved, ok := req.Tender.(domain.SavedCardTender)
		return ok && saved.Token == "tok_abc123"
	})).Return(&serviceports.SaleResult{
		Status:      domain.SaleStatusApproved,
		ReferenceID: "REF003",
	}, nil)

	body := validSaleBody()
	body["saved_card"] = map[string]interface{}{"token": "tok_abc123"}

	router := newTestRouter(orch, new(MockChecker))
	w := postJSON(t, router, "/v1/terminal/sales", body)

	assert.Equal(t, http.StatusOK, w.Code)
	orch.AssertExpectations(t)
}

func TestSubmitSale_MissingFieldsReturns400(t *testing.T) {
	orch := new(MockOrchestrator)
	router := newTestRouter(orch, new(MockChecker))

	w := postJSON(t, router, "/v1/terminal/sales", map[string]interface{}{
		"winery_id": "winery-1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	orch.AssertNotCalled(t, "SubmitSale", mock.Anything, mock.Anything)
}

func TestSubmitSale_ValidationErrorReturns400(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("SubmitSale", mock.Anything, mock.Anything).
		Return(nil, pkgerrors.NewValidationError("amount_cents", "must equal subtotal + tax + tip"))

	router := newTestRouter(orch, new(MockChecker))
	w := postJSON(t, router, "/v1/terminal/sales", validSaleBody())

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSale_ReturnsRecordedState(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("GetSale", mock.Anything, "REF001").Return(&serviceports.SaleResult{
		Status:      domain.SaleStatusProcessing,
		ReferenceID: "REF001",
	}, nil)

	router := newTestRouter(orch, new(MockChecker))

	req := httptest.NewRequest(http.MethodGet, "/v1/terminal/sales/REF001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "processing", resp["status"])
}

func TestGetSale_UnknownReturns404(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("GetSale", mock.Anything, "NOPE").Return(nil, errors.New("sale not found: NOPE"))

	router := newTestRouter(orch, new(MockChecker))

	req := httptest.NewRequest(http.MethodGet, "/v1/terminal/sales/NOPE", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckStatus_SingleCheck(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("CheckStatus", mock.Anything, "REF001").Return(&serviceports.SaleResult{
		Status:      domain.SaleStatusDeclined,
		ReferenceID: "REF001",
		Outcome:     &domain.Outcome{Status: domain.SaleStatusDeclined, Code: "51", Message: "Insufficient funds"},
	}, nil)

	checker := new(MockChecker)
	router := newTestRouter(orch, checker)

	w := postJSON(t, router, "/v1/terminal/sales/REF001/check", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "declined", resp["status"])
	assert.Equal(t, "51", resp["code"])

	checker.AssertNotCalled(t, "WaitForOutcome", mock.Anything, mock.Anything)
}

func TestCheckStatus_BlockingWait(t *testing.T) {
	checker := new(MockChecker)
	checker.On("WaitForOutcome", mock.Anything, "REF001").Return(&serviceports.SaleResult{
		Status:      domain.SaleStatusTimeout,
		ReferenceID: "REF001",
	}, nil)

	orch := new(MockOrchestrator)
	router := newTestRouter(orch, checker)

	w := postJSON(t, router, "/v1/terminal/sales/REF001/check?wait=true", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "timeout", resp["status"])

	orch.AssertNotCalled(t, "CheckStatus", mock.Anything, mock.Anything)
}

func TestListTransactions_RequiresWinery(t *testing.T) {
	router := newTestRouter(new(MockOrchestrator), new(MockChecker))

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTransactions_ReturnsRows(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("ListTransactions", mock.Anything, "winery-1", int32(50), int32(0)).
		Return([]*domain.Transaction{
			{
				ID:          "11111111-1111-1111-1111-111111111111",
				ReferenceID: "REF001",
				WineryID:    "winery-1",
				TerminalID:  "term-1",
				Channel:     domain.ChannelTastingRoom,
				AmountCents: 4217,
				Status:      domain.SaleStatusApproved,
				StatusCode:  "00",
				ProcessedAt: time.Now(),
			},
		}, nil)

	router := newTestRouter(orch, new(MockChecker))

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions?winery_id=winery-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Transactions []map[string]interface{} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "REF001", resp.Transactions[0]["reference_id"])
}
