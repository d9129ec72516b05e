package sale_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crushpad/terminal-service/internal/decline"
	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/domain/ports"
	"github.com/crushpad/terminal-service/internal/logging"
	"github.com/crushpad/terminal-service/internal/services/sale"
	"github.com/crushpad/terminal-service/pkg/resourcemgmt"
	"github.com/crushpad/terminal-service/pkg/shutdown"
)

// MockDBPort mocks the database port
type MockDBPort struct {
	mock.Mock
}

func (m *MockDBPort) Pool() *pgxpool.Pool {
	return nil
}

func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	// Execute the function with a nil transaction for testing
	return fn(ctx, nil)
}

// MockPendingRepository mocks the pending transaction store
type MockPendingRepository struct {
	mock.Mock
}

func (m *MockPendingRepository) CreateProcessing(ctx context.Context, db ports.DBTX, pending *domain.PendingTransaction) error {
	args := m.Called(ctx, db, pending)
	return args.Error(0)
}

func (m *MockPendingRepository) GetByReferenceID(ctx context.Context, db ports.DBTX, referenceID string) (*domain.PendingTransaction, error) {
	args := m.Called(ctx, db, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PendingTransaction), args.Error(1)
}

func (m *MockPendingRepository) RecordReply(ctx context.Context, db ports.DBTX, referenceID string, status domain.SaleStatus, reply []byte) error {
	args := m.Called(ctx, db, referenceID, status, reply)
	return args.Error(0)
}

// MockTransactionRepository mocks the transaction ledger
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateIfAbsent(ctx context.Context, db ports.DBTX, txn *domain.Transaction) (*domain.Transaction, bool, error) {
	args := m.Called(ctx, db, txn)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.Transaction), args.Bool(1), args.Error(2)
}

func (m *MockTransactionRepository) GetByReferenceID(ctx context.Context, db ports.DBTX, referenceID string) (*domain.Transaction, error) {
	args := m.Called(ctx, db, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) LinkOrder(ctx context.Context, db ports.DBTX, referenceID, orderID string) error {
	args := m.Called(ctx, db, referenceID, orderID)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListByWinery(ctx context.Context, db ports.DBTX, wineryID string, limit, offset int32) ([]*domain.Transaction, error) {
	args := m.Called(ctx, db, wineryID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

// MockPaymentMethodRepository mocks the card vault
type MockPaymentMethodRepository struct {
	mock.Mock
}

func (m *MockPaymentMethodRepository) Upsert(ctx context.Context, db ports.DBTX, method *domain.PaymentMethod) error {
	args := m.Called(ctx, db, method)
	return args.Error(0)
}

// MockTerminalRepository mocks terminal configuration lookup
type MockTerminalRepository struct {
	mock.Mock
}

func (m *MockTerminalRepository) GetByID(ctx context.Context, db ports.DBTX, terminalID string) (*domain.Terminal, error) {
	args := m.Called(ctx, db, terminalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Terminal), args.Error(1)
}

// MockTerminalGateway mocks the terminal gateway
type MockTerminalGateway struct {
	mock.Mock
}

func (m *MockTerminalGateway) SubmitSale(ctx context.Context, req *domain.SaleRequest, creds domain.TerminalCredentials) (*domain.GatewayReply, error) {
	args := m.Called(ctx, req, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GatewayReply), args.Error(1)
}

func (m *MockTerminalGateway) QueryStatus(ctx context.Context, referenceID string, creds domain.TerminalCredentials) (*domain.GatewayReply, error) {
	args := m.Called(ctx, referenceID, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GatewayReply), args.Error(1)
}

// MockSecretManager mocks the secret manager
type MockSecretManager struct {
	mock.Mock
}

func (m *MockSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Secret), args.Error(1)
}

func (m *MockSecretManager) PutSecret(ctx context.Context, path string, value string, metadata map[string]string) (string, error) {
	args := m.Called(ctx, path, value, metadata)
	return args.String(0), args.Error(1)
}

// MockOrderService mocks the order system
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, details domain.OrderDetails) (string, error) {
	args := m.Called(ctx, details)
	return args.String(0), args.Error(1)
}

// fixture holds a fully mocked service
type fixture struct {
	db        *MockDBPort
	pending   *MockPendingRepository
	txRepo    *MockTransactionRepository
	cards     *MockPaymentMethodRepository
	terminals *MockTerminalRepository
	gateway   *MockTerminalGateway
	secrets   *MockSecretManager
	orders    *MockOrderService
	service   *sale.Service
}

func newFixture(t *testing.T, deadline time.Duration) *fixture {
	t.Helper()

	f := &fixture{
		db:        new(MockDBPort),
		pending:   new(MockPendingRepository),
		txRepo:    new(MockTransactionRepository),
		cards:     new(MockPaymentMethodRepository),
		terminals: new(MockTerminalRepository),
		gateway:   new(MockTerminalGateway),
		secrets:   new(MockSecretManager),
		orders:    new(MockOrderService),
	}

	logger := logging.NewZapLogger(zap.NewNop())
	tracker := resourcemgmt.NewGoroutineTracker(zap.NewNop(), nil)
	inflight := shutdown.NewInFlightTracker("test", zap.NewNop())

	svc, err := sale.NewService(
		f.db, f.pending, f.txRepo, f.cards, f.terminals,
		f.gateway, f.secrets, f.orders,
		tracker, inflight, logger, deadline,
	)
	require.NoError(t, err)
	f.service = svc
	return f
}

func (f *fixture) expectCredentials() {
	f.terminals.On("GetByID", mock.Anything, mock.Anything, "term-1").Return(&domain.Terminal{
		ID:         "term-1",
		WineryID:   "winery-1",
		Name:       "Tasting Bar",
		TPN:        "224450",
		RegisterID: "1",
		AuthKeyRef: "terminal-service/terminals/term-1/auth-key",
	}, nil)
	f.secrets.On("GetSecret", mock.Anything, "terminal-service/terminals/term-1/auth-key").
		Return(&ports.Secret{Value: "authkey"}, nil)
}

func customerID() *string {
	id := "cust-7"
	return &id
}

func testSaleRequest() *domain.SaleRequest {
	return &domain.SaleRequest{
		ReferenceID:   "REF001",
		WineryID:      "winery-1",
		TerminalID:    "term-1",
		CustomerID:    customerID(),
		InvoiceNumber: "INV-42",
		Channel:       domain.ChannelTastingRoom,
		AmountCents:   4217,
		SubtotalCents: 3915,
		TaxCents:      302,
		TipCents:      0,
		Tender:        domain.PresentCardTender{},
	}
}

func approvedReply() *domain.GatewayReply {
	return &domain.GatewayReply{
		ResultCode:       "0",
		StatusMessage:    "Success",
		HostResponseCode: "00",
		HostMessage:      "APPROVAL",
		AuthCode:         "OK1234",
		CardBrand:        "Visa",
		CardLast4:        "4242",
		CardBIN:          "424242",
		ExpMonth:         12,
		ExpYear:          2028,
		EntryType:        "Chip",
		CardToken:        "tok_abc123",
		EchoAmount:       "42.17",
		ReferenceID:      "REF001",
	}
}

func declinedReply() *domain.GatewayReply {
	return &domain.GatewayReply{
		ResultCode:       "0",
		StatusMessage:    "Success",
		HostResponseCode: "51",
		HostMessage:      "DECLINE",
		EchoAmount:       "42.17",
		ReferenceID:      "REF001",
	}
}

func ledgerRow(status domain.SaleStatus, code string) *domain.Transaction {
	return &domain.Transaction{
		ID:          "11111111-1111-1111-1111-111111111111",
		ReferenceID: "REF001",
		WineryID:    "winery-1",
		CustomerID:  customerID(),
		TerminalID:  "term-1",
		Channel:     domain.ChannelTastingRoom,
		AmountCents: 4217,
		Status:      status,
		StatusCode:  code,
		ProcessedAt: time.Now(),
	}
}

func TestSubmitSale_FastPathApproved(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	f.expectCredentials()

	f.gateway.On("SubmitSale", mock.Anything, mock.Anything, mock.Anything).
		Return(approvedReply(), nil)
	f.txRepo.On("CreateIfAbsent", mock.Anything, mock.Anything, mock.Anything).
		Return(ledgerRow(domain.SaleStatusApproved, "00"), true, nil)
	f.cards.On("Upsert", mock.Anything, mock.Anything, mock.MatchedBy(func(m *domain.PaymentMethod) bool {
		return m.Token == "tok_abc123" && m.CustomerID == "cust-7"
	})).Return(nil)
	f.orders.On("CreateOrder", mock.Anything, mock.Anything).Return("order-99", nil)
	f.txRepo.On("LinkOrder", mock.Anything, mock.Anything, "REF001", "order-99").Return(nil)

	result, err := f.service.SubmitSale(context.Background(), testSaleRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStatusApproved, result.Status)
	assert.Equal(t, "REF001", result.ReferenceID)
	assert.Empty(t, result.Warning)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, "00", result.Outcome.Code)

	f.cards.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.txRepo.AssertExpectations(t)
}

func TestSubmitSale_DeclinedSkipsSideEffects(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	f.expectCredentials()

	f.gateway.On("SubmitSale", mock.Anything, mock.Anything, mock.Anything).
		Return(declinedReply(), nil)
	f.txRepo.On("CreateIfAbsent", mock.Anything, mock.Anything, mock.Anything).
		Return(ledgerRow(domain.SaleStatusDeclined, "51"), true, nil)

	result, err := f.service.SubmitSale(context.Background(), testSaleRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStatusDeclined, result.Status)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, "51", result.Outcome.Code)
	assert.Equal(t, "Insufficient funds", result.Outcome.Message)

	f.cards.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestSubmitSale_ValidationFailure(t *testing.T) {
	f := newFixture(t, 5*time.Second)

	req := testSaleRequest()
	req.TaxCents = 999 // breaks subtotal + tax + tip == amount

	_, err := f.service.SubmitSale(context.Background(), req)
	assert.Error(t, err)

	f.gateway.AssertNotCalled(t, "SubmitSale", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitSale_WrongWinery(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	f.expectCredentials()

	req := testSaleRequest()
	req.WineryID = "winery-other"
	req.SubtotalCents = 4217
	req.TaxCents = 0

	_, err := f.service.SubmitSale(context.Background(), req)
	assert.Error(t, err)
	f.gateway.AssertNotCalled(t, "SubmitSale", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitSale_DeadlineDetachesToBackground(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	f.expectCredentials()

	release := make(chan struct{})
	f.gateway.On("SubmitSale", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-release }).
		Return(approvedReply(), nil)

	f.pending.On("CreateProcessing", mock.Anything, mock.Anything, mock.MatchedBy(func(p *domain.PendingTransaction) bool {
		return p.ReferenceID == "REF001" && p.Status == domain.SaleStatusProcessing
	})).Return(nil)

	recorded := make(chan struct{})
	f.pending.On("RecordReply", mock.Anything, mock.Anything, "REF001", domain.SaleStatusApproved, mock.Anything).
		Return(nil)
	f.txRepo.On("CreateIfAbsent", mock.Anything, mock.Anything, mock.Anything).
		Return(ledgerRow(domain.SaleStatusApproved, "00"), true, nil)
	f.cards.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.orders.On("CreateOrder", mock.Anything, mock.Anything).Return("order-99", nil)
	f.txRepo.On("LinkOrder", mock.Anything, mock.Anything, "REF001", "order-99").
		Run(func(args mock.Arguments) { close(recorded) }).
		Return(nil)

	result, err := f.service.SubmitSale(context.Background(), testSaleRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusProcessing, result.Status)
	assert.Equal(t, "REF001", result.ReferenceID)
	assert.Nil(t, result.Transaction)

	// Let the terminal answer and wait for the background continuation
	close(release)
	select {
	case <-recorded:
	case <-time.After(2 * time.Second):
		t.Fatal("background continuation never reconciled the sale")
	}

	f.pending.AssertExpectations(t)
	f.txRepo.AssertExpectations(t)
}

func TestSubmitSale_GatewayTransportError(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	f.expectCredentials()

	f.gateway.On("SubmitSale", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))
	f.txRepo.On("CreateIfAbsent", mock.Anything, mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
		return txn.Status == domain.SaleStatusError
	})).Return(ledgerTxnWithStatus(domain.SaleStatusError), true, nil)

	result, err := f.service.SubmitSale(context.Background(), testSaleRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStatusError, result.Status)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func ledgerTxnWithStatus(status domain.SaleStatus) *domain.Transaction {
	txn := ledgerRow(status, "")
	return txn
}

func TestReconcile_IdempotentOnRepeat(t *testing.T) {
	f := newFixture(t, 5*time.Second)

	existing := ledgerRow(domain.SaleStatusApproved, "00")
	f.txRepo.On("CreateIfAbsent", mock.Anything, mock.Anything, mock.Anything).
		Return(existing, false, nil)

	reply := approvedReply()
	result, err := f.service.Reconcile(context.Background(), testSaleRequest(), reply, outcomeFor(reply))
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStatusApproved, result.Status)
	assert.Same(t, existing, result.Transaction)

	// A repeat reconcile must not vault the card or create another order
	f.cards.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestReconcile_OrderFailurePreservesPayment(t *testing.T) {
	f := newFixture(t, 5*time.Second)

	f.txRepo.On("CreateIfAbsent", mock.Anything, mock.Anything, mock.Anything).
		Return(ledgerRow(domain.SaleStatusApproved, "00"), true, nil)
	f.cards.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return("", errors.New("order system down"))

	reply := approvedReply()
	result, err := f.service.Reconcile(context.Background(), testSaleRequest(), reply, outcomeFor(reply))

	// The payment record survives; only the warning reports the problem
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusApproved, result.Status)
	assert.Contains(t, result.Warning, "reconcile manually")
	assert.Contains(t, result.Warning, "REF001")
}

func TestCheckStatus_LedgerWins(t *testing.T) {
	f := newFixture(t, 5*time.Second)

	f.txRepo.On("GetByReferenceID", mock.Anything, mock.Anything, "REF001").
		Return(ledgerRow(domain.SaleStatusApproved, "00"), nil)

	result, err := f.service.CheckStatus(context.Background(), "REF001")
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStatusApproved, result.Status)
	f.gateway.AssertNotCalled(t, "QueryStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckStatus_ResolvesPendingViaGateway(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	f.expectCredentials()

	f.txRepo.On("GetByReferenceID", mock.Anything, mock.Anything, "REF001").
		Return(nil, nil).Once()

	reqBytes := mustMarshal(t, testSaleRequest())
	f.pending.On("GetByReferenceID", mock.Anything, mock.Anything, "REF001").
		Return(&domain.PendingTransaction{
			ReferenceID: "REF001",
			WineryID:    "winery-1",
			TerminalID:  "term-1",
			AmountCents: 4217,
			Status:      domain.SaleStatusProcessing,
			Request:     reqBytes,
			CreatedAt:   time.Now().Add(-30 * time.Second),
		}, nil)

	f.gateway.On("QueryStatus", mock.Anything, "REF001", mock.Anything).
		Return(approvedReply(), nil)
	f.pending.On("RecordReply", mock.Anything, mock.Anything, "REF001", domain.SaleStatusApproved, mock.Anything).
		Return(nil)
	f.txRepo.On("CreateIfAbsent", mock.Anything, mock.Anything, mock.Anything).
		Return(ledgerRow(domain.SaleStatusApproved, "00"), true, nil)
	f.cards.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.orders.On("CreateOrder", mock.Anything, mock.Anything).Return("order-99", nil)
	f.txRepo.On("LinkOrder", mock.Anything, mock.Anything, "REF001", "order-99").Return(nil)

	result, err := f.service.CheckStatus(context.Background(), "REF001")
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStatusApproved, result.Status)
	f.pending.AssertExpectations(t)
	f.txRepo.AssertExpectations(t)
}

func TestCheckStatus_StillProcessingOnQueryError(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	f.expectCredentials()

	f.txRepo.On("GetByReferenceID", mock.Anything, mock.Anything, "REF001").Return(nil, nil)
	f.pending.On("GetByReferenceID", mock.Anything, mock.Anything, "REF001").
		Return(&domain.PendingTransaction{
			ReferenceID: "REF001",
			TerminalID:  "term-1",
			Status:      domain.SaleStatusProcessing,
			Request:     mustMarshal(t, testSaleRequest()),
		}, nil)
	f.gateway.On("QueryStatus", mock.Anything, "REF001", mock.Anything).
		Return(nil, errors.New("gateway unreachable"))

	result, err := f.service.CheckStatus(context.Background(), "REF001")
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusProcessing, result.Status)
}

func TestCheckStatus_UnknownReference(t *testing.T) {
	f := newFixture(t, 5*time.Second)

	f.txRepo.On("GetByReferenceID", mock.Anything, mock.Anything, "NOPE").Return(nil, nil)
	f.pending.On("GetByReferenceID", mock.Anything, mock.Anything, "NOPE").Return(nil, nil)

	_, err := f.service.CheckStatus(context.Background(), "NOPE")
	assert.ErrorContains(t, err, "not found")
}

func TestGetSale_ReadsPendingWithoutGateway(t *testing.T) {
	f := newFixture(t, 5*time.Second)

	f.txRepo.On("GetByReferenceID", mock.Anything, mock.Anything, "REF001").Return(nil, nil)
	f.pending.On("GetByReferenceID", mock.Anything, mock.Anything, "REF001").
		Return(&domain.PendingTransaction{
			ReferenceID: "REF001",
			Status:      domain.SaleStatusProcessing,
		}, nil)

	result, err := f.service.GetSale(context.Background(), "REF001")
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStatusProcessing, result.Status)
	f.gateway.AssertNotCalled(t, "QueryStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitSale_GeneratesReferenceID(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	f.expectCredentials()

	f.gateway.On("SubmitSale", mock.Anything, mock.Anything, mock.Anything).
		Return(declinedReply(), nil)
	f.txRepo.On("CreateIfAbsent", mock.Anything, mock.Anything, mock.Anything).
		Return(ledgerRow(domain.SaleStatusDeclined, "51"), true, nil)

	req := testSaleRequest()
	req.ReferenceID = ""

	_, err := f.service.SubmitSale(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, req.ReferenceID, 16)
}

func outcomeFor(reply *domain.GatewayReply) domain.Outcome {
	return decline.Classify(reply)
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
