package sale

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
	"github.com/jackc/pgx/v5"

	"github.com/crushpad/terminal-service/internal/decline"
	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/domain/ports"
	serviceports "github.com/crushpad/terminal-service/internal/services/ports"
	pkgerrors "github.com/crushpad/terminal-service/pkg/errors"
	"github.com/crushpad/terminal-service/pkg/observability"
	"github.com/crushpad/terminal-service/pkg/resourcemgmt"
	"github.com/crushpad/terminal-service/pkg/shutdown"
)

// ProcessorName identifies the terminal gateway in vaulted card rows
const ProcessorName = "spin"

// DefaultSaleDeadline is how long the initiator waits for the cardholder
// before answering processing and detaching the gateway call
const DefaultSaleDeadline = 20 * time.Second

// referenceIDLength is the length of generated reference ids
const referenceIDLength = 16

// Service orchestrates terminal sales: it races the gateway against the sale
// deadline, detaches slow sales to a background continuation, and reconciles
// every resolved sale into the ledger exactly once.
// Implements serviceports.SaleOrchestrator.
type Service struct {
	db        ports.DBPort
	pending   ports.PendingRepository
	txRepo    ports.TransactionRepository
	cards     ports.PaymentMethodRepository
	terminals ports.TerminalRepository
	gateway   ports.TerminalGateway
	secrets   ports.SecretManagerAdapter
	orders    ports.OrderService
	tracker   *resourcemgmt.GoroutineTracker
	inflight  *shutdown.InFlightTracker
	logger    ports.Logger

	deadline time.Duration
	newRefID func() string
}

// NewService creates a new sale orchestration service
func NewService(
	db ports.DBPort,
	pending ports.PendingRepository,
	txRepo ports.TransactionRepository,
	cards ports.PaymentMethodRepository,
	terminals ports.TerminalRepository,
	gateway ports.TerminalGateway,
	secrets ports.SecretManagerAdapter,
	orders ports.OrderService,
	tracker *resourcemgmt.GoroutineTracker,
	inflight *shutdown.InFlightTracker,
	logger ports.Logger,
	deadline time.Duration,
) (*Service, error) {
	if deadline <= 0 {
		deadline = DefaultSaleDeadline
	}

	// Uppercase alphanumeric keeps reference ids readable on receipts
	newRefID, err := nanoid.CustomASCII("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ", referenceIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create reference id generator: %w", err)
	}

	return &Service{
		db:        db,
		pending:   pending,
		txRepo:    txRepo,
		cards:     cards,
		terminals: terminals,
		gateway:   gateway,
		secrets:   secrets,
		orders:    orders,
		tracker:   tracker,
		inflight:  inflight,
		logger:    logger,
		deadline:  deadline,
		newRefID:  newRefID,
	}, nil
}

// gatewayResult carries the gateway's answer across the deadline race
type gatewayResult struct {
	reply *domain.GatewayReply
	err   error
}

// SubmitSale submits a sale to the terminal and races the reply against the
// sale deadline. When the cardholder finishes in time the result is terminal
// and fully reconciled; otherwise the gateway call continues in the
// background and the caller gets a processing result to poll on.
func (s *Service) SubmitSale(ctx context.Context, req *domain.SaleRequest) (*serviceports.SaleResult, error) {
	if req.ReferenceID == "" {
		req.ReferenceID = s.newRefID()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	creds, terminal, err := s.resolveCredentials(ctx, req.TerminalID)
	if err != nil {
		return nil, err
	}
	if terminal.WineryID != req.WineryID {
		return nil, pkgerrors.NewValidationError("terminal_id", "terminal does not belong to winery")
	}

	startTime := time.Now()

	s.logger.Info("submitting terminal sale",
		ports.String("reference_id", req.ReferenceID),
		ports.String("terminal_id", req.TerminalID),
		ports.Int64("amount_cents", req.AmountCents))

	// The gateway call must not die with the request context: the
	// cardholder may still be holding the card when the deadline fires.
	gatewayCtx := context.WithoutCancel(ctx)
	resultCh := make(chan gatewayResult, 1)

	if !s.inflight.Add() {
		return nil, fmt.Errorf("service is shutting down")
	}
	go func() {
		defer s.inflight.Done()
		reply, err := s.gateway.SubmitSale(gatewayCtx, req, creds)
		resultCh <- gatewayResult{reply: reply, err: err}
	}()

	deadline := time.NewTimer(s.deadline)
	defer deadline.Stop()

	select {
	case res := <-resultCh:
		return s.resolveSubmission(ctx, req, res, startTime)

	case <-deadline.C:
		observability.RecordDeadlineExceeded(req.WineryID)
		return s.detach(ctx, req, resultCh, startTime)

	case <-ctx.Done():
		// Client gave up; the charge may still land, so the sale goes to
		// background exactly as on deadline
		return s.detach(context.WithoutCancel(ctx), req, resultCh, startTime)
	}
}

// resolveSubmission handles the fast path: the gateway answered within the
// deadline and the sale reconciles synchronously
func (s *Service) resolveSubmission(ctx context.Context, req *domain.SaleRequest, res gatewayResult, startTime time.Time) (*serviceports.SaleResult, error) {
	if res.err != nil {
		s.logger.Error("gateway submit failed",
			ports.String("reference_id", req.ReferenceID),
			ports.Err(res.err))
	}

	outcome := decline.Classify(res.reply)
	result, err := s.Reconcile(ctx, req, res.reply, outcome)
	if err != nil {
		return nil, err
	}

	observability.RecordTerminalSale(req.WineryID, string(req.Channel),
		string(outcome.Status), outcome.Code, req.AmountCents,
		time.Since(startTime).Seconds())

	return result, nil
}

// detach persists the sale as pending and hands the still-running gateway
// call to a tracked background continuation
func (s *Service) detach(ctx context.Context, req *domain.SaleRequest, resultCh <-chan gatewayResult, startTime time.Time) (*serviceports.SaleResult, error) {
	reqBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize sale request: %w", err)
	}

	pending := &domain.PendingTransaction{
		ReferenceID: req.ReferenceID,
		WineryID:    req.WineryID,
		TerminalID:  req.TerminalID,
		AmountCents: req.AmountCents,
		Status:      domain.SaleStatusProcessing,
		Request:     reqBytes,
	}
	if err := s.pending.CreateProcessing(ctx, s.db.Pool(), pending); err != nil {
		return nil, err
	}

	s.logger.Info("sale deadline exceeded, continuing in background",
		ports.String("reference_id", req.ReferenceID))

	bgCtx := context.WithoutCancel(ctx)
	s.tracker.GoWithContext(bgCtx, "gateway_continuation", func(ctx context.Context) {
		s.inflight.RunWithContext(ctx, func(ctx context.Context) {
			s.continueSale(ctx, req, resultCh, startTime)
		})
	})

	return &serviceports.SaleResult{
		Status:      domain.SaleStatusProcessing,
		ReferenceID: req.ReferenceID,
	}, nil
}

// continueSale waits out the detached gateway call and records its answer.
// Runs on a tracked goroutine; errors land in the log and the pending row,
// there is no caller left to return them to.
func (s *Service) continueSale(ctx context.Context, req *domain.SaleRequest, resultCh <-chan gatewayResult, startTime time.Time) {
	res := <-resultCh

	if res.err != nil {
		s.logger.Warn("detached gateway call failed, sale stays processing for status checks",
			ports.String("reference_id", req.ReferenceID),
			ports.Err(res.err))
		return
	}

	outcome := decline.Classify(res.reply)
	snapshot, err := res.reply.MarshalSnapshot()
	if err != nil {
		s.logger.Error("failed to snapshot gateway reply",
			ports.String("reference_id", req.ReferenceID),
			ports.Err(err))
	}

	if err := s.pending.RecordReply(ctx, s.db.Pool(), req.ReferenceID, outcome.Status, snapshot); err != nil {
		s.logger.Error("failed to record gateway reply",
			ports.String("reference_id", req.ReferenceID),
			ports.Err(err))
	}

	if !outcome.Status.IsTerminal() {
		return
	}

	if _, err := s.Reconcile(ctx, req, res.reply, outcome); err != nil {
		s.logger.Error("background reconciliation failed",
			ports.String("reference_id", req.ReferenceID),
			ports.Err(err))
		return
	}

	observability.RecordTerminalSale(req.WineryID, string(req.Channel),
		string(outcome.Status), outcome.Code, req.AmountCents,
		time.Since(startTime).Seconds())

	s.logger.Info("background sale resolved",
		ports.String("reference_id", req.ReferenceID),
		ports.String("status", string(outcome.Status)))
}

// CheckStatus resolves the current state of a sale. The ledger wins, then
// the pending store, then a live gateway status query.
func (s *Service) CheckStatus(ctx context.Context, referenceID string) (*serviceports.SaleResult, error) {
	if txn, err := s.txRepo.GetByReferenceID(ctx, s.db.Pool(), referenceID); err != nil {
		return nil, err
	} else if txn != nil {
		return resultFromTransaction(txn), nil
	}

	pending, err := s.pending.GetByReferenceID(ctx, s.db.Pool(), referenceID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, fmt.Errorf("sale not found: %s", referenceID)
	}

	var req domain.SaleRequest
	if err := json.Unmarshal(pending.Request, &req); err != nil {
		return nil, fmt.Errorf("failed to deserialize pending request: %w", err)
	}

	creds, _, err := s.resolveCredentials(ctx, pending.TerminalID)
	if err != nil {
		return nil, err
	}

	reply, err := s.gateway.QueryStatus(ctx, referenceID, creds)
	if err != nil {
		observability.RecordStatusPoll("error")
		s.logger.Warn("status query failed",
			ports.String("reference_id", referenceID),
			ports.Err(err))
		return &serviceports.SaleResult{
			Status:      domain.SaleStatusProcessing,
			ReferenceID: referenceID,
		}, nil
	}

	outcome := decline.Classify(reply)
	snapshot, err := reply.MarshalSnapshot()
	if err != nil {
		return nil, err
	}

	if err := s.pending.RecordReply(ctx, s.db.Pool(), referenceID, outcome.Status, snapshot); err != nil {
		return nil, err
	}

	if !outcome.Status.IsTerminal() {
		observability.RecordStatusPoll("still_processing")
		return &serviceports.SaleResult{
			Status:      domain.SaleStatusProcessing,
			ReferenceID: referenceID,
		}, nil
	}

	observability.RecordStatusPoll("resolved")

	result, err := s.Reconcile(ctx, &req, reply, outcome)
	if err != nil {
		return nil, err
	}

	observability.RecordTerminalSale(req.WineryID, string(req.Channel),
		string(outcome.Status), outcome.Code, req.AmountCents,
		time.Since(pending.CreatedAt).Seconds())

	return result, nil
}

// GetSale reads the recorded state of a sale without touching the gateway
func (s *Service) GetSale(ctx context.Context, referenceID string) (*serviceports.SaleResult, error) {
	if txn, err := s.txRepo.GetByReferenceID(ctx, s.db.Pool(), referenceID); err != nil {
		return nil, err
	} else if txn != nil {
		return resultFromTransaction(txn), nil
	}

	pending, err := s.pending.GetByReferenceID(ctx, s.db.Pool(), referenceID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, fmt.Errorf("sale not found: %s", referenceID)
	}

	return &serviceports.SaleResult{
		Status:      pending.Status,
		ReferenceID: referenceID,
	}, nil
}

// ListTransactions lists ledger rows for a winery
func (s *Service) ListTransactions(ctx context.Context, wineryID string, limit, offset int32) ([]*domain.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.txRepo.ListByWinery(ctx, s.db.Pool(), wineryID, limit, offset)
}

// Reconcile records a resolved sale into the ledger exactly once and runs
// the post-payment side effects. Safe to call repeatedly with the same
// reference id: only the first call writes, later calls read back the row.
func (s *Service) Reconcile(ctx context.Context, req *domain.SaleRequest, reply *domain.GatewayReply, outcome domain.Outcome) (*serviceports.SaleResult, error) {
	reqBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize sale request: %w", err)
	}
	var replyBytes []byte
	if reply != nil {
		replyBytes, err = reply.MarshalSnapshot()
		if err != nil {
			return nil, err
		}
	}

	// The ledger always records the requested amount. A mismatched gateway
	// echo is logged for investigation but never changes the books.
	if reply != nil && reply.EchoAmount != "" && reply.EchoAmount != centsToDollars(req.AmountCents) {
		s.logger.Warn("gateway echoed a different amount",
			ports.String("reference_id", req.ReferenceID),
			ports.String("echo_amount", reply.EchoAmount),
			ports.Int64("requested_cents", req.AmountCents))
	}

	txn := &domain.Transaction{
		ReferenceID:   req.ReferenceID,
		WineryID:      req.WineryID,
		CustomerID:    req.CustomerID,
		TerminalID:    req.TerminalID,
		Channel:       req.Channel,
		AmountCents:   req.AmountCents,
		SubtotalCents: req.SubtotalCents,
		TaxCents:      req.TaxCents,
		TipCents:      req.TipCents,
		Status:        outcome.Status,
		StatusCode:    outcome.Code,
		Request:       reqBytes,
		Response:      replyBytes,
	}
	if reply != nil {
		txn.AuthCode = optional(reply.AuthCode)
		txn.CardBrand = optional(reply.CardBrand)
		txn.CardLast4 = optional(reply.CardLast4)
		txn.EntryType = optional(reply.EntryType)
	}

	var recorded *domain.Transaction
	var created bool

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		recorded, created, err = s.txRepo.CreateIfAbsent(ctx, tx, txn)
		if err != nil {
			return err
		}
		if !created {
			// Another check already reconciled this sale
			return nil
		}

		if outcome.Status == domain.SaleStatusApproved && req.CustomerID != nil {
			if method := domain.PaymentMethodFromReply(*req.CustomerID, ProcessorName, reply); method != nil {
				if err := s.cards.Upsert(ctx, tx, method); err != nil {
					return fmt.Errorf("failed to vault card: %w", err)
				}
				observability.RecordPaymentMethodVaulted(req.WineryID, method.Brand)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &serviceports.SaleResult{
		Status:      recorded.Status,
		ReferenceID: recorded.ReferenceID,
		Outcome:     &outcome,
		Transaction: recorded,
	}

	// Order creation runs outside the database transaction. A failure here
	// must never fail the payment record: the charge already happened.
	if created && recorded.Status == domain.SaleStatusApproved {
		result.Warning = s.linkOrder(ctx, req, recorded)
	}

	if !created {
		s.logger.Debug("sale already reconciled",
			ports.String("reference_id", req.ReferenceID))
	}

	return result, nil
}

// linkOrder creates the order for an approved sale and attaches it to the
// ledger row. Returns a warning message on failure, never an error.
func (s *Service) linkOrder(ctx context.Context, req *domain.SaleRequest, txn *domain.Transaction) string {
	orderID, err := s.orders.CreateOrder(ctx, domain.OrderDetails{
		WineryID:      req.WineryID,
		CustomerID:    req.CustomerID,
		ReferenceID:   req.ReferenceID,
		InvoiceNumber: req.InvoiceNumber,
		Channel:       req.Channel,
		AmountCents:   req.AmountCents,
		SubtotalCents: req.SubtotalCents,
		TaxCents:      req.TaxCents,
		TipCents:      req.TipCents,
		Items:         req.Items,
	})
	if err != nil {
		observability.RecordOrderLink("failed")
		linkErr := pkgerrors.NewOrderLinkError(req.ReferenceID, err)
		s.logger.Error("order creation failed for approved sale",
			ports.String("reference_id", req.ReferenceID),
			ports.Err(err))
		return linkErr.Error()
	}

	if err := s.txRepo.LinkOrder(ctx, s.db.Pool(), req.ReferenceID, orderID); err != nil {
		observability.RecordOrderLink("failed")
		linkErr := pkgerrors.NewOrderLinkError(req.ReferenceID, err)
		s.logger.Error("failed to link order to transaction",
			ports.String("reference_id", req.ReferenceID),
			ports.String("order_id", orderID),
			ports.Err(err))
		return linkErr.Error()
	}

	observability.RecordOrderLink("linked")
	txn.OrderID = &orderID
	return ""
}

// resolveCredentials loads the terminal row and its auth key from the
// secret manager
func (s *Service) resolveCredentials(ctx context.Context, terminalID string) (domain.TerminalCredentials, *domain.Terminal, error) {
	terminal, err := s.terminals.GetByID(ctx, s.db.Pool(), terminalID)
	if err != nil {
		return domain.TerminalCredentials{}, nil, err
	}
	if terminal == nil {
		return domain.TerminalCredentials{}, nil, pkgerrors.NewValidationError("terminal_id", "unknown terminal")
	}

	secret, err := s.secrets.GetSecret(ctx, terminal.AuthKeyRef)
	if err != nil {
		return domain.TerminalCredentials{}, nil, fmt.Errorf("failed to load terminal auth key: %w", err)
	}

	return domain.TerminalCredentials{
		TPN:        terminal.TPN,
		RegisterID: terminal.RegisterID,
		AuthKey:    secret.Value,
	}, terminal, nil
}

func resultFromTransaction(txn *domain.Transaction) *serviceports.SaleResult {
	return &serviceports.SaleResult{
		Status:      txn.Status,
		ReferenceID: txn.ReferenceID,
		Transaction: txn,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func centsToDollars(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
