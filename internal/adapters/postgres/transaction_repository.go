package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/domain/ports"
)

// TransactionRepository persists the transaction ledger
type TransactionRepository struct{}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

var _ ports.TransactionRepository = (*TransactionRepository)(nil)

const transactionColumns = `
	id, reference_id, order_id, winery_id, customer_id, terminal_id, channel,
	amount_cents, subtotal_cents, tax_cents, tip_cents,
	status, status_code, auth_code, card_brand, card_last4, entry_type,
	request, response, processed_at`

// CreateIfAbsent inserts the ledger row unless one already exists for the
// reference id. The unique constraint on reference_id is what makes
// reconciliation idempotent; two concurrent reconcilers race on the insert
// and the loser reads back the winner's row.
func (r *TransactionRepository) CreateIfAbsent(ctx context.Context, db ports.DBTX, txn *domain.Transaction) (*domain.Transaction, bool, error) {
	const query = `
		INSERT INTO transactions (
			id, reference_id, winery_id, customer_id, terminal_id, channel,
			amount_cents, subtotal_cents, tax_cents, tip_cents,
			status, status_code, auth_code, card_brand, card_last4, entry_type,
			request, response, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
		ON CONFLICT (reference_id) DO NOTHING`

	id := txn.ID
	if id == "" {
		id = uuid.New().String()
	}

	tag, err := db.Exec(ctx, query,
		id,
		txn.ReferenceID,
		txn.WineryID,
		txn.CustomerID,
		txn.TerminalID,
		txn.Channel,
		txn.AmountCents,
		txn.SubtotalCents,
		txn.TaxCents,
		txn.TipCents,
		txn.Status,
		txn.StatusCode,
		txn.AuthCode,
		txn.CardBrand,
		txn.CardLast4,
		txn.EntryType,
		txn.Request,
		txn.Response,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create transaction: %w", err)
	}

	existing, err := r.GetByReferenceID(ctx, db, txn.ReferenceID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("transaction vanished after insert: %s", txn.ReferenceID)
	}
	return existing, tag.RowsAffected() > 0, nil
}

// GetByReferenceID returns the ledger row, or nil when none exists
func (r *TransactionRepository) GetByReferenceID(ctx context.Context, db ports.DBTX, referenceID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference_id = $1`

	row := db.QueryRow(ctx, query, referenceID)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// LinkOrder attaches an order to the ledger row exactly once. A row that
// already carries an order id is left untouched.
func (r *TransactionRepository) LinkOrder(ctx context.Context, db ports.DBTX, referenceID, orderID string) error {
	const query = `
		UPDATE transactions
		SET order_id = $2
		WHERE reference_id = $1 AND order_id IS NULL`

	_, err := db.Exec(ctx, query, referenceID, orderID)
	if err != nil {
		return fmt.Errorf("failed to link order: %w", err)
	}
	return nil
}

// ListByWinery lists ledger rows for a winery, newest first
func (r *TransactionRepository) ListByWinery(ctx context.Context, db ports.DBTX, wineryID string, limit, offset int32) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE winery_id = $1
		ORDER BY processed_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := db.Query(ctx, query, wineryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID,
		&t.ReferenceID,
		&t.OrderID,
		&t.WineryID,
		&t.CustomerID,
		&t.TerminalID,
		&t.Channel,
		&t.AmountCents,
		&t.SubtotalCents,
		&t.TaxCents,
		&t.TipCents,
		&t.Status,
		&t.StatusCode,
		&t.AuthCode,
		&t.CardBrand,
		&t.CardLast4,
		&t.EntryType,
		&t.Request,
		&t.Response,
		&t.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
