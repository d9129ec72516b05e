package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/domain/ports"
)

// PendingRepository persists in-flight terminal sales
type PendingRepository struct{}

func NewPendingRepository() *PendingRepository {
	return &PendingRepository{}
}

var _ ports.PendingRepository = (*PendingRepository)(nil)

// CreateProcessing inserts a pending row with status processing. A duplicate
// reference id is left untouched so a retried submit cannot reset a row that
// a status check already resolved.
func (r *PendingRepository) CreateProcessing(ctx context.Context, db ports.DBTX, pending *domain.PendingTransaction) error {
	const query = `
		INSERT INTO pending_transactions (
			reference_id, winery_id, terminal_id, amount_cents, status,
			request, created_at, status_checked_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (reference_id) DO NOTHING`

	_, err := db.Exec(ctx, query,
		pending.ReferenceID,
		pending.WineryID,
		pending.TerminalID,
		pending.AmountCents,
		domain.SaleStatusProcessing,
		pending.Request,
	)
	if err != nil {
		return fmt.Errorf("failed to create pending transaction: %w", err)
	}
	return nil
}

// GetByReferenceID returns the pending row, or nil when none exists
func (r *PendingRepository) GetByReferenceID(ctx context.Context, db ports.DBTX, referenceID string) (*domain.PendingTransaction, error) {
	const query = `
		SELECT reference_id, winery_id, terminal_id, amount_cents, status,
		       request, last_reply, created_at, status_checked_at
		FROM pending_transactions
		WHERE reference_id = $1`

	var p domain.PendingTransaction
	err := db.QueryRow(ctx, query, referenceID).Scan(
		&p.ReferenceID,
		&p.WineryID,
		&p.TerminalID,
		&p.AmountCents,
		&p.Status,
		&p.Request,
		&p.LastReply,
		&p.CreatedAt,
		&p.StatusCheckedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending transaction: %w", err)
	}
	return &p, nil
}

// RecordReply stores the latest gateway reply. The status only moves forward
// from processing; a write against an already-terminal row refreshes the
// reply snapshot and checked-at timestamp but leaves the status alone.
func (r *PendingRepository) RecordReply(ctx context.Context, db ports.DBTX, referenceID string, status domain.SaleStatus, reply []byte) error {
	const query = `
		UPDATE pending_transactions
		SET status = CASE WHEN status = 'processing' THEN $2 ELSE status END,
		    last_reply = COALESCE($3, last_reply),
		    status_checked_at = NOW()
		WHERE reference_id = $1`

	tag, err := db.Exec(ctx, query, referenceID, status, reply)
	if err != nil {
		return fmt.Errorf("failed to record gateway reply: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending transaction not found: %s", referenceID)
	}
	return nil
}
