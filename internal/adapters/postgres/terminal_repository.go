package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/domain/ports"
)

// TerminalRepository reads terminal configuration
type TerminalRepository struct{}

func NewTerminalRepository() *TerminalRepository {
	return &TerminalRepository{}
}

var _ ports.TerminalRepository = (*TerminalRepository)(nil)

// GetByID returns the terminal, or nil when none exists
func (r *TerminalRepository) GetByID(ctx context.Context, db ports.DBTX, terminalID string) (*domain.Terminal, error) {
	const query = `
		SELECT id, winery_id, name, tpn, register_id, auth_key_ref
		FROM terminals
		WHERE id = $1`

	var t domain.Terminal
	err := db.QueryRow(ctx, query, terminalID).Scan(
		&t.ID,
		&t.WineryID,
		&t.Name,
		&t.TPN,
		&t.RegisterID,
		&t.AuthKeyRef,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get terminal: %w", err)
	}
	return &t, nil
}
