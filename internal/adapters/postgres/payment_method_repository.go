package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crushpad/terminal-service/internal/domain"
	"github.com/crushpad/terminal-service/internal/domain/ports"
)

// PaymentMethodRepository persists vaulted cards
type PaymentMethodRepository struct{}

func NewPaymentMethodRepository() *PaymentMethodRepository {
	return &PaymentMethodRepository{}
}

var _ ports.PaymentMethodRepository = (*PaymentMethodRepository)(nil)

// Upsert vaults a card. A repeat approval of the same physical card refreshes
// the token and bumps the usage count instead of creating a duplicate. The
// customer's first card for a processor becomes the default.
func (r *PaymentMethodRepository) Upsert(ctx context.Context, db ports.DBTX, method *domain.PaymentMethod) error {
	const query = `
		INSERT INTO payment_methods (
			id, customer_id, processor, token, fingerprint,
			brand, last4, exp_month, exp_year,
			usage_count, is_default, last_used_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, 1,
			NOT EXISTS (
				SELECT 1 FROM payment_methods
				WHERE customer_id = $2 AND processor = $3
			),
			NOW(), NOW()
		)
		ON CONFLICT (customer_id, processor, fingerprint) DO UPDATE SET
			token = EXCLUDED.token,
			brand = EXCLUDED.brand,
			exp_month = EXCLUDED.exp_month,
			exp_year = EXCLUDED.exp_year,
			usage_count = payment_methods.usage_count + 1,
			last_used_at = NOW()`

	id := method.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err := db.Exec(ctx, query,
		id,
		method.CustomerID,
		method.Processor,
		method.Token,
		method.Fingerprint,
		method.Brand,
		method.Last4,
		method.ExpMonth,
		method.ExpYear,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert payment method: %w", err)
	}
	return nil
}
