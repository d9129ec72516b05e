package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx operations shared by a pool and a transaction.
// Repository methods accept a DBTX so they run inside or outside an explicit
// transaction with the same code path.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DBPort provides access to the relational store and transaction management
type DBPort interface {
	Pool() *pgxpool.Pool

	// WithTransaction executes fn within a database transaction. The
	// transaction is rolled back if fn returns an error, committed otherwise.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}
