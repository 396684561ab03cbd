package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Transactor runs a function inside a database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx DBTX) error) error
}

// PgTransactor implements Transactor on a pgx pool.
type PgTransactor struct {
	db TxBeginner
}

// NewPgTransactor creates a Transactor backed by db.
func NewPgTransactor(db TxBeginner) *PgTransactor {
	return &PgTransactor{db: db}
}

// InTx begins a transaction, runs fn and commits. Any error from fn rolls back.
func (t *PgTransactor) InTx(ctx context.Context, fn func(tx DBTX) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
