package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
)

// pgxPool is the slice of pgxpool.Pool the manager needs. pgxmock
// satisfies it in tests.
type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager on top of a pgx pool.
// Every ledger write runs inside a transaction it opens.
type TxManager struct {
	pool pgxPool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool pgxPool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin opens a new write transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Tx carries one open pgx transaction between a use case and the
// repositories participating in it.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction. Rolling back after a successful
// commit returns pgx.ErrTxClosed, which callers deferring Rollback ignore.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// pgxTxFrom unwraps the pgx transaction carried by tx. Repositories in
// this package only ever see transactions opened by TxManager.
func pgxTxFrom(tx usecase.Transaction) pgx.Tx {
	wrapped, ok := tx.(*Tx)
	if !ok {
		panic(fmt.Sprintf("postgres: unexpected transaction type %T", tx))
	}

	return wrapped.tx
}
