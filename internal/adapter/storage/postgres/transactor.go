package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// resolveTxOptions is used for attempt resolution. The attempt row is locked
// with SELECT ... FOR UPDATE, so read committed is enough to serialize the
// chain monitor, Abort and the janitor on a single reference.
var resolveTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.ReadCommitted,
	AccessMode: pgx.ReadWrite,
}

// Transactor hands the payment service transactions for resolving attempts.
type Transactor struct {
	pool Pool
}

// NewTransactor wraps the attempt ledger pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens a read-write transaction for locking and resolving one attempt.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.BeginTx(ctx, resolveTxOptions)
	if err != nil {
		return nil, fmt.Errorf("begin attempt tx: %w", err)
	}
	return tx, nil
}
