package service

import (
	"context"
	"database/sql"

	txcontext "caseflow/pkg/platform/tx"
)

// TxRunner provides the transactional boundary for a persist-and-publish pair.
// The SQL implementation carries the transaction via context so the case store
// and the outbox store join it; in-memory stores use the passthrough.
type TxRunner interface {
	Within(ctx context.Context, fn func(ctx context.Context) error) error
}

type passthroughTx struct{}

func (passthroughTx) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// SQLTxRunner runs the function inside a database transaction.
type SQLTxRunner struct {
	db *sql.DB
}

func NewSQLTxRunner(db *sql.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

func (r *SQLTxRunner) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Within(ctx, r.db, fn)
}
