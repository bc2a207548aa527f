package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// NoTX marks the non-transactional path; repositories fall back to their pool.
var NoTX Tx

// TransactionManager provides a thin abstraction to execute a function within
// a database transaction, passing the underlying transaction handle via `tx`.
//
// Keeping the handle opaque keeps use-case interfaces clean: repositories
// accept a `tx Tx` argument and gracefully fall back to their pool when it is
// nil (non-transactional path). The concrete type is infra-defined (pgx.Tx
// for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
