package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the transaction handle to repositories via `tx`.
//
// Keeping Tx opaque stops storage types leaking into the use-case layer:
// repositories type-assert the handle on the implementation side (e.g. to a
// pgx.Tx) and MUST gracefully accept NoTX for the non-transactional path.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
