package util

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrBeginTransaction wraps a failure to even open a transaction, which
// means the database itself is gone rather than the operation being bad.
var ErrBeginTransaction = errors.New("unable to begin transaction")

type TransactionCallback func(*sqlx.Tx) error

func Transaction(ctx context.Context, db *sqlx.DB, cb TransactionCallback) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			// A cancelled context is the caller's doing, not the store's.
			return err
		}

		return fmt.Errorf("%w: %s", ErrBeginTransaction, err)
	}

	if err := cb(tx); err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			return fmt.Errorf("rollback error: %s\noriginal error: %s", err2, err)
		}

		return err
	}

	return tx.Commit()
}
