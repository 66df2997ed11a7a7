package nsdb

import (
	"context"
	"database/sql"
	"errors"

	"go.ntppool.org/common/logger"
)

// ReadSnapshot runs fn with a Querier bound to a read-only repeatable
// read transaction, so every query sees the same state of the tables.
func ReadSnapshot(ctx context.Context, db *sql.DB, fn func(q Querier) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return err
	}
	defer LogRollback(ctx, tx)

	if err := fn(NewQuerierWithTracing(New(tx), "")); err != nil {
		return err
	}

	return tx.Commit()
}

// LogRollback rolls back the transaction and logs a warning if it was
// still active.
func LogRollback(ctx context.Context, tx *sql.Tx) {
	err := tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return
	}

	log := logger.FromContext(ctx)
	if err != nil {
		log.ErrorContext(ctx, "rollback failed", "err", err)
		return
	}
	log.WarnContext(ctx, "transaction rollback called on an active transaction")
}
