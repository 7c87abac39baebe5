package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "foodtrust/pkg/domain-errors"
	txcontext "foodtrust/pkg/platform/tx"
)

const defaultRegistryTxTimeout = 5 * time.Second

// registryPostgresTx runs registry writes inside a SQL transaction. The
// transaction travels through context so the product store and the audit
// store share one commit.
type registryPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newRegistryPostgresTx(db *sql.DB) *registryPostgresTx {
	return &registryPostgresTx{db: db}
}

func (t *registryPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultRegistryTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.With(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
