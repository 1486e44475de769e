package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/effort/internal/db"
)

// FailOnNthExecUoW runs each transaction normally except that its Nth write
// returns Err. Isolation tests use it to break a change set between an edit
// and its journal row, or on the close that ends a merge, and then check
// that nothing from the aborted transaction survived.
//
// Writes are numbered from 1 per transaction; reads are never failed.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(ctx, &nthWriteFails{DBTX: tx, n: u.FailOn, err: u.Err}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// FailOnNth plugs a FailOnNthExecUoW into isolation.WithUnitOfWork.
func FailOnNth(n int32, err error) func(*sql.DB) db.UnitOfWork {
	return func(database *sql.DB) db.UnitOfWork {
		return &FailOnNthExecUoW{DB: database, FailOn: n, Err: err}
	}
}

type nthWriteFails struct {
	db.DBTX
	writes atomic.Int32
	n      int32
	err    error
}

func (f *nthWriteFails) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.writes.Add(1) == f.n {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
