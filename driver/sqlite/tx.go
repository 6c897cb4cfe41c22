package sqlite

import (
	"context"
	"database/sql"

	quarry "github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/internal/debug"
)

type txKey struct{}

// txState is carried through the context of an active unit of work. The
// transaction begins lazily on the first statement inside the unit and binds
// to that statement's logical database.
type txState struct {
	db string
	tx *sql.Tx
}

func txFrom(ctx context.Context) *txState {
	ts, _ := ctx.Value(txKey{}).(*txState)
	return ts
}

// Transaction runs fn as one atomic unit: every statement issued through the
// context it receives commits or rolls back together. If fn returns an error
// or panics, all mutations performed so far are rolled back and the error is
// returned wrapped as a transaction abort with the cause attached.
//
// A call while already inside an active unit reuses the existing transaction
// rather than nesting; SQLite has no true nested transactions and the
// outermost unit owns commit and rollback.
func (c *Conn) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	ts := &txState{}
	txCtx := context.WithValue(ctx, txKey{}, ts)

	defer func() {
		if p := recover(); p != nil {
			if ts.tx != nil {
				_ = ts.tx.Rollback()
				debug.Event("rollback", "db", ts.db, "panic", true)
			}
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if ts.tx != nil {
			if rbErr := ts.tx.Rollback(); rbErr != nil {
				return &quarry.Error{
					Kind:     quarry.ErrTxAborted,
					Op:       "transaction",
					Database: ts.db,
					Message:  "rollback failed: " + rbErr.Error(),
					Cause:    err,
				}
			}
			debug.Event("rollback", "db", ts.db)
		}
		return &quarry.Error{Kind: quarry.ErrTxAborted, Op: "transaction", Database: ts.db, Cause: err}
	}

	if ts.tx != nil {
		if err := ts.tx.Commit(); err != nil {
			return &quarry.Error{Kind: quarry.ErrTxAborted, Op: "transaction", Database: ts.db, Message: "commit failed", Cause: err}
		}
		debug.Event("commit", "db", ts.db)
	}
	return nil
}
