// Package driver defines the capability contract every storage adapter
// implements, plus the deferred-result adapter for asynchronous dispatch.
package driver

import (
	"context"

	"github.com/quarrydb/quarry/query/sqlgen"
	"github.com/quarrydb/quarry/schema"
)

// Record is one row, keyed by column name. Values are already deserialized
// according to the table schema.
type Record map[string]any

// UpdateOp is one element of a bulk update: its own predicate and its own
// change set.
type UpdateOp struct {
	Where sqlgen.Where
	Data  map[string]any
}

// Info identifies a driver for diagnostics. Not behaviorally load-bearing.
type Info struct {
	Name    string
	Version string
}

// Driver is the uniform operation surface over a storage backend.
//
// Lifecycle: a logical database moves Unopened → Open on first reference and
// Open → Closed on Disconnect. Closed is terminal; any reference afterwards
// fails with a connection error rather than silently reopening.
//
// Transaction wraps a unit of work so all mutations inside it commit or roll
// back together. Nested calls reuse the active unit. Atomicity spans only
// the first logical database touched inside the unit; statements against
// other logical databases run outside it. Sub-operations inside one unit
// execute strictly sequentially.
//
// Aggregate is an optional capability; adapters without it return an
// unsupported-operation error, never a silent zero.
type Driver interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	TableExists(ctx context.Context, db, table string) (bool, error)
	CreateTable(ctx context.Context, db, table string, tbl *schema.Table) error
	DropTable(ctx context.Context, db, table string) error
	CreateIndex(ctx context.Context, db, table, name string, opts schema.IndexOptions) error
	DropIndex(ctx context.Context, db, table, name string) error

	// FindOne returns nil when no row matches.
	FindOne(ctx context.Context, db, table string, q sqlgen.Query) (Record, error)
	FindAll(ctx context.Context, db, table string, q sqlgen.Query) ([]Record, error)
	Count(ctx context.Context, db, table string, where sqlgen.Where) (int64, error)

	// Insert returns the stored record re-read by its generated key, so
	// engine-applied defaults are reflected.
	Insert(ctx context.Context, db, table string, data map[string]any) (Record, error)
	BulkInsert(ctx context.Context, db, table string, rows []map[string]any) ([]Record, error)

	// Update and Delete return only the affected-row count; callers re-query
	// to observe mutated values.
	Update(ctx context.Context, db, table string, data map[string]any, where sqlgen.Where) (int64, error)
	BulkUpdate(ctx context.Context, db, table string, ops []UpdateOp) (int64, error)
	Delete(ctx context.Context, db, table string, where sqlgen.Where) (int64, error)

	Aggregate(ctx context.Context, db, table string, op sqlgen.AggregateOp, field string, where sqlgen.Where) (float64, error)

	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	Info() Info
}
