package client

import (
	"context"

	"github.com/quarrydb/quarry/driver"
	"github.com/quarrydb/quarry/query/sqlgen"
	"github.com/quarrydb/quarry/schema"
)

// Table is a thin per-table facade: it carries its (database, table, schema)
// tuple and delegates every call to the driver. Concurrent facades for the
// same pair share the read-only schema snapshot; there is no other shared
// state between them.
type Table struct {
	client *Client
	db     string
	name   string
	schema *schema.Table
}

// Table returns a facade bound to tbl. Call Create to materialize it.
func (d *Database) Table(name string, tbl *schema.Table) *Table {
	return &Table{client: d.client, db: d.name, name: name, schema: tbl}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Schema returns the read-only schema snapshot.
func (t *Table) Schema() *schema.Table { return t.schema }

// Create creates the table if it does not exist. Re-declaring an existing
// table is a no-op; the schema registered first stays authoritative.
func (t *Table) Create(ctx context.Context) error {
	return t.client.drv.CreateTable(ctx, t.db, t.name, t.schema)
}

// Drop removes the table if present.
func (t *Table) Drop(ctx context.Context) error {
	return t.client.drv.DropTable(ctx, t.db, t.name)
}

// Exists reports whether the table is present in storage.
func (t *Table) Exists(ctx context.Context) (bool, error) {
	return t.client.drv.TableExists(ctx, t.db, t.name)
}

// CreateIndex creates an index if absent.
func (t *Table) CreateIndex(ctx context.Context, name string, opts schema.IndexOptions) error {
	return t.client.drv.CreateIndex(ctx, t.db, t.name, name, opts)
}

// DropIndex drops an index if present.
func (t *Table) DropIndex(ctx context.Context, name string) error {
	return t.client.drv.DropIndex(ctx, t.db, t.name, name)
}

// FindOne returns the first matching record, or nil when none matches.
func (t *Table) FindOne(ctx context.Context, q sqlgen.Query) (driver.Record, error) {
	return t.client.drv.FindOne(ctx, t.db, t.name, q)
}

// FindAll returns every matching record.
func (t *Table) FindAll(ctx context.Context, q sqlgen.Query) ([]driver.Record, error) {
	return t.client.drv.FindAll(ctx, t.db, t.name, q)
}

// Count returns the number of matching rows.
func (t *Table) Count(ctx context.Context, where sqlgen.Where) (int64, error) {
	return t.client.drv.Count(ctx, t.db, t.name, where)
}

// Insert writes one row and returns it re-read from storage, including any
// generated key and engine-applied defaults.
func (t *Table) Insert(ctx context.Context, data map[string]any) (driver.Record, error) {
	return t.client.drv.Insert(ctx, t.db, t.name, data)
}

// BulkInsert writes rows atomically: all of them, or none.
func (t *Table) BulkInsert(ctx context.Context, rows []map[string]any) ([]driver.Record, error) {
	return t.client.drv.BulkInsert(ctx, t.db, t.name, rows)
}

// Update applies data to every matching row and returns the affected count.
// Mutated values are not materialized; re-query to observe them.
func (t *Table) Update(ctx context.Context, data map[string]any, where sqlgen.Where) (int64, error) {
	return t.client.drv.Update(ctx, t.db, t.name, data, where)
}

// BulkUpdate applies each operation atomically and returns the summed count.
func (t *Table) BulkUpdate(ctx context.Context, ops []driver.UpdateOp) (int64, error) {
	return t.client.drv.BulkUpdate(ctx, t.db, t.name, ops)
}

// Delete removes every matching row and returns the affected count.
func (t *Table) Delete(ctx context.Context, where sqlgen.Where) (int64, error) {
	return t.client.drv.Delete(ctx, t.db, t.name, where)
}

// Aggregate computes op over field across the matching rows. Zero matching
// rows yield 0.
func (t *Table) Aggregate(ctx context.Context, op sqlgen.AggregateOp, field string, where sqlgen.Where) (float64, error) {
	return t.client.drv.Aggregate(ctx, t.db, t.name, op, field, where)
}

// Sum totals field over the matching rows.
func (t *Table) Sum(ctx context.Context, field string, where sqlgen.Where) (float64, error) {
	return t.Aggregate(ctx, sqlgen.AggSum, field, where)
}

// Avg averages field over the matching rows.
func (t *Table) Avg(ctx context.Context, field string, where sqlgen.Where) (float64, error) {
	return t.Aggregate(ctx, sqlgen.AggAvg, field, where)
}

// Min returns the smallest value of field among the matching rows.
func (t *Table) Min(ctx context.Context, field string, where sqlgen.Where) (float64, error) {
	return t.Aggregate(ctx, sqlgen.AggMin, field, where)
}

// Max returns the largest value of field among the matching rows.
func (t *Table) Max(ctx context.Context, field string, where sqlgen.Where) (float64, error) {
	return t.Aggregate(ctx, sqlgen.AggMax, field, where)
}
