package sqlite

import (
	"context"
	"database/sql"
	"errors"

	quarry "github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/driver"
	"github.com/quarrydb/quarry/internal/debug"
	"github.com/quarrydb/quarry/query/codec"
	"github.com/quarrydb/quarry/query/sqlgen"
	"github.com/quarrydb/quarry/schema"
)

// executor is the common surface of *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// target resolves where a statement runs: inside the active transaction when
// the context carries one and the logical database matches, otherwise on the
// plain handle. A transaction binds to the first logical database referenced
// inside it; statements against other databases run outside the transaction
// boundary. That scope limit is part of the public contract.
func (c *Conn) target(ctx context.Context, db string) (executor, error) {
	h, err := c.handle(db)
	if err != nil {
		return nil, err
	}
	ts := txFrom(ctx)
	if ts == nil {
		return h, nil
	}
	if ts.tx == nil {
		tx, err := h.BeginTx(ctx, nil)
		if err != nil {
			return nil, &quarry.Error{Op: "begin", Database: db, Cause: err}
		}
		ts.tx, ts.db = tx, db
		debug.Event("begin", "db", db)
	}
	if ts.db == db {
		return ts.tx, nil
	}
	return h, nil
}

// FindAll executes a read and returns every matching record, deserialized
// against the table's declared types.
func (c *Conn) FindAll(ctx context.Context, db, table string, q sqlgen.Query) ([]driver.Record, error) {
	tbl := c.schemaFor(db, table)
	stmt, err := sqlgen.BuildSelect(table, tbl, q)
	if err != nil {
		return nil, err
	}
	ex, err := c.target(ctx, db)
	if err != nil {
		return nil, err
	}
	debug.Statement(db, stmt.SQL, stmt.Args)

	rows, err := ex.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, c.wrap("findAll", db, table, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows, tbl)
	if err != nil {
		return nil, c.wrap("findAll", db, table, err)
	}
	return records, nil
}

// FindOne returns the first matching record, or nil when none matches.
func (c *Conn) FindOne(ctx context.Context, db, table string, q sqlgen.Query) (driver.Record, error) {
	q.Limit = 1
	q.Offset = 0
	records, err := c.FindAll(ctx, db, table, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Count returns the number of matching rows.
func (c *Conn) Count(ctx context.Context, db, table string, where sqlgen.Where) (int64, error) {
	tbl := c.schemaFor(db, table)
	stmt, err := sqlgen.BuildCount(table, tbl, where)
	if err != nil {
		return 0, err
	}
	ex, err := c.target(ctx, db)
	if err != nil {
		return 0, err
	}
	debug.Statement(db, stmt.SQL, stmt.Args)

	var count int64
	if err := ex.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&count); err != nil {
		return 0, c.wrap("count", db, table, err)
	}
	return count, nil
}

// Insert writes one row and re-reads it by its generated key, so defaults
// applied by the engine are reflected in the returned record. The caller's
// input object is never trusted as the final state.
func (c *Conn) Insert(ctx context.Context, db, table string, data map[string]any) (driver.Record, error) {
	tbl := c.schemaFor(db, table)
	stmt, err := sqlgen.BuildInsert(table, tbl, data)
	if err != nil {
		return nil, err
	}
	ex, err := c.target(ctx, db)
	if err != nil {
		return nil, err
	}
	debug.Statement(db, stmt.SQL, stmt.Args)

	res, err := ex.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, c.wrap("insert", db, table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, c.wrap("insert", db, table, err)
	}
	return c.readBack(ctx, ex, db, table, tbl, id)
}

// readBack fetches the just-inserted row through the same executor, so a
// read inside a transaction sees the uncommitted row.
func (c *Conn) readBack(ctx context.Context, ex executor, db, table string, tbl *schema.Table, rowid int64) (driver.Record, error) {
	// An INTEGER PRIMARY KEY is an alias of rowid; any other key shape is
	// addressed through rowid itself.
	key := "rowid"
	if tbl != nil {
		if pk := tbl.PrimaryKey(); pk != "" {
			if ct := tbl.Type(pk); ct == schema.Increments || ct == schema.Integer {
				key = pk
			}
		}
	}
	stmt, err := sqlgen.BuildSelect(table, tbl, sqlgen.Query{
		Where: sqlgen.Where{key: sqlgen.Eq(rowid)},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	debug.Statement(db, stmt.SQL, stmt.Args)
	rows, err := ex.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, c.wrap("insert", db, table, err)
	}
	defer rows.Close()
	records, err := scanRecords(rows, tbl)
	if err != nil {
		return nil, c.wrap("insert", db, table, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// BulkInsert writes rows as one atomic batch. Either every row is present
// afterwards or none is.
func (c *Conn) BulkInsert(ctx context.Context, db, table string, rows []map[string]any) ([]driver.Record, error) {
	records := make([]driver.Record, 0, len(rows))
	err := c.Transaction(ctx, func(ctx context.Context) error {
		for _, row := range rows {
			rec, err := c.Insert(ctx, db, table, row)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Update applies data to every matching row, returning the affected count.
func (c *Conn) Update(ctx context.Context, db, table string, data map[string]any, where sqlgen.Where) (int64, error) {
	tbl := c.schemaFor(db, table)
	stmt, err := sqlgen.BuildUpdate(table, tbl, data, where)
	if err != nil {
		return 0, err
	}
	ex, err := c.target(ctx, db)
	if err != nil {
		return 0, err
	}
	debug.Statement(db, stmt.SQL, stmt.Args)

	res, err := ex.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, c.wrap("update", db, table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, c.wrap("update", db, table, err)
	}
	return affected, nil
}

// BulkUpdate runs each (where, data) pair inside one atomic unit and returns
// the summed affected count.
func (c *Conn) BulkUpdate(ctx context.Context, db, table string, ops []driver.UpdateOp) (int64, error) {
	var total int64
	err := c.Transaction(ctx, func(ctx context.Context) error {
		for _, op := range ops {
			n, err := c.Update(ctx, db, table, op.Data, op.Where)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Delete removes every matching row, returning the affected count.
func (c *Conn) Delete(ctx context.Context, db, table string, where sqlgen.Where) (int64, error) {
	tbl := c.schemaFor(db, table)
	stmt, err := sqlgen.BuildDelete(table, tbl, where)
	if err != nil {
		return 0, err
	}
	ex, err := c.target(ctx, db)
	if err != nil {
		return 0, err
	}
	debug.Statement(db, stmt.SQL, stmt.Args)

	res, err := ex.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, c.wrap("delete", db, table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, c.wrap("delete", db, table, err)
	}
	return affected, nil
}

// Aggregate computes sum/avg/min/max/count over a field. Aggregates over
// zero matching rows yield 0.
func (c *Conn) Aggregate(ctx context.Context, db, table string, op sqlgen.AggregateOp, field string, where sqlgen.Where) (float64, error) {
	tbl := c.schemaFor(db, table)
	stmt, err := sqlgen.BuildAggregate(table, tbl, op, field, where)
	if err != nil {
		return 0, err
	}
	ex, err := c.target(ctx, db)
	if err != nil {
		return 0, err
	}
	debug.Statement(db, stmt.SQL, stmt.Args)

	var out sql.NullFloat64
	if err := ex.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&out); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, c.wrap("aggregate", db, table, err)
	}
	if !out.Valid {
		return 0, nil
	}
	return out.Float64, nil
}

// scanRecords reads every row into Records, deserializing values per the
// declared column types. Unknown columns pass through untouched.
func scanRecords(rows *sql.Rows, tbl *schema.Table) ([]driver.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []driver.Record
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(driver.Record, len(columns))
		for i, col := range columns {
			v := raw[i]
			var declared schema.ColumnType
			if tbl != nil {
				declared = tbl.Type(col)
			}
			if b, ok := v.([]byte); ok && declared != schema.Blob {
				v = string(b)
			}
			out, err := codec.Deserialize(v, declared)
			if err != nil {
				return nil, err
			}
			rec[col] = out
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
