package sqlgen

import (
	"fmt"
	"sort"
	"strings"

	quarry "github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/query/codec"
	"github.com/quarrydb/quarry/schema"
)

// Statement is a SQL string plus its bound arguments. The placeholder count
// always matches len(Args).
type Statement struct {
	SQL  string
	Args []any
}

// OrderBy is one sort key. Direction is "ASC" or "DESC" (case-insensitive,
// empty means ASC).
type OrderBy struct {
	Column    string
	Direction string
}

// Query describes a read: an optional predicate, multi-key ordering applied
// left to right, pagination, and a column projection. Rows equal on all sort
// keys keep their storage-relative order; callers needing full determinism
// include a unique column as the last key.
type Query struct {
	Where   Where
	OrderBy []OrderBy
	Limit   int
	Offset  int
	Select  []string
}

// AggregateOp names an aggregate function.
type AggregateOp string

const (
	AggSum   AggregateOp = "sum"
	AggAvg   AggregateOp = "avg"
	AggMin   AggregateOp = "min"
	AggMax   AggregateOp = "max"
	AggCount AggregateOp = "count"
)

var aggregateFuncs = map[AggregateOp]string{
	AggSum:   "SUM",
	AggAvg:   "AVG",
	AggMin:   "MIN",
	AggMax:   "MAX",
	AggCount: "COUNT",
}

// BuildSelect assembles a SELECT statement for q.
func BuildSelect(table string, tbl *schema.Table, q Query) (*Statement, error) {
	if err := schema.CheckIdentifier(table); err != nil {
		return nil, err
	}

	projection := "*"
	if len(q.Select) > 0 {
		cols := make([]string, len(q.Select))
		for i, c := range q.Select {
			if err := schema.CheckIdentifier(c); err != nil {
				return nil, err
			}
			cols[i] = quote(c)
		}
		projection = strings.Join(cols, ", ")
	}

	pred, err := BuildWhere(tbl, q.Where)
	if err != nil {
		return nil, err
	}

	parts := []string{fmt.Sprintf("SELECT %s FROM %s", projection, quote(table))}
	args := append([]any{}, pred.Args...)
	if !pred.Empty() {
		parts = append(parts, "WHERE "+pred.SQL())
	}

	if len(q.OrderBy) > 0 {
		orderParts := make([]string, len(q.OrderBy))
		for i, ob := range q.OrderBy {
			if err := schema.CheckIdentifier(ob.Column); err != nil {
				return nil, err
			}
			dir, err := direction(ob.Direction)
			if err != nil {
				return nil, err
			}
			orderParts[i] = quote(ob.Column) + " " + dir
		}
		parts = append(parts, "ORDER BY "+strings.Join(orderParts, ", "))
	}

	if q.Limit < 0 || q.Offset < 0 {
		return nil, quarry.Validationf("limit and offset must be non-negative")
	}
	if q.Limit > 0 {
		parts = append(parts, "LIMIT ?")
		args = append(args, q.Limit)
	} else if q.Offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET; -1 means unbounded.
		parts = append(parts, "LIMIT -1")
	}
	if q.Offset > 0 {
		parts = append(parts, "OFFSET ?")
		args = append(args, q.Offset)
	}

	return &Statement{SQL: strings.Join(parts, " "), Args: args}, nil
}

// BuildCount assembles SELECT COUNT(*).
func BuildCount(table string, tbl *schema.Table, where Where) (*Statement, error) {
	if err := schema.CheckIdentifier(table); err != nil {
		return nil, err
	}
	pred, err := BuildWhere(tbl, where)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s", quote(table))
	if !pred.Empty() {
		sql += " WHERE " + pred.SQL()
	}
	return &Statement{SQL: sql, Args: pred.Args}, nil
}

// BuildInsert assembles a single-row INSERT. Columns are emitted in sorted
// order so the statement text is deterministic for identical shapes.
func BuildInsert(table string, tbl *schema.Table, data map[string]any) (*Statement, error) {
	if err := schema.CheckIdentifier(table); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, quarry.Validationf("insert requires at least one column value")
	}

	columns := sortedColumns(data)
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		if err := schema.CheckIdentifier(col); err != nil {
			return nil, err
		}
		sv, err := codec.Serialize(data[col], columnType(tbl, col))
		if err != nil {
			return nil, err
		}
		quoted[i] = quote(col)
		placeholders[i] = "?"
		args[i] = sv
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	return &Statement{SQL: sql, Args: args}, nil
}

// BuildUpdate assembles an UPDATE with a compiled predicate. The executor
// reports only the affected-row count.
func BuildUpdate(table string, tbl *schema.Table, data map[string]any, where Where) (*Statement, error) {
	if err := schema.CheckIdentifier(table); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, quarry.Validationf("update requires at least one column value")
	}

	columns := sortedColumns(data)
	setParts := make([]string, len(columns))
	args := make([]any, 0, len(columns))
	for i, col := range columns {
		if err := schema.CheckIdentifier(col); err != nil {
			return nil, err
		}
		sv, err := codec.Serialize(data[col], columnType(tbl, col))
		if err != nil {
			return nil, err
		}
		setParts[i] = quote(col) + " = ?"
		args = append(args, sv)
	}

	pred, err := BuildWhere(tbl, where)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("UPDATE %s SET %s", quote(table), strings.Join(setParts, ", "))
	if !pred.Empty() {
		sql += " WHERE " + pred.SQL()
		args = append(args, pred.Args...)
	}
	return &Statement{SQL: sql, Args: args}, nil
}

// BuildDelete assembles a DELETE with a compiled predicate. An empty where
// deletes every row; that is the caller's explicit choice, not a default.
func BuildDelete(table string, tbl *schema.Table, where Where) (*Statement, error) {
	if err := schema.CheckIdentifier(table); err != nil {
		return nil, err
	}
	pred, err := BuildWhere(tbl, where)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("DELETE FROM %s", quote(table))
	if !pred.Empty() {
		sql += " WHERE " + pred.SQL()
	}
	return &Statement{SQL: sql, Args: pred.Args}, nil
}

// BuildAggregate assembles SUM/AVG/MIN/MAX/COUNT over a field. Aggregates
// over zero rows yield 0, not NULL, via COALESCE.
func BuildAggregate(table string, tbl *schema.Table, op AggregateOp, field string, where Where) (*Statement, error) {
	if err := schema.CheckIdentifier(table); err != nil {
		return nil, err
	}
	fn, ok := aggregateFuncs[op]
	if !ok {
		return nil, quarry.Validationf("unknown aggregate %q", op)
	}

	target := "*"
	if op == AggCount && (field == "" || field == "*") {
		target = "*"
	} else {
		if err := schema.CheckIdentifier(field); err != nil {
			return nil, err
		}
		target = quote(field)
	}

	pred, err := BuildWhere(tbl, where)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT COALESCE(%s(%s), 0) FROM %s", fn, target, quote(table))
	if !pred.Empty() {
		sql += " WHERE " + pred.SQL()
	}
	return &Statement{SQL: sql, Args: pred.Args}, nil
}

func direction(d string) (string, error) {
	switch strings.ToUpper(d) {
	case "", "ASC":
		return "ASC", nil
	case "DESC":
		return "DESC", nil
	default:
		return "", quarry.Validationf("order direction must be ASC or DESC, got %q", d)
	}
}

func sortedColumns(data map[string]any) []string {
	columns := make([]string, 0, len(data))
	for col := range data {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
