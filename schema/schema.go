// Package schema defines table schemas and generates the DDL for them.
package schema

import (
	"regexp"

	quarry "github.com/quarrydb/quarry"
)

// ColumnType is the declared type of a column. It drives both the native
// SQLite type in DDL and how values are serialized on the way in and out.
type ColumnType string

const (
	Integer    ColumnType = "integer"
	Real       ColumnType = "real"
	Text       ColumnType = "text"
	Boolean    ColumnType = "boolean"
	Date       ColumnType = "date"
	DateTime   ColumnType = "datetime"
	JSON       ColumnType = "json"
	Blob       ColumnType = "blob"
	Increments ColumnType = "increments" // INTEGER PRIMARY KEY AUTOINCREMENT shorthand
)

// nativeTypes maps declared types to SQLite storage classes.
var nativeTypes = map[ColumnType]string{
	Integer:    "INTEGER",
	Real:       "REAL",
	Text:       "TEXT",
	Boolean:    "INTEGER",
	Date:       "TEXT",
	DateTime:   "TEXT",
	JSON:       "TEXT",
	Blob:       "BLOB",
	Increments: "INTEGER",
}

// Valid reports whether t is a recognized column type.
func (t ColumnType) Valid() bool {
	_, ok := nativeTypes[t]
	return ok
}

// Column describes a single column. Zero value plus a Type is a plain
// nullable column.
type Column struct {
	Type          ColumnType
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	Unique        bool
	Default       any
	// References is a "table.column" foreign key target, empty for none.
	References string
}

type namedColumn struct {
	name string
	col  Column
}

// Table is an ordered mapping of column name to definition. A schema is
// attached to exactly one (database, table) pair and is read-only once the
// table has been created.
type Table struct {
	cols []namedColumn
}

// NewTable returns an empty table schema.
func NewTable() *Table {
	return &Table{}
}

// Column appends a column definition. Redefining an existing name replaces
// the earlier definition so builders can be assembled incrementally.
func (t *Table) Column(name string, col Column) *Table {
	for i := range t.cols {
		if t.cols[i].name == name {
			t.cols[i].col = col
			return t
		}
	}
	t.cols = append(t.cols, namedColumn{name: name, col: col})
	return t
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// Get returns the definition for name.
func (t *Table) Get(name string) (Column, bool) {
	for _, c := range t.cols {
		if c.name == name {
			return c.col, true
		}
	}
	return Column{}, false
}

// Type returns the declared type for name, or empty when the column is not
// part of the schema.
func (t *Table) Type(name string) ColumnType {
	if c, ok := t.Get(name); ok {
		return c.Type
	}
	return ""
}

// Len returns the number of columns.
func (t *Table) Len() int {
	return len(t.cols)
}

// PrimaryKey returns the name of the primary key column, or empty.
func (t *Table) PrimaryKey() string {
	for _, c := range t.cols {
		if c.col.PrimaryKey || c.col.Type == Increments {
			return c.name
		}
	}
	return ""
}

// Validate checks every identifier and column definition, returning a
// validation error before any DDL is assembled.
func (t *Table) Validate() error {
	if len(t.cols) == 0 {
		return quarry.Validationf("table schema has no columns")
	}
	for _, c := range t.cols {
		if err := CheckIdentifier(c.name); err != nil {
			return err
		}
		if !c.col.Type.Valid() {
			return quarry.Validationf("column %q has unknown type %q", c.name, c.col.Type)
		}
	}
	return nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CheckIdentifier rejects any table, column, or index name outside the safe
// allow-list. Identifiers are interpolated into SQL and must never carry
// quoting or separator characters.
func CheckIdentifier(name string) error {
	if !identPattern.MatchString(name) {
		return quarry.Validationf("unsafe identifier %q", name)
	}
	return nil
}
