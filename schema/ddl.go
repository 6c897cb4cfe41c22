package schema

import (
	"fmt"
	"strings"

	quarry "github.com/quarrydb/quarry"
)

// IndexOptions configures CreateIndexSQL.
type IndexOptions struct {
	// Columns are the indexed columns, in order. Required.
	Columns []string
	Unique  bool
}

// CreateTableSQL renders the idempotent DDL for tbl. Calling it for a table
// that already exists is a no-op at the engine level; the first declared
// schema stays authoritative.
func CreateTableSQL(table string, tbl *Table) (string, error) {
	if err := CheckIdentifier(table); err != nil {
		return "", err
	}
	if err := tbl.Validate(); err != nil {
		return "", err
	}

	defs := make([]string, 0, tbl.Len())
	for _, name := range tbl.Columns() {
		col, _ := tbl.Get(name)
		parts := []string{quote(name), nativeTypes[col.Type]}
		if col.Type == Increments {
			parts = append(parts, "PRIMARY KEY AUTOINCREMENT")
		} else {
			if col.PrimaryKey {
				parts = append(parts, "PRIMARY KEY")
				if col.AutoIncrement {
					parts = append(parts, "AUTOINCREMENT")
				}
			}
			if col.NotNull {
				parts = append(parts, "NOT NULL")
			}
			if col.Unique {
				parts = append(parts, "UNIQUE")
			}
		}
		if col.Default != nil {
			lit, err := defaultLiteral(col.Default)
			if err != nil {
				return "", err
			}
			parts = append(parts, "DEFAULT "+lit)
		}
		if col.References != "" {
			ref, err := referenceClause(col.References)
			if err != nil {
				return "", err
			}
			parts = append(parts, ref)
		}
		defs = append(defs, strings.Join(parts, " "))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(table), strings.Join(defs, ", ")), nil
}

// DropTableSQL renders idempotent DROP TABLE DDL.
func DropTableSQL(table string) (string, error) {
	if err := CheckIdentifier(table); err != nil {
		return "", err
	}
	return "DROP TABLE IF EXISTS " + quote(table), nil
}

// CreateIndexSQL renders idempotent CREATE INDEX DDL.
func CreateIndexSQL(table, name string, opts IndexOptions) (string, error) {
	if err := CheckIdentifier(table); err != nil {
		return "", err
	}
	if err := CheckIdentifier(name); err != nil {
		return "", err
	}
	if len(opts.Columns) == 0 {
		return "", quarry.Validationf("index %q has no columns", name)
	}
	cols := make([]string, len(opts.Columns))
	for i, c := range opts.Columns {
		if err := CheckIdentifier(c); err != nil {
			return "", err
		}
		cols[i] = quote(c)
	}
	unique := ""
	if opts.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, quote(name), quote(table), strings.Join(cols, ", ")), nil
}

// DropIndexSQL renders idempotent DROP INDEX DDL. SQLite index names are
// global to a database file, so the owning table is validated but not
// consulted.
func DropIndexSQL(name string) (string, error) {
	if err := CheckIdentifier(name); err != nil {
		return "", err
	}
	return "DROP INDEX IF EXISTS " + quote(name), nil
}

// TableExistsSQL returns the probe statement for table presence. The table
// name is bound as a parameter, not interpolated.
const TableExistsSQL = `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`

func quote(name string) string {
	return `"` + name + `"`
}

// defaultLiteral renders a column default as a SQL literal. Defaults cannot
// be bound as parameters inside CREATE TABLE.
func defaultLiteral(v any) (string, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case int:
		return fmt.Sprintf("%d", x), nil
	case int64:
		return fmt.Sprintf("%d", x), nil
	case float64:
		return fmt.Sprintf("%g", x), nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	default:
		return "", quarry.Validationf("unsupported default value %T", v)
	}
}

func referenceClause(ref string) (string, error) {
	table, column, ok := strings.Cut(ref, ".")
	if !ok {
		return "", quarry.Validationf("foreign key reference %q is not table.column", ref)
	}
	if err := CheckIdentifier(table); err != nil {
		return "", err
	}
	if err := CheckIdentifier(column); err != nil {
		return "", err
	}
	return fmt.Sprintf("REFERENCES %s(%s)", quote(table), quote(column)), nil
}
