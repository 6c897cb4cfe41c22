package sqlgen

import (
	"fmt"
	"sort"
	"strings"

	quarry "github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/query/codec"
	"github.com/quarrydb/quarry/schema"
)

// Fragment is one compiled boolean expression plus the arguments bound to
// its placeholders.
type Fragment struct {
	SQL  string
	Args []any
}

// Predicate is a compiled WHERE clause: fragments ANDed together, with the
// flat argument list in emission order. The number of placeholders in SQL()
// always equals len(Args).
type Predicate struct {
	Fragments []Fragment
	Args      []any
}

// Empty reports whether no conditions were compiled.
func (p *Predicate) Empty() bool {
	return p == nil || len(p.Fragments) == 0
}

// SQL joins the fragments with AND. Empty predicates render as an empty
// string; callers omit the WHERE keyword in that case.
func (p *Predicate) SQL() string {
	if p.Empty() {
		return ""
	}
	parts := make([]string, len(p.Fragments))
	for i, f := range p.Fragments {
		parts[i] = f.SQL
	}
	return strings.Join(parts, " AND ")
}

// BuildWhere compiles where into a predicate, serializing operand values
// against the declared column types in tbl (nil tbl means passthrough).
// Columns compile in sorted-name order and operator tags in the canonical
// order, so output is deterministic. All failures are validation errors
// raised before any statement is built.
func BuildWhere(tbl *schema.Table, where Where) (*Predicate, error) {
	pred := &Predicate{}
	if len(where) == 0 {
		return pred, nil
	}

	columns := make([]string, 0, len(where))
	for col := range where {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		if err := schema.CheckIdentifier(col); err != nil {
			return nil, err
		}
		declared := columnType(tbl, col)

		switch cond := where[col].(type) {
		case Literal:
			frag, err := compileLiteral(col, cond.Value, declared)
			if err != nil {
				return nil, err
			}
			pred.append(frag)
		case *Operators:
			frags, err := compileOperators(col, cond, declared)
			if err != nil {
				return nil, err
			}
			for _, f := range frags {
				pred.append(f)
			}
		case nil:
			return nil, quarry.Validationf("column %q has a nil condition", col)
		default:
			return nil, quarry.Validationf("column %q has unsupported condition type %T", col, cond)
		}
	}
	return pred, nil
}

func (p *Predicate) append(f Fragment) {
	p.Fragments = append(p.Fragments, f)
	p.Args = append(p.Args, f.Args...)
}

func columnType(tbl *schema.Table, col string) schema.ColumnType {
	if tbl == nil {
		return ""
	}
	return tbl.Type(col)
}

func compileLiteral(col string, v any, t schema.ColumnType) (Fragment, error) {
	if v == nil {
		return Fragment{SQL: quote(col) + " IS NULL"}, nil
	}
	sv, err := codec.Serialize(v, t)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: quote(col) + " = ?", Args: []any{sv}}, nil
}

func compileOperators(col string, ops *Operators, t schema.ColumnType) ([]Fragment, error) {
	if len(ops.entries) == 0 {
		return nil, quarry.Validationf("column %q has an empty operator set", col)
	}

	// Canonical tag order; entries sharing a tag keep insertion order.
	entries := make([]opEntry, len(ops.entries))
	copy(entries, ops.entries)
	sort.SliceStable(entries, func(i, j int) bool {
		ri, iok := tagRank[entries[i].tag]
		rj, jok := tagRank[entries[j].tag]
		if !iok || !jok {
			// Unknown tags surface below with a precise error; keep order.
			return false
		}
		return ri < rj
	})

	frags := make([]Fragment, 0, len(entries))
	for _, e := range entries {
		frag, err := compileOperator(col, e.tag, e.operand, t)
		if err != nil {
			return nil, err
		}
		frags = append(frags, frag)
	}
	return frags, nil
}

func compileOperator(col, tag string, operand any, t schema.ColumnType) (Fragment, error) {
	switch tag {
	case TagGt, TagGte, TagLt, TagLte:
		sv, err := codec.Serialize(operand, t)
		if err != nil {
			return Fragment{}, err
		}
		return Fragment{SQL: fmt.Sprintf("%s %s ?", quote(col), comparator(tag)), Args: []any{sv}}, nil

	case TagNe:
		if operand == nil {
			return Fragment{SQL: quote(col) + " IS NOT NULL"}, nil
		}
		sv, err := codec.Serialize(operand, t)
		if err != nil {
			return Fragment{}, err
		}
		return Fragment{SQL: quote(col) + " != ?", Args: []any{sv}}, nil

	case TagIn, TagNotIn:
		values, err := listOperand(col, tag, operand)
		if err != nil {
			return Fragment{}, err
		}
		if len(values) == 0 {
			// Documented policy: empty in matches nothing, empty notIn
			// matches everything.
			if tag == TagIn {
				return Fragment{SQL: "1 = 0"}, nil
			}
			return Fragment{SQL: "1 = 1"}, nil
		}
		args := make([]any, len(values))
		placeholders := make([]string, len(values))
		for i, v := range values {
			sv, err := codec.Serialize(v, t)
			if err != nil {
				return Fragment{}, err
			}
			args[i] = sv
			placeholders[i] = "?"
		}
		keyword := "IN"
		if tag == TagNotIn {
			keyword = "NOT IN"
		}
		return Fragment{
			SQL:  fmt.Sprintf("%s %s (%s)", quote(col), keyword, strings.Join(placeholders, ", ")),
			Args: args,
		}, nil

	case TagLike:
		pattern, ok := operand.(string)
		if !ok {
			return Fragment{}, quarry.Validationf("like operand on %q must be a string, got %T", col, operand)
		}
		return Fragment{SQL: quote(col) + " LIKE ?", Args: []any{pattern}}, nil

	case TagBetween:
		pair, err := listOperand(col, tag, operand)
		if err != nil {
			return Fragment{}, err
		}
		if len(pair) != 2 {
			return Fragment{}, quarry.Validationf("between on %q requires exactly [low, high], got %d values", col, len(pair))
		}
		low, err := codec.Serialize(pair[0], t)
		if err != nil {
			return Fragment{}, err
		}
		high, err := codec.Serialize(pair[1], t)
		if err != nil {
			return Fragment{}, err
		}
		return Fragment{SQL: quote(col) + " BETWEEN ? AND ?", Args: []any{low, high}}, nil

	default:
		return Fragment{}, quarry.Validationf("unrecognized operator tag %q on column %q", tag, col)
	}
}

func comparator(tag string) string {
	switch tag {
	case TagGt:
		return ">"
	case TagGte:
		return ">="
	case TagLt:
		return "<"
	case TagLte:
		return "<="
	}
	return "="
}

func listOperand(col, tag string, operand any) ([]any, error) {
	switch vs := operand.(type) {
	case []any:
		return vs, nil
	case nil:
		return nil, quarry.Validationf("%s operand on %q must be a list, got nil", tag, col)
	default:
		return nil, quarry.Validationf("%s operand on %q must be a list, got %T", tag, col, operand)
	}
}

func quote(name string) string {
	return `"` + name + `"`
}
