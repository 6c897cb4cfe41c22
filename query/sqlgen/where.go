// Package sqlgen compiles structured query descriptions into parameterized
// SQLite statements.
package sqlgen

// Where maps column names to conditions. Conditions on different columns are
// ANDed together; there is no OR composition across top-level keys.
type Where map[string]Condition

// Condition is either a Literal (plain equality, nil meaning IS NULL) or an
// *Operators set. The tagged variant removes any ambiguity between "a plain
// value that happens to be a map" and an operator object.
type Condition interface {
	isCondition()
}

// Literal matches a column against a single value with equality. A nil Value
// compiles to IS NULL.
type Literal struct {
	Value any
}

func (Literal) isCondition() {}

// Eq wraps v as a literal equality condition.
func Eq(v any) Literal {
	return Literal{Value: v}
}

// Recognized operator tags, in canonical emission order.
const (
	TagGt      = "gt"
	TagGte     = "gte"
	TagLt      = "lt"
	TagLte     = "lte"
	TagNe      = "ne"
	TagIn      = "in"
	TagNotIn   = "notIn"
	TagLike    = "like"
	TagBetween = "between"
)

// tagRank fixes the emission order of operator fragments so compiled output
// is deterministic.
var tagRank = map[string]int{
	TagGt:      0,
	TagGte:     1,
	TagLt:      2,
	TagLte:     3,
	TagNe:      4,
	TagIn:      5,
	TagNotIn:   6,
	TagLike:    7,
	TagBetween: 8,
}

type opEntry struct {
	tag     string
	operand any
}

// Operators is an ordered set of operator-tag → operand pairs on one column.
// All entries AND together. Build one with Ops and the chainable methods:
//
//	sqlgen.Ops().Gte(18).Lt(65)
type Operators struct {
	entries []opEntry
}

func (*Operators) isCondition() {}

// Ops returns an empty operator set.
func Ops() *Operators {
	return &Operators{}
}

func (o *Operators) add(tag string, operand any) *Operators {
	o.entries = append(o.entries, opEntry{tag: tag, operand: operand})
	return o
}

// Gt adds a strictly-greater-than bound.
func (o *Operators) Gt(v any) *Operators { return o.add(TagGt, v) }

// Gte adds a greater-or-equal bound.
func (o *Operators) Gte(v any) *Operators { return o.add(TagGte, v) }

// Lt adds a strictly-less-than bound.
func (o *Operators) Lt(v any) *Operators { return o.add(TagLt, v) }

// Lte adds a less-or-equal bound.
func (o *Operators) Lte(v any) *Operators { return o.add(TagLte, v) }

// Ne adds an inequality. A nil operand compiles to IS NOT NULL, since a
// comparison against NULL would otherwise silently match nothing.
func (o *Operators) Ne(v any) *Operators { return o.add(TagNe, v) }

// In matches any of values. An empty list compiles to a predicate that
// matches nothing.
func (o *Operators) In(values ...any) *Operators { return o.add(TagIn, values) }

// NotIn excludes all of values. An empty list compiles to a predicate that
// matches everything.
func (o *Operators) NotIn(values ...any) *Operators { return o.add(TagNotIn, values) }

// Like adds a SQL LIKE pattern match.
func (o *Operators) Like(pattern string) *Operators { return o.add(TagLike, pattern) }

// Between bounds the column inclusively by [low, high].
func (o *Operators) Between(low, high any) *Operators {
	return o.add(TagBetween, []any{low, high})
}

// Op adds a condition by tag name. Unknown tags are kept and rejected with a
// validation error at compile time, never silently ignored. in/notIn expect a
// []any operand; between expects a two-element []any.
func (o *Operators) Op(tag string, operand any) *Operators {
	return o.add(tag, operand)
}
