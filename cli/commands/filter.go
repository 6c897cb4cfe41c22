package commands

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/quarrydb/quarry/query/sqlgen"
)

// filterLexer tokenizes --where expressions such as
//
//	age >= 18 && name like "a%" && id in (1, 2, 3)
var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "And", Pattern: `&&`},
	{Name: "Compare", Pattern: `>=|<=|!=|=|>|<`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

type filterExpr struct {
	Conds []*filterCond `parser:"@@ ( \"&&\" @@ )*"`
}

type filterCond struct {
	Field   string         `parser:"@Ident"`
	Compare *compareClause `parser:"( @@"`
	Like    *filterValue   `parser:"| \"like\" @@"`
	Between *betweenClause `parser:"| \"between\" @@"`
	In      *inClause      `parser:"| \"in\" @@"`
	NotIn   *inClause      `parser:"| \"not\" \"in\" @@ )"`
}

type compareClause struct {
	Op    string       `parser:"@Compare"`
	Value *filterValue `parser:"@@"`
}

type betweenClause struct {
	Low  *filterValue `parser:"@@"`
	High *filterValue `parser:"\"and\" @@"`
}

type inClause struct {
	Values []*filterValue `parser:"\"(\" ( @@ ( \",\" @@ )* )? \")\""`
}

type filterValue struct {
	Number *float64 `parser:"  @Number"`
	String *string  `parser:"| @String"`
	True   bool     `parser:"| @\"true\""`
	False  bool     `parser:"| @\"false\""`
	Null   bool     `parser:"| @\"null\""`
}

func (v *filterValue) value() any {
	switch {
	case v == nil || v.Null:
		return nil
	case v.Number != nil:
		return *v.Number
	case v.String != nil:
		return *v.String
	case v.True:
		return true
	case v.False:
		return false
	}
	return nil
}

var filterParser = participle.MustBuild[filterExpr](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// ParseWhere compiles a --where expression into the structured condition
// form. Conditions on the same field merge into one operator set.
func ParseWhere(input string) (sqlgen.Where, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	expr, err := filterParser.ParseString("--where", input)
	if err != nil {
		return nil, fmt.Errorf("parsing filter: %w", err)
	}

	where := sqlgen.Where{}
	for _, cond := range expr.Conds {
		if err := applyCond(where, cond); err != nil {
			return nil, err
		}
	}
	return where, nil
}

func applyCond(where sqlgen.Where, cond *filterCond) error {
	ops := operatorsFor(where, cond.Field)

	switch {
	case cond.Compare != nil:
		v := cond.Compare.Value.value()
		switch cond.Compare.Op {
		case "=":
			if existing, ok := where[cond.Field]; ok {
				if _, isOps := existing.(*sqlgen.Operators); !isOps {
					return fmt.Errorf("field %q has conflicting equality conditions", cond.Field)
				}
			}
			where[cond.Field] = sqlgen.Eq(v)
			return nil
		case ">":
			ops.Gt(v)
		case ">=":
			ops.Gte(v)
		case "<":
			ops.Lt(v)
		case "<=":
			ops.Lte(v)
		case "!=":
			ops.Ne(v)
		}
	case cond.Like != nil:
		pattern, ok := cond.Like.value().(string)
		if !ok {
			return fmt.Errorf("like pattern on %q must be a string", cond.Field)
		}
		ops.Like(pattern)
	case cond.Between != nil:
		ops.Between(cond.Between.Low.value(), cond.Between.High.value())
	case cond.In != nil:
		ops.In(valueList(cond.In)...)
	case cond.NotIn != nil:
		ops.NotIn(valueList(cond.NotIn)...)
	default:
		return fmt.Errorf("field %q has no condition", cond.Field)
	}

	where[cond.Field] = ops
	return nil
}

func operatorsFor(where sqlgen.Where, field string) *sqlgen.Operators {
	if existing, ok := where[field].(*sqlgen.Operators); ok {
		return existing
	}
	return sqlgen.Ops()
}

func valueList(clause *inClause) []any {
	values := make([]any, len(clause.Values))
	for i, v := range clause.Values {
		values[i] = v.value()
	}
	return values
}
