package function

import "github.com/coregx/sqldialect/internal/sqltypes"

// Render implements Renderer for a constant fragment.
func (f Fragment) Render(_ []Argument) (Fragment, error) { return f, nil }

// VarArgs renders prefix a sep b sep ... suffix.
type VarArgs struct {
	Prefix    string
	Separator string
	Suffix    string
}

// Render implements Renderer.
func (v VarArgs) Render(args []Argument) (Fragment, error) {
	out := make(Fragment, 0, 2*len(args)+1)
	out = append(out, Lit(v.Prefix))
	for i := range args {
		if i > 0 {
			out = append(out, Lit(v.Separator))
		}
		out = append(out, ArgRef(i))
	}
	return append(out, Lit(v.Suffix)), nil
}

// Overloaded picks a template by argument count.
type Overloaded map[int]*Template

// Render implements Renderer.
func (o Overloaded) Render(args []Argument) (Fragment, error) {
	t, ok := o[len(args)]
	if !ok {
		return nil, &TemplateError{Arity: len(args), Msg: "no overload for argument count"}
	}
	return t.Render(args)
}

// DivisionStyle selects how a dialect truncates integer division.
type DivisionStyle int

// Division styles.
const (
	// DivideNative: a/b already truncates when both operands are integers.
	DivideNative DivisionStyle = iota
	// DivideKeyword: a div b (MySQL).
	DivideKeyword
	// DivideFunction: div(a, b) (PostgreSQL).
	DivideFunction
	// DivideTrunc: trunc(a/b) (Oracle, DB2, HANA).
	DivideTrunc
	// DivideFloor: floor(a/b) (IRIS, HANA).
	DivideFloor
	// DivideCast: cast(a/b as integer) (SQLite with real operands).
	DivideCast
)

// IntegerDivision renders div(a, b): integer division when both operands are
// integral, otherwise the floor of the quotient, using the dialect's style.
func IntegerDivision(style DivisionStyle) Renderer {
	integral := map[DivisionStyle]*Template{
		DivideNative:   MustParseTemplate("(?1/?2)", 2),
		DivideKeyword:  MustParseTemplate("(?1 div ?2)", 2),
		DivideFunction: MustParseTemplate("div(?1,?2)", 2),
		DivideTrunc:    MustParseTemplate("trunc(?1/?2)", 2),
		DivideFloor:    MustParseTemplate("floor(?1/?2)", 2),
		DivideCast:     MustParseTemplate("cast(?1/?2 as integer)", 2),
	}[style]
	floating := MustParseTemplate("floor(?1/?2)", 2)
	return RendererFunc(func(args []Argument) (Fragment, error) {
		if len(args) == 2 && args[0].Type.IsInteger() && args[1].Type.IsInteger() {
			return integral.Render(args)
		}
		return floating.Render(args)
	})
}

// RegisterStandard registers the ANSI functions every dialect starts from.
// Vendors override or remove entries afterwards.
func RegisterStandard(r *Registry) *Registry {
	return r.
		Named("abs", "abs", sqltypes.Null, 1, 1).
		Named("sign", "sign", sqltypes.Integer, 1, 1).
		Named("sqrt", "sqrt", sqltypes.Double, 1, 1).
		Named("exp", "exp", sqltypes.Double, 1, 1).
		Named("ln", "ln", sqltypes.Double, 1, 1).
		Named("power", "power", sqltypes.Double, 2, 2).
		Named("floor", "floor", sqltypes.Null, 1, 1).
		Named("ceiling", "ceiling", sqltypes.Null, 1, 1).
		Named("round", "round", sqltypes.Null, 1, 2).
		Named("mod", "mod", sqltypes.Integer, 2, 2).
		Named("lower", "lower", sqltypes.VarChar, 1, 1).
		Named("upper", "upper", sqltypes.VarChar, 1, 1).
		Named("coalesce", "coalesce", sqltypes.Null, 1, Variadic).
		Named("nullif", "nullif", sqltypes.Null, 2, 2).
		Named("length", "character_length", sqltypes.Integer, 1, 1).
		Pattern("locate", sqltypes.Integer, 2, "position(?1 in ?2)").
		Custom("substring", sqltypes.VarChar, 2, 3, Overloaded{
			2: MustParseTemplate("substring(?1 from ?2)", 2),
			3: MustParseTemplate("substring(?1 from ?2 for ?3)", 3),
		}).
		Pattern("trim", sqltypes.VarChar, 1, "trim(?1)").
		VarArgs("concat", sqltypes.VarChar, 1, VarArgs{Prefix: "(", Separator: "||", Suffix: ")"}).
		NoArgs("current_date", "current_date", sqltypes.Date, false).
		NoArgs("current_time", "current_time", sqltypes.Time, false).
		NoArgs("current_timestamp", "current_timestamp", sqltypes.TimestampWithTimezone, false).
		Named("count", "count", sqltypes.BigInt, 1, 1).
		Named("sum", "sum", sqltypes.Null, 1, 1).
		Named("avg", "avg", sqltypes.Double, 1, 1).
		Named("min", "min", sqltypes.Null, 1, 1).
		Named("max", "max", sqltypes.Null, 1, 1).
		Custom("div", sqltypes.BigInt, 2, 2, IntegerDivision(DivideNative))
}
