package translator

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/coregx/sqldialect/internal/ast"
	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/function"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func (r *renderer) expr(e ast.Expression) (string, error) {
	return r.operand(e, nil)
}

// operand renders e. An unnamed, untyped parameter compared with or
// assigned to peer takes its name and type from peer.
func (r *renderer) operand(e ast.Expression, peer ast.Expression) (string, error) {
	switch e := e.(type) {
	case *ast.Column:
		return r.column(e), nil
	case *ast.Parameter:
		name, typ := e.Name, e.Type
		if c, ok := peer.(*ast.Column); ok && name == "" {
			name = c.Name
		}
		if typ == sqltypes.Null && e.Value != nil && peer != nil {
			typ = r.typeOf(peer)
		}
		return r.param(name, typ, e.Value), nil
	case *ast.Literal:
		return r.literal(e.Value, e.Type)
	case *ast.Func:
		return r.call(e.Name, e.Args, e.Distinct)
	case *ast.Arithmetic:
		return r.arithmetic(e)
	case *ast.Negate:
		s, err := r.expr(e.Expr)
		if err != nil {
			return "", err
		}
		return "-" + s, nil
	case *ast.Case:
		return r.caseExpr(e)
	case *ast.Cast:
		s, err := r.expr(e.Expr)
		if err != nil {
			return "", err
		}
		typ, err := r.d.CastType(e.Type, e.Size)
		if err != nil {
			return "", err
		}
		return "cast(" + s + " as " + typ + ")", nil
	case *ast.Subquery:
		s, err := r.queryPart(e.Query, false)
		if err != nil {
			return "", err
		}
		return "(" + s + ")", nil
	case *ast.Tuple:
		items, err := r.exprs(e.Items)
		if err != nil {
			return "", err
		}
		return "(" + items + ")", nil
	case *ast.Star:
		if e.Qualifier != "" {
			return r.ident(e.Qualifier, false) + ".*", nil
		}
		return "*", nil
	case *ast.Raw:
		return r.fragment(e.SQL)
	case *ast.Excluded:
		if r.excluded == nil {
			return "", invalid("excluded(%s) outside an upsert", e.Column)
		}
		return r.excluded(r.ident(e.Column, false)), nil
	case nil:
		return "", invalid("missing expression")
	}
	return "", invalid("unknown expression %T", e)
}

func (r *renderer) exprs(es []ast.Expression) (string, error) {
	out := make([]string, len(es))
	for i, e := range es {
		s, err := r.expr(e)
		if err != nil {
			return "", err
		}
		out[i] = s
	}
	return strings.Join(out, ", "), nil
}

func (r *renderer) column(c *ast.Column) string {
	name := r.ident(c.Name, c.Quoted)
	switch {
	case c.Qualifier == "":
		return name
	case r.targetAlias != "" && c.Qualifier == r.targetAlias:
		return r.targetName + "." + name
	}
	return r.ident(c.Qualifier, c.Quoted) + "." + name
}

// call renders a registered function through the dialect's renderer.
func (r *renderer) call(name string, args []ast.Expression, distinct bool) (string, error) {
	desc, err := r.d.Function(name)
	if err != nil {
		return "", fmt.Errorf("function %q: %w", name, err)
	}
	rendered := make([]string, len(args))
	types := make([]function.Argument, len(args))
	for i, a := range args {
		s, err := r.expr(a)
		if err != nil {
			return "", err
		}
		rendered[i] = s
		types[i] = function.Argument{Type: r.typeOf(a)}
	}
	if distinct {
		if len(rendered) == 0 {
			return "", invalid("distinct %s without arguments", name)
		}
		rendered[0] = "distinct " + rendered[0]
	}
	frag, err := desc.Render(types)
	if err != nil {
		return "", err
	}
	return frag.String(rendered...), nil
}

func (r *renderer) arithmetic(a *ast.Arithmetic) (string, error) {
	if a.Op == ast.Modulo {
		if _, err := r.d.Function("mod"); err == nil {
			return r.call("mod", []ast.Expression{a.Left, a.Right}, false)
		}
	}
	l, err := r.expr(a.Left)
	if err != nil {
		return "", err
	}
	rt, err := r.expr(a.Right)
	if err != nil {
		return "", err
	}
	return "(" + l + " " + a.Op.String() + " " + rt + ")", nil
}

func (r *renderer) caseExpr(c *ast.Case) (string, error) {
	if len(c.Whens) == 0 {
		return "", invalid("case without branches")
	}
	var b strings.Builder
	b.WriteString("case")
	for _, w := range c.Whens {
		cond, err := r.predicate(w.Cond)
		if err != nil {
			return "", err
		}
		res, err := r.expr(w.Result)
		if err != nil {
			return "", err
		}
		b.WriteString(" when " + cond + " then " + res)
	}
	if c.Else != nil {
		s, err := r.expr(c.Else)
		if err != nil {
			return "", err
		}
		b.WriteString(" else " + s)
	}
	b.WriteString(" end")
	return b.String(), nil
}

// typeOf infers the type of e; Null means unknown.
func (r *renderer) typeOf(e ast.Expression) sqltypes.Code {
	switch e := e.(type) {
	case *ast.Column:
		return e.Type
	case *ast.Literal:
		if e.Type != sqltypes.Null {
			return e.Type
		}
		return sqltypes.Infer(e.Value)
	case *ast.Parameter:
		if e.Type != sqltypes.Null {
			return e.Type
		}
		return sqltypes.Infer(e.Value)
	case *ast.Cast:
		return e.Type
	case *ast.Negate:
		return r.typeOf(e.Expr)
	case *ast.Arithmetic:
		l, rt := r.typeOf(e.Left), r.typeOf(e.Right)
		switch {
		case l.IsFloatingPoint() || rt.IsFloatingPoint():
			return sqltypes.Double
		case l == sqltypes.Decimal || rt == sqltypes.Decimal || l == sqltypes.Numeric || rt == sqltypes.Numeric:
			return sqltypes.Decimal
		case l != sqltypes.Null:
			return l
		}
		return rt
	case *ast.Func:
		desc, err := r.d.Function(e.Name)
		if err != nil {
			return sqltypes.Null
		}
		args := make([]function.Argument, len(e.Args))
		for i, a := range e.Args {
			args[i] = function.Argument{Type: r.typeOf(a)}
		}
		return desc.ResultType(args)
	case *ast.Case:
		for _, w := range e.Whens {
			if t := r.typeOf(w.Result); t != sqltypes.Null {
				return t
			}
		}
		if e.Else != nil {
			return r.typeOf(e.Else)
		}
	case *ast.Subquery:
		if q, ok := e.Query.(*ast.QuerySpec); ok && len(q.Select) == 1 {
			return r.typeOf(q.Select[0].Expr)
		}
	}
	return sqltypes.Null
}

func (r *renderer) literal(v any, typ sqltypes.Code) (string, error) {
	if typ == sqltypes.Null {
		typ = sqltypes.Infer(v)
	}
	switch x := v.(type) {
	case nil:
		return "null", nil
	case bool:
		switch {
		case typ == sqltypes.Bit || !r.caps.BooleanLiterals:
			if x {
				return "1", nil
			}
			return "0", nil
		case x:
			return "true", nil
		}
		return "false", nil
	case string:
		return r.quote(x), nil
	case []byte:
		return r.binary(x), nil
	case time.Time:
		return r.temporal(typ, x)
	case int:
		return strconv.Itoa(x), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case *apd.Decimal:
		return x.String(), nil
	case apd.Decimal:
		return x.String(), nil
	case time.Duration:
		return strconv.FormatInt(int64(x), 10), nil
	case uuid.UUID:
		return r.quote(x.String()), nil
	case fmt.Stringer:
		return r.quote(x.String()), nil
	}
	return "", invalid("cannot render %T as a literal", v)
}

func (r *renderer) quote(s string) string {
	s = strings.ReplaceAll(r.text(s), "'", "''")
	if r.caps.BackslashEscape {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + s + "'"
}

func (r *renderer) binary(b []byte) string {
	h := hex.EncodeToString(b)
	switch r.caps.BinaryLiteral {
	case dialects.Binary0x:
		return "0x" + strings.ToUpper(h)
	case dialects.BinaryHexToRaw:
		return "hextoraw('" + strings.ToUpper(h) + "')"
	case dialects.BinaryBytea:
		return `'\x` + h + "'::bytea"
	case dialects.BinaryBX:
		return "BX'" + strings.ToUpper(h) + "'"
	}
	return "X'" + strings.ToUpper(h) + "'"
}

func (r *renderer) temporal(typ sqltypes.Code, t time.Time) (string, error) {
	if !typ.IsTemporal() {
		typ = sqltypes.TimestampWithTimezone
	}
	text, err := sqltypes.FormatTemporal(typ, t)
	if err != nil {
		return "", err
	}
	var keyword, escape string
	switch typ {
	case sqltypes.Date:
		keyword, escape = "date", "d"
	case sqltypes.Time, sqltypes.TimeWithTimezone:
		keyword, escape = "time", "t"
	default:
		keyword, escape = "timestamp", "ts"
	}
	switch r.caps.TemporalLiteral {
	case dialects.TemporalCast:
		ct, err := r.d.CastType(typ, sqltypes.Size{})
		if err != nil {
			return "", err
		}
		return "cast('" + text + "' as " + ct + ")", nil
	case dialects.TemporalPlain:
		return "'" + text + "'", nil
	case dialects.TemporalEscape:
		return "{" + escape + " '" + text + "'}", nil
	}
	return keyword + " '" + text + "'", nil
}

// intConstant returns the value of an integer literal or parameter.
func intConstant(e ast.Expression) (int64, bool) {
	var v any
	switch e := e.(type) {
	case *ast.Literal:
		v = e.Value
	case *ast.Parameter:
		v = e.Value
	default:
		return 0, false
	}
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	}
	return 0, false
}
