// Copyright (c) 2025 COREGX. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ast

import "github.com/coregx/sqldialect/internal/sqltypes"

// Column references a column, optionally qualified by a table alias.
type Column struct {
	Qualifier string
	Name      string
	Quoted    bool
	Type      sqltypes.Code
}

// Literal is a constant rendered inline. Type Null infers the type from Value.
type Literal struct {
	Value any
	Type  sqltypes.Code
}

// Parameter is a bound value rendered as a placeholder. Type Null infers the
// type from Value.
type Parameter struct {
	Name  string
	Value any
	Type  sqltypes.Code
}

// Func calls a registered function by its portable name.
type Func struct {
	Name     string
	Args     []Expression
	Distinct bool
}

// ArithmeticOp is a binary arithmetic operator.
type ArithmeticOp int

// Arithmetic operators.
const (
	Add ArithmeticOp = iota
	Subtract
	Multiply
	Divide
	Modulo
)

var arithmeticSQL = [...]string{"+", "-", "*", "/", "%"}

func (o ArithmeticOp) String() string {
	if int(o) < len(arithmeticSQL) {
		return arithmeticSQL[o]
	}
	return "?"
}

// Arithmetic is a binary arithmetic expression.
type Arithmetic struct {
	Op          ArithmeticOp
	Left, Right Expression
}

// Negate is unary minus.
type Negate struct {
	Expr Expression
}

// When is one branch of a searched CASE.
type When struct {
	Cond   Predicate
	Result Expression
}

// Case is a searched CASE expression.
type Case struct {
	Whens []When
	Else  Expression
}

// Cast converts Expr to Type.
type Cast struct {
	Expr Expression
	Type sqltypes.Code
	Size sqltypes.Size
}

// Subquery is a scalar subquery.
type Subquery struct {
	Query QueryPart
}

// Tuple is a row-value constructor, e.g. (a, b).
type Tuple struct {
	Items []Expression
}

// Star is * or alias.*.
type Star struct {
	Qualifier string
}

// Raw is a trusted SQL fragment. It is checked for dangerous patterns before
// it is rendered and can be used both as an expression and a predicate.
type Raw struct {
	SQL string
}

func (*Column) node()     {}
func (*Literal) node()    {}
func (*Parameter) node()  {}
func (*Func) node()       {}
func (*Arithmetic) node() {}
func (*Negate) node()     {}
func (*Case) node()       {}
func (*Cast) node()       {}
func (*Subquery) node()   {}
func (*Tuple) node()      {}
func (*Star) node()       {}
func (*Raw) node()        {}
func (*Excluded) node()   {}

func (*Column) expression()     {}
func (*Literal) expression()    {}
func (*Parameter) expression()  {}
func (*Func) expression()       {}
func (*Arithmetic) expression() {}
func (*Negate) expression()     {}
func (*Case) expression()       {}
func (*Cast) expression()       {}
func (*Subquery) expression()   {}
func (*Tuple) expression()      {}
func (*Star) expression()       {}
func (*Raw) expression()        {}
func (*Excluded) expression()   {}

// Col returns a column reference. A qualified name "u.id" is split at the
// first dot.
func Col(name string) *Column {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return &Column{Qualifier: name[:i], Name: name[i+1:]}
		}
	}
	return &Column{Name: name}
}

// TypedCol returns a column reference with a known type.
func TypedCol(name string, t sqltypes.Code) *Column {
	c := Col(name)
	c.Type = t
	return c
}

// Param returns a parameter whose type is inferred from v.
func Param(v any) *Parameter {
	return &Parameter{Value: v}
}

// Lit returns a literal whose type is inferred from v.
func Lit(v any) *Literal {
	return &Literal{Value: v}
}

// Call returns a function call.
func Call(name string, args ...Expression) *Func {
	return &Func{Name: name, Args: args}
}
