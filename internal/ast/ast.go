// Package ast defines the database-agnostic statement tree consumed by the
// translator. The node sets are closed: every interface carries an unexported
// marker method, so only the variants declared here can appear in a tree.
package ast

import (
	"github.com/coregx/sqldialect/internal/locking"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

// Node is any element of a statement tree.
type Node interface {
	node()
}

// Statement is a complete SQL statement.
type Statement interface {
	Node
	statement()
}

// QueryPart is a query expression: a single query specification or a set
// operation over several.
type QueryPart interface {
	Node
	queryPart()
}

// TableRef is an element of a FROM clause.
type TableRef interface {
	Node
	tableRef()
}

// Expression is a value-producing node.
type Expression interface {
	Node
	expression()
}

// Predicate is a boolean condition.
type Predicate interface {
	Node
	predicate()
}

// Select is a query statement.
type Select struct {
	With  *With
	Query QueryPart
	// Lock requests row locks on the rows the root query returns.
	Lock *Lock
}

// With is a WITH clause.
type With struct {
	Recursive bool
	CTEs      []CTE
}

// CTE is one common table expression.
type CTE struct {
	Name    string
	Columns []CTEColumn
	Query   QueryPart
}

// CTEColumn names a CTE column. Type, when set, is the column's declared
// type; character columns of recursive CTEs are widened to the dialect's
// maximum varchar length in the anchor member.
type CTEColumn struct {
	Name string
	Type sqltypes.Code
}

// Lock is a row-lock request.
type Lock struct {
	Mode locking.Mode
	// Timeout in milliseconds, or locking.NoWait, locking.WaitForever,
	// locking.SkipLocked.
	Timeout int
	// Of restricts the lock to the listed table aliases.
	Of []string
}

// SetOperator combines query parts.
type SetOperator int

// Set operators.
const (
	Union SetOperator = iota
	UnionAll
	Intersect
	IntersectAll
	Except
	ExceptAll
)

var setOperatorSQL = [...]string{"union", "union all", "intersect", "intersect all", "except", "except all"}

func (o SetOperator) String() string {
	if int(o) < len(setOperatorSQL) {
		return setOperatorSQL[o]
	}
	return "unknown"
}

// QuerySpec is a single SELECT ... FROM ... query specification.
type QuerySpec struct {
	Distinct bool
	Select   []SelectItem
	From     []TableRef
	Where    Predicate
	GroupBy  []Expression
	Having   Predicate
	OrderBy  []SortSpec
	Offset   Expression
	Fetch    Expression
	// Hints are vendor optimizer hints, e.g. "index(u idx_users_email)".
	Hints []string
}

// SelectItem is one projected expression.
type SelectItem struct {
	Expr  Expression
	Alias string
}

// QueryGroup is a set operation over two or more parts.
type QueryGroup struct {
	Op      SetOperator
	Parts   []QueryPart
	OrderBy []SortSpec
	Offset  Expression
	Fetch   Expression
}

// NullPrecedence orders NULLs within a sort key.
type NullPrecedence int

// Null precedences.
const (
	NullsDefault NullPrecedence = iota
	NullsFirst
	NullsLast
)

// SortSpec is one ORDER BY key.
type SortSpec struct {
	Expr  Expression
	Desc  bool
	Nulls NullPrecedence
}

// Table is a named table.
type Table struct {
	Schema string
	Name   string
	Alias  string
	Quoted bool
}

// Derived is a subquery in FROM.
type Derived struct {
	Query   QueryPart
	Alias   string
	Columns []string
	Lateral bool
}

// JoinType is the kind of a join.
type JoinType int

// Join types.
const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

var joinSQL = [...]string{"join", "left join", "right join", "full join", "cross join"}

func (j JoinType) String() string {
	if int(j) < len(joinSQL) {
		return joinSQL[j]
	}
	return "unknown"
}

// Join joins two table references.
type Join struct {
	Left  TableRef
	Type  JoinType
	Right TableRef
	On    Predicate
}

// Assignment is a column = value pair.
type Assignment struct {
	Column string
	Value  Expression
}

// Insert inserts either Values rows or the rows of Source.
type Insert struct {
	With      *With
	Table     Table
	Columns   []string
	Values    [][]Expression
	Source    QueryPart
	Conflict  *Conflict
	Returning []Expression
}

// Conflict is an upsert clause. With DoNothing set the conflicting row is kept;
// otherwise Set is applied to it. Columns (or Constraint) identify the unique
// key on dialects that need it.
type Conflict struct {
	Columns    []string
	Constraint string
	DoNothing  bool
	Set        []Assignment
	Where      Predicate
}

// Excluded refers to the value proposed for column in an upsert's Set.
type Excluded struct {
	Column string
}

// Update updates rows of Table.
type Update struct {
	Table     Table
	Set       []Assignment
	Where     Predicate
	Returning []Expression
}

// Delete deletes rows of Table.
type Delete struct {
	Table     Table
	Where     Predicate
	Returning []Expression
}

func (*Select) node()     {}
func (*Insert) node()     {}
func (*Update) node()     {}
func (*Delete) node()     {}
func (*QuerySpec) node()  {}
func (*QueryGroup) node() {}
func (*Table) node()      {}
func (*Derived) node()    {}
func (*Join) node()       {}

func (*Select) statement() {}
func (*Insert) statement() {}
func (*Update) statement() {}
func (*Delete) statement() {}

func (*QuerySpec) queryPart()  {}
func (*QueryGroup) queryPart() {}

func (*Table) tableRef()   {}
func (*Derived) tableRef() {}
func (*Join) tableRef()    {}

// Operation returns the upper-case SQL verb of s, e.g. "SELECT".
func Operation(s Statement) string {
	switch s.(type) {
	case *Select:
		return "SELECT"
	case *Insert:
		return "INSERT"
	case *Update:
		return "UPDATE"
	case *Delete:
		return "DELETE"
	}
	return "UNKNOWN"
}
