package ast

// CompareOp is a comparison operator.
type CompareOp int

// Comparison operators.
const (
	Eq CompareOp = iota
	NotEq
	Lt
	LtEq
	Gt
	GtEq
)

var compareSQL = [...]string{"=", "<>", "<", "<=", ">", ">="}

func (o CompareOp) String() string {
	if int(o) < len(compareSQL) {
		return compareSQL[o]
	}
	return "?"
}

// Ordering reports whether o is one of <, <=, > or >=.
func (o CompareOp) Ordering() bool { return o >= Lt }

// Comparison compares two expressions (or two tuples).
type Comparison struct {
	Left  Expression
	Op    CompareOp
	Right Expression
}

// JunctionOp joins predicates.
type JunctionOp int

// Junction operators.
const (
	And JunctionOp = iota
	Or
)

// Junction is a conjunction or disjunction. An empty And is true, an empty Or
// is false.
type Junction struct {
	Op    JunctionOp
	Items []Predicate
}

// Not negates a predicate.
type Not struct {
	Pred Predicate
}

// IsNull tests for NULL.
type IsNull struct {
	Expr    Expression
	Negated bool
}

// Like is a pattern match. Escape is the escape character (0 for none).
type Like struct {
	Expr            Expression
	Pattern         Expression
	Escape          rune
	CaseInsensitive bool
	Negated         bool
}

// InList tests membership in a list of expressions.
type InList struct {
	Expr    Expression
	List    []Expression
	Negated bool
}

// InSubquery tests membership in a subquery result.
type InSubquery struct {
	Expr    Expression
	Query   QueryPart
	Negated bool
}

// Exists tests whether a subquery returns rows.
type Exists struct {
	Query   QueryPart
	Negated bool
}

// Between tests Low <= Expr <= High.
type Between struct {
	Expr      Expression
	Low, High Expression
	Negated   bool
}

// BooleanExpr uses a boolean-valued expression as a predicate.
type BooleanExpr struct {
	Expr Expression
}

func (*Comparison) node()  {}
func (*Junction) node()    {}
func (*Not) node()         {}
func (*IsNull) node()      {}
func (*Like) node()        {}
func (*InList) node()      {}
func (*InSubquery) node()  {}
func (*Exists) node()      {}
func (*Between) node()     {}
func (*BooleanExpr) node() {}

func (*Comparison) predicate()  {}
func (*Junction) predicate()    {}
func (*Not) predicate()         {}
func (*IsNull) predicate()      {}
func (*Like) predicate()        {}
func (*InList) predicate()      {}
func (*InSubquery) predicate()  {}
func (*Exists) predicate()      {}
func (*Between) predicate()     {}
func (*BooleanExpr) predicate() {}
func (*Raw) predicate()         {}

// Equal returns left = right.
func Equal(left, right Expression) *Comparison {
	return &Comparison{Left: left, Op: Eq, Right: right}
}

// AllOf returns the conjunction of preds.
func AllOf(preds ...Predicate) *Junction {
	return &Junction{Op: And, Items: preds}
}

// AnyOf returns the disjunction of preds.
func AnyOf(preds ...Predicate) *Junction {
	return &Junction{Op: Or, Items: preds}
}
