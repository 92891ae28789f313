package dialects

import (
	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/function"
	"github.com/coregx/sqldialect/internal/locking"
	"github.com/coregx/sqldialect/internal/pagination"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func init() {
	Register(SQLite, V(3, 40), "sqlite", "sqlite3")
}

var sqliteGates = []gate{
	{V(3, 15), func(d *Dialect) { d.caps.RowValues = true }},
	{V(3, 23), func(d *Dialect) { d.caps.BooleanLiterals = true }},
	{V(3, 24), func(d *Dialect) { d.caps.Conflict = ConflictOnConflict }},
	{V(3, 25), func(d *Dialect) { d.caps.WindowFunctions = true }},
	{V(3, 30), func(d *Dialect) { d.caps.NullsOrdering = true }},
	{V(3, 35), func(d *Dialect) {
		d.caps.Returning = ReturningClause
		d.functions.
			Named("sqrt", "sqrt", sqltypes.Double, 1, 1).
			Named("exp", "exp", sqltypes.Double, 1, 1).
			Named("ln", "ln", sqltypes.Double, 1, 1).
			Named("power", "power", sqltypes.Double, 2, 2).
			Named("floor", "floor", sqltypes.Null, 1, 1).
			Named("ceiling", "ceiling", sqltypes.Null, 1, 1)
	}},
	{V(3, 39), func(d *Dialect) { d.caps.FullJoin = true }},
}

// SQLite builds the SQLite dialect. SQLite has no row locks; pessimistic
// modes are served by version updates.
func SQLite(v Version, opts ...Option) (*Dialect, error) {
	d := newDialect("sqlite", v, sqlerr.SQLite())

	c := &d.caps
	c.IdentifierCase = CaseMixed
	c.WindowFunctions = false
	c.NullsSortHigh = false
	c.EmptyInList = true
	c.BooleanLiterals = false
	c.TemporalLiteral = TemporalPlain
	c.FullJoin = false
	c.RecursiveCTEWidening = false
	c.MaxVarcharLength = 0
	c.DMLTargetAlias = false
	c.Explain = ExplainQueryPlan
	c.Lock = LockNone
	c.ForUpdate = ""
	c.ForShare = ""
	c.ForUpdateOf = false
	c.Aggregate = aggregate.FormatJSON

	d.limit = pagination.LimitOffset{OffsetOnlyLimit: "-1"}
	d.selector = locking.UpdateSelector

	d.columns.
		Put(sqltypes.Bit, "integer").
		Put(sqltypes.Numeric, "numeric($p,$s)").
		Put(sqltypes.LongVarChar, "text").
		Put(sqltypes.LongNVarChar, "text").
		Put(sqltypes.Clob, "text").
		Put(sqltypes.NClob, "text").
		Put(sqltypes.Binary, "blob").
		Put(sqltypes.VarBinary, "blob").
		Put(sqltypes.LongVarBinary, "blob").
		Put(sqltypes.TimestampWithTimezone, "timestamp").
		Put(sqltypes.TimestampUTC, "timestamp").
		Put(sqltypes.TimeWithTimezone, "time").
		Put(sqltypes.JSON, "text").
		Put(sqltypes.SQLXML, "text")

	d.casts.
		Put(sqltypes.Char, "text").
		Put(sqltypes.VarChar, "text").
		Put(sqltypes.NVarChar, "text").
		Put(sqltypes.Clob, "text").
		Put(sqltypes.Boolean, "integer").
		Put(sqltypes.TinyInt, "integer").
		Put(sqltypes.SmallInt, "integer").
		Put(sqltypes.Integer, "integer").
		Put(sqltypes.BigInt, "integer").
		Put(sqltypes.Numeric, "numeric").
		Put(sqltypes.Decimal, "numeric").
		Put(sqltypes.Float, "real").
		Put(sqltypes.Real, "real").
		Put(sqltypes.Double, "real").
		Put(sqltypes.Blob, "blob").
		Put(sqltypes.VarBinary, "blob")

	d.functions.
		Remove("sqrt", "exp", "ln", "power", "floor", "ceiling").
		Pattern("locate", sqltypes.Integer, 2, "instr(?2,?1)").
		Custom("substring", sqltypes.VarChar, 2, 3, function.Overloaded{
			2: function.MustParseTemplate("substr(?1,?2)", 2),
			3: function.MustParseTemplate("substr(?1,?2,?3)", 3),
		}).
		Named("length", "length", sqltypes.Integer, 1, 1).
		Pattern("mod", sqltypes.Integer, 2, "(?1 % ?2)").
		Pattern("listagg", sqltypes.VarChar, 2, "group_concat(?1,?2)")

	d.identity = IdentityColumnSupport{
		Supported:   true,
		Column:      "integer",
		Select:      "select last_insert_rowid()",
		InsertValue: "null",
	}
	return d.finish(sqliteGates, opts)
}
