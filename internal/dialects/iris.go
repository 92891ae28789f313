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
	Register(IRIS, V(2023, 1), "iris", "intersystems")
}

// irisSequences emulates sequences with the InterSystems.Sequences table.
// The vendor recommends identity columns instead, so it is opt-in.
var irisSequences = SequenceSupport{
	Supported:       true,
	NextValue:       "(select InterSystems.Sequences_GetNext('%[1]s') from InterSystems.Sequences where ucase(name)=ucase('%[1]s'))",
	SelectNextValue: "select InterSystems.Sequences_GetNext('%[1]s') from InterSystems.Sequences where ucase(name)=ucase('%[1]s')",
	Create:          "insert into InterSystems.Sequences(Name) values (ucase('%s'))",
	Drop:            "delete from InterSystems.Sequences where ucase(name)=ucase('%s')",
	Query:           "select name from InterSystems.Sequences",
}

// IRIS builds the InterSystems IRIS dialect. TOP is the only native
// pagination; offsets are emulated and row locks are replaced by version
// updates.
func IRIS(v Version, opts ...Option) (*Dialect, error) {
	d := newDialect("iris", v, sqlerr.IRIS())

	c := &d.caps
	c.NullsSortHigh = false
	c.BooleanLiterals = false
	c.TemporalLiteral = TemporalEscape
	c.FullJoin = false
	c.Intersect = false
	c.RecursiveCTE = false
	c.RecursiveCTEWidening = false
	c.MultiRowValues = false
	c.DMLTargetAlias = false
	c.Lock = LockNone
	c.ForUpdate = ""
	c.ForShare = ""
	c.ForUpdateOf = false
	c.LockWithPagination = false
	c.IfExists = false
	c.CascadeConstraints = ""
	c.CreateTempTable = "create global temporary table"
	c.Aggregate = aggregate.FormatXML

	d.limit = pagination.Top{ParamsFirst: true, MaxForLimit: true}
	d.selector = locking.UpdateSelector

	d.columns.
		Put(sqltypes.Boolean, "bit").
		Put(sqltypes.BigInt, "bigint").
		Put(sqltypes.Double, "double").
		Put(sqltypes.Clob, "longvarchar").
		Put(sqltypes.LongVarChar, "longvarchar").
		Put(sqltypes.NClob, "longvarchar").
		Put(sqltypes.VarBinary, "longvarbinary").
		Put(sqltypes.LongVarBinary, "longvarbinary").
		Put(sqltypes.Blob, "longvarbinary").
		Put(sqltypes.TimestampWithTimezone, "timestamp").
		Put(sqltypes.TimestampUTC, "timestamp").
		Put(sqltypes.TimeWithTimezone, "time").
		Put(sqltypes.JSON, "longvarchar").
		Put(sqltypes.SQLXML, "longvarchar").
		Put(sqltypes.UUID, "varchar(36)")

	d.functions.
		Pattern("locate", sqltypes.Integer, 2, "$find(?2,?1)").
		Custom("div", sqltypes.BigInt, 2, 2, function.IntegerDivision(function.DivideFloor)).
		Pattern("bit_length", sqltypes.Integer, 1, "($length(?1)*8)").
		Pattern("str", sqltypes.VarChar, 1, "cast(?1 as char varying)").
		Named("log10", "log10", sqltypes.Double, 1, 1).
		Pattern("truncate", sqltypes.Null, 2, "truncate(?1,?2)")

	d.identity = IdentityColumnSupport{
		Supported: true,
		Column:    "identity",
		Select:    "select LAST_IDENTITY() from %TSQL_sys.snf",
	}
	seq := irisSequences
	d.seqEmulation = &seq
	return d.finish(nil, opts)
}
