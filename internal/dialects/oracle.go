package dialects

import (
	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/function"
	"github.com/coregx/sqldialect/internal/pagination"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func init() {
	Register(Oracle, V(19), "oracle", "godror", "oci8")
}

var oracleGates = []gate{
	{V(12, 1), func(d *Dialect) {
		d.limit = pagination.OffsetFetch{}
		d.caps.Lateral = true
		d.identity = IdentityColumnSupport{
			Supported:     true,
			Column:        "generated as identity",
			KeepsDataType: true,
		}
	}},
	{V(21), func(d *Dialect) {
		d.caps.ExceptKeyword = "except"
		d.caps.SetOpAll = true
		d.caps.Aggregate = aggregate.FormatJSON
		d.columns.Put(sqltypes.JSON, "json")
	}},
	{V(23), func(d *Dialect) {
		c := &d.caps
		c.BooleanLiterals = true
		c.FromDual = ""
		c.MultiRowValues = true
		c.IfExists = true
		d.columns.Put(sqltypes.Boolean, "boolean")
		d.sequences.Drop = "drop sequence if exists %s"
	}},
}

// Oracle builds the Oracle dialect. Before 12c pagination is emulated with
// rownum, and locks on paginated queries are always taken in a follow-on step.
func Oracle(v Version, opts ...Option) (*Dialect, error) {
	d := newDialect("oracle", v, sqlerr.Oracle())

	c := &d.caps
	c.Placeholders = PlaceholderColon
	c.NullsOrdering = true
	c.BooleanLiterals = false
	c.BinaryLiteral = BinaryHexToRaw
	c.FromDual = "dual"
	c.ExceptKeyword = "minus"
	c.RecursiveKeyword = false
	c.MultiRowValues = false
	c.Conflict = ConflictMerge
	c.NoColumnsInsert = "values (default)"
	c.ForShare = ""
	c.NoWait = " nowait"
	c.SkipLocked = " skip locked"
	c.WaitTemplate = " wait %d"
	c.LockTimeouts = true
	c.ForUpdateOf = false
	c.LockWithPagination = false
	c.IfExists = false
	c.CascadeConstraints = " cascade constraints"
	c.AddColumn = "add"
	c.CreateTempTable = "create global temporary table"
	c.TempTableSuffix = " on commit delete rows"
	c.Hints = HintComment
	c.Aggregate = aggregate.FormatXML

	d.limit = pagination.Rownum{}

	d.columns.
		Put(sqltypes.Bit, "number(1,0)").
		Put(sqltypes.Boolean, "number(1,0)").
		Put(sqltypes.TinyInt, "number(3,0)").
		Put(sqltypes.SmallInt, "number(5,0)").
		Put(sqltypes.Integer, "number(10,0)").
		Put(sqltypes.BigInt, "number(19,0)").
		Put(sqltypes.Real, "binary_float").
		Put(sqltypes.Double, "binary_double").
		Put(sqltypes.Numeric, "number($p,$s)").
		Put(sqltypes.Decimal, "number($p,$s)").
		Put(sqltypes.Char, "char($l char)").
		PutCapacity(sqltypes.VarChar, 4000, "varchar2($l char)").
		Put(sqltypes.VarChar, "clob").
		PutCapacity(sqltypes.NVarChar, 4000, "nvarchar2($l)").
		Put(sqltypes.NVarChar, "nclob").
		Put(sqltypes.Time, "date").
		Put(sqltypes.TimeWithTimezone, "timestamp with time zone").
		PutCapacity(sqltypes.Binary, 2000, "raw($l)").
		Put(sqltypes.Binary, "blob").
		PutCapacity(sqltypes.VarBinary, 2000, "raw($l)").
		Put(sqltypes.VarBinary, "blob").
		Put(sqltypes.JSON, "clob").
		Put(sqltypes.SQLXML, "xmltype").
		Put(sqltypes.Duration, "interval day to second")

	d.functions.
		Remove("current_time").
		Pattern("locate", sqltypes.Integer, 2, "instr(?2,?1)").
		Custom("substring", sqltypes.VarChar, 2, 3, function.Overloaded{
			2: function.MustParseTemplate("substr(?1,?2)", 2),
			3: function.MustParseTemplate("substr(?1,?2,?3)", 3),
		}).
		Named("length", "length", sqltypes.Integer, 1, 1).
		Named("ceiling", "ceil", sqltypes.Null, 1, 1).
		Custom("div", sqltypes.BigInt, 2, 2, function.IntegerDivision(function.DivideTrunc)).
		Pattern("listagg", sqltypes.VarChar, 2, "listagg(?1,?2) within group (order by ?1)").
		Pattern("log10", sqltypes.Double, 1, "log(10,?1)").
		Pattern("truncate", sqltypes.Null, 2, "trunc(?1,?2)")

	d.sequences = SequenceSupport{
		Supported:       true,
		NextValue:       "%s.nextval",
		SelectNextValue: "select %s.nextval from dual",
		Create:          "create sequence %s start with %d increment by %d",
		Drop:            "drop sequence %s",
		Query:           "select * from all_sequences",
	}
	return d.finish(oracleGates, opts)
}
