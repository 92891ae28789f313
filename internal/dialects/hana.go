package dialects

import (
	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/function"
	"github.com/coregx/sqldialect/internal/pagination"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func init() {
	Register(HANA, V(2, 0, 70), "hana", "hdb")
}

// HANA 2.0 support package stacks are versioned 2.0.<sps*10>.
var hanaGates = []gate{
	{V(2, 0, 30), func(d *Dialect) {
		d.caps.ForShare = " for share lock"
		d.caps.SkipLocked = " ignore locked"
	}},
	{V(2, 0, 40), func(d *Dialect) {
		d.caps.Aggregate = aggregate.FormatJSON
	}},
}

// HANA builds the SAP HANA dialect.
func HANA(v Version, opts ...Option) (*Dialect, error) {
	d := newDialect("hana", v, sqlerr.HANA())

	c := &d.caps
	c.NullsOrdering = true
	c.NullsSortHigh = false
	c.FromDual = "sys.dummy"
	c.RecursiveCTE = false
	c.RecursiveKeyword = false
	c.RecursiveCTEWidening = false
	c.MaxVarcharLength = 5000
	c.MultiRowValues = false
	c.Conflict = ConflictMerge
	c.NoColumnsInsert = "values (default)"
	c.ForShare = ""
	c.NoWait = " nowait"
	c.WaitTemplate = " wait %d"
	c.LockTimeouts = true
	c.ForUpdateOf = false
	c.LockWithDistinct = false
	c.IfExists = false
	c.CascadeConstraints = " cascade"
	c.AddColumn = "add ("
	c.AddColumnSuffix = ")"
	c.CreateTempTable = "create local temporary column table"
	c.TempTablePrefix = "#"
	c.Aggregate = aggregate.FormatXML

	d.limit = pagination.LimitOffset{}

	d.columns.
		Put(sqltypes.Bit, "boolean").
		Put(sqltypes.TinyInt, "smallint").
		Put(sqltypes.Double, "double").
		Put(sqltypes.Numeric, "decimal($p,$s)").
		PutCapacity(sqltypes.VarChar, 5000, "varchar($l)").
		Put(sqltypes.VarChar, "clob").
		PutCapacity(sqltypes.NVarChar, 5000, "nvarchar($l)").
		Put(sqltypes.NVarChar, "nclob").
		Put(sqltypes.Binary, "varbinary($l)").
		PutCapacity(sqltypes.VarBinary, 5000, "varbinary($l)").
		Put(sqltypes.VarBinary, "blob").
		Put(sqltypes.TimestampWithTimezone, "timestamp").
		Put(sqltypes.TimestampUTC, "timestamp").
		Put(sqltypes.TimeWithTimezone, "time").
		Put(sqltypes.JSON, "nclob").
		Put(sqltypes.SQLXML, "nclob")

	d.functions.
		Pattern("locate", sqltypes.Integer, 2, "locate(?2,?1)").
		Named("length", "length", sqltypes.Integer, 1, 1).
		Named("ceiling", "ceil", sqltypes.Null, 1, 1).
		Custom("div", sqltypes.BigInt, 2, 2, function.IntegerDivision(function.DivideFloor)).
		Pattern("listagg", sqltypes.VarChar, 2, "string_agg(?1,?2)").
		Pattern("log10", sqltypes.Double, 1, "log(10,?1)").
		Pattern("truncate", sqltypes.Null, 2, "round(?1,?2,round_down)")

	d.sequences = SequenceSupport{
		Supported:       true,
		NextValue:       "%s.nextval",
		SelectNextValue: "select %s.nextval from sys.dummy",
		Create:          "create sequence %s start with %d increment by %d",
		Drop:            "drop sequence %s",
		Query:           "select sequence_name from sys.sequences",
	}
	d.identity = IdentityColumnSupport{
		Supported:     true,
		Column:        "generated by default as identity",
		KeepsDataType: true,
		Select:        "select current_identity_value() from sys.dummy",
	}
	return d.finish(hanaGates, opts)
}
