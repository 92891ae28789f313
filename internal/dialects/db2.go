package dialects

import (
	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/pagination"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func init() {
	Register(DB2, V(11, 5), "db2", "go_ibm_db")
}

var db2Gates = []gate{
	{V(11, 1), func(d *Dialect) {
		d.limit = pagination.OffsetFetch{}
		d.caps.BooleanLiterals = true
		d.columns.Put(sqltypes.Boolean, "boolean")
	}},
}

// DB2 builds the DB2 for Linux, Unix and Windows dialect.
func DB2(v Version, opts ...Option) (*Dialect, error) {
	d := newDialect("db2", v, sqlerr.DB2())

	c := &d.caps
	c.NullsOrdering = true
	c.RowValues = true
	c.BooleanLiterals = false
	c.BinaryLiteral = BinaryBX
	c.FromDual = "sysibm.sysdummy1"
	c.Lateral = true
	c.SetOpAll = true
	c.RecursiveKeyword = false
	c.MaxVarcharLength = 32672
	c.Conflict = ConflictMerge
	c.NoColumnsInsert = "values (default)"
	c.ForUpdate = " for read only with rs use and keep update locks"
	c.ForShare = " for read only with rs use and keep share locks"
	c.SkipLocked = " skip locked data"
	c.ForUpdateOf = false
	c.IfExists = false
	c.CreateTempTable = "declare global temporary table"
	c.TempTablePrefix = "session."
	c.TempTableSuffix = " not logged"
	c.Aggregate = aggregate.FormatXML

	d.limit = pagination.FetchFirst{}

	d.columns.
		Put(sqltypes.Bit, "smallint").
		Put(sqltypes.Boolean, "smallint").
		Put(sqltypes.TinyInt, "smallint").
		Put(sqltypes.Double, "double").
		Put(sqltypes.Numeric, "decimal($p,$s)").
		PutCapacity(sqltypes.VarChar, 32672, "varchar($l)").
		Put(sqltypes.VarChar, "clob").
		PutCapacity(sqltypes.NVarChar, 16336, "nvarchar($l)").
		Put(sqltypes.NVarChar, "nclob").
		PutCapacity(sqltypes.VarBinary, 32672, "varbinary($l)").
		Put(sqltypes.VarBinary, "blob").
		Put(sqltypes.TimestampWithTimezone, "timestamp").
		Put(sqltypes.TimestampUTC, "timestamp").
		Put(sqltypes.TimeWithTimezone, "time").
		Put(sqltypes.JSON, "clob").
		Put(sqltypes.Duration, "decimal(31,9)")

	d.functions.
		Pattern("locate", sqltypes.Integer, 2, "locate(?1,?2)").
		Named("length", "length", sqltypes.Integer, 1, 1).
		Pattern("listagg", sqltypes.VarChar, 2, "listagg(?1,?2)").
		Named("log10", "log10", sqltypes.Double, 1, 1).
		Pattern("truncate", sqltypes.Null, 2, "trunc(?1,?2)")

	d.sequences = SequenceSupport{
		Supported:       true,
		NextValue:       "next value for %s",
		SelectNextValue: "values next value for %s",
		Create:          "create sequence %s start with %d increment by %d",
		Drop:            "drop sequence %s",
		Query:           "select seqname from syscat.sequences",
	}
	d.identity = IdentityColumnSupport{
		Supported:     true,
		Column:        "generated by default as identity",
		KeepsDataType: true,
		Select:        "values identity_val_local()",
		InsertValue:   "default",
	}
	return d.finish(db2Gates, opts)
}
