package dialects

import (
	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/pagination"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func init() {
	Register(H2, V(2, 2, 224), "h2")
}

const h2MaxVarchar = 1048576

var h2Gates = []gate{
	{V(2, 2, 220), func(d *Dialect) {
		c := &d.caps
		c.NoWait = " nowait"
		c.SkipLocked = " skip locked"
		c.WaitTemplate = " wait %d"
		c.LockTimeouts = true
	}},
}

// H2 builds the H2 dialect.
func H2(v Version, opts ...Option) (*Dialect, error) {
	d := newDialect("h2", v, sqlerr.H2())

	c := &d.caps
	c.NullsOrdering = true
	c.NullsSortHigh = false
	c.CaseInsensitiveLike = true
	c.RowValues = true
	c.MaxVarcharLength = h2MaxVarchar
	c.Conflict = ConflictMerge
	c.ForShare = ""
	c.ForUpdateOf = false
	c.LockWithDistinct = false
	c.CascadeConstraints = " cascade"
	c.Explain = ExplainText
	c.CreateTempTable = "create local temporary table"
	c.Aggregate = aggregate.FormatJSON

	d.limit = pagination.OffsetFetch{}

	d.columns.
		PutCapacity(sqltypes.VarChar, h2MaxVarchar, "varchar($l)").
		Put(sqltypes.VarChar, "character large object").
		Put(sqltypes.LongVarChar, "character large object").
		PutCapacity(sqltypes.VarBinary, h2MaxVarchar, "varbinary($l)").
		Put(sqltypes.VarBinary, "blob").
		Put(sqltypes.UUID, "uuid").
		Put(sqltypes.SQLXML, "clob")

	d.functions.
		Pattern("locate", sqltypes.Integer, 2, "locate(?1,?2)").
		Pattern("listagg", sqltypes.VarChar, 2, "listagg(?1,?2)").
		Named("log10", "log10", sqltypes.Double, 1, 1).
		Pattern("truncate", sqltypes.Null, 2, "trunc(?1,?2)")

	d.sequences = SequenceSupport{
		Supported:       true,
		NextValue:       "next value for %s",
		SelectNextValue: "select next value for %s",
		Create:          "create sequence %s start with %d increment by %d",
		Drop:            "drop sequence if exists %s",
		Query:           "select * from information_schema.sequences",
	}
	d.identity = IdentityColumnSupport{
		Supported:     true,
		Column:        "generated by default as identity",
		KeepsDataType: true,
		InsertValue:   "default",
	}
	return d.finish(h2Gates, opts)
}
