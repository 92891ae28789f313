package dialects

import (
	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func init() {
	Register(CockroachDB, V(23, 1), "cockroachdb", "cockroach")
}

var cockroachGates = []gate{
	{V(20, 1), func(d *Dialect) {
		d.caps.NoWait = " nowait"
	}},
	{V(23, 1), func(d *Dialect) {
		d.caps.SkipLocked = " skip locked"
	}},
}

// CockroachDB builds the CockroachDB dialect: PostgreSQL wire syntax with
// nulls sorting low and serialization failures reported as lock failures.
func CockroachDB(v Version, opts ...Option) (*Dialect, error) {
	d := newDialect("cockroachdb", v, sqlerr.CockroachDB())
	postgresBase(d)

	c := &d.caps
	c.NullsSortHigh = false
	c.NoWait = ""
	c.Conflict = ConflictOnConflict
	c.Aggregate = aggregate.FormatJSON
	c.Explain = ExplainText

	d.columns.
		Put(sqltypes.Duration, "interval").
		Put(sqltypes.SQLXML, "text")

	d.sequences.Query = "select sequence_name from information_schema.sequences"
	d.identity = IdentityColumnSupport{
		Supported:     true,
		Column:        "generated by default as identity",
		KeepsDataType: true,
		Select:        "select lastval()",
		InsertValue:   "default",
	}
	return d.finish(cockroachGates, opts)
}
