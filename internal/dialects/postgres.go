package dialects

import (
	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/pagination"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func init() {
	Register(PostgreSQL, V(12), "postgresql", "postgres", "pgx")
}

var postgresGates = []gate{
	{V(9, 5), func(d *Dialect) {
		d.caps.SkipLocked = " skip locked"
		d.caps.Conflict = ConflictOnConflict
	}},
	{V(10), func(d *Dialect) {
		d.identity.Column = "generated by default as identity"
		d.identity.KeepsDataType = true
	}},
}

// PostgreSQL builds the PostgreSQL dialect.
func PostgreSQL(v Version, opts ...Option) (*Dialect, error) {
	d := newDialect("postgresql", v, sqlerr.PostgreSQL())
	postgresBase(d)
	return d.finish(postgresGates, opts)
}

// postgresBase configures the PostgreSQL family; CockroachDB starts here too.
func postgresBase(d *Dialect) {
	c := &d.caps
	c.IdentifierCase = CaseLower
	c.Placeholders = PlaceholderDollar
	c.NullsOrdering = true
	c.NullsSortHigh = true
	c.CaseInsensitiveLike = true
	c.RowValues = true
	c.BinaryLiteral = BinaryBytea
	c.Lateral = true
	c.SetOpAll = true
	c.MaxVarcharLength = 10485760
	c.Returning = ReturningClause
	c.NoWait = " nowait"
	c.LockWithDistinct = false
	c.CascadeConstraints = " cascade"
	c.Aggregate = aggregate.FormatStruct
	c.Explain = ExplainJSON

	d.limit = pagination.LimitOffset{}

	d.columns.
		Put(sqltypes.TinyInt, "smallint").
		Put(sqltypes.Double, "float(53)").
		PutCapacity(sqltypes.VarChar, 10485760, "varchar($l)").
		Put(sqltypes.VarChar, "text").
		Put(sqltypes.LongVarChar, "text").
		Put(sqltypes.NChar, "char($l)").
		Put(sqltypes.NVarChar, "varchar($l)").
		Put(sqltypes.LongNVarChar, "text").
		Put(sqltypes.Clob, "text").
		Put(sqltypes.NClob, "text").
		Put(sqltypes.Binary, "bytea").
		Put(sqltypes.VarBinary, "bytea").
		Put(sqltypes.LongVarBinary, "bytea").
		Put(sqltypes.Blob, "bytea").
		Put(sqltypes.UUID, "uuid").
		Put(sqltypes.JSON, "jsonb").
		Put(sqltypes.Duration, "interval second($s)")

	d.functions.
		Pattern("listagg", sqltypes.VarChar, 2, "string_agg(?1,?2)").
		Named("log10", "log", sqltypes.Double, 1, 1).
		Pattern("truncate", sqltypes.Null, 2, "trunc(?1,?2)")

	d.sequences = SequenceSupport{
		Supported:       true,
		NextValue:       "nextval('%s')",
		SelectNextValue: "select nextval('%s')",
		Create:          "create sequence %s start %d increment %d",
		Drop:            "drop sequence if exists %s",
		Query:           "select * from information_schema.sequences",
	}
	d.identity = IdentityColumnSupport{
		Supported:   true,
		Column:      "serial not null",
		Select:      "select currval(pg_get_serial_sequence('{table}','{column}'))",
		InsertValue: "default",
	}
}
