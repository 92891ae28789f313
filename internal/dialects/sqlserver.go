package dialects

import (
	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/function"
	"github.com/coregx/sqldialect/internal/pagination"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func init() {
	Register(SQLServer, V(16), "sqlserver", "mssql")
}

// SQL Server major versions: 10 is 2008, 11 is 2012, 13 is 2016, 14 is 2017.
var sqlServerGates = []gate{
	{V(11), func(d *Dialect) {
		d.limit = pagination.OffsetFetch{RequireOrder: true}
		d.caps.LockWithPagination = true
		d.sequences = SequenceSupport{
			Supported:       true,
			NextValue:       "next value for %s",
			SelectNextValue: "select next value for %s",
			Create:          "create sequence %s start with %d increment by %d",
			Drop:            "drop sequence %s",
			Query:           "select * from sys.sequences",
		}
	}},
	{V(13), func(d *Dialect) {
		d.caps.IfExists = true
		d.caps.Aggregate = aggregate.FormatJSON
		d.sequences.Drop = "drop sequence if exists %s"
	}},
	{V(14), func(d *Dialect) {
		d.functions.
			Pattern("trim", sqltypes.VarChar, 1, "trim(?1)").
			Pattern("listagg", sqltypes.VarChar, 2, "string_agg(?1,?2)")
	}},
}

// SQLServer builds the SQL Server dialect. Row locks are table hints.
func SQLServer(v Version, opts ...Option) (*Dialect, error) {
	d := newDialect("sqlserver", v, sqlerr.SQLServer())

	c := &d.caps
	c.Quote = QuoteBracket
	c.IdentifierCase = CaseMixed
	c.Placeholders = PlaceholderAtP
	c.NullsSortHigh = false
	c.BooleanLiterals = false
	c.TemporalLiteral = TemporalCast
	c.BinaryLiteral = Binary0x
	c.RecursiveKeyword = false
	c.MaxVarcharLength = 8000
	c.Conflict = ConflictMerge
	c.MergeTerminate = true
	c.Returning = ReturningOutput
	c.DMLTargetAlias = false
	c.Lock = LockHint
	c.ForUpdate = ""
	c.ForShare = ""
	c.ForUpdateOf = false
	c.LockWithPagination = false
	c.LockWithDistinct = true
	c.IfExists = false
	c.AddColumn = "add"
	c.CreateTempTable = "create table"
	c.TempTablePrefix = "#"
	c.Hints = HintOption
	c.Aggregate = aggregate.FormatXML

	d.limit = pagination.Top{Parens: true}

	d.columns.
		Put(sqltypes.Boolean, "bit").
		Put(sqltypes.TinyInt, "smallint").
		Put(sqltypes.Float, "float").
		Put(sqltypes.Double, "float").
		PutCapacity(sqltypes.VarChar, 8000, "varchar($l)").
		Put(sqltypes.VarChar, "varchar(max)").
		PutCapacity(sqltypes.NVarChar, 4000, "nvarchar($l)").
		Put(sqltypes.NVarChar, "nvarchar(max)").
		Put(sqltypes.LongVarChar, "varchar(max)").
		Put(sqltypes.LongNVarChar, "nvarchar(max)").
		Put(sqltypes.Clob, "varchar(max)").
		Put(sqltypes.NClob, "nvarchar(max)").
		PutCapacity(sqltypes.VarBinary, 8000, "varbinary($l)").
		Put(sqltypes.VarBinary, "varbinary(max)").
		Put(sqltypes.LongVarBinary, "varbinary(max)").
		Put(sqltypes.Blob, "varbinary(max)").
		Put(sqltypes.Timestamp, "datetime2").
		Put(sqltypes.TimestampWithTimezone, "datetimeoffset").
		Put(sqltypes.TimestampUTC, "datetimeoffset").
		Put(sqltypes.TimeWithTimezone, "time").
		Put(sqltypes.UUID, "uniqueidentifier").
		Put(sqltypes.JSON, "nvarchar(max)")

	d.functions.
		VarArgs("concat", sqltypes.VarChar, 1, function.VarArgs{Prefix: "(", Separator: "+", Suffix: ")"}).
		Pattern("locate", sqltypes.Integer, 2, "charindex(?1,?2)").
		Named("length", "len", sqltypes.Integer, 1, 1).
		Custom("substring", sqltypes.VarChar, 2, 3, function.Overloaded{
			2: function.MustParseTemplate("substring(?1,?2,len(?1))", 2),
			3: function.MustParseTemplate("substring(?1,?2,?3)", 3),
		}).
		Named("ln", "log", sqltypes.Double, 1, 1).
		Pattern("mod", sqltypes.Integer, 2, "(?1 % ?2)").
		NoArgs("current_date", "convert(date,getdate())", sqltypes.Date, false).
		NoArgs("current_time", "convert(time,getdate())", sqltypes.Time, false).
		NoArgs("current_timestamp", "sysdatetimeoffset", sqltypes.TimestampWithTimezone, true).
		Pattern("trim", sqltypes.VarChar, 1, "ltrim(rtrim(?1))").
		Named("log10", "log10", sqltypes.Double, 1, 1).
		Pattern("truncate", sqltypes.Null, 2, "round(?1,?2,1)")

	d.identity = IdentityColumnSupport{
		Supported:     true,
		Column:        "identity not null",
		KeepsDataType: true,
		Select:        "select scope_identity()",
	}
	return d.finish(sqlServerGates, opts)
}
