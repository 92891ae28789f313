package dialects

import (
	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/function"
	"github.com/coregx/sqldialect/internal/pagination"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func init() {
	Register(MySQL, V(8), "mysql", "mariadb")
}

// mysqlMaxVarchar is 65535 bytes over four bytes per utf8mb4 character.
const mysqlMaxVarchar = 16383

var mysqlGates = []gate{
	{V(8), func(d *Dialect) {
		c := &d.caps
		c.WindowFunctions = true
		c.CTE = true
		c.RecursiveCTE = true
		c.ForShare = " for share"
		c.NoWait = " nowait"
		c.SkipLocked = " skip locked"
		c.ForUpdateOf = true
	}},
	{V(8, 0, 14), func(d *Dialect) { d.caps.Lateral = true }},
	{V(8, 0, 16), func(d *Dialect) { d.caps.ColumnCheck = true }},
	{V(8, 0, 19), func(d *Dialect) { d.caps.ConflictAlias = true }},
	{V(8, 0, 31), func(d *Dialect) {
		d.caps.Intersect = true
		d.caps.SetOpAll = true
	}},
}

// MySQL builds the MySQL dialect.
func MySQL(v Version, opts ...Option) (*Dialect, error) {
	d := newDialect("mysql", v, sqlerr.MySQL())

	c := &d.caps
	c.Quote = QuoteBacktick
	c.Explain = ExplainTabular
	c.IdentifierCase = CaseMixed
	c.WindowFunctions = false
	c.NullsSortHigh = false
	c.RowValues = true
	c.BackslashEscape = true
	c.FullJoin = false
	c.Intersect = false
	c.CTE = false
	c.RecursiveCTE = false
	c.MaxVarcharLength = mysqlMaxVarchar
	c.Conflict = ConflictOnDuplicateKey
	c.NoColumnsInsert = "() values ()"
	c.ForShare = " lock in share mode"
	c.ForUpdateOf = false
	c.LockWithDistinct = true
	c.DropForeignKey = "drop foreign key"
	c.DropTempTable = "drop temporary table"
	c.ColumnCheck = false
	c.Hints = HintComment
	c.Aggregate = aggregate.FormatJSON

	d.limit = pagination.LimitComma{}

	d.columns.
		Put(sqltypes.Boolean, "bit").
		Put(sqltypes.Float, "float").
		Put(sqltypes.Numeric, "decimal($p,$s)").
		PutCapacity(sqltypes.VarChar, mysqlMaxVarchar, "varchar($l)").
		PutCapacity(sqltypes.VarChar, 65535, "text").
		PutCapacity(sqltypes.VarChar, 16777215, "mediumtext").
		Put(sqltypes.VarChar, "longtext").
		PutCapacity(sqltypes.NVarChar, mysqlMaxVarchar, "varchar($l)").
		Put(sqltypes.NVarChar, "longtext").
		Put(sqltypes.NChar, "char($l)").
		Put(sqltypes.LongVarChar, "longtext").
		Put(sqltypes.LongNVarChar, "longtext").
		Put(sqltypes.Clob, "longtext").
		Put(sqltypes.NClob, "longtext").
		PutCapacity(sqltypes.VarBinary, 65535, "varbinary($l)").
		PutCapacity(sqltypes.VarBinary, 16777215, "mediumblob").
		Put(sqltypes.VarBinary, "longblob").
		Put(sqltypes.LongVarBinary, "longblob").
		Put(sqltypes.Blob, "longblob").
		Put(sqltypes.Timestamp, "datetime(6)").
		Put(sqltypes.TimestampWithTimezone, "timestamp(6)").
		Put(sqltypes.TimestampUTC, "timestamp(6)").
		Put(sqltypes.TimeWithTimezone, "time").
		Put(sqltypes.SQLXML, "longtext")

	d.casts.
		Put(sqltypes.TinyInt, "signed").
		Put(sqltypes.SmallInt, "signed").
		Put(sqltypes.Integer, "signed").
		Put(sqltypes.BigInt, "signed").
		Put(sqltypes.Char, "char($l)").
		Put(sqltypes.VarChar, "char($l)").
		Put(sqltypes.NVarChar, "char($l)").
		Put(sqltypes.LongVarChar, "char").
		Put(sqltypes.Clob, "char").
		Put(sqltypes.Float, "double").
		Put(sqltypes.Double, "double").
		Put(sqltypes.Numeric, "decimal($p,$s)").
		Put(sqltypes.Timestamp, "datetime(6)").
		Put(sqltypes.Binary, "binary($l)").
		Put(sqltypes.VarBinary, "binary($l)")

	d.functions.
		VarArgs("concat", sqltypes.VarChar, 1, function.VarArgs{Prefix: "concat(", Separator: ",", Suffix: ")"}).
		Pattern("locate", sqltypes.Integer, 2, "locate(?1,?2)").
		Named("length", "char_length", sqltypes.Integer, 1, 1).
		Custom("div", sqltypes.BigInt, 2, 2, function.IntegerDivision(function.DivideKeyword)).
		Pattern("listagg", sqltypes.VarChar, 2, "group_concat(?1 separator ?2)").
		Named("log10", "log10", sqltypes.Double, 1, 1).
		Named("truncate", "truncate", sqltypes.Null, 2, 2)

	d.identity = IdentityColumnSupport{
		Supported:     true,
		Column:        "auto_increment",
		KeepsDataType: true,
		Select:        "select last_insert_id()",
	}
	return d.finish(mysqlGates, opts)
}
