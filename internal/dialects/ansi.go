package dialects

import "github.com/coregx/sqldialect/internal/sqltypes"

// standardColumns returns the ANSI column types every vendor starts from.
func standardColumns() *sqltypes.Registry {
	return sqltypes.NewRegistry().
		Put(sqltypes.Bit, "bit").
		Put(sqltypes.Boolean, "boolean").
		Put(sqltypes.TinyInt, "tinyint").
		Put(sqltypes.SmallInt, "smallint").
		Put(sqltypes.Integer, "integer").
		Put(sqltypes.BigInt, "bigint").
		Put(sqltypes.Float, "float($p)").
		Put(sqltypes.Real, "real").
		Put(sqltypes.Double, "double precision").
		Put(sqltypes.Numeric, "numeric($p,$s)").
		Put(sqltypes.Decimal, "decimal($p,$s)").
		Put(sqltypes.Char, "char($l)").
		Put(sqltypes.VarChar, "varchar($l)").
		Put(sqltypes.LongVarChar, "clob").
		Put(sqltypes.NChar, "nchar($l)").
		Put(sqltypes.NVarChar, "nvarchar($l)").
		Put(sqltypes.LongNVarChar, "nclob").
		Put(sqltypes.Date, "date").
		Put(sqltypes.Time, "time").
		Put(sqltypes.Timestamp, "timestamp").
		Put(sqltypes.TimeWithTimezone, "time with time zone").
		Put(sqltypes.TimestampWithTimezone, "timestamp with time zone").
		Put(sqltypes.TimestampUTC, "timestamp with time zone").
		Put(sqltypes.Binary, "binary($l)").
		Put(sqltypes.VarBinary, "varbinary($l)").
		Put(sqltypes.LongVarBinary, "blob").
		Put(sqltypes.Blob, "blob").
		Put(sqltypes.Clob, "clob").
		Put(sqltypes.NClob, "nclob").
		Put(sqltypes.SQLXML, "xml").
		Put(sqltypes.UUID, "char(36)").
		Put(sqltypes.JSON, "json").
		Put(sqltypes.Duration, "numeric(21,9)")
}
