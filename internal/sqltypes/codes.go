// Package sqltypes defines the abstract SQL type codes shared by every dialect,
// the capacity-aware column type registry and the value binders/extractors used
// to move Go values across database/sql.
package sqltypes

import "strconv"

// Code is an abstract SQL type code. Values follow the JDBC numbering so codes
// read the same in logs produced by other tooling.
type Code int

// Abstract type codes.
const (
	Null                  Code = 0
	Bit                   Code = -7
	TinyInt               Code = -6
	SmallInt              Code = 5
	Integer               Code = 4
	BigInt                Code = -5
	Float                 Code = 6
	Real                  Code = 7
	Double                Code = 8
	Numeric               Code = 2
	Decimal               Code = 3
	Char                  Code = 1
	VarChar               Code = 12
	LongVarChar           Code = -1
	NChar                 Code = -15
	NVarChar              Code = -9
	LongNVarChar          Code = -16
	Date                  Code = 91
	Time                  Code = 92
	Timestamp             Code = 93
	TimeWithTimezone      Code = 2013
	TimestampWithTimezone Code = 2014
	Binary                Code = -2
	VarBinary             Code = -3
	LongVarBinary         Code = -4
	Blob                  Code = 2004
	Clob                  Code = 2005
	NClob                 Code = 2011
	Boolean               Code = 16
	SQLXML                Code = 2009
	Struct                Code = 2002
	Array                 Code = 2003
	Other                 Code = 1111
	UUID                  Code = 3000
	JSON                  Code = 3001
	TimestampUTC          Code = 3003
	Duration              Code = 3015
)

var codeNames = map[Code]string{
	Null:                  "NULL",
	Bit:                   "BIT",
	TinyInt:               "TINYINT",
	SmallInt:              "SMALLINT",
	Integer:               "INTEGER",
	BigInt:                "BIGINT",
	Float:                 "FLOAT",
	Real:                  "REAL",
	Double:                "DOUBLE",
	Numeric:               "NUMERIC",
	Decimal:               "DECIMAL",
	Char:                  "CHAR",
	VarChar:               "VARCHAR",
	LongVarChar:           "LONGVARCHAR",
	NChar:                 "NCHAR",
	NVarChar:              "NVARCHAR",
	LongNVarChar:          "LONGNVARCHAR",
	Date:                  "DATE",
	Time:                  "TIME",
	Timestamp:             "TIMESTAMP",
	TimeWithTimezone:      "TIME_WITH_TIMEZONE",
	TimestampWithTimezone: "TIMESTAMP_WITH_TIMEZONE",
	Binary:                "BINARY",
	VarBinary:             "VARBINARY",
	LongVarBinary:         "LONGVARBINARY",
	Blob:                  "BLOB",
	Clob:                  "CLOB",
	NClob:                 "NCLOB",
	Boolean:               "BOOLEAN",
	SQLXML:                "SQLXML",
	Struct:                "STRUCT",
	Array:                 "ARRAY",
	Other:                 "OTHER",
	UUID:                  "UUID",
	JSON:                  "JSON",
	TimestampUTC:          "TIMESTAMP_UTC",
	Duration:              "DURATION",
}

var namedCodes = func() map[string]Code {
	m := make(map[string]Code, len(codeNames))
	for c, n := range codeNames {
		m[n] = c
	}
	return m
}()

// String returns the upper-case type name, e.g. "VARCHAR".
func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "CODE(" + strconv.Itoa(int(c)) + ")"
}

// ParseCode resolves a type name such as "varchar" or "TIMESTAMP_WITH_TIMEZONE".
func ParseCode(name string) (Code, bool) {
	c, ok := namedCodes[upperASCII(name)]
	return c, ok
}

// AllCodes returns every known type code except Null, ordered by name.
func AllCodes() []Code {
	out := make([]Code, 0, len(codeNames)-1)
	for _, n := range sortedNames() {
		if c := namedCodes[n]; c != Null {
			out = append(out, c)
		}
	}
	return out
}

// IsInteger reports whether values of c are exact whole numbers.
func (c Code) IsInteger() bool {
	switch c {
	case TinyInt, SmallInt, Integer, BigInt:
		return true
	}
	return false
}

// IsNumeric reports whether c is any numeric type.
func (c Code) IsNumeric() bool {
	switch c {
	case Float, Real, Double, Numeric, Decimal:
		return true
	}
	return c.IsInteger()
}

// IsFloatingPoint reports whether c is an approximate numeric type.
func (c Code) IsFloatingPoint() bool {
	return c == Float || c == Real || c == Double
}

// IsCharacter reports whether c holds character data.
func (c Code) IsCharacter() bool {
	switch c {
	case Char, VarChar, LongVarChar, NChar, NVarChar, LongNVarChar, Clob, NClob:
		return true
	}
	return false
}

// IsBinary reports whether c holds raw bytes.
func (c Code) IsBinary() bool {
	switch c {
	case Binary, VarBinary, LongVarBinary, Blob:
		return true
	}
	return false
}

// IsTemporal reports whether c is a date, time or timestamp type.
func (c Code) IsTemporal() bool {
	switch c {
	case Date, Time, Timestamp, TimeWithTimezone, TimestampWithTimezone, TimestampUTC:
		return true
	}
	return false
}

// IsAggregate reports whether values of c are composite values that need an
// aggregate codec (STRUCT, JSON or XML).
func (c Code) IsAggregate() bool {
	return c == Struct || c == JSON || c == SQLXML
}

// IsLengthBound reports whether the column type of c depends on a length.
func (c Code) IsLengthBound() bool {
	return c.IsCharacter() || c.IsBinary()
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, ch := range b {
		if ch >= 'a' && ch <= 'z' {
			b[i] = ch - 'a' + 'A'
		}
	}
	return string(b)
}
