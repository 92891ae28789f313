package sqlerr

import "strings"

// PostgreSQL returns the PostgreSQL conversion tables.
func PostgreSQL() Vendor {
	return Vendor{
		Delegate: func(v *VendorError) (Classification, bool) {
			switch v.SQLState {
			case "40P01":
				return kind(LockAcquisition)
			case "55P03":
				return kind(PessimisticLock)
			case "57014":
				return kind(QueryTimeout)
			}
			return Classification{}, false
		},
		Extractor: func(v *VendorError) string {
			switch v.SQLState {
			case "23514":
				return ExtractUsingTemplate(`violates check constraint "`, `"`, v.Message)
			case "23505":
				return ExtractUsingTemplate(`violates unique constraint "`, `"`, v.Message)
			case "23503":
				return ExtractUsingTemplate(`violates foreign key constraint "`, `"`, v.Message)
			case "23502":
				return ExtractUsingTemplate(`null value in column "`, `" violates not-null constraint`, v.Message)
			}
			return ""
		},
	}
}

// CockroachDB returns the CockroachDB conversion tables: PostgreSQL's, with
// serialization failures reported as lock acquisition failures.
func CockroachDB() Vendor {
	pg := PostgreSQL()
	return Vendor{
		Delegate: func(v *VendorError) (Classification, bool) {
			if v.SQLState == "40001" {
				return kind(LockAcquisition)
			}
			return pg.Delegate(v)
		},
		Extractor: pg.Extractor,
	}
}

// MySQL returns the MySQL/MariaDB conversion tables.
func MySQL() Vendor {
	return Vendor{
		Delegate: func(v *VendorError) (Classification, bool) {
			switch v.Code {
			case 1205, 3572:
				return kind(PessimisticLock)
			case 1206, 1207, 1213:
				return kind(LockAcquisition)
			case 1062:
				return constraint(Unique)
			case 1048:
				return constraint(NotNull)
			case 1451, 1452:
				return constraint(ForeignKey)
			case 3819:
				return constraint(Check)
			case 3024:
				return kind(QueryTimeout)
			}
			switch v.SQLState {
			case "41000":
				return kind(LockTimeout)
			case "40001":
				return kind(LockAcquisition)
			}
			return Classification{}, false
		},
		Extractor: func(v *VendorError) string {
			switch v.Code {
			case 1062:
				return ExtractUsingTemplate(" for key '", "'", v.Message)
			case 1451, 1452:
				return ExtractUsingTemplate("CONSTRAINT `", "`", v.Message)
			case 3819:
				return ExtractUsingTemplate("Check constraint '", "'", v.Message)
			case 1048:
				return ExtractUsingTemplate("Column '", "'", v.Message)
			}
			if v.SQLState == "23000" {
				return ExtractUsingTemplate(" for key '", "'", v.Message)
			}
			return ""
		},
	}
}

// SQLite result codes.
const (
	sqliteBusy                 = 5
	sqliteLocked               = 6
	sqliteCorrupt              = 11
	sqliteCantOpen             = 14
	sqliteTooBig               = 18
	sqliteConstraint           = 19
	sqliteMismatch             = 20
	sqliteNotADB               = 26
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// SQLite returns the SQLite conversion tables. Codes are extended result
// codes; the low byte is the primary code.
func SQLite() Vendor {
	return Vendor{
		Delegate: func(v *VendorError) (Classification, bool) {
			switch v.Code {
			case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
				return constraint(Unique)
			case sqliteConstraintNotNull:
				return constraint(NotNull)
			case sqliteConstraintForeignKey:
				return constraint(ForeignKey)
			case sqliteConstraintCheck:
				return constraint(Check)
			}
			switch v.Code & 0xff {
			case sqliteBusy, sqliteLocked:
				return kind(LockAcquisition)
			case sqliteConstraint:
				return constraint(constraintFromSQLiteMessage(v.Message))
			case sqliteTooBig, sqliteMismatch:
				return kind(DataError)
			case sqliteCorrupt, sqliteCantOpen, sqliteNotADB:
				return kind(Connection)
			}
			return Classification{}, false
		},
		Extractor: func(v *VendorError) string {
			const marker = "constraint failed: "
			i := strings.Index(v.Message, marker)
			if i < 0 {
				return ""
			}
			name := v.Message[i+len(marker):]
			// modernc appends " (code)"
			if j := strings.Index(name, " ("); j >= 0 {
				name = name[:j]
			}
			return name
		},
	}
}

func constraintFromSQLiteMessage(msg string) ConstraintKind {
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return Unique
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return NotNull
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ForeignKey
	case strings.Contains(msg, "CHECK constraint failed"):
		return Check
	}
	return OtherConstraint
}

// Oracle returns the Oracle conversion tables keyed by ORA- error numbers.
func Oracle() Vendor {
	return Vendor{
		Delegate: func(v *VendorError) (Classification, bool) {
			switch v.Code {
			case 30006, 54, 4021:
				return kind(LockTimeout)
			case 60, 4020:
				return kind(LockAcquisition)
			case 1013:
				return kind(QueryTimeout)
			case 1:
				return constraint(Unique)
			case 1400, 1407:
				return constraint(NotNull)
			case 2291, 2292:
				return constraint(ForeignKey)
			case 2290:
				return constraint(Check)
			case 904, 942, 923, 936:
				return kind(SQLGrammar)
			}
			return Classification{}, false
		},
		Extractor: func(v *VendorError) string {
			switch v.Code {
			case 1, 2290, 2291, 2292, 1400, 1407:
				return ExtractUsingTemplate("(", ")", v.Message)
			}
			return ""
		},
	}
}

// SQLServer returns the SQL Server conversion tables.
func SQLServer() Vendor {
	return Vendor{
		Delegate: func(v *VendorError) (Classification, bool) {
			switch v.Code {
			case 1222:
				return kind(LockTimeout)
			case 1205:
				return kind(LockAcquisition)
			case 2627, 2601:
				return constraint(Unique)
			case 515:
				return constraint(NotNull)
			case 547:
				if strings.Contains(v.Message, "CHECK") {
					return constraint(Check)
				}
				return constraint(ForeignKey)
			}
			return Classification{}, false
		},
		Extractor: func(v *VendorError) string {
			switch v.Code {
			case 2627:
				return ExtractUsingTemplate("constraint '", "'", v.Message)
			case 2601:
				return ExtractUsingTemplate("unique index '", "'", v.Message)
			case 547:
				return ExtractUsingTemplate("constraint \"", "\"", v.Message)
			}
			return ""
		},
	}
}

// DB2 returns the DB2 conversion tables keyed by SQLCODE.
func DB2() Vendor {
	return Vendor{
		Delegate: func(v *VendorError) (Classification, bool) {
			switch v.Code {
			case -952:
				return kind(QueryTimeout)
			case -911, -913:
				return kind(LockAcquisition)
			case -803:
				return constraint(Unique)
			case -407:
				return constraint(NotNull)
			case -530, -531, -532:
				return constraint(ForeignKey)
			case -545:
				return constraint(Check)
			}
			return Classification{}, false
		},
		Extractor: func(v *VendorError) string {
			switch v.Code {
			case -803:
				return ExtractUsingTemplate("SQLERRMC=1;", ",", v.Message)
			case -530, -531, -532, -545:
				return ExtractUsingTemplate("SQLERRMC=", ",", v.Message)
			}
			return ""
		},
	}
}

// H2 returns the H2 conversion tables keyed by H2 error codes.
func H2() Vendor {
	return Vendor{
		Delegate: func(v *VendorError) (Classification, bool) {
			switch v.Code {
			case 50200:
				return kind(LockTimeout)
			case 40001:
				return kind(LockAcquisition)
			case 57014:
				return kind(QueryTimeout)
			case 23505:
				return constraint(Unique)
			case 23502:
				return constraint(NotNull)
			case 23503, 23506:
				return constraint(ForeignKey)
			case 23513, 23514:
				return constraint(Check)
			}
			return Classification{}, false
		},
		Extractor: func(v *VendorError) string {
			name := ExtractUsingTemplate(`violation: "`, `"`, v.Message)
			if i := strings.Index(name, " ON "); i >= 0 {
				name = name[:i]
			}
			return name
		},
	}
}

// HANA returns the SAP HANA conversion tables.
func HANA() Vendor {
	return Vendor{
		Delegate: func(v *VendorError) (Classification, bool) {
			switch v.Code {
			case 131, 146:
				return kind(LockTimeout)
			case 132, 133:
				return kind(LockAcquisition)
			case 257, 259, 260, 261, 262, 263:
				return kind(SQLGrammar)
			case 287:
				return constraint(NotNull)
			case 301:
				return constraint(Unique)
			case 461, 462:
				return constraint(ForeignKey)
			}
			return Classification{}, false
		},
		Extractor: func(v *VendorError) string {
			if v.Code == 301 {
				return ExtractUsingTemplate("Index(", ")", v.Message)
			}
			return ""
		},
	}
}

// IRIS returns the InterSystems IRIS conversion tables keyed by the absolute
// SQLCODE.
func IRIS() Vendor {
	return Vendor{
		Delegate: func(v *VendorError) (Classification, bool) {
			code := v.Code
			if code < 0 {
				code = -code
			}
			switch code {
			case 114:
				return kind(LockTimeout)
			case 110:
				return kind(LockAcquisition)
			case 108:
				return constraint(NotNull)
			case 119, 120:
				return constraint(Unique)
			case 121, 122, 123, 124:
				return constraint(ForeignKey)
			case 125, 127:
				return constraint(Check)
			}
			return Classification{}, false
		},
		Extractor: func(v *VendorError) string {
			return ExtractUsingTemplate("(", ")", v.Message)
		},
	}
}
