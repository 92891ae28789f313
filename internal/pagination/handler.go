// Package pagination provides the limit handlers that describe how a dialect
// expresses a bounded or offset result set.
package pagination

// Kind identifies a limit handler.
type Kind int

// Handler kinds.
const (
	KindLimitOffset Kind = iota
	KindLimitComma
	KindOffsetFetch
	KindFetchFirst
	KindTop
	KindRowNumber
	KindRownum
)

var kindNames = [...]string{"limit/offset", "limit offset,count", "offset/fetch", "fetch first", "top", "row_number", "rownum"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Handler is a stateless pagination strategy. Offset and fetch arguments are
// rendered SQL (usually a placeholder); an empty string means "absent".
type Handler interface {
	Kind() Kind
	// SupportsLimit reports whether a row limit can be expressed natively.
	SupportsLimit() bool
	// SupportsOffset reports whether an offset can be expressed natively.
	SupportsOffset() bool
	// BindLimitFirst reports whether the limit parameter precedes the
	// parameters of the paginated query.
	BindLimitFirst() bool
	// ReverseOrder reports whether the offset parameter precedes the limit.
	ReverseOrder() bool
	// UseMaxForLimit reports whether the limit parameter carries
	// offset+limit rather than the row count.
	UseMaxForLimit() bool
	// RequiresOrderBy reports whether an ORDER BY must be present.
	RequiresOrderBy() bool
	// Prefix returns SQL placed directly after "select [distinct] ".
	Prefix(fetch string) string
	// Clause returns SQL appended after the ORDER BY clause.
	Clause(offset, fetch string) string
}

// Bounds converts a zero-based offset and a row count into the inclusive,
// 1-based row-number range they select.
func Bounds(offset, fetch int64) (first, last int64) {
	return offset + 1, offset + fetch
}

// base carries the defaults shared by every handler.
type base struct{}

func (base) SupportsLimit() bool      { return true }
func (base) SupportsOffset() bool     { return true }
func (base) BindLimitFirst() bool     { return false }
func (base) ReverseOrder() bool       { return false }
func (base) UseMaxForLimit() bool     { return false }
func (base) RequiresOrderBy() bool    { return false }
func (base) Prefix(string) string     { return "" }
func (base) Clause(_, _ string) string { return "" }

// LimitOffset renders " limit ? offset ?" (PostgreSQL, SQLite, H2, HANA).
type LimitOffset struct {
	base
	// OffsetOnlyLimit is the limit written when only an offset is present,
	// for engines that reject OFFSET without LIMIT (SQLite uses "-1").
	OffsetOnlyLimit string
}

// Kind implements Handler.
func (LimitOffset) Kind() Kind { return KindLimitOffset }

// Clause implements Handler.
func (h LimitOffset) Clause(offset, fetch string) string {
	switch {
	case fetch != "" && offset != "":
		return " limit " + fetch + " offset " + offset
	case fetch != "":
		return " limit " + fetch
	case offset != "" && h.OffsetOnlyLimit != "":
		return " limit " + h.OffsetOnlyLimit + " offset " + offset
	case offset != "":
		return " offset " + offset
	}
	return ""
}

// LimitComma renders " limit ?, ?" with the offset first (MySQL).
type LimitComma struct {
	base
}

// maxRows is MySQL's documented "all remaining rows" count.
const maxRows = "18446744073709551615"

// Kind implements Handler.
func (LimitComma) Kind() Kind { return KindLimitComma }

// ReverseOrder implements Handler.
func (LimitComma) ReverseOrder() bool { return true }

// Clause implements Handler.
func (LimitComma) Clause(offset, fetch string) string {
	switch {
	case fetch != "" && offset != "":
		return " limit " + offset + ", " + fetch
	case fetch != "":
		return " limit " + fetch
	case offset != "":
		return " limit " + offset + ", " + maxRows
	}
	return ""
}

// OffsetFetch renders the ANSI " offset ? rows fetch next ? rows only".
type OffsetFetch struct {
	base
	// RequireOrder is set for engines that only accept OFFSET after ORDER BY.
	RequireOrder bool
}

// Kind implements Handler.
func (OffsetFetch) Kind() Kind { return KindOffsetFetch }

// RequiresOrderBy implements Handler.
func (h OffsetFetch) RequiresOrderBy() bool { return h.RequireOrder }

// Clause implements Handler.
func (h OffsetFetch) Clause(offset, fetch string) string {
	switch {
	case fetch != "" && offset != "":
		return " offset " + offset + " rows fetch next " + fetch + " rows only"
	case fetch != "" && h.RequireOrder:
		return " offset 0 rows fetch next " + fetch + " rows only"
	case fetch != "":
		return " fetch first " + fetch + " rows only"
	case offset != "":
		return " offset " + offset + " rows"
	}
	return ""
}

// FetchFirst renders " fetch first ? rows only" and has no offset.
type FetchFirst struct {
	base
}

// Kind implements Handler.
func (FetchFirst) Kind() Kind { return KindFetchFirst }

// SupportsOffset implements Handler.
func (FetchFirst) SupportsOffset() bool { return false }

// Clause implements Handler.
func (FetchFirst) Clause(_, fetch string) string {
	if fetch == "" {
		return ""
	}
	return " fetch first " + fetch + " rows only"
}

// Top renders "top ? " after SELECT and has no offset.
type Top struct {
	base
	// Parens wraps the row count: "top (?)".
	Parens bool
	// ParamsFirst is set when the engine binds the TOP parameter before
	// any other parameter of the statement.
	ParamsFirst bool
	// MaxForLimit is set when the TOP count must include skipped rows.
	MaxForLimit bool
}

// Kind implements Handler.
func (Top) Kind() Kind { return KindTop }

// SupportsOffset implements Handler.
func (Top) SupportsOffset() bool { return false }

// BindLimitFirst implements Handler.
func (h Top) BindLimitFirst() bool { return h.ParamsFirst }

// UseMaxForLimit implements Handler.
func (h Top) UseMaxForLimit() bool { return h.MaxForLimit }

// Prefix implements Handler.
func (h Top) Prefix(fetch string) string {
	if fetch == "" {
		return ""
	}
	if h.Parens {
		return "top (" + fetch + ") "
	}
	return "top " + fetch + " "
}

// RowNumber has no native syntax; every limit or offset is emulated with
// row_number() over a derived table.
type RowNumber struct {
	base
}

// Kind implements Handler.
func (RowNumber) Kind() Kind { return KindRowNumber }

// SupportsLimit implements Handler.
func (RowNumber) SupportsLimit() bool { return false }

// SupportsOffset implements Handler.
func (RowNumber) SupportsOffset() bool { return false }

// Rownum emulates pagination with Oracle's rownum pseudo-column. The upper
// bound is offset+limit.
type Rownum struct {
	base
}

// Kind implements Handler.
func (Rownum) Kind() Kind { return KindRownum }

// SupportsLimit implements Handler.
func (Rownum) SupportsLimit() bool { return false }

// SupportsOffset implements Handler.
func (Rownum) SupportsOffset() bool { return false }

// UseMaxForLimit implements Handler.
func (Rownum) UseMaxForLimit() bool { return true }
