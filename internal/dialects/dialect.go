// Package dialects provides the Dialect value: the capability record,
// column and function registries, and strategy objects that drive SQL
// generation for one database family and version.
package dialects

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/function"
	"github.com/coregx/sqldialect/internal/locking"
	"github.com/coregx/sqldialect/internal/pagination"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

// DefaultBatchSize is the JDBC-style batch size used unless a vendor or an
// option changes it.
const DefaultBatchSize = 15

// Dialect is immutable once built and safe for concurrent use.
type Dialect struct {
	name      string
	version   Version
	caps      Capabilities
	columns   *sqltypes.Registry
	casts     *sqltypes.Registry
	functions *function.Registry
	limit     pagination.Handler
	sequences SequenceSupport
	identity  IdentityColumnSupport
	selector  locking.Selector
	vendor    sqlerr.Vendor
	converter *sqlerr.Converter
	batchSize int
	// seqEmulation holds the sequence support installed by
	// WithSequenceEmulation on dialects that suppress sequences by default.
	seqEmulation *SequenceSupport
	err          error
}

// Option configures a dialect after its version gates ran.
type Option func(*Dialect)

// WithCapabilities adjusts the capability record. A non-nil error fails
// construction.
func WithCapabilities(fn func(*Capabilities) error) Option {
	return func(d *Dialect) {
		if err := fn(&d.caps); err != nil {
			d.fail(fmt.Errorf("capability override: %w", err))
		}
	}
}

// WithBatchSize sets the default batch size.
func WithBatchSize(n int) Option {
	return func(d *Dialect) {
		if n <= 0 {
			d.fail(fmt.Errorf("batch size must be positive, got %d", n))
			return
		}
		d.batchSize = n
	}
}

// WithColumnType registers or replaces a column template; capacity
// sqltypes.Unbounded registers the fallback.
func WithColumnType(code sqltypes.Code, capacity int64, template string) Option {
	return func(d *Dialect) {
		if capacity == sqltypes.Unbounded {
			d.columns.Put(code, template)
			return
		}
		d.columns.PutCapacity(code, capacity, template)
	}
}

// WithFunctions lets callers register or remove functions.
func WithFunctions(fn func(r *function.Registry)) Option {
	return func(d *Dialect) { fn(d.functions) }
}

// WithSequenceEmulation opts into the vendor's table-based sequence
// emulation on dialects that suppress sequences by default (IRIS). It has no
// effect elsewhere.
func WithSequenceEmulation() Option {
	return func(d *Dialect) {
		if d.seqEmulation != nil {
			d.sequences = *d.seqEmulation
		}
	}
}

// newDialect creates a dialect with the ANSI baseline.
func newDialect(name string, v Version, vendor sqlerr.Vendor) *Dialect {
	return &Dialect{
		name:      name,
		version:   v,
		caps:      DefaultCapabilities(),
		columns:   standardColumns(),
		casts:     sqltypes.NewRegistry(),
		functions: function.RegisterStandard(function.NewRegistry()),
		limit:     pagination.OffsetFetch{},
		selector:  locking.DefaultSelector,
		vendor:    vendor,
		batchSize: DefaultBatchSize,
	}
}

func (d *Dialect) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// finish applies gates and options and validates the result. Configuration
// problems surface here, never at use time.
func (d *Dialect) finish(gates []gate, opts []Option) (*Dialect, error) {
	applyGates(d, gates)
	for _, opt := range opts {
		opt(d)
	}
	if d.err != nil {
		return nil, &ConfigError{Dialect: d.name, Detail: "invalid option", Err: d.err}
	}
	if err := d.columns.Validate(requiredCodes()); err != nil {
		return nil, &ConfigError{Dialect: d.name, Detail: "column types", Err: err}
	}
	if err := d.casts.Err(); err != nil {
		return nil, &ConfigError{Dialect: d.name, Detail: "cast types", Err: err}
	}
	if err := d.functions.Err(); err != nil {
		return nil, &ConfigError{Dialect: d.name, Detail: "functions", Err: err}
	}
	if d.caps.RecursiveCTEWidening && d.caps.MaxVarcharLength <= 0 {
		return nil, &ConfigError{Dialect: d.name, Detail: "recursive CTE widening needs a positive max varchar length"}
	}
	d.converter = sqlerr.NewConverter(d.name, d.vendor)
	return d, nil
}

// requiredCodes are the codes every dialect must map. Struct, Array and
// Other name user-defined types and are resolved by the mapping layer.
func requiredCodes() []sqltypes.Code {
	return slices.DeleteFunc(sqltypes.AllCodes(), func(c sqltypes.Code) bool {
		return c == sqltypes.Struct || c == sqltypes.Array || c == sqltypes.Other
	})
}

// Name returns the canonical dialect name.
func (d *Dialect) Name() string { return d.name }

// Version returns the database version the dialect was built for.
func (d *Dialect) Version() Version { return d.version }

// Capabilities returns a copy of the capability record.
func (d *Dialect) Capabilities() Capabilities { return d.caps }

// DefaultBatchSize returns the default batch size.
func (d *Dialect) DefaultBatchSize() int { return d.batchSize }

// LimitHandler returns the pagination strategy.
func (d *Dialect) LimitHandler() pagination.Handler { return d.limit }

// ColumnType resolves the DDL type for code and size.
func (d *Dialect) ColumnType(code sqltypes.Code, size sqltypes.Size) (string, error) {
	s, err := d.columns.Resolve(code, size)
	if err != nil {
		return "", fmt.Errorf("%s: %w", d.name, err)
	}
	return s, nil
}

// ColumnCapacities returns the capacity tiers registered for code.
func (d *Dialect) ColumnCapacities(code sqltypes.Code) []int64 {
	return d.columns.Capacities(code)
}

// CastType resolves the type written in cast(x as <type>): the cast
// override when registered, else the column type.
func (d *Dialect) CastType(code sqltypes.Code, size sqltypes.Size) (string, error) {
	if d.casts.Has(code) {
		return d.casts.Resolve(code, size)
	}
	return d.ColumnType(code, size)
}

// Function resolves a registered function.
func (d *Dialect) Function(name string) (*function.Descriptor, error) {
	return d.functions.Resolve(name)
}

// Functions returns the registered function names, sorted.
func (d *Dialect) Functions() []string { return d.functions.Names() }

// Placeholder returns the parameter marker for the 1-based position i.
func (d *Dialect) Placeholder(i int) string {
	switch d.caps.Placeholders {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(i)
	case PlaceholderColon:
		return ":" + strconv.Itoa(i)
	case PlaceholderAtP:
		return "@p" + strconv.Itoa(i)
	}
	return "?"
}

// QuoteIdentifier quotes s, escaping embedded quote characters.
func (d *Dialect) QuoteIdentifier(s string) string {
	switch d.caps.Quote {
	case QuoteBacktick:
		return "`" + strings.ReplaceAll(s, "`", "``") + "`"
	case QuoteBracket:
		return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// NormalizeIdentifier returns the name the database stores for identifier
// s: quoted identifiers lose their quotes and keep their case, unquoted ones
// are folded to the dialect's identifier case.
func (d *Dialect) NormalizeIdentifier(s string) string {
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"':
			return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
		case s[0] == '`' && s[len(s)-1] == '`':
			return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
		case s[0] == '[' && s[len(s)-1] == ']':
			return strings.ReplaceAll(s[1:len(s)-1], "]]", "]")
		}
	}
	switch d.caps.IdentifierCase {
	case CaseUpper:
		return cases.Upper(language.Und).String(s)
	case CaseLower:
		return cases.Lower(language.Und).String(s)
	}
	return s
}

// LockClause returns the clause appended to a select locking rows in mode,
// e.g. " for update of a nowait". It is empty for non-pessimistic modes and
// for dialects that lock with table hints or not at all.
func (d *Dialect) LockClause(mode locking.Mode, timeout int, aliases ...string) string {
	c := &d.caps
	if c.Lock != LockClause || !lockedByClause(mode) {
		return ""
	}
	s := c.ForUpdate
	if mode == locking.PessimisticRead && c.ForShare != "" {
		s = c.ForShare
	}
	if len(aliases) > 0 && c.ForUpdateOf {
		s += " of " + strings.Join(aliases, ", ")
	}
	return s + d.waitSuffix(timeout)
}

func (d *Dialect) waitSuffix(timeout int) string {
	c := &d.caps
	switch {
	case timeout == locking.NoWait:
		return c.NoWait
	case timeout == locking.SkipLocked:
		return c.SkipLocked
	case timeout > 0 && c.LockTimeouts && c.WaitTemplate != "":
		return fmt.Sprintf(c.WaitTemplate, (timeout+500)/1000)
	}
	return ""
}

// LockHint returns the table hint placed after a locked table name, e.g.
// " with (updlock, holdlock, rowlock)".
func (d *Dialect) LockHint(mode locking.Mode, timeout int) string {
	if d.caps.Lock != LockHint || !lockedByClause(mode) {
		return ""
	}
	read := mode == locking.PessimisticRead
	var hint string
	switch {
	case timeout == locking.SkipLocked && read:
		hint = "rowlock, readpast"
	case timeout == locking.SkipLocked:
		hint = "updlock, rowlock, readpast"
	case read:
		hint = "holdlock, rowlock"
	default:
		hint = "updlock, holdlock, rowlock"
	}
	if timeout == locking.NoWait {
		hint += ", nowait"
	}
	return " with (" + hint + ")"
}

func lockedByClause(m locking.Mode) bool {
	switch m {
	case locking.Upgrade, locking.PessimisticRead, locking.PessimisticWrite, locking.PessimisticForceIncrement:
		return true
	}
	return false
}

// LockingStrategy selects the strategy for locking rows of l in mode.
// Selection is total: every mode maps to exactly one strategy kind.
func (d *Dialect) LockingStrategy(l locking.Lockable, mode locking.Mode) (locking.Strategy, error) {
	return locking.NewStrategy(d.selector(mode, l), mode, l)
}

// LockingKind returns the strategy kind selected for locking rows of l in mode.
func (d *Dialect) LockingKind(l locking.Lockable, mode locking.Mode) locking.Kind {
	return d.selector(mode, l)
}

// ConvertError maps a driver error raised by sql into the sqlerr taxonomy.
func (d *Dialect) ConvertError(err error, sql string) error {
	return d.converter.Convert(err, sql)
}

// Explain returns the statement requesting the execution plan of sql.
func (d *Dialect) Explain(sql string) (string, error) {
	switch d.caps.Explain {
	case ExplainText, ExplainTabular:
		return "explain " + sql, nil
	case ExplainJSON:
		return "explain (format json) " + sql, nil
	case ExplainQueryPlan:
		return "explain query plan " + sql, nil
	default:
		return "", d.Unsupported("explain")
	}
}

// ErrorConverter returns the dialect's error converter.
func (d *Dialect) ErrorConverter() *sqlerr.Converter { return d.converter }

// AggregateCodec returns the codec for embeddable values in the dialect's
// aggregate wire format.
func (d *Dialect) AggregateCodec(e *aggregate.Embeddable) (aggregate.Codec, error) {
	return aggregate.NewCodec(d.caps.Aggregate, e)
}

func (d *Dialect) String() string {
	return d.name + " " + d.version.String()
}
