package dialects

import (
	"fmt"
	"strings"

	"github.com/coregx/sqldialect/internal/aggregate"
)

// QuoteStyle selects how identifiers are quoted.
type QuoteStyle int

// Quote styles.
const (
	QuoteDouble   QuoteStyle = iota // "name"
	QuoteBacktick                   // `name`
	QuoteBracket                    // [name]
)

// IdentifierCase is the case unquoted identifiers are folded to.
type IdentifierCase int

// Identifier cases.
const (
	CaseMixed IdentifierCase = iota
	CaseUpper
	CaseLower
)

// PlaceholderStyle selects the bind parameter marker.
type PlaceholderStyle int

// Placeholder styles.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1
	PlaceholderColon                            // :1
	PlaceholderAtP                              // @p1
)

// ConflictStyle selects how an insert with a conflict clause is rendered.
type ConflictStyle int

// Conflict styles.
const (
	ConflictNone           ConflictStyle = iota
	ConflictOnConflict                   // on conflict (...) do update set ...
	ConflictOnDuplicateKey               // on duplicate key update ...
	ConflictMerge                        // merge into ... using ...
)

// ReturningStyle selects how DML returns generated values.
type ReturningStyle int

// Returning styles.
const (
	ReturningNone   ReturningStyle = iota
	ReturningClause                // returning a, b
	ReturningOutput                // output inserted.a
)

// LockStyle selects how pessimistic row locks are requested.
type LockStyle int

// Lock styles.
const (
	LockNone   LockStyle = iota // no row locks; update-based strategies
	LockClause                  // select ... for update
	LockHint                    // from t with (updlock)
)

// HintStyle selects how query hints are rendered.
type HintStyle int

// Hint styles.
const (
	HintNone    HintStyle = iota // hints are dropped
	HintComment                  // select /*+ a b */ ...
	HintOption                   // ... option (a, b)
)

// ExplainStyle selects how an execution plan is requested and what shape
// the plan rows have.
type ExplainStyle int

// Explain styles.
const (
	ExplainNone      ExplainStyle = iota // plans are not available as a result set
	ExplainText                          // explain q; one text line per row
	ExplainJSON                          // explain (format json) q; one JSON document
	ExplainTabular                       // explain q; one row per table with type and key columns
	ExplainQueryPlan                     // explain query plan q; id, parent, notused, detail
)

// TemporalLiteral selects how date/time literals are written.
type TemporalLiteral int

// Temporal literal styles.
const (
	TemporalANSI   TemporalLiteral = iota // date '2020-01-01'
	TemporalCast                          // cast('2020-01-01' as date)
	TemporalPlain                         // '2020-01-01'
	TemporalEscape                        // {d '2020-01-01'}
)

// BinaryLiteral selects how binary literals are written.
type BinaryLiteral int

// Binary literal styles.
const (
	BinaryX        BinaryLiteral = iota // X'0A0B'
	Binary0x                            // 0x0A0B
	BinaryHexToRaw                      // hextoraw('0A0B')
	BinaryBytea                         // '\x0a0b'::bytea
	BinaryBX                            // BX'0A0B'
)

var (
	quoteNames      = []string{"double", "backtick", "bracket"}
	caseNames       = []string{"mixed", "upper", "lower"}
	placeholderName = []string{"question", "dollar", "colon", "atp"}
	conflictNames   = []string{"none", "on_conflict", "on_duplicate_key", "merge"}
	returningNames  = []string{"none", "returning", "output"}
	lockNames       = []string{"none", "clause", "hint"}
	hintNames       = []string{"none", "comment", "option"}
	explainNames    = []string{"none", "text", "json", "tabular", "query_plan"}
	temporalNames   = []string{"ansi", "cast", "plain", "escape"}
	binaryNames     = []string{"x", "0x", "hextoraw", "bytea", "bx"}
)

func enumName(names []string, i int) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("unknown(%d)", i)
}

func parseEnum(what string, names []string, b []byte) (int, error) {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("sqldialect: unknown %s %q (want one of %s)", what, s, strings.Join(names, ", "))
}

func (s QuoteStyle) String() string               { return enumName(quoteNames, int(s)) }
func (s QuoteStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *QuoteStyle) UnmarshalText(b []byte) error {
	i, err := parseEnum("quote style", quoteNames, b)
	*s = QuoteStyle(i)
	return err
}

func (c IdentifierCase) String() string               { return enumName(caseNames, int(c)) }
func (c IdentifierCase) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *IdentifierCase) UnmarshalText(b []byte) error {
	i, err := parseEnum("identifier case", caseNames, b)
	*c = IdentifierCase(i)
	return err
}

func (s PlaceholderStyle) String() string               { return enumName(placeholderName, int(s)) }
func (s PlaceholderStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *PlaceholderStyle) UnmarshalText(b []byte) error {
	i, err := parseEnum("placeholder style", placeholderName, b)
	*s = PlaceholderStyle(i)
	return err
}

func (s ConflictStyle) String() string               { return enumName(conflictNames, int(s)) }
func (s ConflictStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ConflictStyle) UnmarshalText(b []byte) error {
	i, err := parseEnum("conflict style", conflictNames, b)
	*s = ConflictStyle(i)
	return err
}

func (s ReturningStyle) String() string               { return enumName(returningNames, int(s)) }
func (s ReturningStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ReturningStyle) UnmarshalText(b []byte) error {
	i, err := parseEnum("returning style", returningNames, b)
	*s = ReturningStyle(i)
	return err
}

func (s LockStyle) String() string               { return enumName(lockNames, int(s)) }
func (s LockStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *LockStyle) UnmarshalText(b []byte) error {
	i, err := parseEnum("lock style", lockNames, b)
	*s = LockStyle(i)
	return err
}

func (s HintStyle) String() string               { return enumName(hintNames, int(s)) }
func (s HintStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *HintStyle) UnmarshalText(b []byte) error {
	i, err := parseEnum("hint style", hintNames, b)
	*s = HintStyle(i)
	return err
}

func (s ExplainStyle) String() string               { return enumName(explainNames, int(s)) }
func (s ExplainStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ExplainStyle) UnmarshalText(b []byte) error {
	i, err := parseEnum("explain style", explainNames, b)
	*s = ExplainStyle(i)
	return err
}

func (s TemporalLiteral) String() string               { return enumName(temporalNames, int(s)) }
func (s TemporalLiteral) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TemporalLiteral) UnmarshalText(b []byte) error {
	i, err := parseEnum("temporal literal style", temporalNames, b)
	*s = TemporalLiteral(i)
	return err
}

func (s BinaryLiteral) String() string               { return enumName(binaryNames, int(s)) }
func (s BinaryLiteral) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *BinaryLiteral) UnmarshalText(b []byte) error {
	i, err := parseEnum("binary literal style", binaryNames, b)
	*s = BinaryLiteral(i)
	return err
}

// Capabilities is the complete, inspectable set of syntax and feature
// answers of a dialect. DefaultCapabilities documents the defaults; vendors
// override fields and version gates refine them.
type Capabilities struct {
	// Identifiers and parameters.
	Quote          QuoteStyle       `yaml:"quote" json:"quote"`
	IdentifierCase IdentifierCase   `yaml:"identifier_case" json:"identifier_case"`
	Placeholders   PlaceholderStyle `yaml:"placeholders" json:"placeholders"`

	// WindowFunctions enables row_number() pagination emulation.
	WindowFunctions bool `yaml:"window_functions" json:"window_functions"`
	// NullsOrdering reports native "nulls first|last".
	NullsOrdering bool `yaml:"nulls_ordering" json:"nulls_ordering"`
	// NullsSortHigh reports whether nulls sort as the greatest value when no
	// precedence is requested.
	NullsSortHigh bool `yaml:"nulls_sort_high" json:"nulls_sort_high"`
	// CaseInsensitiveLike reports native "ilike".
	CaseInsensitiveLike bool `yaml:"case_insensitive_like" json:"case_insensitive_like"`
	// LowercaseFunction lowers both LIKE operands when ilike is missing.
	LowercaseFunction string `yaml:"lowercase_function" json:"lowercase_function"`
	// EmptyInList reports whether "x in ()" is valid.
	EmptyInList bool `yaml:"empty_in_list" json:"empty_in_list"`
	// RowValues reports whether (a, b) op (c, d) is valid for every comparison.
	RowValues bool `yaml:"row_values" json:"row_values"`
	// BooleanLiterals reports true/false keywords; otherwise 1/0 are used.
	BooleanLiterals bool            `yaml:"boolean_literals" json:"boolean_literals"`
	BackslashEscape bool            `yaml:"backslash_escape" json:"backslash_escape"`
	TemporalLiteral TemporalLiteral `yaml:"temporal_literal" json:"temporal_literal"`
	BinaryLiteral   BinaryLiteral   `yaml:"binary_literal" json:"binary_literal"`
	// FromDual names the one-row table needed by a select without FROM.
	FromDual string `yaml:"from_dual" json:"from_dual"`
	FullJoin bool   `yaml:"full_join" json:"full_join"`
	Lateral  bool   `yaml:"lateral" json:"lateral"`

	// Set operations.
	Intersect     bool   `yaml:"intersect" json:"intersect"`
	SetOpAll      bool   `yaml:"set_op_all" json:"set_op_all"`
	ExceptKeyword string `yaml:"except_keyword" json:"except_keyword"`

	// Common table expressions.
	CTE              bool `yaml:"cte" json:"cte"`
	RecursiveCTE     bool `yaml:"recursive_cte" json:"recursive_cte"`
	RecursiveKeyword bool `yaml:"recursive_keyword" json:"recursive_keyword"`
	// RecursiveCTEWidening casts character columns of a recursive CTE's anchor
	// to MaxVarcharLength, for engines typing the CTE from the anchor alone.
	RecursiveCTEWidening bool  `yaml:"recursive_cte_widening" json:"recursive_cte_widening"`
	MaxVarcharLength     int64 `yaml:"max_varchar_length" json:"max_varchar_length"`

	// DML.
	MultiRowValues bool           `yaml:"multi_row_values" json:"multi_row_values"`
	Conflict       ConflictStyle  `yaml:"conflict" json:"conflict"`
	ConflictAlias  bool           `yaml:"conflict_alias" json:"conflict_alias"`
	MergeTerminate bool           `yaml:"merge_terminate" json:"merge_terminate"`
	Returning      ReturningStyle `yaml:"returning" json:"returning"`
	// DMLTargetAlias reports whether the target of update/delete may be aliased.
	DMLTargetAlias  bool   `yaml:"dml_target_alias" json:"dml_target_alias"`
	NoColumnsInsert string `yaml:"no_columns_insert" json:"no_columns_insert"`

	// Locking.
	Lock         LockStyle `yaml:"lock" json:"lock"`
	ForUpdate    string    `yaml:"for_update" json:"for_update"`
	ForShare     string    `yaml:"for_share" json:"for_share"`
	NoWait       string    `yaml:"nowait" json:"nowait"`
	SkipLocked   string    `yaml:"skip_locked" json:"skip_locked"`
	WaitTemplate string    `yaml:"wait_template" json:"wait_template"`
	// LockTimeouts reports whether positive timeouts are rendered at all.
	LockTimeouts bool `yaml:"supports_lock_timeouts" json:"supports_lock_timeouts"`
	ForUpdateOf  bool `yaml:"for_update_of" json:"for_update_of"`
	// LockWithPagination is false when locks must be taken in a follow-on
	// step for paginated queries.
	LockWithPagination bool `yaml:"lock_with_pagination" json:"lock_with_pagination"`
	LockWithDistinct   bool `yaml:"lock_with_distinct" json:"lock_with_distinct"`

	// DDL.
	IfExists           bool   `yaml:"if_exists" json:"if_exists"`
	CascadeConstraints string `yaml:"cascade_constraints" json:"cascade_constraints"`
	AddColumn          string `yaml:"add_column" json:"add_column"`
	AddColumnSuffix    string `yaml:"add_column_suffix" json:"add_column_suffix"`
	DropForeignKey     string `yaml:"drop_foreign_key" json:"drop_foreign_key"`
	CreateTempTable    string `yaml:"create_temp_table" json:"create_temp_table"`
	TempTablePrefix    string `yaml:"temp_table_prefix" json:"temp_table_prefix"`
	TempTableSuffix    string `yaml:"temp_table_suffix" json:"temp_table_suffix"`
	DropTempTable      string `yaml:"drop_temp_table" json:"drop_temp_table"`
	ColumnCheck        bool   `yaml:"column_check" json:"column_check"`

	Hints     HintStyle        `yaml:"hints" json:"hints"`
	Explain   ExplainStyle     `yaml:"explain" json:"explain"`
	Aggregate aggregate.Format `yaml:"aggregate" json:"aggregate"`
}

// DefaultCapabilities returns the ANSI baseline every vendor starts from.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Quote:                QuoteDouble,
		IdentifierCase:       CaseUpper,
		Placeholders:         PlaceholderQuestion,
		WindowFunctions:      true,
		NullsOrdering:        false,
		NullsSortHigh:        true,
		LowercaseFunction:    "lower",
		RowValues:            false,
		BooleanLiterals:      true,
		TemporalLiteral:      TemporalANSI,
		BinaryLiteral:        BinaryX,
		FullJoin:             true,
		Intersect:            true,
		ExceptKeyword:        "except",
		CTE:                  true,
		RecursiveCTE:         true,
		RecursiveKeyword:     true,
		RecursiveCTEWidening: true,
		MaxVarcharLength:     4000,
		MultiRowValues:       true,
		DMLTargetAlias:       true,
		NoColumnsInsert:      "default values",
		Lock:                 LockClause,
		ForUpdate:            " for update",
		ForShare:             " for share",
		ForUpdateOf:          true,
		LockWithPagination:   true,
		IfExists:             true,
		AddColumn:            "add column",
		DropForeignKey:       "drop constraint",
		CreateTempTable:      "create temporary table",
		DropTempTable:        "drop table",
		ColumnCheck:          true,
		Aggregate:            aggregate.FormatJSON,
	}
}
