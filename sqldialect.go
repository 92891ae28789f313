// Package sqldialect renders vendor-neutral SQL statement trees for a
// specific database and version. It bundles a type registry, a function
// registry, per-dialect capabilities and strategies (pagination, locking,
// upsert, sequences, error conversion), an AST translator and an executor
// that runs translated statements through database/sql.
package sqldialect

import (
	"github.com/coregx/sqldialect/internal/aggregate"
	"github.com/coregx/sqldialect/internal/analyzer"
	"github.com/coregx/sqldialect/internal/ast"
	"github.com/coregx/sqldialect/internal/config"
	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/exec"
	"github.com/coregx/sqldialect/internal/locking"
	"github.com/coregx/sqldialect/internal/logger"
	"github.com/coregx/sqldialect/internal/security"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/sqltypes"
	"github.com/coregx/sqldialect/internal/tracer"
	"github.com/coregx/sqldialect/internal/translator"
)

type (
	// Dialect is an immutable rendering profile for one database version.
	Dialect = dialects.Dialect
	// Version is a database version (major.minor.micro).
	Version = dialects.Version
	// Capabilities is the feature record a dialect translates against.
	Capabilities = dialects.Capabilities
	// Option configures a Dialect at construction.
	Option = dialects.Option
	// ConfigError reports an invalid dialect configuration.
	ConfigError = dialects.ConfigError
	// UnsupportedError reports a construct the dialect cannot render.
	UnsupportedError = dialects.UnsupportedError

	// Translator renders statement trees to SQL.
	Translator = translator.Translator
	// TranslatorOption configures a Translator.
	TranslatorOption = translator.Option
	// Result is a translated statement: SQL, ordered parameters and the
	// tables it touches.
	Result = translator.Result
	// Binder is one parameter slot of a Result.
	Binder = translator.Binder

	// Executor runs statement trees on a database/sql connection.
	Executor = exec.Executor
	// ExecutorOption configures an Executor.
	ExecutorOption = exec.Option
	// QueryEvent describes one execution, passed to a QueryHook.
	QueryEvent = exec.QueryEvent
	// QueryHook is called after each execution.
	QueryHook = exec.QueryHook
	// Plan summarizes an execution plan returned by Executor.Explain.
	Plan = analyzer.Plan

	// Config is the YAML configuration of a dialect and its ambient stack.
	Config = config.Config
	// ConfigOption configures LoadConfig and ParseConfig.
	ConfigOption = config.LoadOption

	// Logger is the structured logger translators and executors write to.
	Logger = logger.Logger
	// Sanitizer masks sensitive parameter values in log output.
	Sanitizer = logger.Sanitizer
	// Tracer starts spans around translation and execution.
	Tracer = tracer.Tracer
	// Span is one traced operation.
	Span = tracer.Span

	// Error is a converted database error.
	Error = sqlerr.Error
	// ConstraintKind classifies constraint violations.
	ConstraintKind = sqlerr.ConstraintKind

	// TypeCode identifies a JDBC-style column type.
	TypeCode = sqltypes.Code
	// Size is the length, precision and scale of a column.
	Size = sqltypes.Size

	// LockMode is a requested lock mode.
	LockMode = locking.Mode

	// Embeddable describes a structured (aggregate) value.
	Embeddable = aggregate.Embeddable
	// Attribute is one attribute of an Embeddable.
	Attribute = aggregate.Attribute
	// Codec encodes and decodes embeddable values.
	Codec = aggregate.Codec

	// Validator checks raw fragments and bound values for injection.
	Validator = security.Validator
	// ValidatorOption configures a Validator.
	ValidatorOption = security.ValidatorOption
	// Auditor records executed and rejected statements.
	Auditor = security.Auditor
	// AuditLevel selects which statements an Auditor records.
	AuditLevel = security.AuditLevel
)

// Statement tree nodes.
type (
	Statement  = ast.Statement
	Expression = ast.Expression
	Predicate  = ast.Predicate
	TableRef   = ast.TableRef

	Select     = ast.Select
	With       = ast.With
	CTE        = ast.CTE
	QuerySpec  = ast.QuerySpec
	QueryGroup = ast.QueryGroup
	SelectItem = ast.SelectItem
	SortSpec   = ast.SortSpec
	Lock       = ast.Lock
	Table      = ast.Table
	Derived    = ast.Derived
	Join       = ast.Join
	Insert     = ast.Insert
	Update     = ast.Update
	Delete     = ast.Delete
	Assignment = ast.Assignment
	Conflict   = ast.Conflict
	Excluded   = ast.Excluded

	Column     = ast.Column
	Literal    = ast.Literal
	Parameter  = ast.Parameter
	Func       = ast.Func
	Arithmetic = ast.Arithmetic
	Case       = ast.Case
	When       = ast.When
	Cast       = ast.Cast
	Subquery   = ast.Subquery
	Tuple      = ast.Tuple
	Raw        = ast.Raw

	Comparison = ast.Comparison
	Junction   = ast.Junction
	Not        = ast.Not
	IsNull     = ast.IsNull
	Like       = ast.Like
	InList     = ast.InList
	InSubquery = ast.InSubquery
	Exists     = ast.Exists
	Between    = ast.Between
)

// Re-exported constants.
const (
	NullsDefault = ast.NullsDefault
	NullsFirst   = ast.NullsFirst
	NullsLast    = ast.NullsLast

	InnerJoin = ast.InnerJoin
	LeftJoin  = ast.LeftJoin
	RightJoin = ast.RightJoin
	FullJoin  = ast.FullJoin
	CrossJoin = ast.CrossJoin

	Union     = ast.Union
	UnionAll  = ast.UnionAll
	Intersect = ast.Intersect
	Except    = ast.Except

	LockNone                      = locking.None
	LockRead                      = locking.Read
	LockOptimistic                = locking.Optimistic
	LockUpgrade                   = locking.Upgrade
	LockPessimisticRead           = locking.PessimisticRead
	LockPessimisticWrite          = locking.PessimisticWrite
	LockPessimisticForceIncrement = locking.PessimisticForceIncrement
	NoWait                        = locking.NoWait
	SkipLocked                    = locking.SkipLocked

	Unique     = sqlerr.Unique
	NotNull    = sqlerr.NotNull
	ForeignKey = sqlerr.ForeignKey
	Check      = sqlerr.Check

	FormatStruct = aggregate.FormatStruct
	FormatJSON   = aggregate.FormatJSON
	FormatXML    = aggregate.FormatXML

	AuditNone   = security.AuditNone
	AuditWrites = security.AuditWrites
	AuditReads  = security.AuditReads
	AuditAll    = security.AuditAll
)

// Re-export package functions.
var (
	Lookup         = dialects.Lookup
	V              = dialects.V
	ParseVersion   = dialects.ParseVersion
	Families       = dialects.Families
	Names          = dialects.Names
	WithBatchSize  = dialects.WithBatchSize
	WithCapability = dialects.WithCapabilities
	WithSequences  = dialects.WithSequenceEmulation

	NewTranslator = translator.New
	NewExecutor   = exec.New
	LoadConfig    = config.Load
	ParseConfig   = config.Parse

	// Translator options
	WithTranslatorLogger    = translator.WithLogger
	WithTranslatorTracer    = translator.WithTracer
	WithTranslatorValidator = translator.WithValidator
	WithTranslatorSanitizer = translator.WithSanitizer

	// Executor options
	WithLogger        = exec.WithLogger
	WithSanitizer     = exec.WithSanitizer
	WithTracer        = exec.WithTracer
	WithValidator     = exec.WithValidator
	WithAuditor       = exec.WithAuditor
	WithQueryHook     = exec.WithQueryHook
	WithCacheCapacity = exec.WithCacheCapacity
	WithHealthCheck   = exec.WithHealthCheck

	WithConfigLogger = config.WithLogger

	NewSlogAdapter  = logger.NewSlogAdapter
	NewSanitizer    = logger.NewSanitizer
	NewOtelTracer   = tracer.NewOtelTracer
	NewValidator    = security.NewValidator
	WithStrict      = security.WithStrict
	WithPatterns    = security.WithPatterns
	NewAuditor      = security.NewAuditor
	ParseAuditLevel = security.ParseAuditLevel
	WithUser        = security.WithUser
	WithClientIP    = security.WithClientIP
	WithRequestID   = security.WithRequestID

	NewEmbeddable  = aggregate.NewEmbeddable
	NewCodec       = aggregate.NewCodec
	IsConstraint   = sqlerr.IsConstraint
	ConstraintName = sqlerr.ConstraintName

	// Statement tree builders
	Col       = ast.Col
	TypedCol  = ast.TypedCol
	Param     = ast.Param
	Lit       = ast.Lit
	Call      = ast.Call
	Equal     = ast.Equal
	AllOf     = ast.AllOf
	AnyOf     = ast.AnyOf
	Operation = ast.Operation
)

// Error sentinels, matched with errors.Is.
var (
	ErrUnsupportedDialect  = dialects.ErrUnsupportedDialect
	ErrConfiguration       = dialects.ErrConfiguration
	ErrUnsupported         = dialects.ErrUnsupported
	ErrConstraintViolation = sqlerr.ErrConstraintViolation
	ErrLockTimeout         = sqlerr.ErrLockTimeout
	ErrLockAcquisition     = sqlerr.ErrLockAcquisition
	ErrPessimisticLock     = sqlerr.ErrPessimisticLock
	ErrQueryTimeout        = sqlerr.ErrQueryTimeout
	ErrSQLGrammar          = sqlerr.ErrSQLGrammar
	ErrDataError           = sqlerr.ErrDataError
	ErrConnection          = sqlerr.ErrConnection
	ErrDangerousFragment   = security.ErrDangerousFragment
	ErrSuspiciousParam     = security.ErrSuspiciousParam
	ErrInvalidConfig       = config.ErrInvalid
)
