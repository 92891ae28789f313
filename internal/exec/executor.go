// Package exec runs translated statements on a database/sql connection:
// it translates, prepares through an LRU statement cache, binds and
// converts driver errors with the dialect's converter.
package exec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coregx/sqldialect/internal/analyzer"
	"github.com/coregx/sqldialect/internal/ast"
	"github.com/coregx/sqldialect/internal/cache"
	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/logger"
	"github.com/coregx/sqldialect/internal/security"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/tracer"
	"github.com/coregx/sqldialect/internal/translator"
)

// Executor executes statement trees for one dialect. It is safe for
// concurrent use; an Executor bound to a transaction is not.
type Executor struct {
	db         *sql.DB
	tx         *sql.Tx
	translator *translator.Translator
	dialect    *dialects.Dialect
	cache      *cache.StmtCache
	capacity   int
	logger     logger.Logger
	sanitizer  *logger.Sanitizer
	tracer     tracer.Tracer
	validator  *security.Validator
	auditor    *security.Auditor
	hook       QueryHook

	healthInterval time.Duration
	health         *healthChecker
	analyzer       *analyzer.Analyzer
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger for execution events.
func WithLogger(l logger.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSanitizer sets the sanitizer masking parameter values in logs.
func WithSanitizer(s *logger.Sanitizer) Option {
	return func(e *Executor) {
		if s != nil {
			e.sanitizer = s
		}
	}
}

// WithTracer sets the tracer; every execution gets a "sqldialect.exec" span.
func WithTracer(t tracer.Tracer) Option {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithValidator sets the validator. In strict mode bound string values are
// checked for injection payloads before they reach the driver.
func WithValidator(v *security.Validator) Option {
	return func(e *Executor) {
		if v != nil {
			e.validator = v
		}
	}
}

// WithAuditor records executed and rejected statements.
func WithAuditor(a *security.Auditor) Option {
	return func(e *Executor) {
		if a != nil {
			e.auditor = a
		}
	}
}

// WithQueryHook registers a callback invoked after each execution.
func WithQueryHook(h QueryHook) Option {
	return func(e *Executor) { e.hook = h }
}

// WithCacheCapacity sets the prepared statement cache capacity.
func WithCacheCapacity(n int) Option {
	return func(e *Executor) { e.capacity = n }
}

// New returns an executor running statements translated by tr on db.
func New(db *sql.DB, tr *translator.Translator, opts ...Option) *Executor {
	e := &Executor{
		db:         db,
		translator: tr,
		dialect:    tr.Dialect(),
		logger:     &logger.NoopLogger{},
		sanitizer:  logger.NewSanitizer(nil),
		tracer:     &tracer.NoopTracer{},
		validator:  security.NewValidator(),
		auditor:    security.NewAuditor(nil, security.AuditNone),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache = cache.New(e.capacity)
	e.analyzer = analyzer.New(e.dialect, e.logger)
	if e.healthInterval > 0 {
		e.health = newHealthChecker(db, e.dialect, e.logger, e.healthInterval)
		e.health.start()
	}
	return e
}

// Dialect returns the dialect statements are rendered for.
func (e *Executor) Dialect() *dialects.Dialect { return e.dialect }

// CacheStats returns prepared statement cache statistics.
func (e *Executor) CacheStats() cache.Stats { return e.cache.Stats() }

// Close stops the health checker and releases every cached prepared
// statement. It does not close the database.
func (e *Executor) Close() error {
	if e.health != nil {
		e.health.shutdown()
	}
	e.cache.Clear()
	return nil
}

// WithTx returns an executor running statements inside tx. Statements
// prepared in a transaction bypass the cache.
func (e *Executor) WithTx(tx *sql.Tx) *Executor {
	cp := *e
	cp.tx = tx
	return &cp
}

// Transactional runs fn inside a transaction, committing when fn returns
// nil and rolling back on error or panic.
func (e *Executor) Transactional(ctx context.Context, opts *sql.TxOptions, fn func(tx *Executor) error) error {
	if e.tx != nil {
		return fn(e)
	}
	tx, err := e.db.BeginTx(ctx, opts)
	if err != nil {
		return e.dialect.ConvertError(err, "")
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(e.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return e.dialect.ConvertError(err, "")
	}
	committed = true
	return nil
}

// Rows is the result of Query.
type Rows struct {
	*sql.Rows
	// SQL is the executed statement.
	SQL string
	// FollowOnLocking reports that the requested row locks were not part of
	// SQL; the caller locks the returned rows in a separate statement.
	FollowOnLocking bool

	dialect *dialects.Dialect
}

// Err returns the converted iteration error, if any.
func (r *Rows) Err() error {
	return r.dialect.ConvertError(r.Rows.Err(), r.SQL)
}

// Exec executes an INSERT, UPDATE or DELETE statement.
func (e *Executor) Exec(ctx context.Context, stmt ast.Statement) (sql.Result, error) {
	ctx, span := e.tracer.StartSpan(ctx, "sqldialect.exec")
	defer span.End()

	start := time.Now()
	c, err := e.prepare(ctx, stmt)
	if err != nil {
		e.fail(ctx, span, stmt, c, err, time.Since(start))
		return nil, err
	}
	defer c.close()

	result, err := c.stmt.ExecContext(ctx, c.args...)
	err = e.dialect.ConvertError(err, c.res.SQL)
	var rows int64
	if result != nil && err == nil {
		rows, _ = result.RowsAffected()
	}
	e.report(ctx, span, c, rows, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Query executes a SELECT statement. The caller closes the returned rows.
func (e *Executor) Query(ctx context.Context, stmt ast.Statement) (*Rows, error) {
	ctx, span := e.tracer.StartSpan(ctx, "sqldialect.exec")
	defer span.End()

	start := time.Now()
	c, err := e.prepare(ctx, stmt)
	if err != nil {
		e.fail(ctx, span, stmt, c, err, time.Since(start))
		return nil, err
	}

	rows, err := c.stmt.QueryContext(ctx, c.args...)
	err = e.dialect.ConvertError(err, c.res.SQL)
	e.report(ctx, span, c, 0, err, time.Since(start))
	if err != nil {
		c.close()
		return nil, err
	}
	// Statements prepared in a transaction stay open until the transaction
	// ends; database/sql closes them then.
	return &Rows{Rows: rows, SQL: c.res.SQL, FollowOnLocking: c.res.FollowOnLocking, dialect: e.dialect}, nil
}

// Explain translates stmt and returns the database's execution plan for
// it. The statement itself is not executed.
func (e *Executor) Explain(ctx context.Context, stmt ast.Statement) (*analyzer.Plan, error) {
	ctx, span := e.tracer.StartSpan(ctx, "sqldialect.explain")
	defer span.End()

	res, err := e.translator.TranslateContext(ctx, stmt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	args, err := res.Args()
	if err != nil {
		return nil, fmt.Errorf("sqldialect: bind: %w", err)
	}
	var q analyzer.Querier = e.db
	if e.tx != nil {
		q = e.tx
	}
	plan, err := e.analyzer.Explain(ctx, q, res.SQL, args)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return plan, nil
}

// call is one translated and prepared statement.
type call struct {
	res      *translator.Result
	args     []any
	stmt     *sql.Stmt
	ownsStmt bool
}

func (c *call) close() {
	if c.ownsStmt {
		_ = c.stmt.Close()
	}
}

// prepare translates, binds and prepares stmt. On failure the returned call
// carries whatever translation produced.
func (e *Executor) prepare(ctx context.Context, stmt ast.Statement) (*call, error) {
	res, err := e.translator.TranslateContext(ctx, stmt)
	if err != nil {
		if errors.Is(err, security.ErrDangerousFragment) {
			e.auditor.RecordRejected(ctx, "fragment_blocked", security.Statement{
				Dialect:   e.dialect.String(),
				Operation: ast.Operation(stmt),
			}, err)
		}
		return nil, err
	}
	c := &call{res: res}

	if c.args, err = res.Args(); err != nil {
		return c, fmt.Errorf("sqldialect: bind: %w", err)
	}
	if e.validator.Strict() {
		if err := e.validator.ValidateParams(res.Values()); err != nil {
			e.auditor.RecordRejected(ctx, "params_blocked", e.auditStatement(c), err)
			return c, err
		}
	}

	if e.tx != nil {
		c.stmt, err = e.tx.PrepareContext(ctx, res.SQL)
		c.ownsStmt = true
	} else {
		c.stmt, err = e.cache.Prepare(ctx, e.db, cache.Key{Dialect: e.dialect.String(), SQL: res.SQL})
	}
	if err != nil {
		return c, e.dialect.ConvertError(err, res.SQL)
	}
	return c, nil
}

func (e *Executor) auditStatement(c *call) security.Statement {
	return security.Statement{
		Dialect:   e.dialect.String(),
		Operation: c.res.Operation,
		SQL:       c.res.SQL,
		Tables:    c.res.AffectedTables,
		Args:      c.args,
	}
}

// fail reports a statement that never reached execution.
func (e *Executor) fail(ctx context.Context, span tracer.Span, stmt ast.Statement, c *call, err error, elapsed time.Duration) {
	if c != nil {
		e.report(ctx, span, c, 0, err, elapsed)
		return
	}
	tracer.AddAttributes(span, &tracer.Metadata{
		System:    e.dialect.Name(),
		Operation: ast.Operation(stmt),
		Duration:  elapsed,
		Error:     err,
	})
	e.logger.Error("statement translation failed",
		"dialect", e.dialect.String(),
		"operation", ast.Operation(stmt),
		"error", err,
	)
	e.invokeHook(ctx, QueryEvent{
		Dialect:   e.dialect.String(),
		Operation: ast.Operation(stmt),
		Duration:  elapsed,
		Error:     err,
	})
}

// report logs, traces, audits and hooks one execution.
func (e *Executor) report(ctx context.Context, span tracer.Span, c *call, rows int64, err error, elapsed time.Duration) {
	res := c.res
	tracer.AddAttributes(span, &tracer.Metadata{
		System:       e.dialect.Name(),
		Statement:    res.SQL,
		Operation:    res.Operation,
		Tables:       res.AffectedTables,
		Parameters:   len(res.Parameters),
		Duration:     elapsed,
		RowsAffected: rows,
		Error:        err,
	})

	params := e.sanitizer.FormatParams(e.sanitizer.Mask(res.SQL, res.Names(), res.Values()))
	if err != nil {
		e.logger.Error("statement execution failed",
			"dialect", e.dialect.String(),
			"sql", res.SQL,
			"params", params,
			"duration_ms", elapsed.Milliseconds(),
			"kind", errorKind(err),
			"error", err,
		)
	} else {
		e.logger.Debug("statement executed",
			"dialect", e.dialect.String(),
			"sql", res.SQL,
			"params", params,
			"duration_ms", elapsed.Milliseconds(),
			"rows_affected", rows,
			"follow_on_locking", res.FollowOnLocking,
		)
	}

	if !errors.Is(err, security.ErrSuspiciousParam) {
		e.auditor.Record(ctx, e.auditStatement(c), rows, err, elapsed)
	}
	e.invokeHook(ctx, QueryEvent{
		Dialect:         e.dialect.String(),
		SQL:             res.SQL,
		Args:            c.args,
		Duration:        elapsed,
		RowsAffected:    rows,
		Error:           err,
		Operation:       res.Operation,
		FollowOnLocking: res.FollowOnLocking,
	})
}

// errorKind names the converted error kind for logs.
func errorKind(err error) string {
	var se *sqlerr.Error
	if errors.As(err, &se) {
		return se.Kind.String()
	}
	return "unconverted"
}
