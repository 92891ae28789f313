// Package translator renders database-agnostic statement trees as SQL for one
// dialect, emulating constructs the dialect lacks and rejecting the ones it
// cannot express.
package translator

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/coregx/sqldialect/internal/ast"
	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/logger"
	"github.com/coregx/sqldialect/internal/security"
	"github.com/coregx/sqldialect/internal/sqltypes"
	"github.com/coregx/sqldialect/internal/tracer"
)

// ErrInvalidStatement is returned for malformed statement trees.
var ErrInvalidStatement = errors.New("sqldialect: invalid statement")

// ErrUnsupported is matched by every UnsupportedError.
var ErrUnsupported = dialects.ErrUnsupported

// UnsupportedError reports a construct the dialect cannot express.
type UnsupportedError = dialects.UnsupportedError

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidStatement}, args...)...)
}

// Binder is one positional parameter of a translated statement.
type Binder struct {
	// Position is the 1-based placeholder index.
	Position int
	// Name is the parameter name, or the column it is compared with or
	// assigned to.
	Name  string
	Type  sqltypes.Code
	Value any
}

// Bind converts the value for the driver using the binder of its type.
func (b Binder) Bind() (driver.Value, error) {
	v, err := sqltypes.DescriptorFor(b.Type).Bind(b.Value)
	if err != nil {
		return nil, fmt.Errorf("parameter %d: %w", b.Position, err)
	}
	return v, nil
}

// Result is a translated statement.
type Result struct {
	SQL        string
	Parameters []Binder
	// AffectedTables lists the tables the statement references, sorted.
	AffectedTables []string
	// FollowOnLocking is set when the requested row lock could not be
	// expressed in the statement and must be acquired by a separate
	// locking statement after the rows are read.
	FollowOnLocking bool
	// Operation is the SQL verb, e.g. "SELECT".
	Operation string
}

// Args binds every parameter in placeholder order.
func (r *Result) Args() ([]any, error) {
	args := make([]any, len(r.Parameters))
	for i, p := range r.Parameters {
		v, err := p.Bind()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// Names returns the binder names in placeholder order.
func (r *Result) Names() []string {
	names := make([]string, len(r.Parameters))
	for i, p := range r.Parameters {
		names[i] = p.Name
	}
	return names
}

// Values returns the unbound parameter values in placeholder order.
func (r *Result) Values() []any {
	values := make([]any, len(r.Parameters))
	for i, p := range r.Parameters {
		values[i] = p.Value
	}
	return values
}

// Translator renders statements for one dialect. It holds no per-statement
// state and is safe for concurrent use.
type Translator struct {
	dialect   *dialects.Dialect
	logger    logger.Logger
	tracer    tracer.Tracer
	validator *security.Validator
	sanitizer *logger.Sanitizer
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger for translation events.
func WithLogger(l logger.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTracer sets the tracer; every translation gets a span.
func WithTracer(tr tracer.Tracer) Option {
	return func(t *Translator) {
		if tr != nil {
			t.tracer = tr
		}
	}
}

// WithValidator replaces the validator applied to raw fragments and hints.
func WithValidator(v *security.Validator) Option {
	return func(t *Translator) {
		if v != nil {
			t.validator = v
		}
	}
}

// WithSanitizer sets the sanitizer masking parameter values in debug logs.
func WithSanitizer(s *logger.Sanitizer) Option {
	return func(t *Translator) {
		if s != nil {
			t.sanitizer = s
		}
	}
}

// New returns a translator for d.
func New(d *dialects.Dialect, opts ...Option) *Translator {
	t := &Translator{
		dialect:   d,
		logger:    &logger.NoopLogger{},
		tracer:    &tracer.NoopTracer{},
		validator: security.NewValidator(),
		sanitizer: logger.NewSanitizer(nil),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dialect returns the target dialect.
func (t *Translator) Dialect() *dialects.Dialect { return t.dialect }

// Translate renders stmt.
func (t *Translator) Translate(stmt ast.Statement) (*Result, error) {
	return t.TranslateContext(context.Background(), stmt)
}

// TranslateContext renders stmt inside a "sqldialect.translate" span.
func (t *Translator) TranslateContext(ctx context.Context, stmt ast.Statement) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, span := t.tracer.StartSpan(ctx, "sqldialect.translate")
	defer span.End()

	start := time.Now()
	res, err := t.translate(stmt)

	meta := &tracer.Metadata{
		System:    t.dialect.Name(),
		Operation: ast.Operation(stmt),
		Duration:  time.Since(start),
		Error:     err,
	}
	if res != nil {
		meta.Statement = res.SQL
		meta.Tables = res.AffectedTables
		meta.Parameters = len(res.Parameters)
		span.SetAttributes(attribute.Bool("sqldialect.follow_on_locking", res.FollowOnLocking))
	}
	tracer.AddAttributes(span, meta)

	if err != nil {
		t.logger.Debug("translation failed",
			"dialect", t.dialect.String(),
			"operation", meta.Operation,
			"error", err,
		)
		return nil, err
	}
	t.logger.Debug("statement translated",
		"dialect", t.dialect.String(),
		"operation", res.Operation,
		"sql", res.SQL,
		"params", t.sanitizer.FormatParams(t.sanitizer.Mask(res.SQL, res.Names(), res.Values())),
		"follow_on_locking", res.FollowOnLocking,
	)
	return res, nil
}

func (t *Translator) translate(stmt ast.Statement) (*Result, error) {
	r := newRenderer(t)
	var (
		sql string
		err error
	)
	switch s := stmt.(type) {
	case *ast.Select:
		sql, err = r.selectStatement(s)
	case *ast.Insert:
		sql, err = r.insert(s)
	case *ast.Update:
		sql, err = r.update(s)
	case *ast.Delete:
		sql, err = r.delete(s)
	case nil:
		err = invalid("nil statement")
	default:
		err = invalid("unknown statement %T", stmt)
	}
	if err == nil {
		err = r.err
	}
	if err != nil {
		return nil, err
	}
	text, params := r.finish(sql)
	return &Result{
		SQL:             text,
		Parameters:      params,
		AffectedTables:  r.affectedTables(),
		FollowOnLocking: r.followOn,
		Operation:       ast.Operation(stmt),
	}, nil
}
