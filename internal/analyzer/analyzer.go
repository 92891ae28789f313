// Package analyzer requests and summarizes execution plans of translated
// statements, using the explain form of the target dialect.
package analyzer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/logger"
)

// Plan is a dialect-independent summary of an execution plan.
type Plan struct {
	Dialect string
	Style   dialects.ExplainStyle

	Cost          float64 // estimated cost in vendor units; 0 when not reported
	EstimatedRows int64   // estimated rows; 0 when not reported

	UsesIndex bool
	IndexName string // first index used
	FullScan  bool
	Tables    []string // tables named by the plan, in plan order

	RawOutput string // plan rows joined by newlines, columns by tabs
}

// Querier runs a query. *sql.DB, *sql.Conn and *sql.Tx implement it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Analyzer explains statements for one dialect.
type Analyzer struct {
	dialect *dialects.Dialect
	logger  logger.Logger
}

// New returns an analyzer for d. A nil logger discards output.
func New(d *dialects.Dialect, l logger.Logger) *Analyzer {
	if l == nil {
		l = &logger.NoopLogger{}
	}
	return &Analyzer{dialect: d, logger: l}
}

// Explain runs the dialect's explain form of query with args on q and
// summarizes the plan. Dialects without a result-set explain form fail with
// an error matching dialects.ErrUnsupported.
func (a *Analyzer) Explain(ctx context.Context, q Querier, query string, args []any) (*Plan, error) {
	explain, err := a.dialect.Explain(query)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, explain, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute explain: %w", a.dialect.ConvertError(err, explain))
	}
	lines, err := readRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read explain output: %w", err)
	}

	style := a.dialect.Capabilities().Explain
	plan, err := parse(style, lines)
	if err != nil {
		return nil, err
	}
	plan.Dialect = a.dialect.String()
	plan.Style = style

	a.logger.Debug("statement explained",
		"dialect", plan.Dialect,
		"full_scan", plan.FullScan,
		"index", plan.IndexName,
		"cost", plan.Cost)
	return plan, nil
}

// row is one explain output row.
type row struct {
	cols []string
	vals []string
}

// get returns the value of the named column, or "".
func (r row) get(name string) string {
	for i, c := range r.cols {
		if strings.EqualFold(c, name) {
			return r.vals[i]
		}
	}
	return ""
}

// last returns the last column, where vendors put the plan detail.
func (r row) last() string {
	if len(r.vals) == 0 {
		return ""
	}
	return r.vals[len(r.vals)-1]
}

func readRows(rows *sql.Rows) (out []row, err error) {
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r := row{cols: cols, vals: make([]string, len(cols))}
		for i, v := range vals {
			r.vals[i] = v.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
