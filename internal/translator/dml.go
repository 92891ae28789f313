package translator

import (
	"strings"

	"github.com/coregx/sqldialect/internal/ast"
	"github.com/coregx/sqldialect/internal/dialects"
)

const (
	mergeSource = "s_"
	insertAlias = "new_"
)

func (r *renderer) insert(s *ast.Insert) (string, error) {
	with, err := r.with(s.With)
	if err != nil {
		return "", err
	}
	table := r.tableName(&s.Table)

	if s.Source == nil && len(s.Columns) == 0 && (len(s.Values) == 0 || (len(s.Values) == 1 && len(s.Values[0]) == 0)) {
		if s.Conflict != nil {
			return "", invalid("upsert without columns")
		}
		out, tail, err := r.returning(s.Returning, "inserted")
		if err != nil {
			return "", err
		}
		if out != "" {
			return "", r.d.Unsupported("output clause on a column-less insert")
		}
		return with + r.d.NoColumnsInsert(table) + tail, nil
	}
	if s.Source != nil && len(s.Values) > 0 {
		return "", invalid("insert with both values and a source query")
	}
	if s.Conflict != nil && r.caps.Conflict == dialects.ConflictMerge {
		if s.With != nil {
			return "", r.d.Unsupported("common table expressions in a merge")
		}
		return r.merge(s, table)
	}

	var b strings.Builder
	b.WriteString(with + "insert into " + table)
	if len(s.Columns) > 0 {
		b.WriteString(" (" + r.idents(s.Columns) + ")")
	}
	out, tail, err := r.returning(s.Returning, "inserted")
	if err != nil {
		return "", err
	}
	b.WriteString(out)

	if s.Source != nil {
		if spec, ok := s.Source.(*ast.QuerySpec); ok {
			r.root = spec
		}
		q, err := r.queryPart(s.Source, true)
		if err != nil {
			return "", err
		}
		b.WriteString(" " + q)
	} else {
		rows, err := r.valueRows(s)
		if err != nil {
			return "", err
		}
		b.WriteString(rows)
	}

	if s.Conflict != nil {
		c, err := r.conflict(s)
		if err != nil {
			return "", err
		}
		b.WriteString(c)
	}
	b.WriteString(tail)
	return b.String() + r.optionClause(), nil
}

func (r *renderer) row(s *ast.Insert, values []ast.Expression) ([]string, error) {
	if len(s.Columns) > 0 && len(values) != len(s.Columns) {
		return nil, invalid("row of %d values for %d columns", len(values), len(s.Columns))
	}
	out := make([]string, len(values))
	for i, v := range values {
		var peer ast.Expression
		if len(s.Columns) > 0 {
			peer = &ast.Column{Name: s.Columns[i]}
		}
		str, err := r.operand(v, peer)
		if err != nil {
			return nil, err
		}
		out[i] = str
	}
	return out, nil
}

// valueRows renders the VALUES rows, or a union of single-row selects on
// dialects without multi-row VALUES.
func (r *renderer) valueRows(s *ast.Insert) (string, error) {
	if len(s.Values) == 0 {
		return "", invalid("insert without rows")
	}
	rows := make([]string, len(s.Values))
	for i, v := range s.Values {
		items, err := r.row(s, v)
		if err != nil {
			return "", err
		}
		rows[i] = strings.Join(items, ", ")
	}
	if len(rows) == 1 || r.caps.MultiRowValues {
		out := " values (" + strings.Join(rows, "), (") + ")"
		if r.useInsertAlias(s) {
			out += " as " + insertAlias
		}
		return out, nil
	}
	from := ""
	if r.caps.FromDual != "" {
		from = " from " + r.caps.FromDual
	}
	return " select " + strings.Join(rows, from+" union all select ") + from, nil
}

func (r *renderer) useInsertAlias(s *ast.Insert) bool {
	return s.Conflict != nil && r.caps.Conflict == dialects.ConflictOnDuplicateKey &&
		r.caps.ConflictAlias && s.Source == nil
}

func (r *renderer) assignments(set []ast.Assignment) (string, error) {
	if len(set) == 0 {
		return "", invalid("empty set clause")
	}
	parts := make([]string, len(set))
	for i, a := range set {
		col := r.ident(a.Column, false)
		v, err := r.operand(a.Value, &ast.Column{Name: a.Column})
		if err != nil {
			return "", err
		}
		parts[i] = col + " = " + v
	}
	return strings.Join(parts, ", "), nil
}

func (r *renderer) conflict(s *ast.Insert) (string, error) {
	c := s.Conflict
	switch r.caps.Conflict {
	case dialects.ConflictOnConflict:
		var b strings.Builder
		b.WriteString(" on conflict")
		switch {
		case c.Constraint != "":
			b.WriteString(" on constraint " + r.ident(c.Constraint, false))
		case len(c.Columns) > 0:
			b.WriteString(" (" + r.idents(c.Columns) + ")")
		case !c.DoNothing:
			return "", invalid("upsert update without a conflict target")
		}
		if c.DoNothing {
			b.WriteString(" do nothing")
			return b.String(), nil
		}
		r.excluded = func(col string) string { return "excluded." + col }
		defer func() { r.excluded = nil }()
		set, err := r.assignments(c.Set)
		if err != nil {
			return "", err
		}
		b.WriteString(" do update set " + set)
		if c.Where != nil {
			w, err := r.predicate(c.Where)
			if err != nil {
				return "", err
			}
			b.WriteString(" where " + w)
		}
		return b.String(), nil

	case dialects.ConflictOnDuplicateKey:
		if c.Where != nil {
			return "", r.d.Unsupported("conditional upsert")
		}
		if c.DoNothing {
			key := c.Columns
			if len(key) == 0 {
				key = s.Columns
			}
			if len(key) == 0 {
				return "", invalid("upsert without columns")
			}
			col := r.ident(key[0], false)
			return " on duplicate key update " + col + " = " + col, nil
		}
		if r.useInsertAlias(s) {
			r.excluded = func(col string) string { return insertAlias + "." + col }
		} else {
			r.excluded = func(col string) string { return "values(" + col + ")" }
		}
		defer func() { r.excluded = nil }()
		set, err := r.assignments(c.Set)
		if err != nil {
			return "", err
		}
		return " on duplicate key update " + set, nil
	}
	return "", r.d.Unsupported("insert conflict handling")
}

// merge renders an upsert of VALUES rows as MERGE keyed on the conflict
// columns.
func (r *renderer) merge(s *ast.Insert, table string) (string, error) {
	c := s.Conflict
	switch {
	case s.Source != nil:
		return "", r.d.Unsupported("merge upsert from a query")
	case len(c.Columns) == 0:
		return "", r.d.Unsupported("merge upsert without key columns")
	case c.Where != nil:
		return "", r.d.Unsupported("conditional merge upsert")
	case len(s.Returning) > 0:
		return "", r.d.Unsupported("returning from a merge upsert")
	case len(s.Columns) == 0 || len(s.Values) == 0:
		return "", invalid("merge upsert without columns")
	}

	cols := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		cols[i] = r.ident(col, false)
	}
	from := ""
	if r.caps.FromDual != "" {
		from = " from " + r.caps.FromDual
	}
	rows := make([]string, len(s.Values))
	for i, v := range s.Values {
		items, err := r.row(s, v)
		if err != nil {
			return "", err
		}
		for j := range items {
			items[j] += " " + cols[j]
		}
		rows[i] = "select " + strings.Join(items, ", ") + from
	}

	target := table
	if s.Table.Alias != "" {
		target = r.ident(s.Table.Alias, false)
		table += " " + target
	}
	on := make([]string, len(c.Columns))
	for i, k := range c.Columns {
		k = r.ident(k, false)
		on[i] = target + "." + k + " = " + mergeSource + "." + k
	}
	src := make([]string, len(cols))
	for i, col := range cols {
		src[i] = mergeSource + "." + col
	}

	var b strings.Builder
	b.WriteString("merge into " + table + " using (" + strings.Join(rows, " union all ") + ") " + mergeSource)
	b.WriteString(" on (" + strings.Join(on, " and ") + ")")
	if !c.DoNothing {
		r.excluded = func(col string) string { return mergeSource + "." + col }
		set, err := r.assignments(c.Set)
		r.excluded = nil
		if err != nil {
			return "", err
		}
		b.WriteString(" when matched then update set " + set)
	}
	b.WriteString(" when not matched then insert (" + strings.Join(cols, ", ") + ") values (" + strings.Join(src, ", ") + ")")
	if r.caps.MergeTerminate {
		b.WriteString(";")
	}
	return b.String(), nil
}

// dmlTarget renders the target table of an update or delete. Dialects that
// cannot alias the target get the table name wherever the alias was used.
func (r *renderer) dmlTarget(t *ast.Table) string {
	name := r.tableName(t)
	if t.Alias == "" {
		return name
	}
	if r.caps.DMLTargetAlias {
		return name + " " + r.ident(t.Alias, false)
	}
	r.targetAlias, r.targetName = t.Alias, name
	return name
}

func (r *renderer) update(s *ast.Update) (string, error) {
	table := r.dmlTarget(&s.Table)
	set, err := r.assignments(s.Set)
	if err != nil {
		return "", err
	}
	out, tail, err := r.returning(s.Returning, "inserted")
	if err != nil {
		return "", err
	}
	where, err := r.where(s.Where)
	if err != nil {
		return "", err
	}
	return "update " + table + " set " + set + out + where + tail, nil
}

func (r *renderer) delete(s *ast.Delete) (string, error) {
	table := r.dmlTarget(&s.Table)
	out, tail, err := r.returning(s.Returning, "deleted")
	if err != nil {
		return "", err
	}
	where, err := r.where(s.Where)
	if err != nil {
		return "", err
	}
	return "delete from " + table + out + where + tail, nil
}

func (r *renderer) where(p ast.Predicate) (string, error) {
	if p == nil {
		return "", nil
	}
	s, err := r.predicate(p)
	if err != nil {
		return "", err
	}
	return " where " + s, nil
}

// returning renders generated-value retrieval either as an OUTPUT clause
// placed before the row source (out) or as a trailing RETURNING clause.
func (r *renderer) returning(items []ast.Expression, pseudo string) (out, tail string, err error) {
	if len(items) == 0 {
		return "", "", nil
	}
	switch r.caps.Returning {
	case dialects.ReturningClause:
		s, err := r.exprs(items)
		if err != nil {
			return "", "", err
		}
		return "", " returning " + s, nil
	case dialects.ReturningOutput:
		cols := make([]string, len(items))
		for i, it := range items {
			switch e := it.(type) {
			case *ast.Column:
				cols[i] = pseudo + "." + r.ident(e.Name, e.Quoted)
			case *ast.Star:
				cols[i] = pseudo + ".*"
			default:
				return "", "", r.d.Unsupported("returning expressions other than columns")
			}
		}
		return " output " + strings.Join(cols, ", "), "", nil
	}
	return "", "", r.d.Unsupported("returning")
}
