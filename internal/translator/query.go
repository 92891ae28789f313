package translator

import (
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/coregx/sqldialect/internal/ast"
	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/pagination"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

func (r *renderer) selectStatement(s *ast.Select) (string, error) {
	with, err := r.with(s.With)
	if err != nil {
		return "", err
	}
	spec, isSpec := s.Query.(*ast.QuerySpec)
	if isSpec {
		r.root = spec
	}

	var lockClause string
	if l := s.Lock; l != nil && l.Mode.Pessimistic() {
		paged := isSpec && (spec.Offset != nil || spec.Fetch != nil)
		for _, a := range l.Of {
			r.text(a)
		}
		switch {
		case !isSpec, r.caps.Lock == dialects.LockNone,
			paged && !r.caps.LockWithPagination,
			spec.Distinct && !r.caps.LockWithDistinct:
			r.followOn = true
			r.t.logger.Debug("row lock deferred to a follow-on statement",
				"dialect", r.d.String(),
				"mode", l.Mode.String(),
			)
		case r.caps.Lock == dialects.LockHint:
			r.lockHint = r.d.LockHint(l.Mode, l.Timeout)
			if len(l.Of) > 0 {
				r.lockOf = make(map[string]bool, len(l.Of))
				for _, a := range l.Of {
					r.lockOf[a] = true
				}
			}
		default:
			lockClause = r.d.LockClause(l.Mode, l.Timeout, l.Of...)
		}
	}

	body, err := r.queryPart(s.Query, true)
	if err != nil {
		return "", err
	}
	return with + body + lockClause + r.optionClause(), nil
}

func (r *renderer) optionClause() string {
	if len(r.options) == 0 {
		return ""
	}
	return " option (" + strings.Join(r.options, ", ") + ")"
}

func (r *renderer) with(w *ast.With) (string, error) {
	if w == nil || len(w.CTEs) == 0 {
		return "", nil
	}
	if !r.caps.CTE {
		return "", r.d.Unsupported("common table expressions")
	}
	if w.Recursive && !r.caps.RecursiveCTE {
		return "", r.d.Unsupported("recursive common table expressions")
	}
	for _, c := range w.CTEs {
		r.ctes[strings.ToLower(c.Name)] = struct{}{}
	}
	parts := make([]string, len(w.CTEs))
	for i, c := range w.CTEs {
		q := c.Query
		if w.Recursive && r.caps.RecursiveCTEWidening {
			q = r.widen(c)
		}
		body, err := r.queryPart(q, true)
		if err != nil {
			return "", err
		}
		head := r.ident(c.Name, false)
		if len(c.Columns) > 0 {
			names := make([]string, len(c.Columns))
			for j, col := range c.Columns {
				names[j] = r.ident(col.Name, false)
			}
			head += "(" + strings.Join(names, ", ") + ")"
		}
		parts[i] = head + " as (" + body + ")"
	}
	kw := "with "
	if w.Recursive && r.caps.RecursiveKeyword {
		kw = "with recursive "
	}
	return kw + strings.Join(parts, ", ") + " ", nil
}

// widen casts the character columns of a recursive CTE's anchor member to
// the widest varchar, so values built up by the recursive member fit.
func (r *renderer) widen(c ast.CTE) ast.QueryPart {
	g, ok := c.Query.(*ast.QueryGroup)
	if !ok || len(g.Parts) == 0 {
		return c.Query
	}
	anchor, ok := g.Parts[0].(*ast.QuerySpec)
	if !ok {
		return c.Query
	}
	items := slices.Clone(anchor.Select)
	changed := false
	for i, col := range c.Columns {
		if i >= len(items) || !col.Type.IsCharacter() {
			continue
		}
		items[i].Expr = &ast.Cast{
			Expr: items[i].Expr,
			Type: sqltypes.VarChar,
			Size: sqltypes.Size{Length: r.caps.MaxVarcharLength},
		}
		changed = true
	}
	if !changed {
		return c.Query
	}
	a := *anchor
	a.Select = items
	widened := *g
	widened.Parts = slices.Clone(g.Parts)
	widened.Parts[0] = &a
	return &widened
}

// queryPart renders q. With wrap set, pagination the dialect cannot write
// inline may be emulated by wrapping q in derived tables.
func (r *renderer) queryPart(q ast.QueryPart, wrap bool) (string, error) {
	switch q := q.(type) {
	case *ast.QuerySpec:
		return r.querySpec(q, wrap)
	case *ast.QueryGroup:
		return r.queryGroup(q, wrap)
	case nil:
		return "", invalid("missing query")
	}
	return "", invalid("unknown query part %T", q)
}

// specSQL is a rendered query specification before pagination is applied.
type specSQL struct {
	head  string
	items []string
	body  string
	order string
}

func (p specSQL) String(prefix, clause string) string {
	s := p.head + prefix + strings.Join(p.items, ", ") + p.body
	if p.order != "" {
		s += " order by " + p.order
	}
	return s + clause
}

// alias names one select item for emulations that reference the items from
// an enclosing query.
type alias struct {
	name string
	as   bool
	// star qualifies an unqualified *.
	star string
}

func (r *renderer) specParts(q *ast.QuerySpec, proj []alias) (specSQL, error) {
	var p specSQL
	root := q == r.root
	hints, err := r.hints(q, root)
	if err != nil {
		return p, err
	}
	p.head = "select " + hints
	if q.Distinct {
		p.head += "distinct "
	}

	if len(q.Select) == 0 {
		return p, invalid("empty select list")
	}
	p.items = make([]string, len(q.Select))
	for i, it := range q.Select {
		if proj != nil && proj[i].star != "" {
			p.items[i] = proj[i].star + ".*"
			continue
		}
		s, err := r.expr(it.Expr)
		if err != nil {
			return p, err
		}
		switch {
		case proj != nil && proj[i].as:
			s += " as " + proj[i].name
		case proj == nil && it.Alias != "":
			s += " as " + r.ident(it.Alias, false)
		}
		p.items[i] = s
	}

	var b strings.Builder
	switch {
	case len(q.From) > 0:
		refs := make([]string, len(q.From))
		for i, ref := range q.From {
			if refs[i], err = r.tableRef(ref, root && r.lockHint != ""); err != nil {
				return p, err
			}
		}
		b.WriteString(" from " + strings.Join(refs, ", "))
	case r.caps.FromDual != "":
		b.WriteString(" from " + r.caps.FromDual)
	}
	if q.Where != nil {
		s, err := r.predicate(q.Where)
		if err != nil {
			return p, err
		}
		b.WriteString(" where " + s)
	}
	if len(q.GroupBy) > 0 {
		s, err := r.exprs(q.GroupBy)
		if err != nil {
			return p, err
		}
		b.WriteString(" group by " + s)
	}
	if q.Having != nil {
		s, err := r.predicate(q.Having)
		if err != nil {
			return p, err
		}
		b.WriteString(" having " + s)
	}
	p.body = b.String()

	if p.order, err = r.orderBy(q.OrderBy); err != nil {
		return p, err
	}
	return p, nil
}

func (r *renderer) hints(q *ast.QuerySpec, root bool) (string, error) {
	if len(q.Hints) == 0 {
		return "", nil
	}
	for _, h := range q.Hints {
		if strings.Contains(h, "*/") {
			return "", invalid("hint %q closes its comment", h)
		}
		if _, err := r.fragment(h); err != nil {
			return "", err
		}
	}
	switch r.caps.Hints {
	case dialects.HintComment:
		return "/*+ " + strings.Join(q.Hints, " ") + " */ ", nil
	case dialects.HintOption:
		if root {
			r.options = append(r.options, q.Hints...)
			return "", nil
		}
	}
	r.t.logger.Debug("optimizer hints dropped",
		"dialect", r.d.String(),
		"hints", q.Hints,
	)
	return "", nil
}

func (r *renderer) tableRef(ref ast.TableRef, lock bool) (string, error) {
	switch t := ref.(type) {
	case *ast.Table:
		s := r.tableName(t)
		if t.Alias != "" {
			s += " " + r.ident(t.Alias, false)
		}
		if lock && (r.lockOf == nil || r.lockOf[t.Alias] || r.lockOf[t.Name]) {
			s += r.lockHint
		}
		return s, nil
	case *ast.Derived:
		if t.Lateral && !r.caps.Lateral {
			return "", r.d.Unsupported("lateral derived tables")
		}
		if t.Alias == "" {
			return "", invalid("derived table without an alias")
		}
		q, err := r.queryPart(t.Query, !t.Lateral)
		if err != nil {
			return "", err
		}
		s := "(" + q + ") " + r.ident(t.Alias, false)
		if t.Lateral {
			s = "lateral " + s
		}
		if len(t.Columns) > 0 {
			s += "(" + r.idents(t.Columns) + ")"
		}
		return s, nil
	case *ast.Join:
		if t.Type == ast.FullJoin && !r.caps.FullJoin {
			return "", r.d.Unsupported("full outer join")
		}
		l, err := r.tableRef(t.Left, lock)
		if err != nil {
			return "", err
		}
		rt, err := r.tableRef(t.Right, lock)
		if err != nil {
			return "", err
		}
		s := l + " " + t.Type.String() + " " + rt
		if t.Type == ast.CrossJoin {
			return s, nil
		}
		if t.On == nil {
			return "", invalid("%s without a condition", t.Type)
		}
		on, err := r.predicate(t.On)
		if err != nil {
			return "", err
		}
		return s + " on " + on, nil
	case nil:
		return "", invalid("missing table reference")
	}
	return "", invalid("unknown table reference %T", ref)
}

func (r *renderer) querySpec(q *ast.QuerySpec, wrap bool) (string, error) {
	if q.Offset == nil && q.Fetch == nil {
		p, err := r.specParts(q, nil)
		if err != nil {
			return "", err
		}
		return p.String("", ""), nil
	}
	h := r.d.LimitHandler()
	switch {
	case h.SupportsLimit() && (q.Offset == nil || h.SupportsOffset()):
		return r.nativePage(q, h)
	case !wrap:
		return "", r.d.Unsupported("offset or fetch in a subquery")
	case h.Kind() == pagination.KindRownum:
		return r.rownumPage(q)
	case r.caps.WindowFunctions:
		return r.rowNumberPage(q)
	}
	return "", r.d.Unsupported("offset without window functions")
}

func (r *renderer) nativePage(q *ast.QuerySpec, h pagination.Handler) (string, error) {
	p, err := r.specParts(q, nil)
	if err != nil {
		return "", err
	}
	offset, fetch, err := r.pageArgs(q.Offset, q.Fetch)
	if err != nil {
		return "", err
	}
	if p.order == "" && h.RequiresOrderBy() {
		p.order = "(select 0)"
	}
	return p.String(h.Prefix(fetch), h.Clause(offset, fetch)), nil
}

func (r *renderer) pageArgs(offset, fetch ast.Expression) (o, f string, err error) {
	if offset != nil {
		if o, err = r.pageExpr(offset, "offset"); err != nil {
			return "", "", err
		}
	}
	if fetch != nil {
		if f, err = r.pageExpr(fetch, "fetch"); err != nil {
			return "", "", err
		}
	}
	return o, f, nil
}

func (r *renderer) pageExpr(e ast.Expression, name string) (string, error) {
	if p, ok := e.(*ast.Parameter); ok && p.Name == "" {
		typ := p.Type
		if typ == sqltypes.Null {
			typ = sqltypes.BigInt
		}
		return r.param(name, typ, p.Value), nil
	}
	return r.expr(e)
}

// bound renders a computed row bound in the form of the expression it was
// derived from: a parameter stays a parameter.
func (r *renderer) bound(from ast.Expression, name string, v int64) string {
	if p, ok := from.(*ast.Parameter); ok {
		if p.Name != "" {
			name = p.Name
		}
		return r.param(name, sqltypes.BigInt, v)
	}
	return strconv.FormatInt(v, 10)
}

// projection names the select items of q for an enclosing query.
func (r *renderer) projection(q *ast.QuerySpec, qualifyStar bool) ([]alias, bool, error) {
	out := make([]alias, len(q.Select))
	used := make(map[string]bool, len(q.Select))
	star := false
	for i, it := range q.Select {
		if s, ok := it.Expr.(*ast.Star); ok {
			star = true
			if s.Qualifier == "" && qualifyStar {
				q, ok := r.soleSource(q.From)
				if !ok {
					return nil, false, r.d.Unsupported("unqualified * in a paginated join")
				}
				out[i].star = q
			}
			continue
		}
		a := alias{as: true}
		switch c, isCol := it.Expr.(*ast.Column); {
		case it.Alias != "":
			a.name = r.ident(it.Alias, false)
		case isCol:
			a.name, a.as = r.ident(c.Name, c.Quoted), false
		default:
			a.name = "c" + strconv.Itoa(i+1) + "_"
		}
		if key := strings.ToLower(a.name); used[key] {
			a.name, a.as = "c"+strconv.Itoa(i+1)+"_", true
		}
		used[strings.ToLower(a.name)] = true
		out[i] = a
	}
	return out, star, nil
}

func (r *renderer) soleSource(from []ast.TableRef) (string, bool) {
	if len(from) != 1 {
		return "", false
	}
	switch t := from[0].(type) {
	case *ast.Table:
		if t.Alias != "" {
			return r.ident(t.Alias, false), true
		}
		return r.ident(t.Name, t.Quoted), true
	case *ast.Derived:
		return r.ident(t.Alias, false), true
	}
	return "", false
}

func columnList(proj []alias, star bool) string {
	if star {
		return "*"
	}
	names := make([]string, len(proj))
	for i, a := range proj {
		names[i] = a.name
	}
	return strings.Join(names, ", ")
}

// rowNumberPage numbers the rows of q with row_number() in a derived table
// and filters the inclusive 1-based range in the enclosing query.
func (r *renderer) rowNumberPage(q *ast.QuerySpec) (string, error) {
	proj, star, err := r.projection(q, true)
	if err != nil {
		return "", err
	}
	p, err := r.specParts(q, proj)
	if err != nil {
		return "", err
	}
	over := p.order
	p.order = ""

	var inner string
	if q.Distinct {
		if over, err = r.distinctOrder(q, proj); err != nil {
			return "", err
		}
		inner = "select q_.*, row_number() over (" + r.overOrder(over) + ") rn_ from (" + p.String("", "") + ") q_"
	} else {
		p.items = append(p.items, "row_number() over ("+r.overOrder(over)+") rn_")
		inner = p.String("", "")
	}

	cond, err := r.rowBounds("r_.rn_", q.Offset, q.Fetch)
	if err != nil {
		return "", err
	}
	return "select " + columnList(proj, star) + " from (" + inner + ") r_ where " + cond + " order by r_.rn_", nil
}

func (r *renderer) overOrder(keys string) string {
	switch {
	case keys != "":
		return "order by " + keys
	case r.d.LimitHandler().Kind() == pagination.KindTop:
		return "order by (select 0)"
	}
	return ""
}

// distinctOrder maps the ORDER BY of a distinct query onto its select
// items, which is where the numbering query can see them.
func (r *renderer) distinctOrder(q *ast.QuerySpec, proj []alias) (string, error) {
	keys := make([]string, len(q.OrderBy))
	for i, s := range q.OrderBy {
		idx := -1
		for j, it := range q.Select {
			if reflect.DeepEqual(it.Expr, s.Expr) {
				idx = j
				break
			}
			if c, ok := s.Expr.(*ast.Column); ok && c.Qualifier == "" && it.Alias != "" && c.Name == it.Alias {
				idx = j
				break
			}
		}
		if idx < 0 || proj[idx].name == "" {
			return "", r.d.Unsupported("distinct pagination ordered by an expression outside the select list")
		}
		keys[i] = r.sortKey("q_."+proj[idx].name, s)
	}
	return strings.Join(keys, ", "), nil
}

// rowBounds renders the filter selecting rows offset+1 through
// offset+fetch of the numbered column col.
func (r *renderer) rowBounds(col string, offset, fetch ast.Expression) (string, error) {
	o, oconst := int64(0), true
	if offset != nil {
		o, oconst = intConstant(offset)
	}
	var conds []string
	var offsetSQL string
	if offset != nil {
		if oconst {
			first, _ := pagination.Bounds(o, 0)
			conds = append(conds, col+" >= "+r.bound(offset, "offset", first))
		} else {
			s, err := r.pageExpr(offset, "offset")
			if err != nil {
				return "", err
			}
			offsetSQL = s
			conds = append(conds, col+" > "+s)
		}
	}
	if fetch != nil {
		s, err := r.upperBound(offset, fetch, o, oconst, offsetSQL)
		if err != nil {
			return "", err
		}
		conds = append(conds, col+" <= "+s)
	}
	return strings.Join(conds, " and "), nil
}

// upperBound renders offset+fetch, folding constants.
func (r *renderer) upperBound(offset, fetch ast.Expression, o int64, oconst bool, offsetSQL string) (string, error) {
	if f, ok := intConstant(fetch); ok && oconst {
		_, last := pagination.Bounds(o, f)
		return r.bound(fetch, "fetch", last), nil
	}
	f, err := r.pageExpr(fetch, "fetch")
	if err != nil {
		return "", err
	}
	if offset == nil {
		return f, nil
	}
	if offsetSQL == "" {
		if offsetSQL, err = r.pageExpr(offset, "offset"); err != nil {
			return "", err
		}
	}
	return offsetSQL + " + " + f, nil
}

// rownumPage paginates with Oracle's rownum pseudo-column.
func (r *renderer) rownumPage(q *ast.QuerySpec) (string, error) {
	proj, star, err := r.projection(q, false)
	if err != nil {
		return "", err
	}
	p, err := r.specParts(q, proj)
	if err != nil {
		return "", err
	}
	inner := p.String("", "")
	if q.Offset == nil {
		f, err := r.pageExpr(q.Fetch, "fetch")
		if err != nil {
			return "", err
		}
		return "select * from (" + inner + ") where rownum <= " + f, nil
	}

	o, oconst := intConstant(q.Offset)
	offsetSQL, err := r.pageExpr(q.Offset, "offset")
	if err != nil {
		return "", err
	}
	s := "select " + columnList(proj, star) + " from (select row_.*, rownum rownum_ from (" + inner + ") row_"
	if q.Fetch != nil {
		upper, err := r.upperBound(q.Offset, q.Fetch, o, oconst, offsetSQL)
		if err != nil {
			return "", err
		}
		s += " where rownum <= " + upper
	}
	return s + ") where rownum_ > " + offsetSQL, nil
}

func (r *renderer) setOperator(op ast.SetOperator) (string, error) {
	kw := op.String()
	switch op {
	case ast.Union, ast.UnionAll:
		return kw, nil
	case ast.Intersect, ast.IntersectAll:
		if !r.caps.Intersect {
			return "", r.d.Unsupported(kw)
		}
	case ast.Except, ast.ExceptAll:
		if !r.caps.Intersect || r.caps.ExceptKeyword == "" {
			return "", r.d.Unsupported(kw)
		}
		kw = r.caps.ExceptKeyword
		if op == ast.ExceptAll {
			kw += " all"
		}
	default:
		return "", invalid("unknown set operator %d", int(op))
	}
	if (op == ast.IntersectAll || op == ast.ExceptAll) && !r.caps.SetOpAll {
		return "", r.d.Unsupported(op.String())
	}
	return kw, nil
}

func (r *renderer) queryGroup(g *ast.QueryGroup, wrap bool) (string, error) {
	if len(g.Parts) < 2 {
		return "", invalid("%s over %d parts", g.Op, len(g.Parts))
	}
	h := r.d.LimitHandler()
	paged := g.Offset != nil || g.Fetch != nil
	if paged && (!h.SupportsLimit() || (g.Offset != nil && !h.SupportsOffset()) || h.Prefix("?") != "") {
		// Page the group as a derived table.
		inner := *g
		inner.OrderBy, inner.Offset, inner.Fetch = nil, nil, nil
		return r.querySpec(&ast.QuerySpec{
			Select:  []ast.SelectItem{{Expr: &ast.Star{}}},
			From:    []ast.TableRef{&ast.Derived{Query: &inner, Alias: "g_"}},
			OrderBy: g.OrderBy,
			Offset:  g.Offset,
			Fetch:   g.Fetch,
		}, wrap)
	}

	op, err := r.setOperator(g.Op)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(g.Parts))
	for i, part := range g.Parts {
		nested := true
		if q, ok := part.(*ast.QuerySpec); ok {
			nested = len(q.OrderBy) > 0 || q.Offset != nil || q.Fetch != nil
		}
		s, err := r.queryPart(part, nested)
		if err != nil {
			return "", err
		}
		if nested {
			s = "select * from (" + s + ") u" + strconv.Itoa(i+1) + "_"
		}
		parts[i] = s
	}
	body := strings.Join(parts, " "+op+" ")

	order, err := r.orderBy(g.OrderBy)
	if err != nil {
		return "", err
	}
	offset, fetch, err := r.pageArgs(g.Offset, g.Fetch)
	if err != nil {
		return "", err
	}
	if order == "" && paged && h.RequiresOrderBy() {
		order = "(select 0)"
	}
	if order != "" {
		body += " order by " + order
	}
	return body + h.Clause(offset, fetch), nil
}
