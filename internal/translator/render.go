package translator

import (
	"slices"
	"strconv"
	"strings"

	"github.com/coregx/sqldialect/internal/ast"
	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

// Parameters are rendered as marker-delimited slot indexes and numbered in
// text order by finish, so emulations may repeat or reorder them freely.
const marker = '\x00'

type slot struct {
	name  string
	typ   sqltypes.Code
	value any
}

type renderer struct {
	t    *Translator
	d    *dialects.Dialect
	caps dialects.Capabilities

	slots  []slot
	tables map[string]struct{}
	ctes   map[string]struct{}
	err    error

	// root is the query specification whose FROM clause receives lock
	// hints and whose hints may be moved to the end of the statement.
	root     *ast.QuerySpec
	lockHint string
	lockOf   map[string]bool
	options  []string
	followOn bool

	// target is the DML target whose alias the dialect cannot write;
	// qualifiers naming the alias are replaced with the table name.
	targetAlias string
	targetName  string
	excluded    func(column string) string
}

func newRenderer(t *Translator) *renderer {
	return &renderer{
		t:      t,
		d:      t.dialect,
		caps:   t.dialect.Capabilities(),
		tables: make(map[string]struct{}),
		ctes:   make(map[string]struct{}),
	}
}

func (r *renderer) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *renderer) param(name string, typ sqltypes.Code, value any) string {
	if typ == sqltypes.Null {
		typ = sqltypes.Infer(value)
	}
	r.slots = append(r.slots, slot{name: name, typ: typ, value: value})
	return string(marker) + strconv.Itoa(len(r.slots)-1) + string(marker)
}

// finish replaces slot markers with the dialect's placeholders.
func (r *renderer) finish(sql string) (string, []Binder) {
	var (
		b      strings.Builder
		params []Binder
	)
	b.Grow(len(sql))
	for {
		i := strings.IndexByte(sql, marker)
		if i < 0 {
			b.WriteString(sql)
			break
		}
		j := strings.IndexByte(sql[i+1:], marker) + i + 1
		idx, _ := strconv.Atoi(sql[i+1 : j])
		s := r.slots[idx]
		pos := len(params) + 1
		b.WriteString(sql[:i])
		b.WriteString(r.d.Placeholder(pos))
		params = append(params, Binder{Position: pos, Name: s.name, Type: s.typ, Value: s.value})
		sql = sql[j+1:]
	}
	return b.String(), params
}

// text rejects caller-supplied text that could collide with slot markers.
func (r *renderer) text(s string) string {
	if strings.IndexByte(s, marker) >= 0 {
		r.fail(invalid("NUL byte in %q", s))
	}
	return s
}

func (r *renderer) ident(name string, quoted bool) string {
	if name == "" {
		r.fail(invalid("empty identifier"))
	}
	if quoted {
		return r.d.QuoteIdentifier(r.text(name))
	}
	return r.text(name)
}

func (r *renderer) idents(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = r.ident(n, false)
	}
	return strings.Join(out, ", ")
}

func (r *renderer) tableName(t *ast.Table) string {
	name := r.ident(t.Name, t.Quoted)
	key := t.Name
	if t.Schema != "" {
		name = r.ident(t.Schema, t.Quoted) + "." + name
		key = t.Schema + "." + t.Name
	}
	if _, cte := r.ctes[strings.ToLower(t.Name)]; !cte || t.Schema != "" {
		r.tables[key] = struct{}{}
	}
	return name
}

func (r *renderer) affectedTables() []string {
	out := make([]string, 0, len(r.tables))
	for t := range r.tables {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// fragment validates a trusted SQL fragment before it is emitted.
func (r *renderer) fragment(s string) (string, error) {
	if err := r.t.validator.ValidateFragment(r.text(s)); err != nil {
		return "", err
	}
	return s, nil
}
