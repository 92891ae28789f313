package function

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/coregx/sqldialect/internal/sqltypes"
)

// ErrNotFound is returned when a function name is not registered.
var ErrNotFound = errors.New("function: not registered")

// Variadic marks a descriptor without an upper argument bound.
const Variadic = -1

// Argument describes one rendered argument as seen by a renderer.
type Argument struct {
	Type sqltypes.Code
}

// Renderer produces the fragment for a call with the given arguments.
type Renderer interface {
	Render(args []Argument) (Fragment, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(args []Argument) (Fragment, error)

// Render implements Renderer.
func (f RendererFunc) Render(args []Argument) (Fragment, error) { return f(args) }

// Descriptor is a registered function.
type Descriptor struct {
	Name    string
	MinArgs int
	MaxArgs int
	// ReturnType is the result type; Null means "type of the first argument".
	ReturnType sqltypes.Code
	Renderer   Renderer
}

// Signature renders e.g. "substring(2..3) -> VARCHAR".
func (d *Descriptor) Signature() string {
	var arity string
	switch {
	case d.MaxArgs == Variadic:
		arity = fmt.Sprintf("%d..", d.MinArgs)
	case d.MinArgs == d.MaxArgs:
		arity = fmt.Sprint(d.MinArgs)
	default:
		arity = fmt.Sprintf("%d..%d", d.MinArgs, d.MaxArgs)
	}
	ret := "ARG1"
	if d.ReturnType != sqltypes.Null {
		ret = d.ReturnType.String()
	}
	return fmt.Sprintf("%s(%s) -> %s", d.Name, arity, ret)
}

// ResultType returns the type produced for the given arguments.
func (d *Descriptor) ResultType(args []Argument) sqltypes.Code {
	if d.ReturnType == sqltypes.Null && len(args) > 0 {
		return args[0].Type
	}
	return d.ReturnType
}

// Render checks the arity and delegates to the renderer.
func (d *Descriptor) Render(args []Argument) (Fragment, error) {
	if len(args) < d.MinArgs || (d.MaxArgs != Variadic && len(args) > d.MaxArgs) {
		return nil, fmt.Errorf("function: %s called with %d arguments, accepts %s", d.Name, len(args), d.Signature())
	}
	return d.Renderer.Render(args)
}

// Registry holds the functions of one dialect. Names are case-insensitive.
// Registration errors are collected and reported by Err so a dialect table can
// be written as a flat list of calls.
type Registry struct {
	fns map[string]*Descriptor
	err error
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]*Descriptor)}
}

func key(name string) string { return strings.ToLower(name) }

// Register adds or replaces d.
func (r *Registry) Register(d Descriptor) *Registry {
	switch {
	case d.Name == "":
		r.fail(errors.New("function: empty name"))
	case d.Renderer == nil:
		r.fail(fmt.Errorf("function: %s has no renderer", d.Name))
	case d.MinArgs < 0 || (d.MaxArgs != Variadic && d.MaxArgs < d.MinArgs):
		r.fail(fmt.Errorf("function: %s has invalid arity %d..%d", d.Name, d.MinArgs, d.MaxArgs))
	default:
		r.fns[key(d.Name)] = &d
	}
	return r
}

// Pattern registers a fixed-arity template function.
func (r *Registry) Pattern(name string, ret sqltypes.Code, arity int, pattern string) *Registry {
	t, err := ParseTemplate(pattern, arity)
	if err != nil {
		r.fail(fmt.Errorf("function %s: %w", name, err))
		return r
	}
	return r.Register(Descriptor{Name: name, MinArgs: arity, MaxArgs: arity, ReturnType: ret, Renderer: t})
}

// Named registers a call rendered as sqlName(a, b, ...).
func (r *Registry) Named(name, sqlName string, ret sqltypes.Code, minArgs, maxArgs int) *Registry {
	return r.Register(Descriptor{
		Name: name, MinArgs: minArgs, MaxArgs: maxArgs, ReturnType: ret,
		Renderer: VarArgs{Prefix: sqlName + "(", Separator: ", ", Suffix: ")"},
	})
}

// VarArgs registers a call rendered as prefix a sep b sep ... suffix.
func (r *Registry) VarArgs(name string, ret sqltypes.Code, minArgs int, v VarArgs) *Registry {
	return r.Register(Descriptor{Name: name, MinArgs: minArgs, MaxArgs: Variadic, ReturnType: ret, Renderer: v})
}

// NoArgs registers a niladic function, with or without parentheses.
func (r *Registry) NoArgs(name, sqlName string, ret sqltypes.Code, parens bool) *Registry {
	text := sqlName
	if parens {
		text += "()"
	}
	return r.Register(Descriptor{Name: name, ReturnType: ret, Renderer: Fragment{Lit(text)}})
}

// Custom registers a function with its own renderer.
func (r *Registry) Custom(name string, ret sqltypes.Code, minArgs, maxArgs int, rr Renderer) *Registry {
	return r.Register(Descriptor{Name: name, MinArgs: minArgs, MaxArgs: maxArgs, ReturnType: ret, Renderer: rr})
}

// Alias registers alias as another name for an existing function.
func (r *Registry) Alias(alias, name string) *Registry {
	d, ok := r.fns[key(name)]
	if !ok {
		r.fail(fmt.Errorf("function: alias %s refers to unknown %s", alias, name))
		return r
	}
	c := *d
	c.Name = alias
	r.fns[key(alias)] = &c
	return r
}

// Remove unregisters name so callers get ErrNotFound instead of wrong SQL.
func (r *Registry) Remove(names ...string) *Registry {
	for _, n := range names {
		delete(r.fns, key(n))
	}
	return r
}

func (r *Registry) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Err returns the first registration error.
func (r *Registry) Err() error { return r.err }

// Resolve looks a function up by name.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	if d, ok := r.fns[key(name)]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.fns))
}

// Len returns the number of registered functions.
func (r *Registry) Len() int { return len(r.fns) }

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	c := &Registry{fns: make(map[string]*Descriptor, len(r.fns)), err: r.err}
	for k, d := range r.fns {
		cp := *d
		c.fns[k] = &cp
	}
	return c
}
