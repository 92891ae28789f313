package aggregate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/coregx/sqldialect/internal/sqltypes"
)

// Attribute is one attribute of an embeddable.
type Attribute struct {
	// Name is the selectable name: the XML tag, the JSON key.
	Name string
	Type sqltypes.Code
	// Embeddable is set for nested composite attributes.
	Embeddable *Embeddable
	// Array marks a collection of Type (or Embeddable) elements.
	Array bool
}

// Composite reports whether the attribute (or its elements) is a nested
// embeddable.
func (a Attribute) Composite() bool { return a.Embeddable != nil }

// Embeddable describes a composite type. Attributes are in declared (domain)
// order; the wire order of a STRUCT may differ and is given by a permutation.
type Embeddable struct {
	name  string
	attrs []Attribute
	index map[string]int
	// wire[j] is the declared index of the attribute at wire position j and
	// declared[i] is the wire position of declared attribute i.
	wire     []int
	declared []int
}

// NewEmbeddable builds an embeddable. order lists, for each wire position,
// the declared index of the attribute stored there; it must be a permutation
// of 0..len(attrs)-1. Without order the wire order is the declared order.
func NewEmbeddable(name string, attrs []Attribute, order ...int) (*Embeddable, error) {
	if name == "" {
		return nil, errors.New("aggregate: embeddable without a name")
	}
	if len(attrs) == 0 {
		return nil, fmt.Errorf("aggregate: embeddable %s has no attributes", name)
	}
	e := &Embeddable{
		name:  name,
		attrs: slices.Clone(attrs),
		index: make(map[string]int, len(attrs)),
	}
	for i, a := range attrs {
		if a.Name == "" {
			return nil, fmt.Errorf("aggregate: embeddable %s: attribute %d has no name", name, i)
		}
		if _, dup := e.index[a.Name]; dup {
			return nil, fmt.Errorf("aggregate: embeddable %s: duplicate attribute %s", name, a.Name)
		}
		if a.Embeddable != nil {
			e.attrs[i].Type = sqltypes.Struct
		}
		e.index[a.Name] = i
	}

	if len(order) == 0 {
		order = make([]int, len(attrs))
		for i := range order {
			order[i] = i
		}
	}
	if len(order) != len(attrs) {
		return nil, fmt.Errorf("aggregate: embeddable %s: order has %d entries for %d attributes", name, len(order), len(attrs))
	}
	e.wire = slices.Clone(order)
	e.declared = make([]int, len(order))
	seen := make([]bool, len(order))
	for j, i := range order {
		if i < 0 || i >= len(attrs) || seen[i] {
			return nil, fmt.Errorf("aggregate: embeddable %s: order %v is not a permutation", name, order)
		}
		seen[i] = true
		e.declared[i] = j
	}
	return e, nil
}

// MustEmbeddable is like NewEmbeddable but panics on error.
func MustEmbeddable(name string, attrs []Attribute, order ...int) *Embeddable {
	e, err := NewEmbeddable(name, attrs, order...)
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the embeddable's type name.
func (e *Embeddable) Name() string { return e.name }

// Len returns the number of attributes.
func (e *Embeddable) Len() int { return len(e.attrs) }

// Attribute returns the declared attribute i.
func (e *Embeddable) Attribute(i int) Attribute { return e.attrs[i] }

// Index returns the declared index of the attribute called name, or -1.
func (e *Embeddable) Index(name string) int {
	if i, ok := e.index[name]; ok {
		return i
	}
	return -1
}

// WireOrder returns the declared index stored at each wire position.
func (e *Embeddable) WireOrder() []int { return slices.Clone(e.wire) }

// WirePosition returns the wire position of declared attribute i.
func (e *Embeddable) WirePosition(i int) int { return e.declared[i] }

// ToWire reorders a declared-order slice into wire order. Nested values are
// not touched.
func (e *Embeddable) ToWire(v []any) []any {
	out := make([]any, len(e.wire))
	for j, i := range e.wire {
		out[j] = v[i]
	}
	return out
}

// FromWire reorders a wire-order slice into declared order.
func (e *Embeddable) FromWire(w []any) Value {
	out := make(Value, len(e.declared))
	for i, j := range e.declared {
		out[i] = w[j]
	}
	return out
}

func (e *Embeddable) check(v Value) error {
	if len(v) != len(e.attrs) {
		return fmt.Errorf("%w: %s has %d attributes, got %d values", ErrValue, e.name, len(e.attrs), len(v))
	}
	return nil
}

func (e *Embeddable) attrErr(a Attribute, err error) error {
	return fmt.Errorf("%w: %s.%s: %w", ErrValue, e.name, a.Name, err)
}
