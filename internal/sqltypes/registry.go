package sqltypes

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Default sizes applied when a column does not declare one.
const (
	DefaultLength    int64 = 255
	DefaultPrecision       = 19
	DefaultScale           = 2
)

// Unbounded is the capacity of a template that accepts any length.
const Unbounded int64 = -1

var (
	// ErrUnregistered is returned when a type code has no column template.
	ErrUnregistered = errors.New("sqltypes: no column type registered")
	// ErrTemplate is returned for templates with unknown placeholders.
	ErrTemplate = errors.New("sqltypes: invalid column type template")
)

// Size carries the length/precision/scale of a column. Zero fields mean
// "not specified" and are replaced by the defaults during resolution; the
// default scale only applies when precision is unspecified too.
type Size struct {
	Length    int64
	Precision int
	Scale     int
}

// Normalize fills unspecified fields with the defaults.
func (s Size) Normalize() Size {
	if s.Length <= 0 {
		s.Length = DefaultLength
	}
	if s.Precision <= 0 {
		s.Precision = DefaultPrecision
		if s.Scale == 0 {
			s.Scale = DefaultScale
		}
	}
	if s.Scale < 0 {
		s.Scale = 0
	}
	return s
}

// tier is one capacity-bounded template. capacity is Unbounded for the fallback.
type tier struct {
	capacity int64
	template string
}

// Registry maps type codes to DDL templates. Templates may reference $l
// (length), $p (precision) and $s (scale).
//
// A Registry is mutable only while a dialect is being built; afterwards it is
// read concurrently without locking.
type Registry struct {
	tiers map[Code][]tier
	err   error
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tiers: make(map[Code][]tier)}
}

// Put registers the unbounded template for code, replacing any previous one.
func (r *Registry) Put(code Code, template string) *Registry {
	return r.put(code, Unbounded, template)
}

// PutCapacity registers a template used for lengths up to capacity.
func (r *Registry) PutCapacity(code Code, capacity int64, template string) *Registry {
	if capacity <= 0 {
		r.fail(fmt.Errorf("%w: %s capacity %d must be positive", ErrTemplate, code, capacity))
		return r
	}
	return r.put(code, capacity, template)
}

func (r *Registry) put(code Code, capacity int64, template string) *Registry {
	if err := checkTemplate(template); err != nil {
		r.fail(fmt.Errorf("%w: %s %q: %v", ErrTemplate, code, template, err))
		return r
	}
	ts := r.tiers[code]
	for i := range ts {
		if ts[i].capacity == capacity {
			ts[i].template = template
			return r
		}
	}
	ts = append(ts, tier{capacity: capacity, template: template})
	// ascending capacity, fallback last
	slices.SortFunc(ts, func(a, b tier) int {
		switch {
		case a.capacity == b.capacity:
			return 0
		case a.capacity == Unbounded:
			return 1
		case b.capacity == Unbounded:
			return -1
		case a.capacity < b.capacity:
			return -1
		}
		return 1
	})
	r.tiers[code] = ts
	return r
}

// Remove drops every template registered for code.
func (r *Registry) Remove(code Code) *Registry {
	delete(r.tiers, code)
	return r
}

func (r *Registry) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Err returns the first registration error.
func (r *Registry) Err() error {
	return r.err
}

// Has reports whether code has at least one template.
func (r *Registry) Has(code Code) bool {
	return len(r.tiers[code]) > 0
}

// Codes returns the registered type codes ordered by name.
func (r *Registry) Codes() []Code {
	codes := slices.Collect(maps.Keys(r.tiers))
	slices.SortFunc(codes, func(a, b Code) int { return strings.Compare(a.String(), b.String()) })
	return codes
}

// Capacities returns the registered capacity ceilings for code in resolution
// order. The unbounded fallback, when present, is reported as Unbounded.
func (r *Registry) Capacities(code Code) []int64 {
	ts := r.tiers[code]
	out := make([]int64, len(ts))
	for i, t := range ts {
		out[i] = t.capacity
	}
	return out
}

// Template returns the raw template chosen for code and length.
func (r *Registry) Template(code Code, length int64) (string, error) {
	ts := r.tiers[code]
	if len(ts) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUnregistered, code)
	}
	if length <= 0 {
		length = DefaultLength
	}
	for _, t := range ts {
		if t.capacity == Unbounded || length <= t.capacity {
			return t.template, nil
		}
	}
	return "", fmt.Errorf("%w: %s with length %d exceeds every capacity", ErrUnregistered, code, length)
}

// Resolve returns the DDL for code and size: the template with the smallest
// capacity that covers the requested length, else the unbounded fallback.
func (r *Registry) Resolve(code Code, size Size) (string, error) {
	size = size.Normalize()
	tmpl, err := r.Template(code, size.Length)
	if err != nil {
		return "", err
	}
	return Expand(tmpl, size), nil
}

// Validate fails if any of the required codes has no template.
func (r *Registry) Validate(required []Code) error {
	if r.err != nil {
		return r.err
	}
	var missing []string
	for _, c := range required {
		if !r.Has(c) {
			missing = append(missing, c.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnregistered, strings.Join(missing, ", "))
	}
	return nil
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	c := &Registry{tiers: make(map[Code][]tier, len(r.tiers)), err: r.err}
	for code, ts := range r.tiers {
		c.tiers[code] = slices.Clone(ts)
	}
	return c
}

// Expand substitutes $l, $p and $s in tmpl.
func Expand(tmpl string, size Size) string {
	if !strings.Contains(tmpl, "$") {
		return tmpl
	}
	var b strings.Builder
	b.Grow(len(tmpl) + 8)
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '$' || i+1 == len(tmpl) {
			b.WriteByte(tmpl[i])
			continue
		}
		switch tmpl[i+1] {
		case 'l':
			b.WriteString(strconv.FormatInt(size.Length, 10))
		case 'p':
			b.WriteString(strconv.Itoa(size.Precision))
		case 's':
			b.WriteString(strconv.Itoa(size.Scale))
		default:
			b.WriteByte('$')
			continue
		}
		i++
	}
	return b.String()
}

func checkTemplate(tmpl string) error {
	if strings.TrimSpace(tmpl) == "" {
		return errors.New("empty template")
	}
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '$' {
			continue
		}
		if i+1 == len(tmpl) || !strings.ContainsRune("lps", rune(tmpl[i+1])) {
			return fmt.Errorf("unknown placeholder at offset %d", i)
		}
		i++
	}
	return nil
}

func sortedNames() []string {
	return slices.Sorted(maps.Values(codeNames))
}
