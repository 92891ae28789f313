package dialects

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Constructor builds a dialect for a database version.
type Constructor func(v Version, opts ...Option) (*Dialect, error)

type family struct {
	name           string
	ctor           Constructor
	defaultVersion Version
}

var (
	mu       sync.RWMutex
	families = make(map[string]*family)
)

// Register registers a dialect constructor under one or more driver names.
// The first name is the canonical one; defaultVersion is used by Lookup when
// no version is given.
func Register(ctor Constructor, defaultVersion Version, names ...string) {
	if len(names) == 0 {
		panic("dialects: Register needs at least one name")
	}
	f := &family{name: names[0], ctor: ctor, defaultVersion: defaultVersion}
	mu.Lock()
	defer mu.Unlock()
	for _, n := range names {
		families[strings.ToLower(n)] = f
	}
}

// Lookup builds the dialect registered under name for version v. A zero v
// selects the family's default version.
func Lookup(name string, v Version, opts ...Option) (*Dialect, error) {
	mu.RLock()
	f, ok := families[strings.ToLower(name)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, name)
	}
	if v.IsZero() {
		v = f.defaultVersion
	}
	return f.ctor(v, opts...)
}

// Canonical returns the canonical name of the family registered under name.
func Canonical(name string) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := families[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return f.name, true
}

// DefaultVersion returns the version Lookup uses for name when none is given.
func DefaultVersion(name string) (Version, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := families[strings.ToLower(name)]
	if !ok {
		return Version{}, false
	}
	return f.defaultVersion, true
}

// Names returns every registered name, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Sorted(maps.Keys(families))
}

// Families returns the canonical names, sorted.
func Families() []string {
	mu.RLock()
	defer mu.RUnlock()
	seen := make(map[string]bool)
	for _, f := range families {
		seen[f.name] = true
	}
	return slices.Sorted(maps.Keys(seen))
}
