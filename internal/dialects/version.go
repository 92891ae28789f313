package dialects

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Version is a database version triple.
type Version struct {
	Major int
	Minor int
	Micro int
}

// V builds a version from its components; missing ones are zero.
func V(major int, rest ...int) Version {
	v := Version{Major: major}
	if len(rest) > 0 {
		v.Minor = rest[0]
	}
	if len(rest) > 1 {
		v.Micro = rest[1]
	}
	return v
}

// ParseVersion parses "major[.minor[.micro]]". Trailing non-digits of a
// component are ignored, so "12c" and "8.0.36-log" parse.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, nil
	}
	parts := strings.SplitN(s, ".", 3)
	nums := make([]int, 3)
	for i, p := range parts {
		end := 0
		for end < len(p) && p[end] >= '0' && p[end] <= '9' {
			end++
		}
		if end == 0 {
			return Version{}, fmt.Errorf("sqldialect: invalid version %q", s)
		}
		n, err := strconv.Atoi(p[:end])
		if err != nil {
			return Version{}, fmt.Errorf("sqldialect: invalid version %q: %w", s, err)
		}
		nums[i] = n
		if end < len(p) {
			break
		}
	}
	return Version{Major: nums[0], Minor: nums[1], Micro: nums[2]}, nil
}

// Compare returns -1, 0 or +1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	}
	return cmpInt(v.Micro, o.Micro)
}

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool { return v.Compare(o) >= 0 }

// IsZero reports whether v is unset.
func (v Version) IsZero() bool { return v == Version{} }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(b []byte) error {
	p, err := ParseVersion(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// gate applies the settings a database gained in version since.
type gate struct {
	since Version
	apply func(d *Dialect)
}

// applyGates runs every gate the dialect's version has reached, oldest
// first, so later gates override earlier ones.
func applyGates(d *Dialect, gates []gate) {
	sorted := slices.Clone(gates)
	slices.SortStableFunc(sorted, func(a, b gate) int { return a.since.Compare(b.since) })
	for _, g := range sorted {
		if d.version.AtLeast(g.since) {
			g.apply(d)
		}
	}
}
