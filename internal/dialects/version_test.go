package dialects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"", Version{}, false},
		{"16", V(16), false},
		{"8.0", V(8), false},
		{"8.0.36-log", V(8, 0, 36), false},
		{"12c", V(12), false},
		{"3.45.1", V(3, 45, 1), false},
		{" 2.2.224 ", V(2, 2, 224), false},
		{"11.5.9.0", V(11, 5, 9), false},
		{"v16", Version{}, true},
		{"16..1", Version{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b Version
		want int
	}{
		{V(8), V(8), 0},
		{V(8, 0, 19), V(8), 1},
		{V(5, 7), V(8), -1},
		{V(2, 0, 30), V(2, 0, 4), 1},
		{V(12, 1), V(12, 2), -1},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"_"+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
			assert.Equal(t, tt.want >= 0, tt.a.AtLeast(tt.b))
		})
	}
}

func TestVersion_Text(t *testing.T) {
	b, err := V(8, 0, 19).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "8.0.19", string(b))

	var v Version
	require.NoError(t, v.UnmarshalText([]byte("23.1")))
	assert.Equal(t, V(23, 1), v)
	assert.Error(t, v.UnmarshalText([]byte("latest")))
	assert.True(t, Version{}.IsZero())
	assert.False(t, V(0, 1).IsZero())
}

func TestApplyGates_OldestFirst(t *testing.T) {
	var applied []string
	gates := []gate{
		{V(3), func(d *Dialect) { applied = append(applied, "3"); d.batchSize = 3 }},
		{V(1), func(d *Dialect) { applied = append(applied, "1"); d.batchSize = 1 }},
		{V(2, 5), func(d *Dialect) { applied = append(applied, "2.5"); d.batchSize = 25 }},
		{V(4), func(d *Dialect) { applied = append(applied, "4"); d.batchSize = 4 }},
	}

	d := &Dialect{version: V(3, 1)}
	applyGates(d, gates)

	assert.Equal(t, []string{"1", "2.5", "3"}, applied)
	assert.Equal(t, 3, d.batchSize, "the newest reached gate wins")
	assert.Equal(t, V(3), gates[0].since, "input order is left alone")
}

func TestGates_VersionMonotonic(t *testing.T) {
	tests := []struct {
		name  string
		ctor  Constructor
		old   Version
		new   Version
		check func(t *testing.T, old, new Capabilities)
	}{
		{"postgresql upsert", PostgreSQL, V(9, 4), V(9, 5), func(t *testing.T, o, n Capabilities) {
			assert.Equal(t, ConflictNone, o.Conflict)
			assert.Equal(t, ConflictOnConflict, n.Conflict)
			assert.Empty(t, o.SkipLocked)
			assert.Equal(t, " skip locked", n.SkipLocked)
		}},
		{"mysql cte", MySQL, V(5, 7), V(8), func(t *testing.T, o, n Capabilities) {
			assert.False(t, o.CTE)
			assert.True(t, n.CTE)
			assert.False(t, o.WindowFunctions)
			assert.True(t, n.WindowFunctions)
			assert.Equal(t, " lock in share mode", o.ForShare)
			assert.Equal(t, " for share", n.ForShare)
		}},
		{"mysql conflict alias", MySQL, V(8, 0, 18), V(8, 0, 19), func(t *testing.T, o, n Capabilities) {
			assert.False(t, o.ConflictAlias)
			assert.True(t, n.ConflictAlias)
		}},
		{"oracle booleans", Oracle, V(21), V(23), func(t *testing.T, o, n Capabilities) {
			assert.False(t, o.BooleanLiterals)
			assert.True(t, n.BooleanLiterals)
			assert.Equal(t, "dual", o.FromDual)
			assert.Empty(t, n.FromDual)
		}},
		{"sqlite returning", SQLite, V(3, 34), V(3, 35), func(t *testing.T, o, n Capabilities) {
			assert.Equal(t, ReturningNone, o.Returning)
			assert.Equal(t, ReturningClause, n.Returning)
		}},
		{"sqlserver if exists", SQLServer, V(12), V(13), func(t *testing.T, o, n Capabilities) {
			assert.False(t, o.IfExists)
			assert.True(t, n.IfExists)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := tt.ctor(tt.old)
			require.NoError(t, err)
			n, err := tt.ctor(tt.new)
			require.NoError(t, err)
			tt.check(t, o.Capabilities(), n.Capabilities())
		})
	}
}
