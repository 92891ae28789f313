package dialects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/sqldialect/internal/sqltypes"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name        string
		version     Version
		wantName    string
		wantVersion Version
	}{
		{"postgres", Version{}, "postgresql", V(12)},
		{"PGX", V(15), "postgresql", V(15)},
		{"mssql", Version{}, "sqlserver", V(16)},
		{"mariadb", V(5, 7), "mysql", V(5, 7)},
		{"sqlite3", Version{}, "sqlite", V(3, 40)},
		{"godror", Version{}, "oracle", V(19)},
		{"hdb", Version{}, "hana", V(2, 0, 70)},
		{"intersystems", Version{}, "iris", V(2023, 1)},
		{"cockroach", Version{}, "cockroachdb", V(23, 1)},
		{"go_ibm_db", Version{}, "db2", V(11, 5)},
		{"h2", Version{}, "h2", V(2, 2, 224)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Lookup(tt.name, tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, d.Name())
			assert.Equal(t, tt.wantVersion, d.Version())
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("informix", Version{})
	assert.ErrorIs(t, err, ErrUnsupportedDialect)
	assert.Contains(t, err.Error(), `"informix"`)
}

func TestLookup_PassesOptions(t *testing.T) {
	d, err := Lookup("iris", Version{}, WithSequenceEmulation(), WithBatchSize(100))
	require.NoError(t, err)
	assert.True(t, d.Sequences().Supported)
	assert.Equal(t, 100, d.DefaultBatchSize())

	_, err = Lookup("iris", Version{}, WithBatchSize(-1))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCanonical(t *testing.T) {
	name, ok := Canonical("Postgres")
	assert.True(t, ok)
	assert.Equal(t, "postgresql", name)

	_, ok = Canonical("nope")
	assert.False(t, ok)

	v, ok := DefaultVersion("mysql")
	assert.True(t, ok)
	assert.Equal(t, V(8), v)
	_, ok = DefaultVersion("nope")
	assert.False(t, ok)
}

func TestFamilies(t *testing.T) {
	assert.Equal(t, []string{
		"cockroachdb", "db2", "h2", "hana", "iris",
		"mysql", "oracle", "postgresql", "sqlite", "sqlserver",
	}, Families())

	names := Names()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "pgx")
	assert.Contains(t, names, "mssql")
}

func TestRegister_NeedsAName(t *testing.T) {
	assert.Panics(t, func() { Register(PostgreSQL, V(16)) })
}

func TestDialect_ConcurrentUse(t *testing.T) {
	d, err := Lookup("postgresql", Version{})
	require.NoError(t, err)

	done := make(chan string, 8)
	for range 8 {
		go func() {
			s, _ := d.ColumnType(sqltypes.VarChar, sqltypes.Size{Length: 30})
			done <- s
		}()
	}
	for range 8 {
		assert.Equal(t, "varchar(30)", <-done)
	}
}
