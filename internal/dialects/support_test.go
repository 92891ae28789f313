package dialects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequences(t *testing.T) {
	tests := []struct {
		name       string
		ctor       Constructor
		v          Version
		opts       []Option
		nextValue  string
		selectNext string
		create     string
		drop       string
	}{
		{"postgres", PostgreSQL, V(16), nil,
			"nextval('seq')", "select nextval('seq')", "create sequence seq start 1 increment 50", "drop sequence if exists seq"},
		{"oracle", Oracle, V(19), nil,
			"seq.nextval", "select seq.nextval from dual", "create sequence seq start with 1 increment by 50", "drop sequence seq"},
		{"oracle 23", Oracle, V(23), nil,
			"seq.nextval", "select seq.nextval from dual", "create sequence seq start with 1 increment by 50", "drop sequence if exists seq"},
		{"sqlserver", SQLServer, V(12), nil,
			"next value for seq", "select next value for seq", "create sequence seq start with 1 increment by 50", "drop sequence seq"},
		{"db2", DB2, V(11, 5), nil,
			"next value for seq", "values next value for seq", "create sequence seq start with 1 increment by 50", "drop sequence seq"},
		{"hana", HANA, V(2, 0, 70), nil,
			"seq.nextval", "select seq.nextval from sys.dummy", "create sequence seq start with 1 increment by 50", "drop sequence seq"},
		{"iris emulation", IRIS, V(2023, 1), []Option{WithSequenceEmulation()},
			"(select InterSystems.Sequences_GetNext('seq') from InterSystems.Sequences where ucase(name)=ucase('seq'))",
			"select InterSystems.Sequences_GetNext('seq') from InterSystems.Sequences where ucase(name)=ucase('seq')",
			"insert into InterSystems.Sequences(Name) values (ucase('seq'))",
			"delete from InterSystems.Sequences where ucase(name)=ucase('seq')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDialect(t, tt.ctor, tt.v, tt.opts...)
			require.True(t, d.Sequences().Supported)

			got, err := d.NextSequenceValue("seq")
			require.NoError(t, err)
			assert.Equal(t, tt.nextValue, got)

			got, err = d.SelectSequenceNextValue("seq")
			require.NoError(t, err)
			assert.Equal(t, tt.selectNext, got)

			got, err = d.CreateSequence("seq", 1, 50)
			require.NoError(t, err)
			assert.Equal(t, tt.create, got)

			got, err = d.DropSequence("seq")
			require.NoError(t, err)
			assert.Equal(t, tt.drop, got)

			q, err := d.QuerySequences()
			require.NoError(t, err)
			assert.NotEmpty(t, q)
		})
	}
}

func TestSequences_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		ctor Constructor
		v    Version
		opts []Option
	}{
		{"mysql", MySQL, V(8), nil},
		{"sqlite", SQLite, V(3, 40), nil},
		{"sqlserver 2008", SQLServer, V(10), nil},
		{"iris without emulation", IRIS, V(2023, 1), nil},
		{"emulation is a no-op elsewhere", MySQL, V(8), []Option{WithSequenceEmulation()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDialect(t, tt.ctor, tt.v, tt.opts...)
			assert.False(t, d.Sequences().Supported)

			_, err := d.NextSequenceValue("seq")
			assert.ErrorIs(t, err, ErrUnsupported)
			_, err = d.SelectSequenceNextValue("seq")
			assert.ErrorIs(t, err, ErrUnsupported)
			_, err = d.CreateSequence("seq", 1, 1)
			assert.ErrorIs(t, err, ErrUnsupported)
			_, err = d.DropSequence("seq")
			assert.ErrorIs(t, err, ErrUnsupported)
			_, err = d.QuerySequences()
			assert.ErrorIs(t, err, ErrUnsupported)

			var ue *UnsupportedError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, d.Name(), ue.Dialect)
		})
	}
}

func TestCreateSequence_ZeroIncrement(t *testing.T) {
	d := mustDialect(t, PostgreSQL, V(16))
	_, err := d.CreateSequence("seq", 1, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupported)
}

func TestIdentityColumn(t *testing.T) {
	tests := []struct {
		name       string
		ctor       Constructor
		v          Version
		column     string
		identitySQ string
	}{
		{"postgres serial", PostgreSQL, V(9, 6), "serial not null", "select currval(pg_get_serial_sequence('orders','id'))"},
		{"postgres identity", PostgreSQL, V(16), "bigint generated by default as identity", "select currval(pg_get_serial_sequence('orders','id'))"},
		{"mysql", MySQL, V(8), "bigint auto_increment", "select last_insert_id()"},
		{"sqlserver", SQLServer, V(16), "bigint identity not null", "select scope_identity()"},
		{"sqlite", SQLite, V(3, 40), "integer", "select last_insert_rowid()"},
		{"db2", DB2, V(11, 5), "bigint generated by default as identity", "values identity_val_local()"},
		{"iris", IRIS, V(2023, 1), "identity", "select LAST_IDENTITY() from %TSQL_sys.snf"},
		{"cockroach", CockroachDB, V(23, 1), "bigint generated by default as identity", "select lastval()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDialect(t, tt.ctor, tt.v)
			col, err := d.IdentityColumn("bigint")
			require.NoError(t, err)
			assert.Equal(t, tt.column, col)

			sel, err := d.IdentitySelect("orders", "id")
			require.NoError(t, err)
			assert.Equal(t, tt.identitySQ, sel)
		})
	}
}

func TestIdentityColumn_Unsupported(t *testing.T) {
	old := mustDialect(t, Oracle, V(11, 2))
	_, err := old.IdentityColumn("number(19,0)")
	assert.ErrorIs(t, err, ErrUnsupported)

	recent := mustDialect(t, Oracle, V(19))
	col, err := recent.IdentityColumn("number(19,0)")
	require.NoError(t, err)
	assert.Equal(t, "number(19,0) generated as identity", col)
	_, err = recent.IdentitySelect("t", "id")
	assert.ErrorIs(t, err, ErrUnsupported, "oracle reads generated keys from the driver")
}

func TestDDL(t *testing.T) {
	tests := []struct {
		name string
		ctor Constructor
		v    Version
		got  func(d *Dialect) string
		want string
	}{
		{"postgres add column", PostgreSQL, V(16), func(d *Dialect) string { return d.AddColumn("t", "c int") }, "alter table t add column c int"},
		{"oracle add column", Oracle, V(19), func(d *Dialect) string { return d.AddColumn("t", "c int") }, "alter table t add c int"},
		{"hana add column", HANA, V(2, 0, 70), func(d *Dialect) string { return d.AddColumn("t", "c int") }, "alter table t add (c int)"},
		{"drop constraint", H2, V(2, 2, 224), func(d *Dialect) string { return d.DropConstraint("t", "uk") }, "alter table t drop constraint uk"},
		{"mysql drop foreign key", MySQL, V(8), func(d *Dialect) string { return d.DropForeignKey("t", "fk") }, "alter table t drop foreign key fk"},
		{"postgres drop foreign key", PostgreSQL, V(16), func(d *Dialect) string { return d.DropForeignKey("t", "fk") }, "alter table t drop constraint fk"},
		{"postgres drop table", PostgreSQL, V(16), func(d *Dialect) string { return d.DropTable("t") }, "drop table if exists t cascade"},
		{"oracle drop table", Oracle, V(19), func(d *Dialect) string { return d.DropTable("t") }, "drop table t cascade constraints"},
		{"oracle 23 drop table", Oracle, V(23), func(d *Dialect) string { return d.DropTable("t") }, "drop table if exists t cascade constraints"},
		{"mysql drop table", MySQL, V(8), func(d *Dialect) string { return d.DropTable("t") }, "drop table if exists t"},
		{"sqlserver temp table", SQLServer, V(16), func(d *Dialect) string {
			return d.CreateTemporaryTable("ids", []string{"id int", "n int"})
		}, "create table #ids (id int, n int)"},
		{"oracle temp table", Oracle, V(19), func(d *Dialect) string {
			return d.CreateTemporaryTable("ids", []string{"id int"})
		}, "create global temporary table ids (id int) on commit delete rows"},
		{"db2 temp table", DB2, V(11, 5), func(d *Dialect) string {
			return d.CreateTemporaryTable("ids", []string{"id int"})
		}, "declare global temporary table session.ids (id int) not logged"},
		{"postgres temp table", PostgreSQL, V(16), func(d *Dialect) string {
			return d.CreateTemporaryTable("ids", []string{"id int"})
		}, "create temporary table ids (id int)"},
		{"db2 drop temp table", DB2, V(11, 5), func(d *Dialect) string { return d.DropTemporaryTable("ids") }, "drop table session.ids"},
		{"mysql drop temp table", MySQL, V(8), func(d *Dialect) string { return d.DropTemporaryTable("ids") }, "drop temporary table ids"},
		{"hana temp table name", HANA, V(2, 0, 70), func(d *Dialect) string { return d.TemporaryTableName("ids") }, "#ids"},
		{"postgres check", PostgreSQL, V(16), func(d *Dialect) string { return d.ColumnCheck("c > 0") }, " check (c > 0)"},
		{"mysql 8.0.0 check", MySQL, V(8), func(d *Dialect) string { return d.ColumnCheck("c > 0") }, ""},
		{"mysql 8.0.16 check", MySQL, V(8, 0, 16), func(d *Dialect) string { return d.ColumnCheck("c > 0") }, " check (c > 0)"},
		{"empty check", PostgreSQL, V(16), func(d *Dialect) string { return d.ColumnCheck("") }, ""},
		{"postgres no columns insert", PostgreSQL, V(16), func(d *Dialect) string { return d.NoColumnsInsert("t") }, "insert into t default values"},
		{"mysql no columns insert", MySQL, V(8), func(d *Dialect) string { return d.NoColumnsInsert("t") }, "insert into t () values ()"},
		{"oracle no columns insert", Oracle, V(19), func(d *Dialect) string { return d.NoColumnsInsert("t") }, "insert into t values (default)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got(mustDialect(t, tt.ctor, tt.v)))
		})
	}
}
