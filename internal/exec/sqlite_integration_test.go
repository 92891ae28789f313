package exec

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/coregx/sqldialect/internal/ast"
	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/sqlerr"
	"github.com/coregx/sqldialect/internal/translator"
)

// openSQLite opens an in-memory database seeded with users, one of them
// without a name.
func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		create table users (id integer primary key, name text, status text not null);
		insert into users (id, name, status) values
			(1, 'carol', 'active'),
			(2, null, 'active'),
			(3, 'alice', 'active'),
			(4, 'bob', 'active'),
			(5, 'dave', 'inactive');
		create table account (id integer primary key, balance integer not null);
	`)
	require.NoError(t, err)
	return db
}

func sqliteExecutor(t *testing.T, db *sql.DB, name string, v dialects.Version) *Executor {
	t.Helper()
	d, err := dialects.Lookup(name, v)
	require.NoError(t, err)
	ex := New(db, translator.New(d))
	t.Cleanup(func() { _ = ex.Close() })
	return ex
}

func pageOfUsers(desc bool, nulls ast.NullPrecedence, offset, fetch int) ast.Statement {
	return &ast.Select{Query: &ast.QuerySpec{
		Select:  []ast.SelectItem{{Expr: ast.Col("u.id")}, {Expr: ast.Col("u.name")}},
		From:    []ast.TableRef{&ast.Table{Name: "users", Alias: "u"}},
		Where:   ast.Equal(ast.Col("u.status"), ast.Param("active")),
		OrderBy: []ast.SortSpec{{Expr: ast.Col("u.name"), Desc: desc, Nulls: nulls}},
		Offset:  ast.Param(offset),
		Fetch:   ast.Param(fetch),
	}}
}

func collectIDs(t *testing.T, rows *Rows) []int64 {
	t.Helper()
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		var name sql.NullString
		require.NoError(t, rows.Scan(&id, &name))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

// The emulated forms must return the same rows on a real engine as the
// native ones. Active users by name: alice(3), bob(4), carol(1), null(2).
func TestSQLite_EmulatedPagination(t *testing.T) {
	db := openSQLite(t)

	paths := []struct {
		name    string
		dialect string
		version dialects.Version
	}{
		{"native", "sqlite", dialects.Version{}},
		{"case-when", "sqlite", dialects.V(3, 20)},
		{"row_number", "iris", dialects.Version{}},
	}
	orders := []struct {
		name  string
		desc  bool
		nulls ast.NullPrecedence
		want  []int64
	}{
		{"asc nulls last", false, ast.NullsLast, []int64{4, 1}},
		{"asc nulls first", false, ast.NullsFirst, []int64{3, 4}},
		{"desc nulls last", true, ast.NullsLast, []int64{4, 3}},
		{"desc nulls first", true, ast.NullsFirst, []int64{1, 4}},
	}
	for _, p := range paths {
		for _, o := range orders {
			t.Run(p.name+" "+o.name, func(t *testing.T) {
				ex := sqliteExecutor(t, db, p.dialect, p.version)
				rows, err := ex.Query(context.Background(), pageOfUsers(o.desc, o.nulls, 1, 2))
				require.NoError(t, err)
				assert.Equal(t, o.want, collectIDs(t, rows), rows.SQL)
			})
		}
	}
}

func TestSQLite_LastPage(t *testing.T) {
	db := openSQLite(t)
	ex := sqliteExecutor(t, db, "iris", dialects.Version{})

	rows, err := ex.Query(context.Background(), pageOfUsers(false, ast.NullsLast, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, collectIDs(t, rows))
}

func TestSQLite_UpsertAndConstraint(t *testing.T) {
	db := openSQLite(t)
	ex := sqliteExecutor(t, db, "sqlite", dialects.Version{})
	ctx := context.Background()

	insert := func(balance int, conflict *ast.Conflict) ast.Statement {
		return &ast.Insert{
			Table:    ast.Table{Name: "account"},
			Columns:  []string{"id", "balance"},
			Values:   [][]ast.Expression{{ast.Param(1), ast.Param(balance)}},
			Conflict: conflict,
		}
	}
	upsert := &ast.Conflict{
		Columns: []string{"id"},
		Set:     []ast.Assignment{{Column: "balance", Value: &ast.Excluded{Column: "balance"}}},
	}

	_, err := ex.Exec(ctx, insert(100, upsert))
	require.NoError(t, err)
	_, err = ex.Exec(ctx, insert(250, upsert))
	require.NoError(t, err)

	var balance int
	require.NoError(t, db.QueryRow("select balance from account where id = 1").Scan(&balance))
	assert.Equal(t, 250, balance)

	_, err = ex.Exec(ctx, insert(300, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlerr.ErrConstraintViolation)
	assert.True(t, sqlerr.IsConstraint(err, sqlerr.Unique), "got %v", err)
}

func TestSQLite_Explain(t *testing.T) {
	db := openSQLite(t)
	ex := sqliteExecutor(t, db, "sqlite", dialects.Version{})

	plan, err := ex.Explain(context.Background(), &ast.Select{Query: &ast.QuerySpec{
		Select: []ast.SelectItem{{Expr: ast.Col("name")}},
		From:   []ast.TableRef{&ast.Table{Name: "users"}},
		Where:  ast.Equal(ast.Col("id"), ast.Param(3)),
	}})
	require.NoError(t, err)
	assert.True(t, plan.UsesIndex, plan.RawOutput)
	assert.Equal(t, []string{"users"}, plan.Tables)

	plan, err = ex.Explain(context.Background(), pageOfUsers(false, ast.NullsLast, 0, 2))
	require.NoError(t, err)
	assert.True(t, plan.FullScan, plan.RawOutput)
}
