package analyzer

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/coregx/sqldialect/internal/dialects"
)

func lookup(t *testing.T, name string) *dialects.Dialect {
	t.Helper()
	d, err := dialects.Lookup(name, dialects.Version{})
	require.NoError(t, err)
	return d
}

func TestAnalyzer_ExplainJSON(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("explain (format json) select id from users where id = $1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"QUERY PLAN"}).AddRow(pgPlan))

	a := New(lookup(t, "postgresql"), nil)
	plan, err := a.Explain(context.Background(), db, "select id from users where id = $1", []any{int64(7)})
	require.NoError(t, err)
	assert.Equal(t, dialects.ExplainJSON, plan.Style)
	assert.Contains(t, plan.Dialect, "postgresql")
	assert.Equal(t, "users_pkey", plan.IndexName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyzer_ExplainTabular(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("explain select id from users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "table", "type", "key", "rows"}).
			AddRow(1, "users", "ALL", nil, 3))

	plan, err := New(lookup(t, "mysql"), nil).Explain(context.Background(), db, "select id from users", nil)
	require.NoError(t, err)
	assert.True(t, plan.FullScan)
	assert.False(t, plan.UsesIndex)
	assert.Equal(t, int64(3), plan.EstimatedRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyzer_Errors(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	_, err = New(lookup(t, "oracle"), nil).Explain(context.Background(), db, "select 1 from dual", nil)
	assert.ErrorIs(t, err, dialects.ErrUnsupported)

	boom := errors.New("relation does not exist")
	mock.ExpectQuery("explain (format json) select * from nowhere").WillReturnError(boom)
	_, err = New(lookup(t, "postgresql"), nil).Explain(context.Background(), db, "select * from nowhere", nil)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "failed to execute explain")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyzer_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	for _, ddl := range []string{
		"create table users (id integer primary key, email text, name text)",
		"create index users_email on users (email)",
	} {
		_, err := db.Exec(ddl)
		require.NoError(t, err)
	}

	a := New(lookup(t, "sqlite"), nil)
	ctx := context.Background()

	plan, err := a.Explain(ctx, db, "select name from users where email = ?", []any{"a@example.com"})
	require.NoError(t, err)
	assert.True(t, plan.UsesIndex, plan.RawOutput)
	assert.Equal(t, "users_email", plan.IndexName)
	assert.False(t, plan.FullScan)
	assert.Equal(t, []string{"users"}, plan.Tables)

	plan, err = a.Explain(ctx, db, "select id from users where name = ?", []any{"x"})
	require.NoError(t, err)
	assert.True(t, plan.FullScan, plan.RawOutput)
	assert.False(t, plan.UsesIndex)

	plan, err = a.Explain(ctx, db, "select name from users where id = ?", []any{int64(1)})
	require.NoError(t, err)
	assert.Equal(t, "PRIMARY KEY", plan.IndexName, plan.RawOutput)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	plan, err = a.Explain(ctx, tx, "select id from users", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.RawOutput)
}
