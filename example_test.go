package sqldialect_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/coregx/sqldialect"
)

func page() sqldialect.Statement {
	return &sqldialect.Select{Query: &sqldialect.QuerySpec{
		Select: []sqldialect.SelectItem{{Expr: sqldialect.Col("u.id")}, {Expr: sqldialect.Col("u.name")}},
		From:   []sqldialect.TableRef{&sqldialect.Table{Name: "users", Alias: "u"}},
		Where:  sqldialect.Equal(sqldialect.Col("u.status"), sqldialect.Param("active")),
		OrderBy: []sqldialect.SortSpec{
			{Expr: sqldialect.Col("u.name"), Nulls: sqldialect.NullsLast},
		},
		Offset: sqldialect.Param(20),
		Fetch:  sqldialect.Param(10),
	}}
}

func Example() {
	d, err := sqldialect.Lookup("postgres", sqldialect.Version{})
	if err != nil {
		panic(err)
	}
	res, err := sqldialect.NewTranslator(d).Translate(page())
	if err != nil {
		panic(err)
	}
	fmt.Println(res.SQL)
	fmt.Println(res.Values())
	// Output:
	// select u.id, u.name from users u where u.status = $1 order by u.name nulls last limit $2 offset $3
	// [active 10 20]
}

func Example_emulatedPagination() {
	d, err := sqldialect.Lookup("mysql", sqldialect.Version{})
	if err != nil {
		panic(err)
	}
	res, err := sqldialect.NewTranslator(d).Translate(page())
	if err != nil {
		panic(err)
	}
	fmt.Println(res.SQL)
	fmt.Println(res.Values())
	// Output:
	// select u.id, u.name from users u where u.status = ? order by case when u.name is null then 1 else 0 end, u.name limit ?, ?
	// [active 20 10]
}

func TestLookup(t *testing.T) {
	d, err := sqldialect.Lookup("mssql", sqldialect.Version{})
	require.NoError(t, err)
	assert.Contains(t, d.String(), "sqlserver")

	_, err = sqldialect.Lookup("informix", sqldialect.Version{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sqldialect.ErrUnsupportedDialect))

	assert.Contains(t, sqldialect.Families(), "postgresql")
	assert.Contains(t, sqldialect.Names(), "pgx")
}

func TestParseConfig(t *testing.T) {
	cfg, err := sqldialect.ParseConfig([]byte("dialect: sqlite\nbatch_size: 25\n"))
	require.NoError(t, err)
	d, err := cfg.NewDialect()
	require.NoError(t, err)
	assert.Equal(t, 25, d.DefaultBatchSize())

	_, err = sqldialect.ParseConfig([]byte("batch_size: 25\n"))
	assert.ErrorIs(t, err, sqldialect.ErrInvalidConfig)
}

func TestExecutorOptions(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPrepare("update account set password = $1 where id = $2").
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 1))

	var buf bytes.Buffer
	sl := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := sqldialect.NewSlogAdapter(sl)
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer := sqldialect.NewOtelTracer(tp.Tracer("sqldialect-test"))
	level, err := sqldialect.ParseAuditLevel("writes")
	require.NoError(t, err)

	d, err := sqldialect.Lookup("postgres", sqldialect.Version{})
	require.NoError(t, err)
	tr := sqldialect.NewTranslator(d,
		sqldialect.WithTranslatorLogger(l),
		sqldialect.WithTranslatorTracer(tracer),
		sqldialect.WithTranslatorSanitizer(sqldialect.NewSanitizer(nil)),
		sqldialect.WithTranslatorValidator(sqldialect.NewValidator()),
	)

	var events []sqldialect.QueryEvent
	ex := sqldialect.NewExecutor(db, tr,
		sqldialect.WithLogger(l),
		sqldialect.WithSanitizer(sqldialect.NewSanitizer(nil)),
		sqldialect.WithTracer(tracer),
		sqldialect.WithValidator(sqldialect.NewValidator(sqldialect.WithStrict(true), sqldialect.WithPatterns(`xp_\w+`))),
		sqldialect.WithAuditor(sqldialect.NewAuditor(sl, level)),
		sqldialect.WithQueryHook(func(_ context.Context, e sqldialect.QueryEvent) { events = append(events, e) }),
		sqldialect.WithCacheCapacity(4),
		sqldialect.WithHealthCheck(time.Hour),
	)
	defer ex.Close()

	ctx := sqldialect.WithUser(context.Background(), "alice")
	_, err = ex.Exec(ctx, &sqldialect.Update{
		Table: sqldialect.Table{Name: "account"},
		Set:   []sqldialect.Assignment{{Column: "password", Value: sqldialect.Param("hunter2")}},
		Where: sqldialect.Equal(sqldialect.Col("id"), sqldialect.Param(1)),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, events, 1)
	assert.Equal(t, "UPDATE", events[0].Operation)
	out := buf.String()
	assert.Contains(t, out, "audit_event")
	assert.Contains(t, out, "alice")
	assert.NotContains(t, out, "hunter2")
	assert.NotEmpty(t, exporter.GetSpans())
	assert.True(t, ex.Healthy())
}
