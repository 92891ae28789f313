package tracer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder(t *testing.T) (*OtelTracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewOtelTracer(tp.Tracer("test")), exporter
}

func attributes(kvs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func TestNoopTracer(t *testing.T) {
	tracer := &NoopTracer{}
	ctx := context.Background()

	got, span := tracer.StartSpan(ctx, "sqldialect.translate")
	assert.NotNil(t, span)
	assert.Equal(t, ctx, got)

	span.SetAttributes(attribute.String("key", "value"))
	span.RecordError(errors.New("test error"))
	span.SetStatus(codes.Error, "error")
	span.End()
}

func TestOtelTracer(t *testing.T) {
	tracer, exporter := newRecorder(t)

	_, span := tracer.StartSpan(context.Background(), "sqldialect.exec")
	span.SetAttributes(attribute.String("key", "value"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "sqldialect.exec", spans[0].Name)
	assert.Equal(t, "value", attributes(spans[0].Attributes)["key"])
}

func TestOtelSpan_RecordError(t *testing.T) {
	tracer, exporter := newRecorder(t)

	_, span := tracer.StartSpan(context.Background(), "test.error")
	testErr := errors.New("database connection failed")
	span.RecordError(testErr)
	span.SetStatus(codes.Error, testErr.Error())
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestAddAttributes_Success(t *testing.T) {
	tracer, exporter := newRecorder(t)

	_, span := tracer.StartSpan(context.Background(), "sqldialect.exec")
	AddAttributes(span, &Metadata{
		System:       "postgresql",
		Statement:    "update account set balance = $1 where id = $2",
		Operation:    "UPDATE",
		Tables:       []string{"account"},
		Parameters:   2,
		Duration:     15 * time.Millisecond,
		RowsAffected: 1,
	})
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	attrs := attributes(spans[0].Attributes)

	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "update account set balance = $1 where id = $2", attrs["db.statement"])
	assert.Equal(t, "UPDATE", attrs["db.operation"])
	assert.Equal(t, []string{"account"}, attrs["sqldialect.tables"])
	assert.Equal(t, int64(2), attrs["sqldialect.parameters"])
	assert.Equal(t, int64(1), attrs["db.rows_affected"])
	assert.InDelta(t, 15.0, attrs["db.duration_ms"], 0.1)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
}

func TestAddAttributes_WithError(t *testing.T) {
	tracer, exporter := newRecorder(t)

	_, span := tracer.StartSpan(context.Background(), "sqldialect.translate")
	AddAttributes(span, &Metadata{
		System:    "sqlserver",
		Operation: "SELECT",
		Error:     errors.New("sqldialect: lateral derived tables is not supported by the sqlserver dialect"),
	})
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Status.Description, "lateral")
	assert.Len(t, spans[0].Events, 1)

	attrs := attributes(spans[0].Attributes)
	assert.NotContains(t, attrs, "db.statement", "nothing was rendered")
	assert.NotContains(t, attrs, "sqldialect.tables")
	assert.NotContains(t, attrs, "db.rows_affected")
}
