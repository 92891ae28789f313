// Package tracer provides the tracing abstraction used around translation
// and execution, with an OpenTelemetry adapter.
package tracer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans.
type Tracer interface {
	// StartSpan starts a new tracing span with the given name
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span that captures the execution of an operation.
type Span interface {
	// SetAttributes sets key-value attributes on the span
	SetAttributes(attrs ...attribute.KeyValue)
	// RecordError records an error that occurred during the span
	RecordError(err error)
	// SetStatus sets the status code and description of the span
	SetStatus(code codes.Code, description string)
	// End marks the span as complete
	End()
}

// NoopTracer is a tracer that does nothing (zero overhead when tracing is disabled).
// This is the default tracer used when no tracing is configured.
type NoopTracer struct{}

// StartSpan returns the context unchanged with a no-op span.
func (n *NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, &NoopSpan{}
}

// NoopSpan is a span that does nothing.
type NoopSpan struct{}

// SetAttributes does nothing.
func (n *NoopSpan) SetAttributes(_ ...attribute.KeyValue) {}

// RecordError does nothing.
func (n *NoopSpan) RecordError(_ error) {}

// SetStatus does nothing.
func (n *NoopSpan) SetStatus(_ codes.Code, _ string) {}

// End does nothing.
func (n *NoopSpan) End() {}

// OtelTracer wraps an OpenTelemetry tracer to implement the Tracer interface.
// This allows seamless integration with OpenTelemetry-based observability systems.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer creates a new OpenTelemetry tracer adapter.
// The provided tracer must not be nil.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

// StartSpan starts a new OpenTelemetry span.
func (t *OtelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &OtelSpan{span: span}
}

// OtelSpan wraps an OpenTelemetry span.
type OtelSpan struct {
	span trace.Span
}

// SetAttributes sets OpenTelemetry attributes on the span.
func (s *OtelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// RecordError records an error on the OpenTelemetry span.
func (s *OtelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

// SetStatus sets the status of the OpenTelemetry span.
func (s *OtelSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// End completes the OpenTelemetry span.
func (s *OtelSpan) End() {
	s.span.End()
}

// Metadata describes a translated or executed statement for tracing. It
// follows the OpenTelemetry database semantic conventions.
type Metadata struct {
	// System is the dialect family, e.g. "postgresql".
	System string
	// Statement is the rendered SQL.
	Statement string
	// Operation is the SQL verb (SELECT, INSERT, UPDATE, DELETE).
	Operation string
	// Tables are the tables the statement references.
	Tables []string
	// Parameters is the number of bound parameters.
	Parameters int
	// Duration is how long the traced work took.
	Duration time.Duration
	// RowsAffected is set for executed writes.
	RowsAffected int64
	// Error is any error the traced work returned.
	Error error
}

// AddAttributes records meta on span and sets its status.
// See: https://opentelemetry.io/docs/specs/semconv/database/
func AddAttributes(span Span, meta *Metadata) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", meta.System),
		attribute.String("db.operation", meta.Operation),
		attribute.Float64("db.duration_ms", float64(meta.Duration.Microseconds())/1000.0),
		attribute.Int("sqldialect.parameters", meta.Parameters),
	}

	if meta.Statement != "" {
		attrs = append(attrs, attribute.String("db.statement", meta.Statement))
	}
	if len(meta.Tables) > 0 {
		attrs = append(attrs, attribute.StringSlice("sqldialect.tables", meta.Tables))
	}
	if meta.RowsAffected > 0 {
		attrs = append(attrs, attribute.Int64("db.rows_affected", meta.RowsAffected))
	}

	span.SetAttributes(attrs...)

	if meta.Error != nil {
		span.RecordError(meta.Error)
		span.SetStatus(codes.Error, meta.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
