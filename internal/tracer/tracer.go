// Package tracer provides the tracing abstraction used around schema reads and
// statement generation. It adapts OpenTelemetry and accepts custom implementations.
package tracer

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span is one traced operation.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	RecordError(err error)
	SetStatus(code codes.Code, description string)
	End()
}

// NoopTracer does nothing. It is the default when no tracer is configured.
type NoopTracer struct{}

// StartSpan returns ctx unchanged with a no-op span.
func (n *NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, &NoopSpan{}
}

// NoopSpan does nothing.
type NoopSpan struct{}

func (n *NoopSpan) SetAttributes(_ ...attribute.KeyValue) {}
func (n *NoopSpan) RecordError(_ error)                   {}
func (n *NoopSpan) SetStatus(_ codes.Code, _ string)      {}
func (n *NoopSpan) End()                                  {}

// OtelTracer adapts an OpenTelemetry tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer creates an adapter. The provided tracer must not be nil.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

// StartSpan starts a client span.
func (t *OtelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	return ctx, &OtelSpan{span: span}
}

// OtelSpan adapts an OpenTelemetry span.
type OtelSpan struct {
	span trace.Span
}

func (s *OtelSpan) SetAttributes(attrs ...attribute.KeyValue) { s.span.SetAttributes(attrs...) }
func (s *OtelSpan) RecordError(err error)                     { s.span.RecordError(err) }
func (s *OtelSpan) End()                                      { s.span.End() }

func (s *OtelSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// Metadata describes a traced sink operation using the OpenTelemetry database
// semantic conventions.
type Metadata struct {
	// System is the dialect name (postgresql, mysql, ...).
	System string
	// Operation is the statement kind or schema operation.
	Operation string
	// Table is the qualified target table.
	Table string
	// Statement is the generated SQL, empty for catalog reads.
	Statement string
	// Columns is the number of columns read or bound.
	Columns int
	Duration time.Duration
	Error    error
}

// AddAttributes records meta on span and sets its status.
func AddAttributes(span Span, meta *Metadata) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", meta.System),
		attribute.String("db.operation", meta.Operation),
		attribute.Float64("db.duration_ms", float64(meta.Duration.Microseconds())/1000.0),
	}

	if meta.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", meta.Table))
	}
	if meta.Statement != "" {
		attrs = append(attrs, attribute.String("db.statement", meta.Statement))
	}
	if meta.Columns > 0 {
		attrs = append(attrs, attribute.Int("db.sink.columns", meta.Columns))
	}

	span.SetAttributes(attrs...)

	if meta.Error != nil {
		span.RecordError(meta.Error)
		span.SetStatus(codes.Error, meta.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// DetectOperation returns the leading keyword of a generated statement:
// INSERT, UPDATE, DELETE, MERGE, TRUNCATE, CREATE, ALTER or UNKNOWN.
func DetectOperation(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"INSERT", "UPDATE", "DELETE", "MERGE", "TRUNCATE", "CREATE", "ALTER"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "UNKNOWN"
}
