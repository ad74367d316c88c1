package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/cemint/cemint-insights/errors"
)

// Operation names.
const (
	OpStage    = "etl.stage"
	OpArtifact = "artifact.write"
	OpSink     = "warehouse.write"
)

// Status values recorded on operations.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

type metricsKey struct{}

// ContextWithMetrics stores m in ctx for operations started below it.
func ContextWithMetrics(ctx context.Context, m *Metrics) context.Context {
	return context.WithValue(ctx, metricsKey{}, m)
}

// MetricsFromContext returns the metrics stored in ctx, or nil.
func MetricsFromContext(ctx context.Context) *Metrics {
	m, _ := ctx.Value(metricsKey{}).(*Metrics)
	return m
}

// Operation is one traced unit of pipeline work on a stage.
type Operation struct {
	Name      string
	Stage     string
	StartTime time.Time

	rows    int
	span    trace.Span
	metrics *Metrics
}

// StartOperation starts a span named after the operation and stage. Metrics
// are taken from ctx.
func StartOperation(ctx context.Context, name, stage string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	attrs = append(attrs, attribute.String(AttrStage, stage))
	ctx, span := StartSpan(ctx, name+" "+stage, trace.WithAttributes(attrs...))
	return ctx, &Operation{
		Name:      name,
		Stage:     stage,
		StartTime: time.Now(),
		span:      span,
		metrics:   MetricsFromContext(ctx),
	}
}

// SetRows sets the row count reported when the operation ends.
func (op *Operation) SetRows(n int) { op.rows = n }

// Duration returns the time since the operation started.
func (op *Operation) Duration() time.Duration { return time.Since(op.StartTime) }

// End closes the span and records the operation. err may be nil.
func (op *Operation) End(ctx context.Context, err error) {
	d := op.Duration()
	status := StatusOK
	if err != nil {
		status = StatusError
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		op.metrics.RecordError(ctx, errorCode(err), op.Name)
	}
	op.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int(AttrRows, op.rows),
		attribute.Int64(AttrDurationMs, d.Milliseconds()),
	)
	op.span.End()
	op.metrics.RecordOperation(ctx, op.Name, op.Stage, status, op.rows, d)
}

func errorCode(err error) string {
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return string(ae.Code)
	}
	return string(apperrors.ErrCodeInternal)
}
