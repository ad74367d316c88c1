package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cemint/cemint-insights/component"
	apperrors "github.com/cemint/cemint-insights/errors"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	return sr
}

func newManualMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("expected endpoint %s, got %s", DefaultEndpoint, cfg.Endpoint)
	}
	if cfg.SampleRate != 1 {
		t.Errorf("expected sample rate 1, got %g", cfg.SampleRate)
	}
	if cfg.MetricInterval != DefaultMetricInterval {
		t.Errorf("expected interval %s, got %s", DefaultMetricInterval, cfg.MetricInterval)
	}

	bad := Config{SampleRate: 1.5}
	if err := bad.Validate(); err != nil {
		t.Errorf("disabled config should validate, got %v", err)
	}
	bad.Enabled = true
	bad.Endpoint = "collector:4318"
	err := bad.Validate()
	if err == nil || !strings.HasPrefix(err.Error(), "observability:") {
		t.Errorf("expected sample_rate error, got %v", err)
	}
}

func TestSampler(t *testing.T) {
	cases := map[float64]string{1: "AlwaysOnSampler", 0: "AlwaysOffSampler", 0.25: "TraceIDRatioBased{0.25}"}
	for rate, want := range cases {
		if got := sampler(rate).Description(); got != want {
			t.Errorf("rate %g: expected %s, got %s", rate, want, got)
		}
	}
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordRequestStart(ctx)
	m.RecordRequestEnd(ctx, "GET", "/", 200, time.Millisecond)
	m.RecordOperation(ctx, OpStage, "stage1", StatusOK, 3, time.Millisecond)
	m.RecordError(ctx, "INTERNAL_ERROR", OpStage)

	if _, err := NewMetrics(noop.NewMeterProvider().Meter("noop")); err != nil {
		t.Fatalf("noop meter: %v", err)
	}
}

func TestOperationSuccess(t *testing.T) {
	sr := installRecorder(t)
	m, reader := newManualMetrics(t)
	ctx := ContextWithMetrics(context.Background(), m)
	if MetricsFromContext(ctx) != m {
		t.Fatal("metrics not stored in context")
	}

	_, op := StartOperation(ctx, OpStage, "stage3_clinker", attribute.String(AttrRunID, "run-1"))
	op.SetRows(42)
	op.End(ctx, nil)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "etl.stage stage3_clinker" {
		t.Errorf("unexpected span name %q", span.Name())
	}
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrRunID].AsString() != "run-1" || attrs[AttrStage].AsString() != "stage3_clinker" {
		t.Errorf("missing run or stage attribute: %v", attrs)
	}
	if attrs[AttrRows].AsInt64() != 42 || attrs[AttrStatus].AsString() != StatusOK {
		t.Errorf("unexpected rows/status: %v", attrs)
	}

	data := collect(t, reader)
	if got := sumOf(t, data[MetricOperationTotal]); got != 1 {
		t.Errorf("expected 1 operation, got %d", got)
	}
	if got := sumOf(t, data[MetricOperationRows]); got != 42 {
		t.Errorf("expected 42 rows, got %d", got)
	}
	if _, ok := data[MetricErrorTotal]; ok {
		t.Error("no error should be counted")
	}
}

func TestOperationFailure(t *testing.T) {
	sr := installRecorder(t)
	m, reader := newManualMetrics(t)
	ctx := ContextWithMetrics(context.Background(), m)

	_, op := StartOperation(ctx, OpArtifact, "stage1")
	op.End(ctx, apperrors.SchemaNotFound("stage1"))
	_, op = StartOperation(ctx, OpArtifact, "stage2")
	op.End(ctx, errors.New("disk full"))

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, s := range spans {
		if s.Status().Code != codes.Error {
			t.Errorf("span %s: expected error status, got %v", s.Name(), s.Status())
		}
		if len(s.Events()) == 0 {
			t.Errorf("span %s: expected recorded error event", s.Name())
		}
	}

	data := collect(t, reader)
	errs, ok := data[MetricErrorTotal].(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected error counter, got %T", data[MetricErrorTotal])
	}
	seen := make(map[string]int64)
	for _, dp := range errs.DataPoints {
		code, _ := dp.Attributes.Value("code")
		seen[code.AsString()] += dp.Value
	}
	if seen[string(apperrors.ErrCodeSchemaNotFound)] != 1 || seen[string(apperrors.ErrCodeInternal)] != 1 {
		t.Errorf("unexpected error codes: %v", seen)
	}
}

func TestSpanHelpers(t *testing.T) {
	sr := installRecorder(t)
	ctx, span := StartSpan(context.Background(), SpanRun)
	SetSpanAttribute(ctx, "rows", 3)
	SetSpanAttribute(ctx, "stages", []string{"a", "b"})
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, nil)
	SetSpanError(ctx, errors.New("boom"))
	span.End()

	got := sr.Ended()[0]
	if len(got.Attributes()) != 2 {
		t.Errorf("expected 2 attributes, got %v", got.Attributes())
	}
	if got.Status().Code != codes.Error || got.Status().Description != "boom" {
		t.Errorf("unexpected status %v", got.Status())
	}
}

func TestComponentBeforeStart(t *testing.T) {
	c := NewComponent(Config{Enabled: true, Endpoint: "otel:4318", SampleRate: 0.5}, Service{Name: "cemint"}, nil)
	if c.Name() != "observability" {
		t.Errorf("unexpected name %s", c.Name())
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("stop before start: %v", err)
	}
	d := c.Describe()
	if d.Type != "observability" || !strings.Contains(d.Details, "otlp=otel:4318 sample_rate=0.5") {
		t.Errorf("unexpected description %+v", d)
	}
}
