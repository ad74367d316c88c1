package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/cemint/cemint-insights/logger"
)

// Metric names.
const (
	MetricRequestTotal    = "http.server.requests"
	MetricRequestDuration = "http.server.duration"
	MetricRequestActive   = "http.server.active_requests"
	MetricOperationTotal  = "cemint.operation.total"
	MetricOperationTime   = "cemint.operation.duration"
	MetricOperationRows   = "cemint.operation.rows"
	MetricErrorTotal      = "cemint.error.total"
)

// InitMeter installs a periodic OTLP/HTTP meter provider as the global one.
// Shut the provider down on exit to flush.
func InitMeter(ctx context.Context, cfg Config, svc Service, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if log != nil {
		log.Info("meter initialized", logger.Fields(
			logger.FieldService, svc.Name,
			"endpoint", cfg.Endpoint,
			"interval", cfg.MetricInterval.String(),
		))
	}
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the service instruments. A nil *Metrics records nothing.
type Metrics struct {
	requestTotal      metric.Int64Counter
	requestDuration   metric.Float64Histogram
	requestActive     metric.Int64UpDownCounter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	operationRows     metric.Int64Counter
	errorTotal        metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error
	if m.requestTotal, err = meter.Int64Counter(MetricRequestTotal,
		metric.WithDescription("Completed HTTP requests")); err != nil {
		return nil, fmt.Errorf("creating %s: %w", MetricRequestTotal, err)
	}
	if m.requestDuration, err = meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("HTTP request duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating %s: %w", MetricRequestDuration, err)
	}
	if m.requestActive, err = meter.Int64UpDownCounter(MetricRequestActive,
		metric.WithDescription("HTTP requests in flight")); err != nil {
		return nil, fmt.Errorf("creating %s: %w", MetricRequestActive, err)
	}
	if m.operationTotal, err = meter.Int64Counter(MetricOperationTotal,
		metric.WithDescription("Pipeline operations by stage and status")); err != nil {
		return nil, fmt.Errorf("creating %s: %w", MetricOperationTotal, err)
	}
	if m.operationDuration, err = meter.Float64Histogram(MetricOperationTime,
		metric.WithDescription("Pipeline operation duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating %s: %w", MetricOperationTime, err)
	}
	if m.operationRows, err = meter.Int64Counter(MetricOperationRows,
		metric.WithDescription("Rows produced by pipeline operations")); err != nil {
		return nil, fmt.Errorf("creating %s: %w", MetricOperationRows, err)
	}
	if m.errorTotal, err = meter.Int64Counter(MetricErrorTotal,
		metric.WithDescription("Errors by code and operation")); err != nil {
		return nil, fmt.Errorf("creating %s: %w", MetricErrorTotal, err)
	}
	return m, nil
}

// RecordRequestStart increments the in-flight request count.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements in-flight requests and records the completed one.
func (m *Metrics) RecordRequestEnd(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.String("http.status_code", strconv.Itoa(status)),
	))
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	))
}

// RecordOperation records one pipeline operation on a stage.
func (m *Metrics) RecordOperation(ctx context.Context, operation, stage, status string, rows int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("stage", stage),
	)
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, d.Seconds(), attrs)
	if rows > 0 {
		m.operationRows.Add(ctx, int64(rows), attrs)
	}
}

// RecordError counts an error by code and operation.
func (m *Metrics) RecordError(ctx context.Context, code, operation string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("operation", operation),
	))
}
