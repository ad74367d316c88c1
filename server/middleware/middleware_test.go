package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	return r
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery(logger.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Internal server error") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	r := newEngine(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	got := w.Header().Get(RequestIDHeader)
	if got == "" || got != seen {
		t.Errorf("expected generated id echoed, header=%q context=%q", got, seen)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "run-42")
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "run-42" {
		t.Errorf("expected caller id kept, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := &CORSConfig{AllowedOrigins: []string{"https://ops.example"}, AllowedMethods: []string{"GET", "POST"}, MaxAge: 600}
	r := newEngine(CORS(cfg))
	r.POST("/predict", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://ops.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ops.example" {
		t.Errorf("unexpected allow-origin %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Errorf("unexpected allow-methods %q", got)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("unexpected max-age %q", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/predict", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin should get no header, got %q", got)
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit("8B"))
	r.POST("/", func(c *gin.Context) {
		buf := make([]byte, 64)
		if _, err := c.Request.Body.Read(buf); err != nil && !errors.Is(err, io.EOF) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestParseSize(t *testing.T) {
	cases := map[string]int64{
		"10MB":  10 * 1024 * 1024,
		"512kb": 512 * 1024,
		"1GB":   1024 * 1024 * 1024,
		"64":    64,
		"8B":    8,
		"":      7,
		"lots":  7,
		"-1MB":  7,
	}
	for in, want := range cases {
		if got := ParseSize(in, 7); got != want {
			t.Errorf("ParseSize(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestIsHealthEndpoint(t *testing.T) {
	if !isHealthEndpoint("/health") || !isHealthEndpoint("/api/health") {
		t.Error("health paths should be skipped")
	}
	if isHealthEndpoint("/predict") {
		t.Error("/predict is not a health path")
	}
}

func TestTracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	otel.SetTextMapPropagator(propagation.TraceContext{})
	reader := sdkmetric.NewManualReader()
	metrics, err := observability.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	r := newEngine(RequestID(), Tracing(metrics))
	var handlerCtxMetrics *observability.Metrics
	r.GET("/runs/:id", func(c *gin.Context) {
		handlerCtxMetrics = observability.MetricsFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("store down"))
		c.Status(http.StatusServiceUnavailable)
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/runs/2025-09-17_23-10-01", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	req.Header.Set(RequestIDHeader, "req-7")
	for _, q := range []*http.Request{
		req,
		httptest.NewRequest(http.MethodGet, "/boom", nil),
		httptest.NewRequest(http.MethodGet, "/nowhere", nil),
		httptest.NewRequest(http.MethodGet, "/health", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), q)
	}

	if handlerCtxMetrics != metrics {
		t.Error("handlers should see the metrics in the request context")
	}
	spans := sr.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans (health skipped), got %d", len(spans))
	}
	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range spans {
		byName[s.Name()] = s
	}

	run, ok := byName["GET /runs/:id"]
	if !ok {
		t.Fatalf("missing route span, got %v", byName)
	}
	if run.SpanContext().TraceID().String() != traceID {
		t.Errorf("incoming trace context not continued: %s", run.SpanContext().TraceID())
	}
	attrs := attribute.NewSet(run.Attributes()...)
	if v, _ := attrs.Value(observability.AttrRequestID); v.AsString() != "req-7" {
		t.Errorf("expected request id attribute, got %q", v.AsString())
	}
	if run.Status().Code == codes.Error {
		t.Error("200 should not mark the span failed")
	}

	boom := byName["GET /boom"]
	if boom == nil || boom.Status().Code != codes.Error || len(boom.Events()) == 0 {
		t.Errorf("expected failed span with recorded error, got %+v", boom)
	}
	if _, ok := byName["GET "+unmatchedRoute]; !ok {
		t.Errorf("unmatched route should use a fixed span name, got %v", byName)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != observability.MetricRequestTotal {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 3 {
		t.Errorf("expected 3 recorded requests, got %d", total)
	}
}
