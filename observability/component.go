package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/cemint/cemint-insights/component"
	"github.com/cemint/cemint-insights/logger"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component installs the tracer and meter providers on Start and flushes
// them on Stop. Register it before anything that emits telemetry.
type Component struct {
	cfg Config
	svc Service
	log *logger.Logger

	mu sync.Mutex
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// NewComponent creates the telemetry component.
func NewComponent(cfg Config, svc Service, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{cfg: cfg, svc: svc, log: log.WithComponent("observability")}
}

func (c *Component) Name() string { return "observability" }

// Start creates the exporters. Nothing is dialed until the first export.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tp != nil {
		return nil
	}
	tp, err := InitTracer(ctx, c.cfg, c.svc, c.log)
	if err != nil {
		return err
	}
	mp, err := InitMeter(ctx, c.cfg, c.svc, c.log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}
	c.tp, c.mp = tp, mp
	return nil
}

// Stop flushes pending spans and metrics.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tp == nil {
		return nil
	}
	err := errors.Join(c.tp.Shutdown(ctx), c.mp.Shutdown(ctx))
	c.tp, c.mp = nil, nil
	if err != nil {
		c.log.Warn("telemetry flush failed", logger.ErrorFields("shutdown", err))
	}
	return err
}

// Health is healthy once the providers are installed. Collector outages do
// not make the service unhealthy.
func (c *Component) Health(_ context.Context) component.Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tp == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "providers not installed"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "exporting to " + c.cfg.Endpoint}
}

// Describe returns the one-line startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Telemetry",
		Type:    "observability",
		Details: fmt.Sprintf("otlp=%s sample_rate=%g interval=%s", c.cfg.Endpoint, c.cfg.SampleRate, c.cfg.MetricInterval),
	}
}
