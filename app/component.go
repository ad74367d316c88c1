package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/cemint/cemint-insights/alert/kafka"
	"github.com/cemint/cemint-insights/component"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/observability"
	"github.com/cemint/cemint-insights/runlog"
	"github.com/cemint/cemint-insights/storage"
)

var (
	_ component.Component   = (*ServicesComponent)(nil)
	_ component.Describable = (*ServicesComponent)(nil)
)

// ServicesComponent builds Services once storage (and the alert producer,
// when enabled) are up. Register it after those components and before the
// HTTP server.
type ServicesComponent struct {
	cfg     *Config
	store   *storage.Component
	alerts  *kafka.Component
	history *runlog.Component
	metrics *observability.Metrics
	log     *logger.Logger
	onReady []func(*Services) error

	mu  sync.RWMutex
	svc *Services
}

// NewServicesComponent creates the component. alerts may be nil.
func NewServicesComponent(cfg *Config, store *storage.Component, alerts *kafka.Component, log *logger.Logger) *ServicesComponent {
	if log == nil {
		log = logger.NewNop()
	}
	return &ServicesComponent{cfg: cfg, store: store, alerts: alerts, log: log}
}

// WithHistory records every ETL run in h, which must be registered before
// this component.
func (c *ServicesComponent) WithHistory(h *runlog.Component) *ServicesComponent {
	c.history = h
	return c
}

// WithMetrics records ETL stage metrics into m.
func (c *ServicesComponent) WithMetrics(m *observability.Metrics) *ServicesComponent {
	c.metrics = m
	return c
}

// OnReady registers fn to run with the built services during Start.
func (c *ServicesComponent) OnReady(fn func(*Services) error) {
	c.onReady = append(c.onReady, fn)
}

// Services returns the built services, or nil before Start.
func (c *ServicesComponent) Services() *Services {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.svc
}

func (c *ServicesComponent) Name() string { return "services" }

// Start loads schemas and wires the business layer.
func (c *ServicesComponent) Start(ctx context.Context) error {
	store := c.store.Storage()
	if store == nil {
		return fmt.Errorf("services: storage not started")
	}

	deps := Deps{Metrics: c.metrics}
	if c.alerts != nil {
		if p := c.alerts.Publisher(); p != nil {
			deps.Alerts = p
		}
	}
	if c.history != nil {
		if h := c.history.Store(); h != nil {
			deps.History = h
		}
	}

	svc, err := NewServices(ctx, c.cfg, store, deps, c.log)
	if err != nil {
		return err
	}
	for _, fn := range c.onReady {
		if err := fn(svc); err != nil {
			_ = svc.Close()
			return err
		}
	}

	c.mu.Lock()
	c.svc = svc
	c.mu.Unlock()
	return nil
}

// Stop releases the services.
func (c *ServicesComponent) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc == nil {
		return nil
	}
	err := c.svc.Close()
	c.svc = nil
	return err
}

// Health is healthy once services are built and at least one schema is loaded.
func (c *ServicesComponent) Health(_ context.Context) component.Health {
	svc := c.Services()
	switch {
	case svc == nil:
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "services not started"}
	case svc.Schemas.Len() == 0:
		return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: "no schemas loaded from " + c.cfg.SchemaDir}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns the one-line startup summary.
func (c *ServicesComponent) Describe() component.Description {
	return component.Description{
		Name: "Services",
		Type: "business",
		Details: fmt.Sprintf("schemas=%s input=%s output=%s mode=%s method=%s",
			c.cfg.SchemaDir, c.cfg.InputDir, c.cfg.OutputDir, c.cfg.Pipeline.Mode, c.cfg.Pipeline.NormalizeMethod),
	}
}
