package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/cemint/cemint-insights/component"
	"github.com/cemint/cemint-insights/logger"
)

// Locator is implemented by provider configs to name where data lives.
type Locator interface {
	Location() string
}

// Component owns the storage backend shared by the loader, registries and
// artifact writer.
type Component struct {
	cfg         Config
	providerCfg any
	watch       []string
	storage     Storage
	log         *logger.Logger
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the storage component. The backend is opened on Start.
func NewComponent(cfg Config, providerCfg any, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{cfg: cfg, providerCfg: providerCfg, log: log}
}

// Watch sets the directories checked by Health. An empty watched directory
// degrades the component.
func (c *Component) Watch(dirs ...string) *Component {
	c.watch = append(c.watch, dirs...)
	return c
}

// Storage returns the backend, or nil before Start.
func (c *Component) Storage() Storage { return c.storage }

// Name implements component.Component.
func (c *Component) Name() string { return "storage" }

// Start opens the configured backend.
func (c *Component) Start(_ context.Context) error {
	s, err := New(c.cfg, c.providerCfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	return nil
}

// Stop closes backends that hold a client.
func (c *Component) Stop(_ context.Context) error {
	s := c.storage
	c.storage = nil
	if closer, ok := s.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Health lists every watched directory.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.storage == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "storage not initialized"
		return h
	}

	var empty []string
	for _, dir := range c.watch {
		l, err := ListDir(ctx, c.storage, dir)
		if err != nil {
			h.Status = component.StatusUnhealthy
			h.Message = fmt.Sprintf("list %s: %v", dir, err)
			return h
		}
		if len(l.Dirs) == 0 && len(l.Files) == 0 {
			empty = append(empty, dir)
		}
	}
	if len(empty) > 0 {
		h.Status = component.StatusDegraded
		h.Message = "empty: " + strings.Join(empty, ", ")
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := "provider=" + c.cfg.Provider
	if l, ok := c.providerCfg.(Locator); ok && l.Location() != "" {
		details += " location=" + l.Location()
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}
