package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cemint/cemint-insights/logger"
)

// DefaultStopTimeout bounds how long a single component may take to stop.
const DefaultStopTimeout = 10 * time.Second

// Registry starts components in registration order and stops them in
// reverse, so later components may depend on earlier ones.
type Registry struct {
	mu         sync.RWMutex
	components []Component
	names      map[string]struct{}
	// started is the length of the prefix of components that are running.
	started int
	log     *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		names: make(map[string]struct{}),
		log:   log.WithComponent("registry"),
	}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.names[name] = struct{}{}
	r.components = append(r.components, c)
	r.log.Debug("component registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

// StartAll starts the components that are not yet running and stops at the
// first failure, leaving the ones already started for StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ; r.started < len(r.components); r.started++ {
		c := r.components[r.started]
		fields := logger.Fields(logger.FieldComponent, c.Name())
		if err := c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.MergeWithError(fields, err))
			return fmt.Errorf("failed to start %s: %w", c.Name(), err)
		}
		if d, ok := c.(Describable); ok {
			desc := d.Describe()
			fields["type"] = desc.Type
			fields["details"] = desc.Details
		}
		r.log.Info("component started", fields)
	}
	return nil
}

// StopAll stops the running components in reverse order and joins their
// errors. Each Stop gets DefaultStopTimeout.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for ; r.started > 0; r.started-- {
		c := r.components[r.started-1]
		if err := r.stop(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", c.Name(), err))
			r.log.Error("component stop failed", logger.MergeWithError(logger.Fields(logger.FieldComponent, c.Name()), err))
			continue
		}
		r.log.Debug("component stopped", logger.Fields(logger.FieldComponent, c.Name()))
	}
	return errors.Join(errs...)
}

func (r *Registry) stop(ctx context.Context, c Component) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultStopTimeout)
	defer cancel()
	return c.Stop(ctx)
}

// Check polls every component in registration order.
func (r *Registry) Check(ctx context.Context) Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hs := make([]Health, 0, len(r.components))
	for _, c := range r.components {
		hs = append(hs, c.Health(ctx))
	}
	return NewReport(hs)
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Component(nil), r.components...)
}
