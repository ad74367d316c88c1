package runlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/cemint/cemint-insights/component"
	"github.com/cemint/cemint-insights/logger"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component opens the history database on Start and closes it on Stop.
type Component struct {
	cfg Config
	log *logger.Logger

	mu    sync.RWMutex
	db    *DB
	store *Store
}

// NewComponent creates the history component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{cfg: cfg, log: log.WithComponent("history")}
}

// Store returns the run store, or nil before Start.
func (c *Component) Store() *Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

func (c *Component) Name() string { return "history" }

// Start opens and migrates the database.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return nil
	}
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.db = db
	c.store = NewStore(db, c.cfg.Retention)
	return nil
}

// Stop closes the database.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db, c.store = nil, nil
	return err
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()
	if db == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "history database not open"}
	}
	if err := db.Ping(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("ping: %v", err)}
	}
	st := db.Stats()
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: fmt.Sprintf("open=%d in_use=%d", st.OpenConnections, st.InUse)}
}

// Describe returns the one-line startup summary.
func (c *Component) Describe() component.Description {
	details := "dsn=" + c.cfg.DSN
	if c.cfg.Retention > 0 {
		details += fmt.Sprintf(" retention=%d", c.cfg.Retention)
	}
	return component.Description{Name: "History", Type: "database", Details: details}
}
