package runlog

import (
	"fmt"
	"time"

	"github.com/cemint/cemint-insights/validation"
)

// DefaultDSN is the SQLite file used when DSN is unset.
const DefaultDSN = "cemint.db"

// Config is the history block.
type Config struct {
	Enabled bool `mapstructure:"enabled"`
	// DSN is the SQLite database file. ":memory:" keeps history for the
	// life of the process only.
	DSN string `mapstructure:"dsn" validate:"required_if=Enabled true"`
	// MaxOpenConns is 1 unless the database handles concurrent writers.
	MaxOpenConns int `mapstructure:"max_open_conns" validate:"gte=0"`
	// SlowQuery is the duration above which statements are logged as slow.
	SlowQuery time.Duration `mapstructure:"slow_query"`
	// LogLevel is the GORM statement log level.
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=silent error warn info"`
	// Retention keeps only the newest N runs. 0 keeps every run.
	Retention int `mapstructure:"retention" validate:"gte=0"`
}

func (c *Config) ApplyDefaults() {
	if c.DSN == "" {
		c.DSN = DefaultDSN
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 1
	}
	if c.SlowQuery == 0 {
		c.SlowQuery = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks an enabled config.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}
